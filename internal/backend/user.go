package backend

import (
	"context"
	"net/http"
)

// Me calls GET /auth/me. The session cookie in the jar identifies the user.
func (h *HTTP) Me(ctx context.Context) (MeResponse, error) {
	resp, err := h.do(ctx, http.MethodGet, PathMe, nil)
	if err != nil {
		return MeResponse{}, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return MeResponse{}, statusError(resp, http.MethodGet, PathMe)
	}

	var out MeResponse
	if err := decodeJSON(resp, PathMe, &out); err != nil {
		return MeResponse{}, err
	}
	return out, nil
}
