package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "uniq/cli/internal/errors"
)

// maxErrorBody bounds how much of an error response is read looking for detail.
const maxErrorBody = 64 << 10

// StatusError describes a non-2xx answer from the API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the body's "detail" string when the server sent one.
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// statusError consumes resp.Body and returns an http_error wrapping a
// *StatusError. A body that is not a JSON object, or has no string detail,
// simply leaves Detail empty.
func statusError(resp *http.Response, method, path string) error {
	se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(b, &body); err == nil {
		if s, ok := body.Detail.(string); ok {
			se.Detail = s
		}
	}
	return apperrors.Wrap(apperrors.HTTPError, method+" "+path, se)
}
