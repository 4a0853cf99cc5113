// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"io"
	"net/http"

	apperrors "uniq/cli/internal/errors"
)

// Login posts {username, password} to /auth/login. On success the backend
// sets the session cookie and returns {user: {email}}; a body without a user
// object is a parse_error.
func (h *HTTP) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	resp, err := h.do(ctx, http.MethodPost, PathLogin, body)
	if err != nil {
		return LoginResponse{}, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return LoginResponse{}, statusError(resp, http.MethodPost, PathLogin)
	}

	var out LoginResponse
	if err := decodeJSON(resp, PathLogin, &out); err != nil {
		return LoginResponse{}, err
	}
	if out.User == nil {
		return LoginResponse{}, apperrors.New(apperrors.ParseError, "login response has no user")
	}
	return out, nil
}

// Logout calls POST /auth/logout. The backend is expected to expire the
// session cookie; the jar applies that like any other Set-Cookie.
func (h *HTTP) Logout(ctx context.Context) error {
	resp, err := h.do(ctx, http.MethodPost, PathLogout, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError(resp, http.MethodPost, PathLogout)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// GoogleSignIn posts the identity credential to /auth/google exactly as the
// widget produced it. The success body is required to be JSON but is otherwise ignored.
func (h *HTTP) GoogleSignIn(ctx context.Context, credential string) error {
	body := map[string]string{"credential": credential}
	resp, err := h.do(ctx, http.MethodPost, PathGoogle, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError(resp, http.MethodPost, PathGoogle)
	}

	var ignored any
	return decodeJSON(resp, PathGoogle, &ignored)
}
