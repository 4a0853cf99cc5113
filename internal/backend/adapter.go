// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the client for the UniQ Labs authentication API.
// It defines the API contract the auth state provider and the login view
// depend on, and an HTTP implementation that carries the session cookie the
// way a browser would with credentials included.
package backend

import "context"

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide fakes for tests.
//
// Failures are *errors.E values tagged network_failure, http_error or
// parse_error; non-2xx answers additionally carry a *StatusError.
type API interface {
	GetVersion(ctx context.Context) (string, error)
	// Me returns the user bound to the current session cookie (GET /auth/me).
	Me(ctx context.Context) (MeResponse, error)
	// Login exchanges email/password for a session cookie (POST /auth/login).
	Login(ctx context.Context, username, password string) (LoginResponse, error)
	// Logout asks the backend to end the session (POST /auth/logout).
	Logout(ctx context.Context) error
	// GoogleSignIn forwards an identity credential verbatim (POST /auth/google).
	GoogleSignIn(ctx context.Context, credential string) error
}

// Paths of the authentication API, relative to the base URL.
const (
	PathMe      = "/auth/me"
	PathLogin   = "/auth/login"
	PathLogout  = "/auth/logout"
	PathGoogle  = "/auth/google"
	PathVersion = "/api/version"
)

// MeResponse is the body of GET /auth/me.
type MeResponse struct {
	Email    string `json:"email"`
	Provider string `json:"provider,omitempty"`
}

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	User *LoginUser `json:"user"`
}

// LoginUser is the user object nested in LoginResponse.
type LoginUser struct {
	Email string `json:"email"`
}
