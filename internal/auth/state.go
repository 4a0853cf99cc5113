// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth holds the CLI's single source of truth for "who is logged in".
//
// A Provider is constructed once per command, started once, and injected into
// everything that needs to read or change the current user. The session itself
// lives on the server behind an HTTP-only cookie; the Provider only reflects
// what the backend last said about it.
package auth

import "context"

// ProviderKind names how a user authenticated.
type ProviderKind string

// ProviderPassword is the only kind the backend reports today, and the
// default when /auth/me omits the field.
const ProviderPassword ProviderKind = "password"

// User is the authenticated user. A nil *User means nobody is logged in, or
// that the first session check has not finished yet (see State.Loading).
type User struct {
	Email    string       `json:"email"`
	Provider ProviderKind `json:"provider"`
}

// State is a point-in-time view of the provider.
type State struct {
	User    *User `json:"user"`
	Loading bool  `json:"loading"`
}

// IsAuthenticated is derived, never stored: a user is present.
func (s State) IsAuthenticated() bool { return s.User != nil }

// Service is the capability set the rest of the CLI uses. *Provider implements it.
type Service interface {
	CheckAuth(ctx context.Context) bool
	LoginWithEmail(ctx context.Context, email, password string) error
	Logout(ctx context.Context)
	DevBypassLogin() error

	User() *User
	Loading() bool
	IsAuthenticated() bool
	Snapshot() State
	Subscribe(fn func(State)) (unsubscribe func())
}
