// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"net/http"

	"github.com/pterm/pterm"
)

// Option configures the HTTP client.
type Option func(*HTTP)

// WithJar sets the cookie jar that carries the session cookie.
func WithJar(jar http.CookieJar) Option {
	return func(h *HTTP) { h.client.Jar = jar }
}

// WithHTTPClient replaces the underlying client. The jar set by WithJar is
// applied on top when both are given in that order.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			cp := *c
			h.client = &cp
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(h *HTTP) { h.userAgent = ua }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *pterm.Logger) Option {
	return func(h *HTTP) {
		if l != nil {
			h.log = l
		}
	}
}

// New creates a backend API implementation talking to baseURL.
func New(baseURL string, opts ...Option) *HTTP {
	h := newHTTP(baseURL)
	for _, opt := range opts {
		opt(h)
	}
	return h
}
