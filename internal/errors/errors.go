// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the backend client can produce is tagged with a machine-readable
// Kind so that callers can decide how to present it (collapse to "logged out",
// surface a generic message, or show the server-provided detail) without
// matching on error strings.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NetworkFailure indicates the request never produced an HTTP response.
	NetworkFailure Kind = "network_failure"
	// HTTPError indicates the server answered with a non-2xx status.
	HTTPError Kind = "http_error"
	// ParseError indicates the response body was not the expected JSON.
	ParseError Kind = "parse_error"
	// LoginFailed is the generic email/password login failure.
	LoginFailed Kind = "login_failed"
	// ScriptLoadFailed indicates the identity widget script could not be loaded.
	ScriptLoadFailed Kind = "script_load_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Is matches another *E with the same Kind, so sentinel values like
// New(LoginFailed, "") work with errors.Is.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
