package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: stderrors.New("boom"), want: ""},
		{name: "direct", err: New(ParseError, "bad json"), want: ParseError},
		{name: "wrapped by fmt", err: fmt.Errorf("me: %w", Wrap(NetworkFailure, "GET /auth/me", stderrors.New("dial"))), want: NetworkFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("login: %w", Wrap(LoginFailed, "Login failed", nil))
	assert.True(t, stderrors.Is(err, New(LoginFailed, "")))
	assert.False(t, stderrors.Is(err, New(HTTPError, "")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "login_failed: Login failed", New(LoginFailed, "Login failed").Error())
	assert.Equal(t, "network_failure: POST /auth/logout: refused",
		Wrap(NetworkFailure, "POST /auth/logout", stderrors.New("refused")).Error())
}
