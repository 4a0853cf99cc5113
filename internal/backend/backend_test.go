package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "uniq/cli/internal/errors"
)

func newTestServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *HTTP) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	jar, err := NewPersistentJar(srv.URL, nil, nil)
	require.NoError(t, err)
	return srv, New(srv.URL+"/", WithJar(jar))
}

func TestMe(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     MeResponse
		wantKind apperrors.Kind
	}{
		{name: "with provider", status: 200, body: `{"email":"a@b.com","provider":"password"}`, want: MeResponse{Email: "a@b.com", Provider: "password"}},
		{name: "without provider", status: 200, body: `{"email":"a@b.com"}`, want: MeResponse{Email: "a@b.com"}},
		{name: "unauthorized", status: 401, body: `{"detail":"Not authenticated"}`, wantKind: apperrors.HTTPError},
		{name: "server error", status: 500, body: ``, wantKind: apperrors.HTTPError},
		{name: "bad json", status: 200, body: `<html>`, wantKind: apperrors.ParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, PathMe, r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := c.Me(context.Background())
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := New(srv.URL)
	srv.Close()

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.NetworkFailure, apperrors.KindOf(err))
}

func TestLoginSendsUsernameAndPassword(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathLogin, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"username": "a@b.com", "password": "pw"}, body)

		_, _ = w.Write([]byte(`{"user":{"email":"a@b.com"}}`))
	})

	got, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "a@b.com", got.User.Email)
}

func TestLoginWithoutUserIsParseError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	_, err := c.Login(context.Background(), "a@b.com", "pw")
	assert.Equal(t, apperrors.ParseError, apperrors.KindOf(err))
}

func TestGoogleSignIn(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   apperrors.Kind
		wantDetail string
	}{
		{name: "accepted", status: 200, body: `{"status":"ok"}`},
		{name: "rejected with detail", status: 401, body: `{"detail":"bad token"}`, wantKind: apperrors.HTTPError, wantDetail: "bad token"},
		{name: "rejected without body", status: 400, body: ``, wantKind: apperrors.HTTPError},
		{name: "rejected with non-string detail", status: 422, body: `{"detail":[{"msg":"x"}]}`, wantKind: apperrors.HTTPError},
		{name: "accepted but empty body", status: 200, body: ``, wantKind: apperrors.ParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "opaque.credential.value", body["credential"])
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.GoogleSignIn(context.Background(), "opaque.credential.value")
			if tt.wantKind == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			if tt.wantKind == apperrors.HTTPError {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.status, se.StatusCode)
				assert.Equal(t, tt.wantDetail, se.Detail)
			}
		})
	}
}

func TestLogoutStatus(t *testing.T) {
	for _, status := range []int{200, 204, 500} {
		_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, PathLogout, r.URL.Path)
			w.WriteHeader(status)
		})
		err := c.Logout(context.Background())
		if status >= 300 {
			assert.Equal(t, apperrors.HTTPError, apperrors.KindOf(err))
		} else {
			assert.NoError(t, err)
		}
	}
}

func TestSessionCookieIsSentBack(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathLogin:
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/", HttpOnly: true})
			_, _ = w.Write([]byte(`{"user":{"email":"a@b.com"}}`))
		case PathMe:
			ck, err := r.Cookie("session")
			if err != nil || ck.Value != "s1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"email":"a@b.com"}`))
		}
	})

	_, err := c.Me(context.Background())
	require.Error(t, err)

	_, err = c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", me.Email)
}

func TestGetVersion(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"1.4.2"}`))
	})
	v, err := c.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", v)
}
