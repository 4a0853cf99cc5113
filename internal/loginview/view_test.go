package loginview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uniq/cli/internal/auth"
	"uniq/cli/internal/backend"
	apperrors "uniq/cli/internal/errors"
	"uniq/cli/internal/gsi"
)

type fakeWidget struct {
	mu       sync.Mutex
	inits    int
	renders  int
	clientID string
	callback func(gsi.CredentialResponse)
	target   string
	opts     gsi.ButtonOptions
}

func (w *fakeWidget) Initialize(cfg gsi.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inits++
	w.clientID = cfg.ClientID
	w.callback = cfg.Callback
}

func (w *fakeWidget) RenderButton(target string, opts gsi.ButtonOptions) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.renders++
	w.target = target
	w.opts = opts
}

func (w *fakeWidget) ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.callback != nil && w.renders > 0
}

func (w *fakeWidget) sendCredential(cred string) {
	w.mu.Lock()
	cb := w.callback
	w.mu.Unlock()
	cb(gsi.CredentialResponse{Credential: cred})
}

type fakeDocument struct {
	present  atomic.Bool
	inserted atomic.Int32
	fail     bool
}

func (d *fakeDocument) HasScript(string) bool { return d.present.Load() }

func (d *fakeDocument) InsertScript(_ string, onLoad, onError func()) {
	d.inserted.Add(1)
	if d.fail {
		go onError()
		return
	}
	d.present.Store(true)
	go onLoad()
}

type navigation struct {
	path    string
	replace bool
}

type recorder struct {
	mu        sync.Mutex
	navs      []navigation
	successes []string
	errs      []string
	themes    []string
	renders   []Snapshot
}

func (r *recorder) Navigate(path string, replace bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navs = append(r.navs, navigation{path, replace})
}
func (r *recorder) Success(msg string) {
	r.mu.Lock()
	r.successes = append(r.successes, msg)
	r.mu.Unlock()
}
func (r *recorder) Error(msg string)  { r.mu.Lock(); r.errs = append(r.errs, msg); r.mu.Unlock() }
func (r *recorder) SetTheme(t string) { r.mu.Lock(); r.themes = append(r.themes, t); r.mu.Unlock() }
func (r *recorder) Render(s Snapshot) { r.mu.Lock(); r.renders = append(r.renders, s); r.mu.Unlock() }

func (r *recorder) navigations() []navigation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]navigation(nil), r.navs...)
}

func (r *recorder) errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errs...)
}

// fakeBackend is an auth API that issues a session cookie when /auth/google
// accepts a credential.
type fakeBackend struct {
	srv         *httptest.Server
	googleCalls atomic.Int32
	lastCred    atomic.Value

	mu       sync.Mutex
	status   int
	body     string
	signedIn bool
}

func (fb *fakeBackend) respond(status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.status, fb.body = status, body
}

func (fb *fakeBackend) setSignedIn(v bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.signedIn = v
}

func newFakeBackend(t *testing.T, status int, body string, signedIn bool) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{status: status, body: body, signedIn: signedIn}
	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		status, body, signedIn := fb.status, fb.body, fb.signedIn
		fb.mu.Unlock()

		switch r.URL.Path {
		case backend.PathGoogle:
			fb.googleCalls.Add(1)
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			fb.lastCred.Store(req["credential"])
			if status == http.StatusOK {
				http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/", HttpOnly: true})
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		case backend.PathMe:
			if _, err := r.Cookie("session"); err != nil && !signedIn {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"email":"a@b.com"}`))
		}
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

type harness struct {
	view     *View
	provider *auth.Provider
	widget   *fakeWidget
	doc      *fakeDocument
	rec      *recorder
	backend  *fakeBackend
}

func newHarness(t *testing.T, fb *fakeBackend, state NavigationState) *harness {
	t.Helper()
	jar, err := backend.NewPersistentJar(fb.srv.URL, nil, nil)
	require.NoError(t, err)
	api := backend.New(fb.srv.URL, backend.WithJar(jar))
	p := auth.NewProvider(api)
	p.Start(context.Background())

	h := &harness{
		provider: p,
		widget:   &fakeWidget{},
		doc:      &fakeDocument{},
		rec:      &recorder{},
		backend:  fb,
	}
	h.view = New(Deps{
		Auth:      p,
		Backend:   api,
		Widget:    h.widget,
		Loader:    gsi.NewLoader(h.doc),
		Navigator: h.rec,
		Notifier:  h.rec,
		Theme:     h.rec,
		Renderer:  h.rec,
		State:     state,
		ClientID:  "client-123",
	})
	t.Cleanup(h.view.Unmount)
	return h
}

func (h *harness) mountAndWaitForButton(t *testing.T) {
	t.Helper()
	h.view.Mount(context.Background())
	require.Eventually(t, h.widget.ready, 2*time.Second, 5*time.Millisecond)
}

func TestSignInRedirectsToOrigin(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"ok":true}`, false)
	h := newHarness(t, fb, NavigationState{From: &Location{Pathname: "/dash"}})
	h.mountAndWaitForButton(t)
	require.Empty(t, h.rec.navigations())

	h.widget.sendCredential("opaque-credential")

	require.Eventually(t, func() bool { return len(h.rec.navigations()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, navigation{path: "/dash", replace: true}, h.rec.navigations()[0])
	assert.Equal(t, "opaque-credential", fb.lastCred.Load())
	assert.True(t, h.provider.IsAuthenticated())
	assert.Contains(t, h.rec.successes, MsgSignedIn)
	require.Eventually(t, func() bool { return h.view.Snapshot().Phase == Idle }, time.Second, 5*time.Millisecond)
	assert.Empty(t, h.view.Snapshot().AuthError)
}

func TestSignInDefaultsToHome(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`, false)
	h := newHarness(t, fb, NavigationState{})
	h.mountAndWaitForButton(t)

	h.widget.sendCredential("cred")

	require.Eventually(t, func() bool { return len(h.rec.navigations()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "/home", h.rec.navigations()[0].path)
}

func TestAlreadyAuthenticatedRedirectsOnMount(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`, true)
	h := newHarness(t, fb, NavigationState{From: &Location{Pathname: "/notebook"}})

	h.view.Mount(context.Background())

	require.Len(t, h.rec.navigations(), 1)
	assert.Equal(t, navigation{path: "/notebook", replace: true}, h.rec.navigations()[0])
}

func TestRejectedCredential(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "detail", body: `{"detail":"bad token"}`, want: "bad token"},
		{name: "no body", body: ``, want: MsgLoginFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t, http.StatusUnauthorized, tt.body, false)
			h := newHarness(t, fb, NavigationState{})
			h.mountAndWaitForButton(t)

			h.widget.sendCredential("cred")

			require.Eventually(t, func() bool { return len(h.rec.errors()) == 1 }, 2*time.Second, 5*time.Millisecond)
			assert.Equal(t, tt.want, h.rec.errors()[0])
			require.Eventually(t, func() bool { return h.view.Snapshot().Phase == Idle }, time.Second, 5*time.Millisecond)
			assert.Equal(t, tt.want, h.view.Snapshot().AuthError)
			assert.Empty(t, h.rec.navigations())
			assert.False(t, h.provider.IsAuthenticated())
		})
	}
}

func TestRetryAfterRejectionClearsError(t *testing.T) {
	fb := newFakeBackend(t, http.StatusUnauthorized, `{"detail":"bad token"}`, false)
	h := newHarness(t, fb, NavigationState{})
	h.mountAndWaitForButton(t)

	h.widget.sendCredential("first")
	require.Eventually(t, func() bool { return h.view.Snapshot().AuthError == "bad token" }, 2*time.Second, 5*time.Millisecond)

	fb.respond(http.StatusOK, `{}`)
	h.widget.sendCredential("second")
	require.Eventually(t, func() bool { return len(h.rec.navigations()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, h.view.Snapshot().AuthError)
}

func TestMountForcesLightThemeAndInitializesOnce(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`, false)
	h := newHarness(t, fb, NavigationState{})

	h.mountAndWaitForButton(t)
	h.view.Mount(context.Background())

	assert.Equal(t, []string{"light"}, h.rec.themes)
	assert.Equal(t, 1, h.widget.inits)
	assert.Equal(t, "client-123", h.widget.clientID)
	assert.Equal(t, ButtonTarget, h.widget.target)
	assert.Equal(t, gsi.DefaultButton, h.widget.opts)
	assert.Equal(t, int32(1), h.doc.inserted.Load())
}

func TestExistingScriptIsNeverReinserted(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`, false)
	doc := &fakeDocument{}
	doc.present.Store(true)

	for i := 0; i < 3; i++ {
		h := newHarness(t, fb, NavigationState{})
		h.view.d.Loader = gsi.NewLoader(doc)
		h.mountAndWaitForButton(t)
		h.view.Unmount()
		assert.Equal(t, 1, h.widget.inits)
	}
	assert.Zero(t, doc.inserted.Load())
}

func TestScriptLoadFailure(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`, false)
	h := newHarness(t, fb, NavigationState{})
	h.doc.fail = true

	h.view.Mount(context.Background())

	require.Eventually(t, func() bool { return h.view.Snapshot().AuthError != "" }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, MsgScriptLoadFailed, h.view.Snapshot().AuthError)
	assert.Zero(t, h.widget.inits)
	assert.Empty(t, h.rec.errors())
}

func TestUnmountStopsRedirects(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`, false)
	h := newHarness(t, fb, NavigationState{})
	h.mountAndWaitForButton(t)

	h.view.Unmount()
	fb.setSignedIn(true)
	h.provider.CheckAuth(context.Background())

	assert.Empty(t, h.rec.navigations())
}

type stubSignIn struct{ err error }

func (s stubSignIn) GoogleSignIn(context.Context, string) error { return s.err }

type stubAuth struct{ checks atomic.Int32 }

func (a *stubAuth) CheckAuth(context.Context) bool { a.checks.Add(1); return false }
func (a *stubAuth) IsAuthenticated() bool          { return false }
func (a *stubAuth) Subscribe(func(auth.State)) func() {
	return func() {}
}

func TestHandleCredentialNetworkFailure(t *testing.T) {
	rec := &recorder{}
	a := &stubAuth{}
	v := New(Deps{
		Auth:     a,
		Backend:  stubSignIn{err: apperrors.Wrap(apperrors.NetworkFailure, "POST /auth/google", errors.New("connection refused"))},
		Notifier: rec,
		Renderer: rec,
	})

	v.HandleCredential(context.Background(), gsi.CredentialResponse{Credential: "c"})

	assert.Equal(t, "connection refused", v.Snapshot().AuthError)
	assert.Equal(t, []string{"connection refused"}, rec.errors())
	assert.Zero(t, a.checks.Load())
	require.GreaterOrEqual(t, len(rec.renders), 2)
	assert.True(t, rec.renders[0].Loading)
	assert.False(t, rec.renders[len(rec.renders)-1].Loading)
}

func TestSignInErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "detail",
			err:  apperrors.Wrap(apperrors.HTTPError, "x", &backend.StatusError{StatusCode: 401, Detail: "bad token"}),
			want: "bad token",
		},
		{
			name: "status without detail",
			err:  apperrors.Wrap(apperrors.HTTPError, "x", &backend.StatusError{StatusCode: 500}),
			want: MsgLoginFailed,
		},
		{
			name: "parse",
			err:  apperrors.Wrap(apperrors.ParseError, "decode", errors.New("unexpected EOF")),
			want: "unexpected EOF",
		},
		{
			name: "empty",
			err:  errors.New(""),
			want: MsgSignInFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, signInErrorMessage(tt.err))
		})
	}
}

func TestNavigationStateTarget(t *testing.T) {
	assert.Equal(t, "/home", NavigationState{}.Target())
	assert.Equal(t, "/home", NavigationState{From: &Location{}}.Target())
	assert.Equal(t, "/dash", NavigationState{From: &Location{Pathname: "/dash"}}.Target())
}
