// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package loginview implements the sign-in screen: it shows the Google
// sign-in button, forwards the credential the button produces to the
// backend, refreshes the auth provider and sends the user on to where they
// were going once they are authenticated.
//
// The view is host-agnostic. Rendering, navigation, notifications and the
// identity widget are all interfaces; internal/browserhost implements them
// for a loopback page in the user's browser.
package loginview

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pterm/pterm"

	"uniq/cli/internal/auth"
	"uniq/cli/internal/backend"
	apperrors "uniq/cli/internal/errors"
	"uniq/cli/internal/gsi"
	"uniq/cli/internal/logging"
)

// DefaultLanding is where an authenticated user goes when nobody asked for
// a specific destination.
const DefaultLanding = "/home"

// ButtonTarget is the element the sign-in button renders into.
const ButtonTarget = "google-signin-button"

// User-facing messages.
const (
	MsgScriptLoadFailed = "Failed to load Google Sign-In. Please refresh the page."
	MsgLoginFailed      = "Login failed"
	MsgSignInFailed     = "Failed to sign in with Google"
	MsgSignedIn         = "Successfully logged in with Google!"
)

// Phase is the view's request state.
type Phase int

const (
	// Idle: waiting for a credential. AuthError may hold the last failure.
	Idle Phase = iota
	// Loading: a credential is being verified by the backend.
	Loading
)

func (p Phase) String() string {
	if p == Loading {
		return "loading"
	}
	return "idle"
}

// Location is the part of a route the view cares about.
type Location struct {
	Pathname string `json:"pathname"`
}

// NavigationState is carried by whoever sent the user to the login screen.
type NavigationState struct {
	From *Location `json:"from,omitempty"`
}

// Target is where to go after sign-in.
func (s NavigationState) Target() string {
	if s.From != nil && s.From.Pathname != "" {
		return s.From.Pathname
	}
	return DefaultLanding
}

// Navigator moves the user to another route. replace means the login screen
// must not stay in history.
type Navigator interface {
	Navigate(path string, replace bool)
}

// Notifier shows transient notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// ThemeSetter switches the visual theme.
type ThemeSetter interface {
	SetTheme(theme string)
}

// Renderer receives the view's state whenever it changes.
type Renderer interface {
	Render(s Snapshot)
}

// AuthState is the part of the auth provider the view uses.
type AuthState interface {
	CheckAuth(ctx context.Context) bool
	IsAuthenticated() bool
	Subscribe(fn func(auth.State)) (unsubscribe func())
}

// SignIn verifies an identity credential with the backend.
type SignIn interface {
	GoogleSignIn(ctx context.Context, credential string) error
}

// Snapshot is the view state a host renders.
type Snapshot struct {
	Phase     Phase  `json:"-"`
	Loading   bool   `json:"loading"`
	AuthError string `json:"auth_error,omitempty"`
}

// Deps wires a View to its host.
type Deps struct {
	Auth      AuthState
	Backend   SignIn
	Widget    gsi.Widget
	Loader    *gsi.Loader
	Navigator Navigator
	Notifier  Notifier
	Theme     ThemeSetter
	// Renderer is optional.
	Renderer Renderer
	State    NavigationState
	ClientID string
	Logger   *pterm.Logger
}

// View is one mounted login screen.
type View struct {
	d   Deps
	log *pterm.Logger

	mu        sync.Mutex
	phase     Phase
	authError string

	mounted       atomic.Bool
	widgetStarted atomic.Bool
	unmountOnce   sync.Once
	authMu        sync.Mutex
	wasAuthed     bool

	credentials chan gsi.CredentialResponse
	done        chan struct{}
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

// New creates an unmounted view.
func New(d Deps) *View {
	log := d.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &View{
		d:           d,
		log:         log,
		credentials: make(chan gsi.CredentialResponse, 1),
		done:        make(chan struct{}),
	}
}

// Mount activates the view: light theme, the redirect watch, the credential
// loop and a single widget initialization. Mounting twice is a no-op.
func (v *View) Mount(ctx context.Context) {
	if !v.mounted.CompareAndSwap(false, true) {
		return
	}
	ctx, v.cancel = context.WithCancel(ctx)

	v.d.Theme.SetTheme("light")

	v.unsubscribe = v.d.Auth.Subscribe(func(s auth.State) {
		v.observeAuth(s.IsAuthenticated())
	})
	v.observeAuth(v.d.Auth.IsAuthenticated())

	v.wg.Add(2)
	go func() {
		defer v.wg.Done()
		v.credentialLoop(ctx)
	}()
	go func() {
		defer v.wg.Done()
		v.initWidget(ctx)
	}()
	v.render()
}

// Unmount stops the view and cancels any in-flight request.
func (v *View) Unmount() {
	if !v.mounted.Load() {
		return
	}
	v.unmountOnce.Do(func() {
		close(v.done)
		if v.unsubscribe != nil {
			v.unsubscribe()
		}
		if v.cancel != nil {
			v.cancel()
		}
		v.wg.Wait()
	})
}

// Snapshot returns the current view state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{Phase: v.phase, Loading: v.phase == Loading, AuthError: v.authError}
}

// observeAuth navigates on every transition into the authenticated state,
// including the one seen at mount.
func (v *View) observeAuth(authed bool) {
	v.authMu.Lock()
	transition := authed && !v.wasAuthed
	v.wasAuthed = authed
	v.authMu.Unlock()

	if transition {
		target := v.d.State.Target()
		v.log.Debug("authenticated; leaving login", v.log.Args("target", target))
		v.d.Navigator.Navigate(target, true)
	}
}

func (v *View) initWidget(ctx context.Context) {
	if !v.widgetStarted.CompareAndSwap(false, true) {
		return
	}
	if err := v.d.Loader.Load(ctx, gsi.ScriptURL); err != nil {
		if apperrors.KindOf(err) == apperrors.ScriptLoadFailed {
			v.log.Warn("identity script failed to load", logging.Err(v.log, err))
			v.setAuthError(MsgScriptLoadFailed)
		}
		return
	}
	v.d.Widget.Initialize(gsi.Config{
		ClientID: v.d.ClientID,
		Callback: v.deliver,
	})
	v.d.Widget.RenderButton(ButtonTarget, gsi.DefaultButton)
}

// deliver is the widget callback. It hands the credential to the view's
// loop and drops it once the view is unmounted.
func (v *View) deliver(resp gsi.CredentialResponse) {
	select {
	case v.credentials <- resp:
	case <-v.done:
	}
}

func (v *View) credentialLoop(ctx context.Context) {
	for {
		select {
		case resp := <-v.credentials:
			v.HandleCredential(ctx, resp)
		case <-ctx.Done():
			return
		}
	}
}

// HandleCredential runs one sign-in attempt to completion: Idle -> Loading ->
// Idle, with AuthError set on failure.
func (v *View) HandleCredential(ctx context.Context, resp gsi.CredentialResponse) {
	v.mu.Lock()
	v.phase = Loading
	v.authError = ""
	v.mu.Unlock()
	v.render()

	defer func() {
		v.mu.Lock()
		v.phase = Idle
		v.mu.Unlock()
		v.render()
	}()

	if err := v.d.Backend.GoogleSignIn(ctx, resp.Credential); err != nil {
		if ctx.Err() != nil {
			return
		}
		msg := signInErrorMessage(err)
		v.log.Error("google sign-in failed", logging.Err(v.log, err))
		v.setAuthError(msg)
		v.d.Notifier.Error(msg)
		return
	}

	v.d.Notifier.Success(MsgSignedIn)
	v.d.Auth.CheckAuth(ctx)
}

// signInErrorMessage prefers the server's detail, then a generic rejection
// message, then whatever the failure itself says.
func signInErrorMessage(err error) string {
	var se *backend.StatusError
	if errors.As(err, &se) {
		if se.Detail != "" {
			return se.Detail
		}
		return MsgLoginFailed
	}
	msg := err.Error()
	var e *apperrors.E
	if errors.As(err, &e) && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return MsgSignInFailed
	}
	return logging.Mask(msg)
}

func (v *View) setAuthError(msg string) {
	v.mu.Lock()
	v.authError = msg
	v.mu.Unlock()
	v.render()
}

func (v *View) render() {
	if v.d.Renderer != nil {
		v.d.Renderer.Render(v.Snapshot())
	}
}
