// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/pterm/pterm"

	"uniq/cli/internal/backend"
	apperrors "uniq/cli/internal/errors"
	"uniq/cli/internal/logging"
)

// ErrLoginFailed is the generic email/password failure. It deliberately
// carries no server detail; compare with errors.Is.
var ErrLoginFailed = apperrors.New(apperrors.LoginFailed, "Login failed")

// Provider owns the current user and the startup loading flag.
//
// Operations are not serialized against each other: if LoginWithEmail and
// CheckAuth overlap, whichever finishes last decides the user. The mutex only
// protects the fields and is never held across a network call.
type Provider struct {
	api backend.API
	log *pterm.Logger

	mu      sync.RWMutex
	user    *User
	loading bool

	startOnce sync.Once
	ready     chan struct{}

	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

var _ Service = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(l *pterm.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProvider returns a provider in the loading state with no user.
func NewProvider(api backend.API, opts ...Option) *Provider {
	p := &Provider{
		api:     api,
		log:     logging.Discard(),
		loading: true,
		ready:   make(chan struct{}),
		subs:    map[int]func(State){},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start performs the initial session check exactly once, then clears the
// loading flag whatever the outcome. Later calls return immediately.
// It blocks until the check completes; use Ready to wait from elsewhere.
func (p *Provider) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.CheckAuth(ctx)

		p.mu.Lock()
		p.loading = false
		snap := p.snapshotLocked()
		p.mu.Unlock()

		close(p.ready)
		p.notify(snap)
	})
}

// Ready is closed once the initial session check has finished.
func (p *Provider) Ready() <-chan struct{} { return p.ready }

// CheckAuth asks the backend who owns the current session. Any failure
// (non-2xx, transport error, unreadable body) means "not authenticated":
// the user is cleared and false is returned. It never reports an error.
func (p *Provider) CheckAuth(ctx context.Context) bool {
	me, err := p.api.Me(ctx)
	if err != nil {
		p.log.Debug("session check failed", p.log.Args("kind", string(apperrors.KindOf(err))), logging.Err(p.log, err))
		p.setUser(nil)
		return false
	}
	provider := ProviderKind(me.Provider)
	if provider == "" {
		provider = ProviderPassword
	}
	p.setUser(&User{Email: me.Email, Provider: provider})
	return true
}

// LoginWithEmail signs in with email and password. A rejected login returns
// ErrLoginFailed without any server-provided detail; transport and decoding
// failures are returned as they are. The user is only set on success.
func (p *Provider) LoginWithEmail(ctx context.Context, email, password string) error {
	resp, err := p.api.Login(ctx, email, password)
	if err != nil {
		p.log.Debug("email login failed", logging.Err(p.log, err))
		if apperrors.KindOf(err) == apperrors.HTTPError {
			return ErrLoginFailed
		}
		return err
	}
	p.setUser(&User{Email: resp.User.Email, Provider: ProviderPassword})
	return nil
}

// Logout asks the backend to end the session and clears the user no matter
// how that request went.
func (p *Provider) Logout(ctx context.Context) {
	if err := p.api.Logout(ctx); err != nil {
		p.log.Debug("remote logout failed; clearing local user anyway", logging.Err(p.log, err))
	}
	p.setUser(nil)
}

// ErrDevBypassDisabled is returned by DevBypassLogin in builds without the dev tag.
var ErrDevBypassDisabled = errors.New("dev bypass login is not available in this build")

// DevBypassEmail is the identity DevBypassLogin installs.
const DevBypassEmail = "dev@bypass.local"

// DevBypassLogin installs a hardcoded user without contacting the backend.
// It only works in binaries built with -tags dev.
func (p *Provider) DevBypassLogin() error {
	if !devBypassEnabled {
		return ErrDevBypassDisabled
	}
	p.devBypass()
	return nil
}

func (p *Provider) devBypass() {
	p.log.Warn("authentication bypassed", p.log.Args("email", DevBypassEmail))
	p.setUser(&User{Email: DevBypassEmail, Provider: ProviderPassword})
}

// User returns a copy of the current user, or nil.
func (p *Provider) User() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyUser(p.user)
}

// Loading reports whether the initial session check is still running.
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// IsAuthenticated reports whether a user is present.
func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user != nil
}

// Snapshot returns the current state.
func (p *Provider) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// Subscribe registers fn to be called with the new state after every change.
// Calls happen on the goroutine that made the change, outside any lock.
func (p *Provider) Subscribe(fn func(State)) (unsubscribe func()) {
	p.subsMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.subsMu.Lock()
			delete(p.subs, id)
			p.subsMu.Unlock()
		})
	}
}

func (p *Provider) setUser(u *User) {
	p.mu.Lock()
	p.user = copyUser(u)
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
}

func (p *Provider) snapshotLocked() State {
	return State{User: copyUser(p.user), Loading: p.loading}
}

func (p *Provider) notify(s State) {
	p.subsMu.Lock()
	fns := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subsMu.Unlock()

	for _, fn := range fns {
		fn(State{User: copyUser(s.User), Loading: s.Loading})
	}
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
