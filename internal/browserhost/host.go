// Copyright (c) 2026 UniQ Labs
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package browserhost serves the login view to the user's own browser.
//
// The CLI listens on a loopback port and the page it serves keeps a
// websocket open back to it. The view drives the page with commands (load
// the identity script, render the button, show a toast, navigate) and the
// page reports back what happened (script loaded, credential issued).
// Commands that shape the page are journaled so a tab opened late, or
// reloaded, ends up in the same state. Widget commands reach a page only
// after that page reports its own copy of the identity script as loaded.
package browserhost

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"

	"uniq/cli/internal/gsi"
	"uniq/cli/internal/logging"
	"uniq/cli/internal/loginview"
)

const (
	writeWait    = 5 * time.Second
	maxEventSize = 64 << 10
)

var (
	_ gsi.Document          = (*Host)(nil)
	_ gsi.Widget            = (*Host)(nil)
	_ loginview.Navigator   = (*Host)(nil)
	_ loginview.Notifier    = (*Host)(nil)
	_ loginview.ThemeSetter = (*Host)(nil)
	_ loginview.Renderer    = (*Host)(nil)
)

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(l *pterm.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// WithEcho mirrors every toast to n, typically the terminal.
func WithEcho(n loginview.Notifier) Option {
	return func(h *Host) { h.echo = n }
}

type client struct {
	conn *websocket.Conn
	wmu  sync.Mutex

	// Guarded by Host.mu.
	scriptLoaded bool
	held         [][]byte
}

func (c *client) send(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// entry is a journaled command. widget entries need the page's identity
// script.
type entry struct {
	widget bool
	data   []byte
}

func isWidgetCommand(typ string) bool {
	return typ == CmdInitialize || typ == CmdRenderButton
}

type waiters struct {
	onLoad  []func()
	onError []func()
}

// Host is a loopback web page standing in for the browser document, the
// identity widget and the app shell around the login view.
type Host struct {
	log      *pterm.Logger
	echo     loginview.Notifier
	token    string
	router   chi.Router
	upgrader websocket.Upgrader

	mu       sync.Mutex
	baseURL  string
	journal  []entry
	state    []byte
	clients  map[*client]struct{}
	loaded   map[string]bool
	pending  map[string]*waiters
	callback func(gsi.CredentialResponse)

	done     chan string
	doneOnce sync.Once

	finished     chan struct{}
	finishedOnce sync.Once

	srv *http.Server
}

// New creates a host. It does not listen until Start.
func New(opts ...Option) (*Host, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate page token: %w", err)
	}
	h := &Host{
		log:      logging.Discard(),
		token:    token,
		clients:  map[*client]struct{}{},
		loaded:   map[string]bool{},
		pending:  map[string]*waiters{},
		done:     make(chan string, 1),
		finished: make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sameOrigin,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.router = h.routes()
	return h, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// sameOrigin accepts connections from the page itself. Non-browser clients
// send no Origin.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

func (h *Host) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(h.requireToken)
	r.Get("/", h.servePage)
	r.Get("/done", h.serveDone)
	r.Get("/ws", h.serveWS)
	return r
}

// requireToken hides every route from anything that did not get the URL
// from this process.
func (h *Host) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.URL.Query().Get("s")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the routes without a listener.
func (h *Host) Handler() http.Handler { return h.router }

// Token is the secret query parameter every route requires.
func (h *Host) Token() string { return h.token }

// Start listens on a random loopback port.
func (h *Host) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen on loopback: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	h.mu.Lock()
	h.baseURL = fmt.Sprintf("http://localhost:%d", port)
	h.mu.Unlock()

	h.srv = &http.Server{
		Handler:           h.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.Error("login page server stopped", logging.Err(h.log, err))
		}
	}()
	h.log.Debug("login page listening", h.log.Args("port", port))
	return nil
}

// SetBaseURL overrides the address used to build page links, for hosts
// served by someone else's listener.
func (h *Host) SetBaseURL(u string) {
	h.mu.Lock()
	h.baseURL = u
	h.mu.Unlock()
}

// URL is the address to open in a browser.
func (h *Host) URL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.baseURL + "/?s=" + h.token
}

// Close disconnects every page and stops the listener.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	for c := range h.clients {
		_ = c.conn.Close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
	if h.srv == nil {
		return nil
	}
	return h.srv.Shutdown(ctx)
}

// Done yields the navigation target once the view navigates away.
func (h *Host) Done() <-chan string { return h.done }

// Finished is closed once a page has loaded the confirmation screen, after
// which the listener is no longer needed.
func (h *Host) Finished() <-chan struct{} { return h.finished }

// ConnectedPages reports how many pages hold a websocket.
func (h *Host) ConnectedPages() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Host) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", logging.Err(h.log, err))
		return
	}
	conn.SetReadLimit(maxEventSize)
	c := &client{conn: conn}

	// Replay under the lock so no live command can overtake the journal.
	h.mu.Lock()
	replay := append([]entry(nil), h.journal...)
	if h.state != nil {
		replay = append(replay, entry{data: h.state})
	}
	for _, e := range replay {
		if err := h.deliverLocked(c, e); err != nil {
			h.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("login page connected", h.log.Args("replayed", len(replay)))

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			h.log.Warn("ignoring malformed page event", logging.Err(h.log, err))
			continue
		}
		h.dispatch(c, ev)
	}
}

// deliverLocked sends e to c now, or holds it until c has the identity
// script. Callers hold h.mu.
func (h *Host) deliverLocked(c *client, e entry) error {
	if e.widget && !c.scriptLoaded {
		c.held = append(c.held, e.data)
		return nil
	}
	return c.send(e.data)
}

// releaseLocked sends what c was holding back. Callers hold h.mu.
func (h *Host) releaseLocked(c *client) {
	c.scriptLoaded = true
	held := c.held
	c.held = nil
	for _, data := range held {
		if err := c.send(data); err != nil {
			h.log.Debug("dropping login page", logging.Err(h.log, err))
			delete(h.clients, c)
			_ = c.conn.Close()
			return
		}
	}
}

func (h *Host) dispatch(c *client, ev Event) {
	switch ev.Type {
	case EvtScriptLoad, EvtScriptError:
		h.mu.Lock()
		if ev.Type == EvtScriptLoad {
			h.loaded[ev.Src] = true
			if ev.Src == gsi.ScriptURL {
				h.releaseLocked(c)
			}
		}
		w := h.pending[ev.Src]
		delete(h.pending, ev.Src)
		h.mu.Unlock()
		if w == nil {
			return
		}
		fns := w.onLoad
		if ev.Type == EvtScriptError {
			fns = w.onError
		}
		for _, fn := range fns {
			fn()
		}
	case EvtCredential:
		h.mu.Lock()
		cb := h.callback
		h.mu.Unlock()
		if cb == nil {
			h.log.Warn("credential arrived before the widget was initialized")
			return
		}
		cb(gsi.CredentialResponse{Credential: ev.Credential, SelectBy: ev.SelectBy})
	default:
		h.log.Debug("ignoring page event", h.log.Args("type", ev.Type))
	}
}

// emit sends cmd to every connected page. Journaled commands are also
// replayed to pages that connect later.
func (h *Host) emit(cmd Command, journal bool) {
	data, err := json.Marshal(cmd)
	if err != nil {
		h.log.Error("encode page command", logging.Err(h.log, err))
		return
	}
	e := entry{widget: isWidgetCommand(cmd.Type), data: data}
	h.mu.Lock()
	defer h.mu.Unlock()
	if journal {
		h.journal = append(h.journal, e)
	}
	if cmd.Type == CmdState {
		h.state = data
	}
	for c := range h.clients {
		if err := h.deliverLocked(c, e); err != nil {
			h.log.Debug("dropping login page", logging.Err(h.log, err))
			delete(h.clients, c)
			_ = c.conn.Close()
		}
	}
}

// HasScript implements gsi.Document. Only scripts a page has reported as
// loaded count.
func (h *Host) HasScript(src string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded[src]
}

// InsertScript implements gsi.Document.
func (h *Host) InsertScript(src string, onLoad, onError func()) {
	h.mu.Lock()
	w := h.pending[src]
	if w == nil {
		w = &waiters{}
		h.pending[src] = w
	}
	w.onLoad = append(w.onLoad, onLoad)
	w.onError = append(w.onError, onError)
	h.mu.Unlock()

	h.emit(Command{Type: CmdInsertScript, Src: src}, true)
}

// Initialize implements gsi.Widget.
func (h *Host) Initialize(cfg gsi.Config) {
	h.mu.Lock()
	h.callback = cfg.Callback
	h.mu.Unlock()
	h.emit(Command{Type: CmdInitialize, ClientID: cfg.ClientID}, true)
}

// RenderButton implements gsi.Widget.
func (h *Host) RenderButton(target string, opts gsi.ButtonOptions) {
	h.emit(Command{Type: CmdRenderButton, Target: target, Options: &opts}, true)
}

// Success implements loginview.Notifier.
func (h *Host) Success(msg string) {
	if h.echo != nil {
		h.echo.Success(msg)
	}
	h.emit(Command{Type: CmdToast, Level: "success", Message: msg}, false)
}

// Error implements loginview.Notifier.
func (h *Host) Error(msg string) {
	if h.echo != nil {
		h.echo.Error(msg)
	}
	h.emit(Command{Type: CmdToast, Level: "error", Message: msg}, false)
}

// SetTheme implements loginview.ThemeSetter.
func (h *Host) SetTheme(theme string) {
	h.emit(Command{Type: CmdTheme, Theme: theme}, true)
}

// Render implements loginview.Renderer. Only the latest state is replayed.
func (h *Host) Render(s loginview.Snapshot) {
	h.emit(Command{Type: CmdState, State: &s}, false)
}

// Navigate implements loginview.Navigator. The page moves to a confirmation
// screen naming path, and Done yields path.
func (h *Host) Navigate(path string, replace bool) {
	h.mu.Lock()
	doneURL := h.baseURL + "/done?s=" + h.token + "&to=" + url.QueryEscape(path)
	h.mu.Unlock()

	h.emit(Command{Type: CmdNavigate, Path: path, URL: doneURL, Replace: replace}, true)
	h.doneOnce.Do(func() { h.done <- path })
}
