package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/net/publicsuffix"

	"uniq/cli/internal/logging"
)

// CookieStore persists the session cookies between CLI invocations.
// keychain.Manager implements it.
type CookieStore interface {
	LoadSessionCookies() ([]byte, error)
	SaveSessionCookies(data []byte) error
	ClearSessionCookies() error
}

// storedCookie is the persisted form of a cookie set by the API host.
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

func (c storedCookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// PersistentJar is an http.CookieJar that mirrors cookies set by the API
// host into a CookieStore, so a session established by `uniq login` is still
// there for the next command. Cookies are treated as opaque.
//
// Session cookies (no Expires) are kept until the backend expires them or
// Clear is called; the CLI has no "browser close" to drop them on.
type PersistentJar struct {
	mu      sync.Mutex
	base    *url.URL
	inner   *cookiejar.Jar
	store   CookieStore
	log     *pterm.Logger
	cookies map[string]storedCookie
	now     func() time.Time
}

var _ http.CookieJar = (*PersistentJar)(nil)

// NewPersistentJar creates a jar for the API at baseURL, restoring any
// cookies previously saved in store. A nil store keeps cookies in memory only.
func NewPersistentJar(baseURL string, store CookieStore, log *pterm.Logger) (*PersistentJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if log == nil {
		log = logging.Discard()
	}
	j := &PersistentJar{
		base:    base,
		store:   store,
		log:     log,
		cookies: map[string]storedCookie{},
		now:     time.Now,
	}
	if j.inner, err = newInnerJar(); err != nil {
		return nil, err
	}
	j.restore()
	return j, nil
}

func newInnerJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

func cookieKey(name, domain, path string) string {
	return strings.ToLower(domain) + ";" + path + ";" + name
}

// restore loads persisted cookies into the in-memory jar. Unreadable data is
// dropped; it is equivalent to being logged out.
func (j *PersistentJar) restore() {
	if j.store == nil {
		return
	}
	data, err := j.store.LoadSessionCookies()
	if err != nil {
		j.log.Debug("cookie store unavailable", logging.Err(j.log, err))
		return
	}
	if len(data) == 0 {
		return
	}
	var saved []storedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		j.log.Warn("discarding unreadable saved session", logging.Err(j.log, err))
		return
	}
	now := j.now()
	var live []*http.Cookie
	for _, c := range saved {
		if c.expired(now) {
			continue
		}
		j.cookies[cookieKey(c.Name, c.Domain, c.Path)] = c
		live = append(live, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	j.inner.SetCookies(j.base, live)
}

// SetCookies implements http.CookieJar.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if !strings.EqualFold(u.Hostname(), j.base.Hostname()) {
		return
	}

	now := j.now()
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		key := cookieKey(c.Name, c.Domain, path)
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || (!expires.IsZero() && !expires.After(now)) {
			delete(j.cookies, key)
			continue
		}
		j.cookies[key] = storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}
	j.persist()
}

// Cookies implements http.CookieJar.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Clear forgets every cookie, in memory and in the store.
func (j *PersistentJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	inner, err := newInnerJar()
	if err != nil {
		return err
	}
	j.inner = inner
	j.cookies = map[string]storedCookie{}
	if j.store == nil {
		return nil
	}
	return j.store.ClearSessionCookies()
}

// persist must be called with j.mu held.
func (j *PersistentJar) persist() {
	if j.store == nil {
		return
	}
	if len(j.cookies) == 0 {
		if err := j.store.ClearSessionCookies(); err != nil {
			j.log.Warn("could not clear saved session", logging.Err(j.log, err))
		}
		return
	}
	out := make([]storedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		out = append(out, c)
	}
	data, err := json.Marshal(out)
	if err != nil {
		j.log.Warn("could not encode session", logging.Err(j.log, err))
		return
	}
	if err := j.store.SaveSessionCookies(data); err != nil {
		j.log.Warn("could not save session", logging.Err(j.log, err))
	}
}
