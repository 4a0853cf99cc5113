package gsi

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	apperrors "uniq/cli/internal/errors"
)

// LoadState is the lifecycle of one script URL.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Ready
	Failed
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader inserts scripts into a Document at most once per URL.
//
// Concurrent Load calls for the same URL share a single insertion. A script
// already present in the document counts as loaded without being inserted
// again. A failed load may be retried by a later Load.
type Loader struct {
	doc   Document
	group singleflight.Group

	mu     sync.Mutex
	states map[string]LoadState
}

// NewLoader returns a loader for doc.
func NewLoader(doc Document) *Loader {
	return &Loader{doc: doc, states: map[string]LoadState{}}
}

// State reports the current state of src.
func (l *Loader) State(src string) LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[src]
}

func (l *Loader) set(src string, s LoadState) {
	l.mu.Lock()
	l.states[src] = s
	l.mu.Unlock()
}

// Load makes sure src is loaded. It returns nil once the script is ready and
// a script_load_failed error if the document reports a load error. If ctx
// ends first, Load returns ctx.Err(); the load itself keeps going, its
// outcome is still recorded, and other callers waiting on it are unaffected.
func (l *Loader) Load(ctx context.Context, src string) error {
	if l.State(src) == Ready {
		return nil
	}

	ch := l.group.DoChan(src, func() (any, error) {
		if l.State(src) == Ready {
			return nil, nil
		}
		if l.doc.HasScript(src) {
			l.set(src, Ready)
			return nil, nil
		}

		l.set(src, Loading)
		done := make(chan LoadState, 1)
		var once sync.Once
		finish := func(s LoadState) {
			once.Do(func() {
				l.set(src, s)
				done <- s
			})
		}
		l.doc.InsertScript(src, func() { finish(Ready) }, func() { finish(Failed) })

		// Shared by every caller: only the document decides the outcome.
		if s := <-done; s == Failed {
			return nil, apperrors.New(apperrors.ScriptLoadFailed, src)
		}
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
