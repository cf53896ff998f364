// Package refresh controls when report data must be re-fetched. Writes bump
// a per-company version; fetches carry the version they started under and
// a newer fetch for the same view cancels the older one.
package refresh

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSuperseded is the cancel cause of a fetch replaced by a newer one.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrInvalidated is the cancel cause of a fetch whose data changed underneath it.
	ErrInvalidated = errors.New("data changed during request")
)

// Scope identifies one view of one company's data.
type Scope struct {
	CompanyID string
	View      string
}

func (s Scope) String() string {
	if s.View == "" {
		return s.CompanyID
	}
	return s.CompanyID + "/" + s.View
}

// Token is the version a fetch started under.
type Token struct {
	Scope   Scope
	Version uint64
	seq     uint64
}

type flight struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

// Tracker hands out version tokens and cancels stale fetches.
type Tracker struct {
	mu       sync.Mutex
	seq      uint64
	versions map[string]uint64
	latest   map[Scope]uint64
	inflight map[Scope]*flight
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		versions: make(map[string]uint64),
		latest:   make(map[Scope]uint64),
		inflight: make(map[Scope]*flight),
	}
}

// Begin starts a fetch for scope. Any in-flight fetch for the same scope is
// cancelled with ErrSuperseded. Callers must call done when finished.
func (t *Tracker) Begin(ctx context.Context, scope Scope) (context.Context, Token, func()) {
	fctx, cancel := context.WithCancelCause(ctx)

	t.mu.Lock()
	if prev, ok := t.inflight[scope]; ok {
		prev.cancel(ErrSuperseded)
	}
	t.seq++
	seq := t.seq
	t.inflight[scope] = &flight{seq: seq, cancel: cancel}
	t.latest[scope] = seq
	token := Token{Scope: scope, Version: t.versions[scope.CompanyID], seq: seq}
	t.mu.Unlock()

	done := func() {
		t.mu.Lock()
		if f, ok := t.inflight[scope]; ok && f.seq == seq {
			delete(t.inflight, scope)
		}
		t.mu.Unlock()
		cancel(nil)
	}
	return fctx, token, done
}

// Invalidate bumps the company's version and cancels its in-flight fetches.
func (t *Tracker) Invalidate(companyID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.versions[companyID]++
	for scope, f := range t.inflight {
		if scope.CompanyID == companyID {
			f.cancel(ErrInvalidated)
			delete(t.inflight, scope)
		}
	}
	return t.versions[companyID]
}

// Version returns the company's current version.
func (t *Tracker) Version(companyID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.versions[companyID]
}

// Valid reports whether a result computed under token may still be used:
// nothing was written since, and no newer fetch for the scope started.
func (t *Tracker) Valid(token Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.versions[token.Scope.CompanyID] == token.Version && t.latest[token.Scope] == token.seq
}
