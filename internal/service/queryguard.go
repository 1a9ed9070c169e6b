package service

import (
	"context"
	"sync"
)

// QueryGuard discards stale search-as-you-type results. Each session key
// has at most one current search; starting a new one cancels the previous
// search's context and makes its ticket stale.
type QueryGuard struct {
	mu       sync.Mutex
	next     uint64
	sessions map[string]*guardSession
}

type guardSession struct {
	generation uint64
	cancel     context.CancelFunc
}

// SearchTicket identifies one search started through a QueryGuard.
type SearchTicket struct {
	guard      *QueryGuard
	key        string
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewQueryGuard returns an empty guard.
func NewQueryGuard() *QueryGuard {
	return &QueryGuard{sessions: make(map[string]*guardSession)}
}

// Begin starts a search for key, superseding any search in flight for it.
func (g *QueryGuard) Begin(ctx context.Context, key string) *SearchTicket {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.sessions[key]; ok {
		prev.cancel()
	}

	// Generations are unique across keys and never reused, so a ticket
	// cannot become current again after its session is cleared.
	g.next++
	tctx, cancel := context.WithCancel(ctx)
	g.sessions[key] = &guardSession{generation: g.next, cancel: cancel}

	return &SearchTicket{guard: g, key: key, generation: g.next, ctx: tctx, cancel: cancel}
}

// Context is canceled when a newer search begins for the same key.
func (t *SearchTicket) Context() context.Context {
	return t.ctx
}

// Current reports whether no newer search has begun for the key.
func (t *SearchTicket) Current() bool {
	t.guard.mu.Lock()
	defer t.guard.mu.Unlock()
	s, ok := t.guard.sessions[t.key]
	return ok && s.generation == t.generation
}

// Done releases the ticket. The session entry is dropped when this ticket
// still owns it.
func (t *SearchTicket) Done() {
	t.guard.mu.Lock()
	if s, ok := t.guard.sessions[t.key]; ok && s.generation == t.generation {
		delete(t.guard.sessions, t.key)
	}
	t.guard.mu.Unlock()
	t.cancel()
}

// Sessions returns the number of keys with a search in flight.
func (g *QueryGuard) Sessions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}
