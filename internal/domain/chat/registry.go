package chat

import (
	"sync"
	"time"

	"github.com/kailas-cloud/tribe/internal/domain/tweaks"
)

// Registry owns one Session per connected client.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	base     func() tweaks.Map
}

// NewRegistry creates a registry. base builds the parameter map for new sessions.
func NewRegistry(base func() tweaks.Map) *Registry {
	return &Registry{sessions: make(map[string]*Session), base: base}
}

// Open returns the session for id, creating it on first connection.
func (r *Registry) Open(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.touch()
		return s
	}
	var base tweaks.Map
	if r.base != nil {
		base = r.base()
	}
	s := NewSession(id, base)
	r.sessions[id] = s
	return s
}

// Get returns an existing session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Drop tears down a session.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than idle and returns how many were removed.
func (r *Registry) Sweep(now time.Time, idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.LastSeen()) > idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
