package tickets

import (
	"sync"
	"time"

	"github.com/farellandr/namitix/internal/clock"
	"github.com/google/uuid"
)

const DefaultSessionTTL = 24 * time.Hour

type registryEntry struct {
	session   *Session
	expiresAt time.Time
}

// Registry holds the live sessions of the process. A session expires
// together with its token; expired entries are dropped on lookup and
// swept whenever a new session is created.
type Registry struct {
	clock clock.Clock
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]registryEntry
}

func NewRegistry(clk clock.Clock, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		clock:    clk,
		ttl:      ttl,
		sessions: make(map[string]registryEntry),
	}
}

func (r *Registry) TTL() time.Duration {
	return r.ttl
}

func (r *Registry) Create() (*Session, time.Time) {
	s := NewSession(uuid.New().String())
	now := r.clock.Now()
	expiresAt := now.Add(r.ttl)

	r.mu.Lock()
	r.sweepLocked(now)
	r.sessions[s.ID()] = registryEntry{session: s, expiresAt: expiresAt}
	r.mu.Unlock()
	return s, expiresAt
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if !r.clock.Now().Before(e.expiresAt) {
		delete(r.sessions, id)
		return nil, false
	}
	return e.session, true
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweepLocked(now time.Time) {
	for id, e := range r.sessions {
		if !now.Before(e.expiresAt) {
			delete(r.sessions, id)
		}
	}
}
