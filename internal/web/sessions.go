package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobtrackr/importer/internal/engine"
)

// sessionRegistry tracks live import sessions by id. Entries expire
// after the configured TTL; expired entries are pruned lazily on every
// access so no janitor goroutine is needed.
type sessionRegistry struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[uuid.UUID]*sessionEntry

	now func() time.Time // test hook
}

type sessionEntry struct {
	session  *engine.Session
	lastSeen time.Time
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &sessionRegistry{
		ttl:      ttl,
		sessions: make(map[uuid.UUID]*sessionEntry),
		now:      time.Now,
	}
}

// Put registers a session and returns its new id.
func (r *sessionRegistry) Put(s *engine.Session) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	id := uuid.New()
	r.sessions[id] = &sessionEntry{session: s, lastSeen: r.now()}
	return id
}

// Get returns the session for id, refreshing its expiry.
func (r *sessionRegistry) Get(id uuid.UUID) (*engine.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = r.now()
	return entry.session, true
}

// Delete removes a session, typically after cancel or completion.
func (r *sessionRegistry) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *sessionRegistry) pruneLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, entry := range r.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
