package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docchat-io/docchat/internal/domain"
	"github.com/docchat-io/docchat/internal/index"
)

// Registry tracks live sessions by ID. Sessions are isolated from each
// other; the registry only guards the map itself.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session with a fresh ID.
func (r *Registry) Create() *Session {
	now := time.Now().UTC()
	sess := &Session{
		ID:         uuid.NewString(),
		createdAt:  now,
		lastActive: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
	return sess
}

// Get looks up a session by ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Remove unregisters a session and returns it.
func (r *Registry) Remove(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return sess, nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// removeIdle unregisters sessions idle longer than ttl and returns them.
func (r *Registry) removeIdle(ttl time.Duration) []*Session {
	r.mu.Lock()
	candidates := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		candidates = append(candidates, sess)
	}
	r.mu.Unlock()

	cutoff := time.Now().UTC().Add(-ttl)
	var idle []*Session
	for _, sess := range candidates {
		if sess.idleSince().Before(cutoff) {
			idle = append(idle, sess)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := make([]*Session, 0, len(idle))
	for _, sess := range idle {
		if _, ok := r.sessions[sess.ID]; ok {
			delete(r.sessions, sess.ID)
			removed = append(removed, sess)
		}
	}
	return removed
}

// IdleSweeper expires idle sessions and drops their index records.
// It runs as a background task under the jobs worker.
type IdleSweeper struct {
	registry *Registry
	store    index.Store
	ttl      time.Duration
}

func NewIdleSweeper(registry *Registry, store index.Store, ttl time.Duration) *IdleSweeper {
	return &IdleSweeper{registry: registry, store: store, ttl: ttl}
}

// Run removes sessions idle beyond the TTL.
func (s *IdleSweeper) Run(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}

	for _, sess := range s.registry.removeIdle(s.ttl) {
		if err := s.store.Drop(ctx, sess.ID); err != nil {
			log.Printf("sweeper: failed to drop records for session %s: %v", sess.ID, err)
		} else {
			log.Printf("sweeper: expired idle session %s", sess.ID)
		}
	}
	return nil
}
