// Package sessions implements the in-memory recognition session store.
// Sessions are ephemeral: a process restart loses whatever was in flight.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
)

type entry struct {
	mu      sync.Mutex
	session domain.RecognitionSession
}

// Store is a lock-guarded map implementation of domain.SessionStore. Each
// session carries its own mutex so updates to distinct sessions never
// serialize against each other; a second concurrent writer to the same
// session gets ConflictErr instead of queueing.
type Store struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: map[uuid.UUID]*entry{}}
}

// Create adds a new session. The id must not already exist.
func (s *Store) Create(_ context.Context, session domain.RecognitionSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.entries[session.ID]; found {
		return domain.NewConflictErr("session " + session.ID.String() + " already exists")
	}
	s.entries[session.ID] = &entry{session: session.Clone()}
	return nil
}

// Get returns a snapshot of the session, or found=false when the id is unknown.
func (s *Store) Get(_ context.Context, id uuid.UUID) (domain.RecognitionSession, bool, error) {
	s.mu.Lock()
	e, found := s.entries[id]
	s.mu.Unlock()
	if !found {
		return domain.RecognitionSession{}, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), true, nil
}

// Update applies fn to the session under its per-session lock. When another
// writer already holds the lock the call fails fast with ConflictErr rather
// than blocking. A failing fn leaves the stored session untouched.
func (s *Store) Update(_ context.Context, id uuid.UUID, fn func(*domain.RecognitionSession) error) (domain.RecognitionSession, error) {
	s.mu.Lock()
	e, found := s.entries[id]
	s.mu.Unlock()
	if !found {
		return domain.RecognitionSession{}, domain.NewNotFoundErr("session " + id.String() + " not found")
	}
	if !e.mu.TryLock() {
		return domain.RecognitionSession{}, domain.NewConflictErr("session " + id.String() + " is locked by another update")
	}
	defer e.mu.Unlock()

	session := e.session.Clone()
	if err := fn(&session); err != nil {
		return domain.RecognitionSession{}, err
	}
	e.session = session
	return session.Clone(), nil
}

// SweepExpired drops sessions untouched since the cutoff. Sessions locked by
// an in-flight update are skipped and picked up on a later sweep.
func (s *Store) SweepExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		expired := e.session.UpdatedAt.Before(cutoff)
		e.mu.Unlock()
		if expired {
			delete(s.entries, id)
			dropped++
		}
	}
	return dropped, nil
}

// InitSessionStore initializes the SessionStore dependency.
type InitSessionStore struct{}

// Initialize registers the SessionStore in the dependency container.
func (i InitSessionStore) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[domain.SessionStore](NewStore())
	return ctx, nil
}
