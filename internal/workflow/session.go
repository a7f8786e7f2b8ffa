package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/restockhq/restock-backend/internal/catalog"
	"github.com/restockhq/restock-backend/internal/reconciliation"
	"github.com/restockhq/restock-backend/pkg/enums"
)

// Session is one operator's in-flight stock count. All mutations go through
// the orchestrator, which holds the session lock, so edits apply in the
// order they were issued.
type Session struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	UserID     uuid.UUID

	Step    enums.CountSessionStep
	Filters catalog.ListFilters
	Notes   *string

	Sheet *reconciliation.Sheet
	// OrderID sticks around once a draft has been written so a failed
	// confirm can be retried without re-saving.
	OrderID *uuid.UUID

	// scope identity of the filters at the time a count load was started;
	// used to discard stale fetches
	fingerprint string

	CreatedAt time.Time
	UpdatedAt time.Time

	mu sync.Mutex
}

func (s *Session) lock()   { s.mu.Lock() }
func (s *Session) unlock() { s.mu.Unlock() }

func scopeFingerprint(filters catalog.ListFilters) string {
	fp := "supplier:"
	if filters.SupplierID != nil {
		fp += filters.SupplierID.String()
	}
	fp += "|category:"
	if filters.CategoryID != nil {
		fp += filters.CategoryID.String()
	}
	return fp
}

// Store holds live sessions in memory. Sessions expire after the configured
// TTL measured from their last touch.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[uuid.UUID]*Session
	now      func() time.Time
}

// NewStore builds an empty session store.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: map[uuid.UUID]*Session{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Put registers the session.
func (s *Store) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.sessions[session.ID] = session
}

// Get returns the live session, refreshing its TTL.
func (s *Store) Get(id uuid.UUID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	session.UpdatedAt = s.now()
	return session, true
}

// Delete drops the session.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep drops expired sessions and reports how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.sessions)
	s.pruneLocked()
	return before - len(s.sessions)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.sessions)
}

func (s *Store) pruneLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
