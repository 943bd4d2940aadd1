// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/carewatch/internal/triage"
)

// record wraps an alert with the write sequence that last touched it.
// Sequence numbers are assigned under the store lock, so concurrent
// writers to the same id are ordered by call time, not wall clock.
type record struct {
	alert triage.Alert
	seq   uint64
}

// Store holds alerts in memory. Suitable for dev/testing and for the
// no-database deployment mode.
type Store struct {
	mu        sync.RWMutex
	seq       uint64
	alerts    map[string]*record  // alert ID -> record
	bySubject map[string][]string // subject ID -> alert IDs in creation order
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		alerts:    make(map[string]*record),
		bySubject: make(map[string][]string),
	}
}

// Create inserts a copy of the alert. Returns triage.ErrDuplicateID when
// the id is already present.
func (s *Store) Create(_ context.Context, a *triage.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alerts[a.ID]; ok {
		return triage.ErrDuplicateID
	}

	s.seq++
	s.alerts[a.ID] = &record{alert: *a, seq: s.seq}
	s.bySubject[a.SubjectID] = append(s.bySubject[a.SubjectID], a.ID)
	return nil
}

// Get retrieves an alert by id. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.alerts[id]
	if !ok {
		return nil, triage.ErrNotFound
	}
	cp := rec.alert
	return &cp, nil
}

// Update applies mutate to the alert under the store lock and returns the
// updated copy. A mutation error aborts the write: readers never observe a
// partially applied mutation.
func (s *Store) Update(_ context.Context, id string, mutate func(*triage.Alert) error) (*triage.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.alerts[id]
	if !ok {
		return nil, triage.ErrNotFound
	}

	// Mutate a scratch copy so a failed mutation leaves the record intact.
	next := rec.alert
	if err := mutate(&next); err != nil {
		return nil, err
	}

	s.seq++
	rec.alert = next
	rec.seq = s.seq

	cp := rec.alert
	return &cp, nil
}

// ListBySubject returns copies of all alerts for a subject in creation
// order, including resolved ones.
func (s *Store) ListBySubject(_ context.Context, subjectID string) ([]*triage.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bySubject[subjectID]
	out := make([]*triage.Alert, 0, len(ids))
	for _, id := range ids {
		cp := s.alerts[id].alert
		out = append(out, &cp)
	}
	return out, nil
}

// List returns copies of all alerts matching the filter.
func (s *Store) List(_ context.Context, f triage.Filter) ([]*triage.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*triage.Alert
	for _, rec := range s.alerts {
		if !f.Match(&rec.alert) {
			continue
		}
		cp := rec.alert
		out = append(out, &cp)
	}
	return out, nil
}
