package triage

import "context"

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	SubjectID  string
	OnlyUnread bool
	OnlyOpen   bool
}

// Match reports whether the alert passes the filter.
func (f Filter) Match(a *Alert) bool {
	if f.SubjectID != "" && a.SubjectID != f.SubjectID {
		return false
	}
	if f.OnlyUnread && a.Read {
		return false
	}
	if f.OnlyOpen && !a.Open() {
		return false
	}
	return true
}

// Store is the persistence interface for alerts. The store is the single
// owner of alert records: mutations go through Update, which must apply
// the mutation atomically per id and order concurrent writers by a
// monotonic sequence number assigned at call time, not wall clock.
type Store interface {
	// Create inserts a new alert. Returns ErrDuplicateID if the id exists.
	Create(ctx context.Context, a *Alert) error

	// Get returns a copy of the alert, or ErrNotFound.
	Get(ctx context.Context, id string) (*Alert, error)

	// Update applies mutate to the alert under the store's per-id write
	// serialization and returns the updated copy. A mutation error aborts
	// the update and is returned unchanged; readers never observe a
	// partially applied mutation.
	Update(ctx context.Context, id string, mutate func(*Alert) error) (*Alert, error)

	// ListBySubject returns copies of all alerts for a subject, including
	// resolved ones (history is retained for audit).
	ListBySubject(ctx context.Context, subjectID string) ([]*Alert, error)

	// List returns copies of all alerts matching the filter, in no
	// particular order; ranking is the caller's concern.
	List(ctx context.Context, f Filter) ([]*Alert, error)
}
