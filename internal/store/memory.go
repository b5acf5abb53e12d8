package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository used by tests and dry runs.
// It applies the same conflict semantics as the PostgreSQL repository.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[memoryKey]Subscription

	// now is a clock seam for tests.
	now func() time.Time
}

type memoryKey struct {
	userID   string
	provider string
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows: make(map[memoryKey]Subscription),
		now:  time.Now,
	}
}

// SetClock overrides the repository clock. Used by tests.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.now = now
}

// Upsert writes subscriptions, preserving CreatedAt of existing rows.
func (r *MemoryRepository) Upsert(_ context.Context, subs []Subscription) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.now()
	for _, s := range subs {
		key := memoryKey{userID: s.UserID, provider: s.Provider}
		row := s
		row.UpdatedAt = ts
		if existing, ok := r.rows[key]; ok {
			row.CreatedAt = existing.CreatedAt
		} else {
			row.CreatedAt = ts
		}
		r.rows[key] = row
	}
	return len(subs), nil
}

// ListByUser returns the user's rows ordered by provider.
func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Subscription
	for key, row := range r.rows {
		if key.userID == userID {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Provider < result[j].Provider
	})
	return result, nil
}

// Get returns the row for a (user, provider) pair, or ErrNotFound.
func (r *MemoryRepository) Get(_ context.Context, userID, provider string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[memoryKey{userID: userID, provider: provider}]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}
