package verification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemCodeRepository implements CodeRepository with an in-memory map. It is
// used for tests and local development without a database. The same
// single-use and time-window semantics as the postgres repository apply; the
// repository's clock can be swapped out in tests.
type InMemCodeRepository struct {
	mutex   sync.Mutex
	records map[uuid.UUID]*CodeRecord
	now     func() time.Time
}

// NewInMemCodeRepository creates a new in-memory code repository
func NewInMemCodeRepository() *InMemCodeRepository {
	return &InMemCodeRepository{
		records: make(map[uuid.UUID]*CodeRecord),
		now:     time.Now,
	}
}

// Insert persists a new code record
func (r *InMemCodeRepository) Insert(ctx context.Context, id uuid.UUID, email, code string) (*CodeRecord, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rec := &CodeRecord{
		ID:        id,
		Email:     email,
		Code:      code,
		CreatedAt: r.now().UTC(),
		IsUsed:    false,
	}
	r.records[id] = rec

	recCopy := *rec
	return &recCopy, nil
}

// FindRedeemable returns the newest matching unused record inside the validity window
func (r *InMemCodeRepository) FindRedeemable(ctx context.Context, email, code string, validityWindow time.Duration) (*CodeRecord, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	cutoff := r.now().UTC().Add(-validityWindow)

	var found *CodeRecord
	for _, rec := range r.records {
		if rec.Email != email || rec.Code != code || rec.IsUsed {
			continue
		}
		if !rec.CreatedAt.After(cutoff) {
			continue
		}
		if found == nil || rec.CreatedAt.After(found.CreatedAt) {
			found = rec
		}
	}

	if found == nil {
		return nil, nil
	}

	foundCopy := *found
	return &foundCopy, nil
}

// MarkUsed flips is_used under the repository lock, reporting whether this
// call performed the transition
func (r *InMemCodeRepository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rec, exists := r.records[id]
	if !exists || rec.IsUsed {
		return false, nil
	}

	rec.IsUsed = true
	return true, nil
}

// PurgeExpired removes records older than the retention window
func (r *InMemCodeRepository) PurgeExpired(ctx context.Context, retentionWindow time.Duration) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	cutoff := r.now().UTC().Add(-retentionWindow)

	var purged int64
	for id, rec := range r.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(r.records, id)
			purged++
		}
	}

	return purged, nil
}
