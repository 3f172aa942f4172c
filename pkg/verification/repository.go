package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CodeRecord is the sole persisted entity: one issued verification code.
type CodeRecord struct {
	ID        uuid.UUID
	Email     string
	Code      string
	CreatedAt time.Time
	IsUsed    bool
}

// CodeRepository is the durable storage collaborator for verification codes.
//
// MarkUsed must be an atomic conditional update at the storage layer, not a
// read followed by a write: two near-simultaneous redemptions of the same
// record race on is_used, and exactly one of them may win.
type CodeRepository interface {
	// Insert persists a new record with IsUsed = false. CreatedAt is stamped
	// by the repository's own clock, not the caller's.
	Insert(ctx context.Context, id uuid.UUID, email, code string) (*CodeRecord, error)

	// FindRedeemable returns the record matching email and code exactly, still
	// unused and created within the validity window. A nil record with a nil
	// error means no match; callers cannot tell which predicate failed.
	FindRedeemable(ctx context.Context, email, code string, validityWindow time.Duration) (*CodeRecord, error)

	// MarkUsed flips is_used to true for the record with the given id, only if
	// it is still false. Returns whether the transition took effect.
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)

	// PurgeExpired deletes every record older than the retention window,
	// used or not, and returns the number removed.
	PurgeExpired(ctx context.Context, retentionWindow time.Duration) (int64, error)
}
