package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCodeRepository implements CodeRepository on a pgx connection pool.
// All time predicates are evaluated against the database clock so that
// issuance and redemption agree on record age regardless of caller clocks.
type PostgresCodeRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCodeRepository creates a new postgres-backed code repository
func NewPostgresCodeRepository(db *pgxpool.Pool) *PostgresCodeRepository {
	return &PostgresCodeRepository{db: db}
}

// CreateSchema creates the verification_codes table if it does not exist yet
func (r *PostgresCodeRepository) CreateSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS verification_codes (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			code VARCHAR(10) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT (NOW() AT TIME ZONE 'UTC'),
			is_used BOOLEAN NOT NULL DEFAULT FALSE
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create verification_codes table: %w", err)
	}
	return nil
}

// Insert persists a new code record
func (r *PostgresCodeRepository) Insert(ctx context.Context, id uuid.UUID, email, code string) (*CodeRecord, error) {
	query := `
		INSERT INTO verification_codes (id, email, code, is_used)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, email, code, created_at, is_used
	`

	var rec CodeRecord
	err := r.db.QueryRow(ctx, query, id, email, code).Scan(
		&rec.ID,
		&rec.Email,
		&rec.Code,
		&rec.CreatedAt,
		&rec.IsUsed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert verification code: %w", err)
	}

	return &rec, nil
}

// FindRedeemable returns the matching unused record still inside the validity window
func (r *PostgresCodeRepository) FindRedeemable(ctx context.Context, email, code string, validityWindow time.Duration) (*CodeRecord, error) {
	query := `
		SELECT id, email, code, created_at, is_used
		FROM verification_codes
		WHERE email = $1
		AND code = $2
		AND is_used = FALSE
		AND created_at > (NOW() AT TIME ZONE 'UTC') - make_interval(secs => $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rec CodeRecord
	err := r.db.QueryRow(ctx, query, email, code, validityWindow.Seconds()).Scan(
		&rec.ID,
		&rec.Email,
		&rec.Code,
		&rec.CreatedAt,
		&rec.IsUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query verification code: %w", err)
	}

	return &rec, nil
}

// MarkUsed atomically transitions the record to used. The UPDATE is guarded by
// both the id and the prior is_used state; the affected-row count decides
// which of two racing redemptions won.
func (r *PostgresCodeRepository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE verification_codes
		SET is_used = TRUE
		WHERE id = $1
		AND is_used = FALSE
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark verification code used: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// PurgeExpired deletes records older than the retention window regardless of use state
func (r *PostgresCodeRepository) PurgeExpired(ctx context.Context, retentionWindow time.Duration) (int64, error) {
	query := `
		DELETE FROM verification_codes
		WHERE created_at < (NOW() AT TIME ZONE 'UTC') - make_interval(secs => $1)
	`

	result, err := r.db.Exec(ctx, query, retentionWindow.Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired verification codes: %w", err)
	}

	return result.RowsAffected(), nil
}
