// Package verification implements the verification-code lifecycle for
// group-verify: issuing short-lived 6-digit codes by email, redeeming them
// exactly once, and sweeping expired records.
//
// # Overview
//
// The verification package provides:
//   - 6-digit numeric code generation
//   - Time-boxed storage with a 5-minute validity window
//   - Single-use redemption, safe under concurrent attempts
//   - Best-effort background purging past a 10-minute retention window
//   - Repository pattern for PostgreSQL and in-memory storage
//
// # Basic Usage
//
//	import "github.com/hnqc/group-verify/pkg/verification"
//
//	repo := verification.NewPostgresCodeRepository(pool)
//	service := verification.NewService(repo, sender,
//		verification.WithValidityWindow(5*time.Minute),
//		verification.WithRetentionWindow(10*time.Minute),
//	)
//
//	// Issue: the code is emailed out-of-band, never returned over HTTP
//	_, err := service.RequestCode(ctx, "user@example.com")
//
//	// Redeem: one generic failure for wrong, expired, reused and unknown codes
//	err = service.Redeem(ctx, "user@example.com", "123456")
//
// # Single-use guarantee
//
// Redemption looks the record up, then calls MarkUsed, which the repository
// implements as a single conditional update guarded by both the record id and
// the prior unused state. When two redemptions race on the same record,
// exactly one update takes effect; the loser is reported the same generic
// failure as any other invalid attempt.
package verification
