package verification

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultValidityWindow is how long after issuance a code may be redeemed
	DefaultValidityWindow = 5 * time.Minute

	// DefaultRetentionWindow is how long records are kept before the sweeper
	// removes them, redeemed or not
	DefaultRetentionWindow = 10 * time.Minute
)

// emailShape matches non-whitespace local part, "@", non-whitespace domain
// containing at least one dot. It is a plausibility check, not RFC 5322.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CodeSender is the outbound mail-delivery collaborator. The service hands it
// only the destination address and the plaintext code; subject and body
// formatting are its concern.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// IssuanceLimiter gates code issuance per email address
type IssuanceLimiter interface {
	Allow(key string) bool
}

// Service orchestrates the verification-code lifecycle: issuing codes,
// redeeming them exactly once, and purging records past retention.
type Service struct {
	repo            CodeRepository
	sender          CodeSender
	validityWindow  time.Duration
	retentionWindow time.Duration
	limiter         IssuanceLimiter
}

// ServiceOption defines configuration options
type ServiceOption func(*Service)

// WithValidityWindow sets how long a code stays redeemable after issuance
func WithValidityWindow(window time.Duration) ServiceOption {
	return func(s *Service) {
		s.validityWindow = window
	}
}

// WithRetentionWindow sets how long records are retained before purging
func WithRetentionWindow(window time.Duration) ServiceOption {
	return func(s *Service) {
		s.retentionWindow = window
	}
}

// WithIssuanceLimiter enables per-email rate limiting on code issuance.
// Without it issuance is unlimited.
func WithIssuanceLimiter(limiter IssuanceLimiter) ServiceOption {
	return func(s *Service) {
		s.limiter = limiter
	}
}

// NewService creates a new verification service
func NewService(repo CodeRepository, sender CodeSender, opts ...ServiceOption) *Service {
	service := &Service{
		repo:            repo,
		sender:          sender,
		validityWindow:  DefaultValidityWindow,
		retentionWindow: DefaultRetentionWindow,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// RequestCode issues a fresh code for the given email: validate, generate,
// persist, deliver. The code is returned to the caller for delivery-free
// flows (tests, CLI); the HTTP layer never echoes it back to the requester.
//
// A record that was persisted but not delivered is left in place: it is
// harmless, cannot be guessed from the failure, and expires on its own.
func (s *Service) RequestCode(ctx context.Context, email string) (string, error) {
	if !emailShape.MatchString(email) {
		return "", ErrInvalidEmail
	}

	if s.limiter != nil && !s.limiter.Allow(email) {
		slog.Warn("Issuance rate limit exceeded", "email", email)
		return "", ErrTooManyRequests
	}

	code, err := GenerateCode()
	if err != nil {
		slog.Error("Failed to generate verification code", "err", err)
		return "", err
	}

	id := uuid.New()
	rec, err := s.repo.Insert(ctx, id, email, code)
	if err != nil {
		slog.Error("Failed to persist verification code", "email", email, "err", err)
		return "", ErrStorage
	}

	if err := s.sender.SendCode(ctx, email, code); err != nil {
		slog.Error("Failed to deliver verification code", "email", email, "record_id", rec.ID, "err", err)
		return "", ErrDelivery
	}

	slog.Info("Verification code issued", "email", email, "record_id", rec.ID)
	return code, nil
}

// Redeem consumes a code exactly once. Every way a redemption can fail short
// of a storage outage collapses into ErrInvalidOrExpired, including losing
// the race against a concurrent redemption of the same record.
func (s *Service) Redeem(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return ErrMissingField
	}

	rec, err := s.repo.FindRedeemable(ctx, email, code, s.validityWindow)
	if err != nil {
		slog.Error("Failed to look up verification code", "email", email, "err", err)
		return ErrStorage
	}
	if rec == nil {
		return ErrInvalidOrExpired
	}

	used, err := s.repo.MarkUsed(ctx, rec.ID)
	if err != nil {
		slog.Error("Failed to mark verification code used", "record_id", rec.ID, "err", err)
		return ErrStorage
	}
	if !used {
		// Lost the race to a concurrent redemption of the same record.
		return ErrInvalidOrExpired
	}

	slog.Info("Verification code redeemed", "email", email, "record_id", rec.ID)
	return nil
}

// PurgeExpired removes all records older than the retention window
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx, s.retentionWindow)
}
