package reviewer

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"github.com/hnqc/group-verify/pkg/verification"
)

// credentialPattern extracts an embedded "email code" pair from the free-text
// join reason: word-character email shape, whitespace, six digits. Extraction
// is best effort; anything it cannot parse is simply rejected with guidance.
var credentialPattern = regexp.MustCompile(`(\w+@\w+\.\w+)\s+(\d{6})`)

// Application is one membership application from the chat platform
type Application struct {
	ApplicantID string
	GroupID     string
	Comment     string // free-text "reason for joining" entered by the applicant
}

// Decision is the reviewer's verdict on an application
type Decision struct {
	Approve bool
	Reason  string // user-facing rejection reason, empty on approval
}

// Redeemer is the slice of the verification service the reviewer needs
type Redeemer interface {
	Redeem(ctx context.Context, email, code string) error
}

// Reviewer turns membership applications into approve/reject decisions by
// checking the embedded email and code against the verification service.
type Reviewer struct {
	redeemer Redeemer
}

// NewReviewer creates a reviewer backed by the given redeemer
func NewReviewer(redeemer Redeemer) *Reviewer {
	return &Reviewer{redeemer: redeemer}
}

// ExtractCredentials pulls the first "email code" pair out of free text
func ExtractCredentials(text string) (email, code string, ok bool) {
	match := credentialPattern.FindStringSubmatch(text)
	if match == nil {
		return "", "", false
	}
	return match[1], match[2], true
}

// Review checks one application. Success redeems the code, so a second
// application quoting the same pair is rejected like any other invalid one.
func (r *Reviewer) Review(ctx context.Context, app Application) Decision {
	email, code, ok := ExtractCredentials(app.Comment)
	if !ok {
		slog.Info("Application without usable credentials", "applicant", app.ApplicantID, "group", app.GroupID)
		return Decision{
			Approve: false,
			Reason:  "Please include your email address and 6-digit verification code in the join reason",
		}
	}

	err := r.redeemer.Redeem(ctx, email, code)
	if err != nil {
		if errors.Is(err, verification.ErrStorage) {
			slog.Error("Verification service unavailable during review", "applicant", app.ApplicantID, "err", err)
			return Decision{
				Approve: false,
				Reason:  "Verification service is temporarily unavailable, please try again later",
			}
		}
		slog.Info("Application rejected", "applicant", app.ApplicantID, "group", app.GroupID)
		return Decision{
			Approve: false,
			Reason:  "Verification code is invalid or expired",
		}
	}

	slog.Info("Application approved", "applicant", app.ApplicantID, "group", app.GroupID)
	return Decision{Approve: true}
}
