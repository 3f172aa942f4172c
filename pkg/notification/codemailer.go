package notification

import (
	"context"
	"fmt"
	"time"
)

// CodeMailer adapts the notification manager to the verification service's
// mail-delivery collaborator: it receives only the destination address and the
// plaintext code, and owns everything about formatting.
type CodeMailer struct {
	manager        *NotificationManager
	validityWindow time.Duration
}

// NewCodeMailer creates a code mailer on top of a notification manager
func NewCodeMailer(manager *NotificationManager, validityWindow time.Duration) *CodeMailer {
	return &CodeMailer{
		manager:        manager,
		validityWindow: validityWindow,
	}
}

// SendCode emails a verification code to the given address
func (m *CodeMailer) SendCode(ctx context.Context, email, code string) error {
	data := NotificationData{
		To: email,
		Data: map[string]string{
			"Code":            code,
			"ValidityMinutes": fmt.Sprintf("%.0f", m.validityWindow.Minutes()),
		},
	}

	if err := m.manager.Send(VerificationCodeNotice, EmailSystem, data); err != nil {
		return fmt.Errorf("failed to send verification code email: %w", err)
	}
	return nil
}
