package notification

// NotificationSystem represents a delivery channel (e.g. email).
type NotificationSystem string

// NotificationType represents a kind of notification (e.g. "verification_code").
type NotificationType string

const (
	EmailSystem NotificationSystem = "email"

	// VerificationCodeNotice carries a freshly issued verification code
	VerificationCodeNotice NotificationType = "verification_code"
)

// NotificationData holds the per-message fields handed to a notifier
type NotificationData struct {
	To   string            // Recipient identifier (email address)
	Data map[string]string // Template data
}

// NoticeTemplate holds the template inputs for one notification type
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier sends one notification through a specific channel
type Notifier interface {
	Send(notifType NotificationType, notification NotificationData, template NoticeTemplate) error
}
