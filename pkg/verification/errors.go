package verification

import "errors"

var (
	// ErrInvalidEmail is returned when the requested email does not look like an address
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrMissingField is returned when a redemption request omits the email or the code
	ErrMissingField = errors.New("email and code are required")

	// ErrInvalidOrExpired is the single outcome for every redemption that cannot
	// succeed: wrong code, expired code, already-used code, unknown email. It is
	// deliberately never subdivided so the redeem endpoint cannot be used as an
	// enumeration oracle.
	ErrInvalidOrExpired = errors.New("verification code is invalid or expired")

	// ErrStorage is returned when the storage collaborator failed
	ErrStorage = errors.New("verification storage unavailable")

	// ErrDelivery is returned when the code was persisted but the mail
	// collaborator failed to deliver it
	ErrDelivery = errors.New("failed to deliver verification code")

	// ErrTooManyRequests is returned when per-email issuance rate limiting is
	// enabled and the limit is exceeded
	ErrTooManyRequests = errors.New("too many verification codes requested, please try again later")
)
