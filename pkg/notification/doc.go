// Package notification delivers outbound messages for group-verify. It keeps
// a registry of channel notifiers and per-notification templates; the only
// registered notice today is the verification-code email, sent over SMTP via
// go-mail. CodeMailer is the narrow adapter the verification service talks to.
package notification
