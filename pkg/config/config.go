package config

import (
	"fmt"
	"time"

	"github.com/hnqc/group-verify/pkg/notification"
)

// AppConfig contains HTTP server configuration
type AppConfig struct {
	Host string `env:"APP_HOST" env-default:"localhost"`
	Port uint16 `env:"APP_PORT" env-default:"8080"`
}

// Addr returns the listen address
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	Host     string `env:"GV_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"GV_PG_PORT" env-default:"5432"`
	Database string `env:"GV_PG_DATABASE" env-default:"group_verify"`
	User     string `env:"GV_PG_USER" env-default:"verify"`
	Password string `env:"GV_PG_PASSWORD" env-default:"pwd"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

// EmailConfig holds SMTP email configuration
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:""`
	Password string `env:"EMAIL_PASSWORD" env-default:""`
	From     string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

// ToSMTPConfig converts the config to a notification.SMTPConfig
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:     e.Host,
		Port:     int(e.Port),
		Username: e.Username,
		Password: e.Password,
		From:     e.From,
		TLS:      e.TLS,
	}
}

// VerificationConfig holds the code lifecycle windows and the sweep schedule
type VerificationConfig struct {
	Persistence     string        `env:"VERIFICATION_PERSISTENCE" env-default:"postgres"`
	ValidityWindow  time.Duration `env:"VERIFICATION_VALIDITY_WINDOW" env-default:"5m"`
	RetentionWindow time.Duration `env:"VERIFICATION_RETENTION_WINDOW" env-default:"10m"`
	SweepSpec       string        `env:"VERIFICATION_SWEEP_SPEC" env-default:"@every 10m"`

	// Per-email issuance rate limiting, off unless a positive burst is set
	IssueLimitBurst     int     `env:"VERIFICATION_ISSUE_LIMIT_BURST" env-default:"0"`
	IssueLimitPerMinute float64 `env:"VERIFICATION_ISSUE_LIMIT_PER_MINUTE" env-default:"1"`
}

// Config is the full application configuration loaded from the environment
type Config struct {
	AppConfig          AppConfig
	DatabaseConfig     DatabaseConfig
	EmailConfig        EmailConfig
	VerificationConfig VerificationConfig
}
