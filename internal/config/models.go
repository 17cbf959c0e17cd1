package config

import (
	"time"

	"coldmailer/internal/core"
)

// SMTPConfig holds SMTP server settings and credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	UseTLS   bool
	Timeout  time.Duration
	Username string
	Password string
}

// BatchConfig controls batch behavior when a rate limit is hit mid-run.
type BatchConfig struct {
	OnLimit core.LimitBehavior
	MaxWait time.Duration
}

// SenderConfig identifies the person sending the outreach.
type SenderConfig struct {
	Name      string
	Signature string
}

// EmailConfig controls message composition.
type EmailConfig struct {
	SubjectPrefix   string
	DefaultTemplate string
	AttachResume    bool
	ResumeFilename  string
}

// DataConfig locates the contact store.
type DataConfig struct {
	Format string
	Dir    string
}

// LedgerConfig selects and locates the send ledger backend.
type LedgerConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// PathsConfig locates operator-editable resources.
type PathsConfig struct {
	Templates   string
	Attachments string
}

// WebConfig configures the HTTP API daemon.
type WebConfig struct {
	ListenAddress string
}

// GreetingStyle holds the salutation patterns for one style.
type GreetingStyle struct {
	WithTitle    string
	WithoutTitle string
}
