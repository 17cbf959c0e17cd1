package core

import (
	"time"
)

// ContactStatus tracks where a contact is in the outreach lifecycle.
type ContactStatus string

const (
	StatusPending ContactStatus = "pending"
	StatusSent    ContactStatus = "sent"
	StatusReplied ContactStatus = "replied"
	StatusBounced ContactStatus = "bounced"
)

// GreetingStyle selects how the opening line of an email is phrased.
type GreetingStyle string

const (
	GreetingFormal       GreetingStyle = "formal"
	GreetingSemiFormal   GreetingStyle = "semi_formal"
	GreetingCasual       GreetingStyle = "casual"
	GreetingProfessional GreetingStyle = "professional"
)

// Contact represents a single outreach target.
//
// The core only ever mutates Status and LastContacted; everything else is
// operator data maintained through the store's add/update operations.
type Contact struct {
	ID            string            `json:"id"`
	Email         string            `json:"email" validate:"required,email"`
	FirstName     string            `json:"first_name" validate:"required,max=100"`
	LastName      string            `json:"last_name" validate:"max=100"`
	Title         string            `json:"title,omitempty" validate:"omitempty,oneof=Mr. Ms. Mrs. Dr. Prof."`
	Company       string            `json:"company" validate:"required,max=200"`
	JobTitle      string            `json:"job_title"`
	Department    string            `json:"department"`
	GreetingStyle GreetingStyle     `json:"greeting_style" validate:"oneof=formal semi_formal casual professional"`
	CustomFields  map[string]string `json:"custom_fields,omitempty"`
	Status        ContactStatus     `json:"status" validate:"oneof=pending sent replied bounced"`
	LastContacted *time.Time        `json:"last_contacted,omitempty"`
}

// FullName returns the contact's display name.
func (c *Contact) FullName() string {
	if c.LastName != "" {
		return c.FirstName + " " + c.LastName
	}
	return c.FirstName
}

// Outcome is the result of a single delivery attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// SendAttempt is one ledger entry. Entries are immutable once appended; the
// ledger is the sole input to rate accounting.
type SendAttempt struct {
	Timestamp time.Time `json:"timestamp"`
	ContactID string    `json:"contact_id"`
	Email     string    `json:"email"`
	Template  string    `json:"template"`
	Subject   string    `json:"subject"`
	Outcome   Outcome   `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
}

// RatePolicy holds the send-rate limits. The daily window is a calendar day
// in local time, resetting at midnight.
type RatePolicy struct {
	EmailsPerHour   int
	MaxEmailsPerDay int
	MinDelay        time.Duration
}

// DenyReason explains why a Decision disallowed a send.
type DenyReason string

const (
	ReasonNone      DenyReason = "none"
	ReasonHourlyCap DenyReason = "hourly_cap"
	ReasonDailyCap  DenyReason = "daily_cap"
	ReasonMinDelay  DenyReason = "min_delay"
)

// Decision is the rate governor's verdict for a prospective send.
type Decision struct {
	Allowed    bool
	Reason     DenyReason
	RetryAfter time.Duration
}

// Message is a rendered email ready for transmission.
type Message struct {
	Subject string
	Body    string
}

// Attachment is a file attached to an outbound email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// OutboundEmail is a fully-prepared email handed to the transmitter.
type OutboundEmail struct {
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// BatchOutcome is the per-contact result within a batch.
type BatchOutcome string

const (
	BatchSent    BatchOutcome = "sent"
	BatchFailed  BatchOutcome = "failed"
	BatchSkipped BatchOutcome = "skipped"
)

// SendResult is the per-contact detail line of a BatchResult.
type SendResult struct {
	ContactID string       `json:"contact_id"`
	Email     string       `json:"email"`
	Outcome   BatchOutcome `json:"outcome"`
	Reason    string       `json:"reason,omitempty"`
	Preview   string       `json:"preview,omitempty"`
}

// BatchResult aggregates a batch run. The core performs no user-facing
// output; callers render this however they like.
type BatchResult struct {
	Total   int          `json:"total"`
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped"`
	Results []SendResult `json:"results"`
}

// RateStats is a point-in-time snapshot of ledger accounting against a policy.
type RateStats struct {
	EmailsLastHour  int `json:"emails_last_hour"`
	HourlyLimit     int `json:"hourly_limit"`
	HourlyRemaining int `json:"hourly_remaining"`
	EmailsToday     int `json:"emails_today"`
	DailyLimit      int `json:"daily_limit"`
	DailyRemaining  int `json:"daily_remaining"`
	TotalSent       int `json:"total_sent"`
}
