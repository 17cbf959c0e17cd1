package core

import (
	"context"
	"time"
)

// ContactStore defines the interface for the contact record store. Saves
// happen on every mutation and must be atomic.
type ContactStore interface {
	// GetAll returns every contact, ordered by ID.
	GetAll(ctx context.Context) ([]*Contact, error)

	// GetByID returns the contact with the given ID, or ErrContactNotFound.
	GetByID(ctx context.Context, id string) (*Contact, error)

	// GetByEmail returns the contact with the given email (case-insensitive),
	// or ErrContactNotFound.
	GetByEmail(ctx context.Context, email string) (*Contact, error)

	// GetByStatus returns contacts in the given lifecycle status.
	GetByStatus(ctx context.Context, status ContactStatus) ([]*Contact, error)

	// Add validates the contact, assigns an ID if empty, rejects duplicate
	// emails and persists the store.
	Add(ctx context.Context, contact *Contact) error

	// Update validates and replaces an existing contact, then persists.
	Update(ctx context.Context, contact *Contact) error

	// UpdateStatus sets a contact's lifecycle status, then persists.
	UpdateStatus(ctx context.Context, id string, status ContactStatus) error

	// MarkSent sets status to sent and last_contacted to when, then persists.
	MarkSent(ctx context.Context, id string, when time.Time) error

	// Delete removes a contact, then persists.
	Delete(ctx context.Context, id string) error

	// Statistics returns the count of contacts per status.
	Statistics(ctx context.Context) (map[ContactStatus]int, error)
}

// SendLedger defines the interface for the append-only delivery log.
// Append is the only mutation and must be durable before it returns; reads
// reflect all prior appends in the same process.
type SendLedger interface {
	// Append records a delivery attempt.
	Append(ctx context.Context, attempt SendAttempt) error

	// Recent returns attempts with a timestamp after since, oldest first.
	Recent(ctx context.Context, since time.Time) ([]SendAttempt, error)

	// MostRecentSuccess returns the latest successful attempt, or nil if the
	// ledger holds none.
	MostRecentSuccess(ctx context.Context) (*SendAttempt, error)

	// History returns attempts newest first, at most limit entries
	// (limit <= 0 means all).
	History(ctx context.Context, limit int) ([]SendAttempt, error)
}

// TemplateRenderer defines the interface for rendering an email for a
// contact. Missing templates and undefined variables are reported as a
// TemplateError.
type TemplateRenderer interface {
	Render(name string, contact *Contact, customVars map[string]string) (*Message, error)
}

// Transmitter defines the interface for actually delivering an email.
// Failures are reported as a TransmissionError.
type Transmitter interface {
	Send(ctx context.Context, email *OutboundEmail) error
}
