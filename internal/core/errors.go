package core

import (
	"errors"
	"fmt"
)

var (
	// ErrContactNotFound is returned when a contact lookup misses.
	ErrContactNotFound = errors.New("contact not found")
	// ErrDuplicateContact is returned when adding a contact whose email
	// already exists in the store.
	ErrDuplicateContact = errors.New("contact with this email already exists")
	// ErrTemplateNotFound is returned when the named template file is missing.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrMissingSubject is returned when a rendered template does not start
	// with a subject line followed by a body.
	ErrMissingSubject = errors.New("template must render a subject line followed by a body")
	// ErrNoCredentials is returned when SMTP credentials are not configured.
	ErrNoCredentials = errors.New("smtp credentials not configured")
)

// ValidationError reports malformed contact data. It is raised at add/update
// time; invalid contacts never reach the delivery coordinator.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid contact: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TemplateError reports a failure to render a named template. It aborts the
// single send but never the batch.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Name, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// TransmissionReason classifies why an SMTP delivery failed.
type TransmissionReason string

const (
	TransmissionAuth       TransmissionReason = "authentication_failed"
	TransmissionRecipient  TransmissionReason = "recipient_rejected"
	TransmissionConnection TransmissionReason = "connection_failed"
	TransmissionOther      TransmissionReason = "other"
)

// TransmissionError reports a failed delivery. It is recorded as a failed
// attempt and the batch continues.
type TransmissionError struct {
	Reason TransmissionReason
	Err    error
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("transmission failed (%s): %v", e.Reason, e.Err)
}

func (e *TransmissionError) Unwrap() error { return e.Err }

// PersistenceError reports a ledger or store write failure. It is fatal to a
// batch: rate decisions are unsafe without a reliable ledger.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
