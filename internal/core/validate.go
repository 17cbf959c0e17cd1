package core

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Normalize trims and lowercases the fields that are compared
// case-insensitively and fills enum defaults.
func (c *Contact) Normalize() {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Title = strings.TrimSpace(c.Title)
	c.Company = strings.TrimSpace(c.Company)
	if c.GreetingStyle == "" {
		c.GreetingStyle = GreetingSemiFormal
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
}

// Validate checks the contact against its field constraints. Contacts are
// validated when added or updated; the coordinator assumes valid input.
func (c *Contact) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// ParseStatus validates a status string from external input.
func ParseStatus(s string) (ContactStatus, error) {
	status := ContactStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusSent, StatusReplied, StatusBounced:
		return status, nil
	}
	return "", &ValidationError{Err: fmt.Errorf("invalid status %q: must be one of pending, sent, replied, bounced", s)}
}

// ParseGreetingStyle validates a greeting style string from external input.
func ParseGreetingStyle(s string) (GreetingStyle, error) {
	style := GreetingStyle(strings.ToLower(strings.TrimSpace(s)))
	switch style {
	case GreetingFormal, GreetingSemiFormal, GreetingCasual, GreetingProfessional:
		return style, nil
	}
	return "", &ValidationError{Err: fmt.Errorf("invalid greeting style %q: must be one of formal, semi_formal, casual, professional", s)}
}
