// Package store provides file-backed implementations of the contact record
// store: a flat CSV table and a nested JSON document, behind the same
// interface. The format is chosen once at startup by the factory; nothing in
// the core ever branches on it.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coldmailer/internal/core"
)

// codec reads and writes the whole contact collection in one format.
type codec interface {
	decode(data []byte) ([]*core.Contact, error)
	encode(contacts []*core.Contact) ([]byte, error)
}

// Store is a file-backed core.ContactStore. Every mutation validates,
// applies in memory and rewrites the file atomically (temp file + rename).
type Store struct {
	path   string
	codec  codec
	logger *zap.Logger

	mu       sync.RWMutex
	contacts map[string]*core.Contact
	loaded   bool
}

// NewCSVStore creates a contact store backed by a flat CSV file.
func NewCSVStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, codec: csvCodec{}, logger: logger}
}

// NewJSONStore creates a contact store backed by a nested JSON document.
func NewJSONStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, codec: jsonCodec{}, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// cloneContact deep-copies a contact. The store hands out and keeps only
// copies, so callers never alias its internal state; a batch mutating its
// candidates cannot race a concurrent reader.
func cloneContact(c *core.Contact) *core.Contact {
	dup := *c
	if c.LastContacted != nil {
		ts := *c.LastContacted
		dup.LastContacted = &ts
	}
	if c.CustomFields != nil {
		dup.CustomFields = make(map[string]string, len(c.CustomFields))
		for k, v := range c.CustomFields {
			dup.CustomFields[k] = v
		}
	}
	return &dup
}

func cloneContacts(contacts []*core.Contact) []*core.Contact {
	out := make([]*core.Contact, len(contacts))
	for i, c := range contacts {
		out[i] = cloneContact(c)
	}
	return out
}

func (s *Store) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	s.contacts = make(map[string]*core.Contact)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read contact file: %w", err)
	}
	contacts, err := s.codec.decode(data)
	if err != nil {
		return fmt.Errorf("failed to parse contact file %s: %w", s.path, err)
	}
	for _, c := range contacts {
		if c.ID == "" || c.Email == "" {
			continue
		}
		s.contacts[c.ID] = c
	}
	s.loaded = true
	return nil
}

func (s *Store) save() error {
	data, err := s.codec.encode(s.sorted())
	if err != nil {
		return fmt.Errorf("failed to encode contacts: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".contacts-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write contacts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace contact file: %w", err)
	}
	return nil
}

func (s *Store) sorted() []*core.Contact {
	contacts := make([]*core.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		contacts = append(contacts, c)
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	return contacts
}

// GetAll returns every contact ordered by ID.
func (s *Store) GetAll(ctx context.Context) ([]*core.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return cloneContacts(s.sorted()), nil
}

// GetByID returns the contact with the given ID.
func (s *Store) GetByID(ctx context.Context, id string) (*core.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	c, ok := s.contacts[id]
	if !ok {
		return nil, core.ErrContactNotFound
	}
	return cloneContact(c), nil
}

// GetByEmail returns the contact with the given email, case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (*core.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, c := range s.contacts {
		if strings.ToLower(c.Email) == needle {
			return cloneContact(c), nil
		}
	}
	return nil, core.ErrContactNotFound
}

// GetByStatus returns contacts in the given status, ordered by ID.
func (s *Store) GetByStatus(ctx context.Context, status core.ContactStatus) ([]*core.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	var matched []*core.Contact
	for _, c := range s.sorted() {
		if c.Status == status {
			matched = append(matched, cloneContact(c))
		}
	}
	return matched, nil
}

// Add validates the contact, rejects duplicate emails, assigns an ID when
// empty and persists.
func (s *Store) Add(ctx context.Context, contact *core.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	contact.Normalize()
	if err := contact.Validate(); err != nil {
		return err
	}
	for _, existing := range s.contacts {
		if strings.EqualFold(existing.Email, contact.Email) {
			return core.ErrDuplicateContact
		}
	}
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	s.contacts[contact.ID] = cloneContact(contact)
	if err := s.save(); err != nil {
		delete(s.contacts, contact.ID)
		return err
	}
	s.logger.Debug("Contact added", zap.String("id", contact.ID), zap.String("email", contact.Email))
	return nil
}

// Update validates and replaces an existing contact, then persists.
func (s *Store) Update(ctx context.Context, contact *core.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	prev, ok := s.contacts[contact.ID]
	if !ok {
		return core.ErrContactNotFound
	}
	contact.Normalize()
	if err := contact.Validate(); err != nil {
		return err
	}
	for id, existing := range s.contacts {
		if id != contact.ID && strings.EqualFold(existing.Email, contact.Email) {
			return core.ErrDuplicateContact
		}
	}
	s.contacts[contact.ID] = cloneContact(contact)
	if err := s.save(); err != nil {
		s.contacts[contact.ID] = prev
		return err
	}
	return nil
}

// UpdateStatus sets a contact's lifecycle status and persists.
func (s *Store) UpdateStatus(ctx context.Context, id string, status core.ContactStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	c, ok := s.contacts[id]
	if !ok {
		return core.ErrContactNotFound
	}
	prev := c.Status
	c.Status = status
	if err := s.save(); err != nil {
		c.Status = prev
		return err
	}
	return nil
}

// MarkSent transitions a contact to sent and stamps last_contacted.
func (s *Store) MarkSent(ctx context.Context, id string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	c, ok := s.contacts[id]
	if !ok {
		return core.ErrContactNotFound
	}
	prevStatus, prevContacted := c.Status, c.LastContacted
	c.Status = core.StatusSent
	c.LastContacted = &when
	if err := s.save(); err != nil {
		c.Status, c.LastContacted = prevStatus, prevContacted
		return err
	}
	return nil
}

// Delete removes a contact and persists.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	c, ok := s.contacts[id]
	if !ok {
		return core.ErrContactNotFound
	}
	delete(s.contacts, id)
	if err := s.save(); err != nil {
		s.contacts[id] = c
		return err
	}
	return nil
}

// Statistics returns the count of contacts per status.
func (s *Store) Statistics(ctx context.Context) (map[core.ContactStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	stats := map[core.ContactStatus]int{
		core.StatusPending: 0,
		core.StatusSent:    0,
		core.StatusReplied: 0,
		core.StatusBounced: 0,
	}
	for _, c := range s.contacts {
		stats[c.Status]++
	}
	return stats, nil
}

// ImportAll replaces the whole collection and persists. Used for format
// conversion and sample-data seeding.
func (s *Store) ImportAll(ctx context.Context, contacts []*core.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = make(map[string]*core.Contact, len(contacts))
	for _, c := range contacts {
		c.Normalize()
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.contacts[c.ID] = cloneContact(c)
	}
	s.loaded = true
	return s.save()
}

// SampleContacts returns a small seed collection for first-time setup.
func SampleContacts() []*core.Contact {
	return []*core.Contact{
		{
			ID:            uuid.NewString(),
			Email:         "john.smith@techcorp.com",
			FirstName:     "John",
			LastName:      "Smith",
			Title:         "Mr.",
			Company:       "TechCorp Inc.",
			JobTitle:      "Software Engineer",
			Department:    "Engineering",
			GreetingStyle: core.GreetingSemiFormal,
			CustomFields:  map[string]string{"skills": "Go, distributed systems", "referral": "Jane Doe"},
			Status:        core.StatusPending,
		},
		{
			ID:            uuid.NewString(),
			Email:         "sarah.jones@startup.io",
			FirstName:     "Sarah",
			LastName:      "Jones",
			Title:         "Ms.",
			Company:       "Startup.io",
			JobTitle:      "Backend Developer",
			Department:    "Product",
			GreetingStyle: core.GreetingCasual,
			CustomFields:  map[string]string{"notes": "Met at tech conference"},
			Status:        core.StatusPending,
		},
	}
}
