package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coldmailer/internal/core"
)

func testContact(email string) *core.Contact {
	return &core.Contact{
		Email:     email,
		FirstName: "Alex",
		LastName:  "Rivera",
		Company:   "Example Corp",
	}
}

func newStore(t *testing.T, format string) *Store {
	t.Helper()
	dir := t.TempDir()
	switch format {
	case "csv":
		return NewCSVStore(filepath.Join(dir, "contacts.csv"), zap.NewNop())
	default:
		return NewJSONStore(filepath.Join(dir, "contacts.json"), zap.NewNop())
	}
}

func reopen(t *testing.T, s *Store) *Store {
	t.Helper()
	switch s.codec.(type) {
	case csvCodec:
		return NewCSVStore(s.Path(), zap.NewNop())
	default:
		return NewJSONStore(s.Path(), zap.NewNop())
	}
}

func TestAddAssignsIDAndDefaults(t *testing.T) {
	for _, format := range []string{"json", "csv"} {
		t.Run(format, func(t *testing.T) {
			s := newStore(t, format)
			c := testContact("Alex.Rivera@Example.COM")

			require.NoError(t, s.Add(context.Background(), c))

			assert.NotEmpty(t, c.ID)
			assert.Equal(t, "alex.rivera@example.com", c.Email)
			assert.Equal(t, core.StatusPending, c.Status)
			assert.Equal(t, core.GreetingSemiFormal, c.GreetingStyle)
		})
	}
}

func TestAddRejectsDuplicateEmail(t *testing.T) {
	s := newStore(t, "json")
	require.NoError(t, s.Add(context.Background(), testContact("dup@example.com")))

	err := s.Add(context.Background(), testContact("DUP@example.com"))

	assert.ErrorIs(t, err, core.ErrDuplicateContact)
}

func TestAddRejectsInvalidContact(t *testing.T) {
	s := newStore(t, "json")

	var ve *core.ValidationError
	err := s.Add(context.Background(), &core.Contact{Email: "not-an-email", FirstName: "A", Company: "X"})
	assert.ErrorAs(t, err, &ve)

	err = s.Add(context.Background(), &core.Contact{Email: "a@example.com", Company: "X"})
	assert.ErrorAs(t, err, &ve)
}

func TestRoundTripAcrossReopen(t *testing.T) {
	for _, format := range []string{"json", "csv"} {
		t.Run(format, func(t *testing.T) {
			s := newStore(t, format)
			c := testContact("roundtrip@example.com")
			c.Title = "Dr."
			c.JobTitle = "Staff Engineer"
			c.Department = "Platform"
			c.GreetingStyle = core.GreetingFormal
			c.CustomFields = map[string]string{"referral": "Sam Lee", "skills": "Go"}
			require.NoError(t, s.Add(context.Background(), c))

			loaded, err := reopen(t, s).GetByID(context.Background(), c.ID)

			require.NoError(t, err)
			assert.Equal(t, c.Email, loaded.Email)
			assert.Equal(t, "Dr.", loaded.Title)
			assert.Equal(t, "Staff Engineer", loaded.JobTitle)
			assert.Equal(t, "Platform", loaded.Department)
			assert.Equal(t, core.GreetingFormal, loaded.GreetingStyle)
			assert.Equal(t, c.CustomFields, loaded.CustomFields)
		})
	}
}

func TestGetByEmailIsCaseInsensitive(t *testing.T) {
	s := newStore(t, "json")
	require.NoError(t, s.Add(context.Background(), testContact("case@example.com")))

	c, err := s.GetByEmail(context.Background(), "  CASE@Example.Com ")

	require.NoError(t, err)
	assert.Equal(t, "case@example.com", c.Email)

	_, err = s.GetByEmail(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, core.ErrContactNotFound)
}

func TestGetByStatusFilters(t *testing.T) {
	s := newStore(t, "json")
	ctx := context.Background()
	a := testContact("a@example.com")
	b := testContact("b@example.com")
	require.NoError(t, s.Add(ctx, a))
	require.NoError(t, s.Add(ctx, b))
	require.NoError(t, s.UpdateStatus(ctx, a.ID, core.StatusReplied))

	pending, err := s.GetByStatus(ctx, core.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b@example.com", pending[0].Email)

	replied, err := s.GetByStatus(ctx, core.StatusReplied)
	require.NoError(t, err)
	assert.Len(t, replied, 1)
}

func TestMarkSentPersists(t *testing.T) {
	s := newStore(t, "csv")
	ctx := context.Background()
	c := testContact("sent@example.com")
	require.NoError(t, s.Add(ctx, c))
	when := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.MarkSent(ctx, c.ID, when))

	loaded, err := reopen(t, s).GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusSent, loaded.Status)
	require.NotNil(t, loaded.LastContacted)
	assert.True(t, when.Equal(*loaded.LastContacted))
}

func TestMarkSentUnknownContact(t *testing.T) {
	s := newStore(t, "json")
	err := s.MarkSent(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, core.ErrContactNotFound)
}

func TestDelete(t *testing.T) {
	s := newStore(t, "json")
	ctx := context.Background()
	c := testContact("del@example.com")
	require.NoError(t, s.Add(ctx, c))

	require.NoError(t, s.Delete(ctx, c.ID))

	_, err := s.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, core.ErrContactNotFound)
	assert.ErrorIs(t, s.Delete(ctx, c.ID), core.ErrContactNotFound)
}

func TestStatisticsCountsAllStatuses(t *testing.T) {
	s := newStore(t, "json")
	ctx := context.Background()
	a := testContact("a@example.com")
	b := testContact("b@example.com")
	require.NoError(t, s.Add(ctx, a))
	require.NoError(t, s.Add(ctx, b))
	require.NoError(t, s.UpdateStatus(ctx, b.ID, core.StatusBounced))

	stats, err := s.Statistics(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, stats[core.StatusPending])
	assert.Equal(t, 0, stats[core.StatusSent])
	assert.Equal(t, 0, stats[core.StatusReplied])
	assert.Equal(t, 1, stats[core.StatusBounced])
}

func TestMissingFileIsEmptyStore(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "nope", "contacts.json"), zap.NewNop())

	contacts, err := s.GetAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestImportAllConvertsBetweenFormats(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	src := NewJSONStore(filepath.Join(dir, "contacts.json"), zap.NewNop())
	require.NoError(t, src.ImportAll(ctx, SampleContacts()))

	contacts, err := src.GetAll(ctx)
	require.NoError(t, err)

	dst := NewCSVStore(filepath.Join(dir, "contacts.csv"), zap.NewNop())
	require.NoError(t, dst.ImportAll(ctx, contacts))

	converted, err := reopen(t, dst).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, converted, len(contacts))
	for i := range contacts {
		assert.Equal(t, contacts[i].Email, converted[i].Email)
		assert.Equal(t, contacts[i].CustomFields, converted[i].CustomFields)
	}
}

func TestCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s := NewJSONStore(path, zap.NewNop())

	_, err := s.GetAll(context.Background())

	assert.Error(t, err)
}

func TestReadsReturnIndependentCopies(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "json")
	c := testContact("copy@example.com")
	c.CustomFields = map[string]string{"skills": "Go"}
	require.NoError(t, s.Add(ctx, c))

	got, err := s.GetByID(ctx, c.ID)
	require.NoError(t, err)
	got.Status = core.StatusBounced
	got.CustomFields["skills"] = "mutated"

	require.NoError(t, s.MarkSent(ctx, c.ID, time.Now()))
	assert.Equal(t, core.StatusBounced, got.Status)
	assert.Nil(t, got.LastContacted)

	again, err := s.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusSent, again.Status)
	assert.Equal(t, "Go", again.CustomFields["skills"])
}

func TestConcurrentReadersDuringStatusChanges(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "json")
	var ids []string
	for i := 0; i < 5; i++ {
		c := testContact(fmt.Sprintf("c%d@example.com", i))
		require.NoError(t, s.Add(ctx, c))
		ids = append(ids, c.ID)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			_ = s.MarkSent(ctx, id, time.Now())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			contacts, err := s.GetAll(ctx)
			if err != nil {
				continue
			}
			_, _ = json.Marshal(contacts)
		}
	}()
	wg.Wait()
}
