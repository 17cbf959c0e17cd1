package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coldmailer/internal/core"
)

var base = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

func attempt(offset time.Duration, outcome core.Outcome) core.SendAttempt {
	return core.SendAttempt{
		Timestamp: base.Add(offset),
		ContactID: "c1",
		Email:     "a@example.com",
		Template:  "default",
		Subject:   "Hello",
		Outcome:   outcome,
	}
}

// ledger backends must agree on ordering and filtering semantics, so the
// file and in-memory implementations share one test body.
func runLedgerContract(t *testing.T, l core.SendLedger) {
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, attempt(0, core.OutcomeSuccess)))
	require.NoError(t, l.Append(ctx, attempt(10*time.Minute, core.OutcomeFailure)))
	require.NoError(t, l.Append(ctx, attempt(20*time.Minute, core.OutcomeSuccess)))

	t.Run("recent is oldest first", func(t *testing.T) {
		got, err := l.Recent(ctx, base.Add(5*time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Timestamp.Before(got[1].Timestamp))
		assert.Equal(t, core.OutcomeFailure, got[0].Outcome)
	})

	t.Run("recent excludes boundary", func(t *testing.T) {
		got, err := l.Recent(ctx, base.Add(20*time.Minute))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("most recent success skips failures", func(t *testing.T) {
		got, err := l.MostRecentSuccess(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Timestamp.Equal(base.Add(20*time.Minute)))
	})

	t.Run("history is newest first", func(t *testing.T) {
		got, err := l.History(ctx, 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.True(t, got[0].Timestamp.After(got[2].Timestamp))
	})

	t.Run("history honors limit", func(t *testing.T) {
		got, err := l.History(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Timestamp.Equal(base.Add(20*time.Minute)))
	})
}

func TestMemoryLedgerContract(t *testing.T) {
	runLedgerContract(t, NewMemoryLedger())
}

func TestJSONLedgerContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "send_log.json")
	runLedgerContract(t, NewJSONLedger(path, zap.NewNop()))
}

func TestJSONLedgerSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "send_log.json")

	first := NewJSONLedger(path, zap.NewNop())
	require.NoError(t, first.Append(ctx, attempt(0, core.OutcomeSuccess)))
	require.NoError(t, first.Append(ctx, attempt(time.Minute, core.OutcomeFailure)))

	second := NewJSONLedger(path, zap.NewNop())
	got, err := second.History(ctx, 0)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.OutcomeFailure, got[0].Outcome)
	assert.Equal(t, core.OutcomeSuccess, got[1].Outcome)
}

func TestMostRecentSuccessEmptyLedger(t *testing.T) {
	got, err := NewMemoryLedger().MostRecentSuccess(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryLedgerReturnsCopies(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.Append(ctx, attempt(0, core.OutcomeSuccess)))

	got, err := l.History(ctx, 0)
	require.NoError(t, err)
	got[0].Email = "mutated@example.com"

	again, err := l.History(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again[0].Email)
}
