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

func newSQLiteLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "sendlog.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSQLiteLedgerContract(t *testing.T) {
	runLedgerContract(t, newSQLiteLedger(t))
}

func TestSQLiteLedgerOrdersMixedOffsets(t *testing.T) {
	ctx := context.Background()
	l := newSQLiteLedger(t)

	// 10:00+02:00 is 08:00 UTC, one hour before 09:00 UTC. Stored as text,
	// only UTC normalization keeps the column ordering chronological.
	plusTwo := time.FixedZone("CEST", 2*60*60)
	early := core.SendAttempt{
		Timestamp: time.Date(2026, 8, 30, 10, 0, 0, 0, plusTwo),
		Email:     "a@example.com",
		Outcome:   core.OutcomeSuccess,
	}
	late := core.SendAttempt{
		Timestamp: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		Email:     "b@example.com",
		Outcome:   core.OutcomeSuccess,
	}
	require.NoError(t, l.Append(ctx, early))
	require.NoError(t, l.Append(ctx, late))

	got, err := l.Recent(ctx, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a@example.com", got[0].Email)
	assert.Equal(t, "b@example.com", got[1].Email)
	assert.True(t, got[0].Timestamp.Equal(early.Timestamp))

	latest, err := l.MostRecentSuccess(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "b@example.com", latest.Email)
}
