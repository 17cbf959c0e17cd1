// Package ledger provides implementations of the append-only send ledger:
// in-memory, JSON file, SQLite and MySQL, selected by configuration.
package ledger

import (
	"context"
	"sync"
	"time"

	"coldmailer/internal/core"
)

// MemoryLedger is an in-memory core.SendLedger. It offers no durability and
// is meant for tests and throwaway dry runs.
type MemoryLedger struct {
	mu       sync.RWMutex
	attempts []core.SendAttempt
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// Append records a delivery attempt.
func (l *MemoryLedger) Append(ctx context.Context, attempt core.SendAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, attempt)
	return nil
}

// Recent returns attempts after since, oldest first.
func (l *MemoryLedger) Recent(ctx context.Context, since time.Time) ([]core.SendAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []core.SendAttempt
	for _, a := range l.attempts {
		if a.Timestamp.After(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

// MostRecentSuccess returns the latest successful attempt, or nil.
func (l *MemoryLedger) MostRecentSuccess(ctx context.Context) (*core.SendAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var latest *core.SendAttempt
	for i := range l.attempts {
		a := l.attempts[i]
		if a.Outcome != core.OutcomeSuccess {
			continue
		}
		if latest == nil || a.Timestamp.After(latest.Timestamp) {
			latest = &a
		}
	}
	return latest, nil
}

// History returns attempts newest first, at most limit entries.
func (l *MemoryLedger) History(ctx context.Context, limit int) ([]core.SendAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.SendAttempt, len(l.attempts))
	copy(out, l.attempts)
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
