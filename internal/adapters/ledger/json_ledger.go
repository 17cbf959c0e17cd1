package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"coldmailer/internal/core"
)

// JSONLedger is a core.SendLedger backed by a single JSON file. Every append
// rewrites the file atomically before returning, so a crash mid-batch never
// loses rate-accounting history.
type JSONLedger struct {
	path   string
	logger *zap.Logger

	mu       sync.RWMutex
	attempts []core.SendAttempt
	loaded   bool
}

type jsonLedgerDocument struct {
	Attempts []core.SendAttempt `json:"attempts"`
}

// NewJSONLedger creates a JSON-file ledger at path. The file is created on
// first append.
func NewJSONLedger(path string, logger *zap.Logger) *JSONLedger {
	return &JSONLedger{path: path, logger: logger}
}

func (l *JSONLedger) ensureLoaded() error {
	if l.loaded {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read send log: %w", err)
	}
	var doc jsonLedgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse send log %s: %w", l.path, err)
	}
	l.attempts = doc.Attempts
	l.loaded = true
	return nil
}

func (l *JSONLedger) save() error {
	data, err := json.MarshalIndent(jsonLedgerDocument{Attempts: l.attempts}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode send log: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".sendlog-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write send log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace send log: %w", err)
	}
	return nil
}

// Append records an attempt and persists it before returning.
func (l *JSONLedger) Append(ctx context.Context, attempt core.SendAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.attempts = append(l.attempts, attempt)
	if err := l.save(); err != nil {
		l.attempts = l.attempts[:len(l.attempts)-1]
		return err
	}
	l.logger.Debug("Attempt recorded",
		zap.String("email", attempt.Email),
		zap.String("outcome", string(attempt.Outcome)))
	return nil
}

// Recent returns attempts after since, oldest first.
func (l *JSONLedger) Recent(ctx context.Context, since time.Time) ([]core.SendAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	var out []core.SendAttempt
	for _, a := range l.attempts {
		if a.Timestamp.After(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

// MostRecentSuccess returns the latest successful attempt, or nil.
func (l *JSONLedger) MostRecentSuccess(ctx context.Context) (*core.SendAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
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
func (l *JSONLedger) History(ctx context.Context, limit int) ([]core.SendAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make([]core.SendAttempt, len(l.attempts))
	copy(out, l.attempts)
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(attempts []core.SendAttempt) {
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].Timestamp.After(attempts[j].Timestamp)
	})
}
