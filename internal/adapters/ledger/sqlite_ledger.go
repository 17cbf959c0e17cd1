package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"coldmailer/internal/core"
)

// SQLiteLedger is a core.SendLedger backed by a local SQLite database.
// Appends are committed before returning.
type SQLiteLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteLedger opens (creating if necessary) a SQLite ledger at dbPath.
func NewSQLiteLedger(dbPath string, logger *zap.Logger) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS send_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			contact_id TEXT,
			email TEXT NOT NULL,
			template TEXT,
			subject TEXT,
			outcome TEXT NOT NULL,
			reason TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_send_log_timestamp ON send_log(timestamp)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteLedger{db: db, logger: logger}, nil
}

// Append records an attempt; the insert is durable before return.
// Timestamps are stored in UTC so the text column sorts chronologically
// regardless of the offset the attempt was stamped in.
func (l *SQLiteLedger) Append(ctx context.Context, attempt core.SendAttempt) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO send_log (timestamp, contact_id, email, template, subject, outcome, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		attempt.Timestamp.UTC().Format(time.RFC3339),
		attempt.ContactID,
		attempt.Email,
		attempt.Template,
		attempt.Subject,
		string(attempt.Outcome),
		attempt.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert send log entry: %w", err)
	}
	return nil
}

// Recent returns attempts after since, oldest first.
func (l *SQLiteLedger) Recent(ctx context.Context, since time.Time) ([]core.SendAttempt, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT timestamp, contact_id, email, template, subject, outcome, reason
		FROM send_log
		WHERE timestamp > ?
		ORDER BY timestamp ASC, id ASC
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query send log: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// MostRecentSuccess returns the latest successful attempt, or nil.
func (l *SQLiteLedger) MostRecentSuccess(ctx context.Context) (*core.SendAttempt, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT timestamp, contact_id, email, template, subject, outcome, reason
		FROM send_log
		WHERE outcome = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`, string(core.OutcomeSuccess))
	if err != nil {
		return nil, fmt.Errorf("failed to query send log: %w", err)
	}
	defer rows.Close()
	attempts, err := scanAttempts(rows)
	if err != nil || len(attempts) == 0 {
		return nil, err
	}
	return &attempts[0], nil
}

// History returns attempts newest first, at most limit entries.
func (l *SQLiteLedger) History(ctx context.Context, limit int) ([]core.SendAttempt, error) {
	query := `
		SELECT timestamp, contact_id, email, template, subject, outcome, reason
		FROM send_log
		ORDER BY timestamp DESC, id DESC
	`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = l.db.QueryContext(ctx, query+" LIMIT ?", limit)
	} else {
		rows, err = l.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query send log: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// Close closes the database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func scanAttempts(rows *sql.Rows) ([]core.SendAttempt, error) {
	var attempts []core.SendAttempt
	for rows.Next() {
		var (
			a       core.SendAttempt
			ts      string
			outcome string
		)
		if err := rows.Scan(&ts, &a.ContactID, &a.Email, &a.Template, &a.Subject, &outcome, &a.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan send log entry: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
		}
		a.Timestamp = parsed
		a.Outcome = core.Outcome(outcome)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
