package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"coldmailer/internal/core"
)

// MySQLLedger is a core.SendLedger backed by MySQL, for operators who keep
// their outreach state on a shared database host.
type MySQLLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLLedger connects to MySQL with the given DSN and ensures the
// send_log table exists.
func NewMySQLLedger(dsn string, logger *zap.Logger) (*MySQLLedger, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS send_log (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			timestamp VARCHAR(64) NOT NULL,
			contact_id VARCHAR(64),
			email VARCHAR(255) NOT NULL,
			template VARCHAR(255),
			subject TEXT,
			outcome VARCHAR(16) NOT NULL,
			reason TEXT,
			INDEX idx_send_log_timestamp (timestamp)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLLedger{db: db, logger: logger}, nil
}

// Append records an attempt; the insert is durable before return.
// Timestamps are stored in UTC so the text column sorts chronologically
// regardless of the offset the attempt was stamped in.
func (l *MySQLLedger) Append(ctx context.Context, attempt core.SendAttempt) error {
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
func (l *MySQLLedger) Recent(ctx context.Context, since time.Time) ([]core.SendAttempt, error) {
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
func (l *MySQLLedger) MostRecentSuccess(ctx context.Context) (*core.SendAttempt, error) {
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
func (l *MySQLLedger) History(ctx context.Context, limit int) ([]core.SendAttempt, error) {
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
func (l *MySQLLedger) Close() error {
	return l.db.Close()
}
