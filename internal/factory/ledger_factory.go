// Package factory builds configured adapter implementations.
package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"coldmailer/internal/adapters/ledger"
	"coldmailer/internal/config"
	"coldmailer/internal/core"
)

// LedgerFactory creates send ledgers based on configuration
type LedgerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLedgerFactory creates a new ledger factory
func NewLedgerFactory(cfg *config.Config, logger *zap.Logger) *LedgerFactory {
	return &LedgerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLedger creates a send ledger based on the configuration
func (f *LedgerFactory) CreateLedger() (core.SendLedger, error) {
	lc := f.cfg.GetLedger()

	switch lc.Type {
	case "memory":
		return ledger.NewMemoryLedger(), nil
	case "json":
		dc := f.cfg.GetData()
		return ledger.NewJSONLedger(filepath.Join(dc.Dir, "send_log.json"), f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(lc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return ledger.NewSQLiteLedger(lc.SQLitePath, f.logger)
	case "mysql":
		return ledger.NewMySQLLedger(lc.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", lc.Type)
	}
}
