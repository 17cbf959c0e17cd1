package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"coldmailer/internal/adapters/store"
	"coldmailer/internal/config"
	"coldmailer/internal/core"
)

// StoreFactory creates contact stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore creates a contact store based on the configuration. With
// format "auto" the existing file in the data directory wins; when both or
// neither exist, JSON is used.
func (f *StoreFactory) CreateStore() (core.ContactStore, error) {
	dc := f.cfg.GetData()
	jsonPath := filepath.Join(dc.Dir, "contacts.json")
	csvPath := filepath.Join(dc.Dir, "contacts.csv")

	format := dc.Format
	if format == "auto" {
		format = detectFormat(jsonPath, csvPath)
	}

	switch format {
	case "json":
		return store.NewJSONStore(jsonPath, f.logger), nil
	case "csv":
		return store.NewCSVStore(csvPath, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported contact store format: %s", dc.Format)
	}
}

func detectFormat(jsonPath, csvPath string) string {
	jsonInfo, jsonErr := os.Stat(jsonPath)
	csvInfo, csvErr := os.Stat(csvPath)

	switch {
	case jsonErr == nil && csvErr == nil:
		// Both present, prefer the most recently modified.
		if csvInfo.ModTime().After(jsonInfo.ModTime()) {
			return "csv"
		}
		return "json"
	case csvErr == nil:
		return "csv"
	default:
		return "json"
	}
}
