package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"coldmailer/internal/config"
	"coldmailer/internal/core"
	"coldmailer/internal/factory"
	"coldmailer/internal/logging"
)

// app bundles the wired components a command needs. The CLI builds its
// dependencies by hand; only the long-running daemon uses the DI container.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	store       core.ContactStore
	ledger      core.SendLedger
	mailer      *factory.MailerFactory
	coordinator *core.DeliveryCoordinator
}

func newApp(verbose bool) (*app, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	logger, err := logging.InitConsoleLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := factory.NewStoreFactory(cfg, logger).CreateStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create contact store: %w", err)
	}

	ledger, err := factory.NewLedgerFactory(cfg, logger).CreateLedger()
	if err != nil {
		return nil, fmt.Errorf("failed to create send ledger: %w", err)
	}

	mailer := factory.NewMailerFactory(cfg, logger)
	coordinator := core.NewDeliveryCoordinator(
		store,
		ledger,
		mailer.CreateRenderer(),
		mailer.CreateTransmitter(),
		logger,
	)

	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		ledger:      ledger,
		mailer:      mailer,
		coordinator: coordinator,
	}, nil
}

func (a *app) close() {
	if closer, ok := a.ledger.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("failed to close ledger", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// batchOptions assembles send settings from configuration and command flags.
func (a *app) batchOptions(templateName string, customVars map[string]string, dryRun bool) (core.BatchOptions, error) {
	if templateName == "" {
		templateName = a.cfg.GetEmail().DefaultTemplate
	}
	attachment, err := a.mailer.LoadResumeAttachment()
	if err != nil {
		return core.BatchOptions{}, err
	}
	bc := a.cfg.GetBatch()
	return core.BatchOptions{
		Template:   templateName,
		CustomVars: customVars,
		Policy:     a.cfg.GetRatePolicy(),
		DryRun:     dryRun,
		OnLimit:    bc.OnLimit,
		MaxWait:    bc.MaxWait,
		Attachment: attachment,
		Progress: func(current, total int, contact *core.Contact) {
			fmt.Printf("[%d/%d] %s <%s>\n", current, total, contact.FullName(), contact.Email)
		},
	}, nil
}
