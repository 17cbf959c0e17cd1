// Package di wires the web daemon's dependency graph.
package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"coldmailer/internal/config"
	"coldmailer/internal/core"
	"coldmailer/internal/factory"
	"coldmailer/internal/logging"
	"coldmailer/internal/web"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLedgerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailerFactory); err != nil {
		return nil, err
	}

	// Register contact store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ContactStore, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}

	// Register send ledger
	if err := container.Provide(func(f *factory.LedgerFactory) (core.SendLedger, error) {
		return f.CreateLedger()
	}); err != nil {
		return nil, err
	}

	// Register transmitter and renderer
	if err := container.Provide(func(f *factory.MailerFactory) core.Transmitter {
		return f.CreateTransmitter()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.MailerFactory) core.TemplateRenderer {
		return f.CreateRenderer()
	}); err != nil {
		return nil, err
	}

	// Register delivery coordinator
	if err := container.Provide(core.NewDeliveryCoordinator); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		store core.ContactStore,
		ledger core.SendLedger,
		coordinator *core.DeliveryCoordinator,
		cfg *config.Config,
		logger *zap.Logger,
	) *web.Server {
		bc := cfg.GetBatch()
		opts := web.Options{
			Policy:          cfg.GetRatePolicy(),
			OnLimit:         bc.OnLimit,
			MaxWait:         bc.MaxWait,
			DefaultTemplate: cfg.GetEmail().DefaultTemplate,
		}
		return web.NewServer(store, ledger, coordinator, opts, cfg.GetWeb().ListenAddress, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
