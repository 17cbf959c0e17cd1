// Command coldmailer-web runs the HTTP API daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"coldmailer/internal/core"
	"coldmailer/internal/di"
	"coldmailer/internal/web"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(logger *zap.Logger, server *web.Server, ledger core.SendLedger) error {
	defer logger.Sync()

	server.Start()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := server.Stop(context.Background()); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := ledger.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close send ledger", zap.Error(err))
		}
	}

	return nil
}
