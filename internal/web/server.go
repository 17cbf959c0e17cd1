// Package web exposes the mailer over a small JSON HTTP API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"coldmailer/internal/core"
)

// Options carries the send settings applied to API-triggered batches.
type Options struct {
	Policy          core.RatePolicy
	OnLimit         core.LimitBehavior
	MaxWait         time.Duration
	DefaultTemplate string
}

// Server serves the HTTP API.
type Server struct {
	store       core.ContactStore
	ledger      core.SendLedger
	coordinator *core.DeliveryCoordinator
	opts        Options
	logger      *zap.Logger
	httpServer  *http.Server
}

// NewServer creates the API server.
func NewServer(
	store core.ContactStore,
	ledger core.SendLedger,
	coordinator *core.DeliveryCoordinator,
	opts Options,
	listenAddress string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		store:       store,
		ledger:      ledger,
		coordinator: coordinator,
		opts:        opts,
		logger:      logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/contacts", s.handleListContacts)
		r.Post("/contacts", s.handleAddContact)
		r.Get("/contacts/{id}", s.handleGetContact)
		r.Patch("/contacts/{id}/status", s.handleUpdateStatus)
		r.Get("/history", s.handleHistory)
		r.Post("/send", s.handleSendTo)
		r.Post("/send-all", s.handleSendAll)
	})

	s.httpServer = &http.Server{
		Addr:    listenAddress,
		Handler: r,
	}
	return s
}

// Router returns the HTTP handler. Used by tests.
func (s *Server) Router() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("starting HTTP server", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
