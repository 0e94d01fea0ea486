package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aussiebroadwan/stockroom/internal/console/mockapi"
)

const shutdownGracePeriod = 10 * time.Second

// MockServer serves the in-memory inventory API for local development.
type MockServer struct {
	api    *mockapi.Server
	server *http.Server
	logger *slog.Logger
}

// NewMockServer builds a seeded mock API listening on cfg.MockAddr.
func NewMockServer(cfg Config, logger *slog.Logger) (*MockServer, error) {
	api, err := mockapi.New(mockapi.Config{
		AccessTTL:     cfg.MockAccessTTL,
		RotateRefresh: cfg.MockRotateRefresh,
		Logger:        logger,
		Seed:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build mock api: %w", err)
	}
	return &MockServer{
		api:    api,
		logger: logger,
		server: &http.Server{
			Addr:              cfg.MockAddr,
			Handler:           api,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run serves on ln until ctx ends, then shuts down gracefully. A nil ln
// listens on the configured address.
func (m *MockServer) Run(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", m.server.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
	}

	m.logger.Info("mock api starting", "addr", ln.Addr().String(), "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- m.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		m.logger.Info("shutting down mock api")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := m.server.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("graceful server shutdown failed", "error", err)
		if err := m.server.Close(); err != nil {
			m.logger.Error("error closing server", "error", err)
		}
		return err
	}
	if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
