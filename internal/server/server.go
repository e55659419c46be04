// Package server exposes the authorization flow and the message API over
// HTTP, with graceful shutdown wired through the fx lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/omihq/twitter-bridge/internal/auth"
	"github.com/omihq/twitter-bridge/internal/config"
	"github.com/omihq/twitter-bridge/internal/logger"
	"github.com/omihq/twitter-bridge/internal/twitter"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server handles the HTTP surface: the two authorization endpoints the
// mobile app drives and the message listing endpoint.
type Server struct {
	config *config.Config
	flow   *auth.Flow
	client *twitter.Client
}

func NewServer(cfg *config.Config, flow *auth.Flow, client *twitter.Client) *Server {
	if cfg == nil {
		logger.Fatal("Config cannot be nil")
	}
	if flow == nil {
		logger.Fatal("Flow cannot be nil")
	}
	if client == nil {
		logger.Fatal("Client cannot be nil")
	}

	return &Server{
		config: cfg,
		flow:   flow,
		client: client,
	}
}

// Handler builds the route table wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/twitter/authorize", s.handleAuthorize)
	mux.HandleFunc("/auth/twitter/callback", s.handleCallback)
	mux.HandleFunc("/v1/twitter/messages", s.handleMessages)
	return requestLogger(mux)
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.Duration("timeout", s.config.Server.ShutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// Module provides the HTTP server dependencies
var Module = fx.Module("server",
	fx.Provide(
		NewServer,
	),
)
