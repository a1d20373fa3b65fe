// Package api implements the admin REST API: health checks, admin
// authentication, read-only views of the chat registries, and the Prometheus
// metrics endpoint.
//
// The API is strictly an observer of the chat server. It creates nothing and
// modifies nothing; every chat-visible mutation happens over the line
// protocol.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/parley/internal/logger"
	"github.com/marmos91/parley/pkg/api/auth"
	"github.com/marmos91/parley/pkg/channel"
	"github.com/marmos91/parley/pkg/identity"
)

// Server provides the admin API HTTP server.
//
// The server supports graceful shutdown with a bounded timeout.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a new admin API HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests.
//
// The JWT secret must be at least 32 characters, configured via
// config.JWT.Secret or the PARLEY_API_SECRET environment variable. The admin
// password is hashed here so the cleartext is never kept beyond startup.
//
// Parameters:
//   - config: Server configuration (port, timeouts, JWT config, admin credential)
//   - users: Chat user registry for the read-only views
//   - channels: Chat channel registry for the read-only views
//   - stats: Live connection counters (may be nil)
//
// Returns a configured but not yet started Server, or an error if the JWT or
// admin configuration is invalid.
func NewServer(config Config, users *identity.Registry, channels *channel.Registry, stats StatsProvider) (*Server, error) {
	secret := config.GetSecret()
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters; set via %s env var or config", EnvAPISecret)
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:              secret,
		Issuer:              "parley",
		AccessTokenDuration: config.JWT.AccessTokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	if config.Admin.Username == "" {
		config.Admin.Username = "admin"
	}
	if config.Admin.Password == "" {
		return nil, fmt.Errorf("admin password is required when the API is enabled")
	}
	credential, err := identity.NewCredential(config.Admin.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to derive admin credential: %w", err)
	}

	h := &handlers{
		users:           users,
		channels:        channels,
		stats:           stats,
		jwtService:      jwtService,
		adminUsername:   config.Admin.Username,
		adminCredential: credential,
		startedAt:       time.Now(),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      newRouter(h),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}, nil
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and returns.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the server fails to start or shutdown encounters an error
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "port", s.config.Port)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Fresh context for the shutdown itself: the cancelled ctx would
		// abort the drain immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server.
//
// Stop is safe to call multiple times and safe to call concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
