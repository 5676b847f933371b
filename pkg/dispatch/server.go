package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ServerConfig holds configuration for the dispatch web server
type ServerConfig struct {
	// Port is the port to listen on (default: 8080, or $PORT)
	Port string

	// Host is the host to bind to (default: "")
	Host string

	// EnableCORS enables CORS middleware (default: true)
	EnableCORS bool

	// EnableLogger enables request logging middleware (default: true)
	EnableLogger bool

	// EnableRecover enables panic recovery middleware (default: true)
	EnableRecover bool

	// ShutdownTimeout is the timeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// Logger is the slog logger used by the registry and handlers
	// (default: slog.Default)
	Logger *slog.Logger
}

// DefaultServerConfig returns a server configuration with sensible defaults
func DefaultServerConfig() *ServerConfig {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &ServerConfig{
		Port:            port,
		Host:            "",
		EnableCORS:      true,
		EnableLogger:    true,
		EnableRecover:   true,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server wraps an echo instance and serves the routes of a RouteRegistry.
type Server struct {
	echo     *echo.Echo
	config   *ServerConfig
	registry RouteRegistry
	logger   *slog.Logger
}

// NewServer creates a new server backed by the default route registry.
func NewServer(config *ServerConfig) *Server {
	return NewServerWithRegistry(config, DefaultRegistry)
}

// NewServerWithRegistry creates a new server serving the given registry.
func NewServerWithRegistry(config *ServerConfig, registry RouteRegistry) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if config.EnableRecover {
		e.Use(middleware.Recover())
	}
	if config.EnableLogger {
		e.Use(middleware.Logger())
	}
	if config.EnableCORS {
		e.Use(middleware.CORS())
	}

	return &Server{
		echo:     e,
		config:   config,
		registry: registry,
		logger:   logger,
	}
}

// Echo returns the underlying echo instance for advanced configuration
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Static serves files from the given root directory under the given path
// prefix. The prefix must not conflict with registered route paths.
func (s *Server) Static(prefix, root string) {
	s.echo.Static(prefix, root)
	s.logger.Info("add static", "prefix", prefix, "root", root)
}

// Start applies the registry's routes and blocks until shutdown. A SIGINT
// or SIGTERM triggers a graceful shutdown bounded by ShutdownTimeout.
func (s *Server) Start() error {
	s.registry.Apply(s.echo)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)
		s.logger.Info("starting server", "addr", addr)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}
