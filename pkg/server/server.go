// Package server exposes the HTTP surface: the LINE webhook, a JSON chat
// API, health probes, and the Prometheus metrics endpoint.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bloodplusfight/careline/pkg/chat"
	"github.com/bloodplusfight/careline/pkg/line"
	"github.com/bloodplusfight/careline/pkg/server/middleware"
	"github.com/bloodplusfight/careline/pkg/telemetry/metrics"
)

// Config holds the HTTP server settings.
type Config struct {
	// Host is the listen address.
	Host string `yaml:"host"`

	// Port is the listen port.
	Port int `yaml:"port"`

	// ReadTimeout bounds reading the full request, including the body.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout bounds how long keep-alive connections stay open.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout is the per-request deadline applied by middleware.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// CORS configures cross-origin request handling for the JSON API.
	CORS middleware.CORSConfig `yaml:"cors"`
}

func (c *Config) withDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 55 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
}

// ChatHandler answers a chat request end to end.
type ChatHandler interface {
	Handle(ctx context.Context, req chat.Request) (*chat.Reply, error)
}

// Replier sends reply messages back to the messaging channel.
type Replier interface {
	Reply(ctx context.Context, replyToken string, text string) error
}

// Server is the HTTP server. Create it with New and run it with Start.
type Server struct {
	cfg     Config
	httpSrv *http.Server
	logger  *slog.Logger
	errChan chan error
}

// Options carries the collaborators the handlers need.
type Options struct {
	// Chat answers user messages.
	Chat ChatHandler

	// Replier pushes webhook replies back to LINE. Optional; when nil the
	// webhook still accepts events but cannot answer them.
	Replier Replier

	// ChannelSecret verifies webhook signatures. Empty disables
	// verification, which is only acceptable in local development.
	ChannelSecret string

	// Metrics exposes the /metrics endpoint when non-nil.
	Metrics *metrics.Metrics

	// Ready reports whether the service can take traffic.
	Ready func() bool
}

// New builds the server with the full middleware chain and all routes
// registered.
func New(cfg Config, opts Options, logger *slog.Logger) *Server {
	cfg.withDefaults()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &handlers{
		chat:          opts.Chat,
		replier:       opts.Replier,
		channelSecret: opts.ChannelSecret,
		ready:         opts.Ready,
		logger:        logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.handleWebhook)
	mux.HandleFunc("POST /v1/chat", h.handleChat)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /ready", h.handleReady)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.Timeout(cfg.RequestTimeout)(handler)
	handler = middleware.CORS(cfg.CORS)(handler)
	handler = middleware.Logging(logger, opts.Metrics)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)

	return &Server{
		cfg: cfg,
		httpSrv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger:  logger,
		errChan: make(chan error, 1),
	}
}

// Handler returns the fully wrapped HTTP handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start runs the server until the context is cancelled, a termination
// signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-s.errChan:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down")
	}

	return s.Shutdown()
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// make the line package's client satisfy Replier at compile time.
var _ Replier = (*line.Client)(nil)
