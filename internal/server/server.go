// Package server exposes the contact-form endpoint over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// ServerConfig holds the configuration for an HTTP server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	// Handler serves the submission endpoint.
	Handler *Handler

	// TLSConfig enables HTTPS when non-nil.
	TLSConfig *tls.Config

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server accepts contact-form submissions and delegates delivery to the
// Handler's provider.
type Server struct {
	config ServerConfig
	routes http.Handler
}

// New creates a new Server with the given configuration.
func New(cfg ServerConfig) *Server {
	return &Server{
		config: cfg,
		routes: NewRouter(cfg.Handler),
	}
}

// NewRouter builds the HTTP handler tree: POST / behind the standard
// middleware chain. Unknown paths and methods get the JSON error envelope.
func NewRouter(h *Handler) http.Handler {
	hr := &httprouter.Router{
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, "Not found.", http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, "Method not allowed.", http.StatusMethodNotAllowed)
		}),
	}

	hr.POST("/", h.Submit)

	return Chain(hr,
		middlewareRequestID,
		middlewareLogger,
		middlewareRecoverer,
		middlewareCORS,
	)
}

// Handler returns the server's root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.routes
}

// ListenAndServe listens on the configured address and serves until the
// context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context is cancelled. On
// cancellation it stops accepting new connections and waits up to
// 30 seconds for in-flight requests to complete.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.routes,
		TLSConfig:         s.config.TLSConfig,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}

	if s.config.TLSConfig != nil {
		ln = tls.NewListener(ln, s.config.TLSConfig)
	}

	slog.Info("HTTP server listening",
		"addr", ln.Addr().String(),
		"provider", s.config.Handler.provider.Name(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown timeout reached, some requests may not have completed", "error", err)
		return err
	}
	return nil
}
