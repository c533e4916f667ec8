// package server contains middleware & handlers for the mood playlist web service
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodmix/internal/tasks"
	"github.com/go-chi/chi/v5/middleware"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, body limits, etc.
type Middleware func(http.Handler) http.Handler

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	With(middleware ...Middleware) Router             // With returns a router whose routes run the extra middleware
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options configures [New].
type Options struct {
	Addr         string
	Timeout      time.Duration // per-request deadline (default: 30s)
	MaxBodyBytes int64         // default: 64 KiB
	AllowOrigin  string        // CORS origin (default: *)
	Pipeline     tasks.Pipeline
	Auth         *Authenticator
	Logger       *log.Logger
}

// Server is the HTTP front end for a [tasks.Pipeline].
type Server struct {
	http   *http.Server
	logger *log.Logger
}

// New builds the router and HTTP server from opts.
func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	r := NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(opts.Logger),
		middleware.Recoverer,
		CORS(opts.AllowOrigin),
		BodyLimit(opts.MaxBodyBytes),
		Deadline(opts.Timeout),
	)

	api := NewAPI(opts.Pipeline, opts.Logger)
	api.Register(r, opts.Auth)

	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      opts.Timeout + 5*time.Second,
		},
		logger: opts.Logger,
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until ctx is canceled, then shuts down gracefully within grace.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "grace", grace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
