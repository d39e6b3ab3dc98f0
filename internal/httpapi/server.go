package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vvka-141/intake/internal/forms"
	"github.com/vvka-141/intake/internal/metrics"
	"github.com/vvka-141/intake/pkg/intake"
)

// maxBodyBytes bounds a form submission body.
const maxBodyBytes = 1 << 20

// Options configures the HTTP surface.
type Options struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string

	// AllowedOrigins lists the browser origins allowed to call the API.
	// "*" allows any origin.
	AllowedOrigins []string

	// WriteTimeout bounds one write including every retry and backoff.
	WriteTimeout time.Duration

	// ShutdownTimeout is how long in-flight requests get to finish.
	// It is raised to WriteTimeout when shorter.
	ShutdownTimeout time.Duration
}

// Server routes form submissions to a Recorder.
type Server struct {
	mux      *http.ServeMux
	handler  http.Handler
	recorder intake.Recorder
	metrics  *metrics.Collector
	logger   intake.Logger
	opts     Options
}

// New builds the server and registers its routes. collector may be nil, in
// which case /metrics is not served.
func New(recorder intake.Recorder, collector *metrics.Collector, logger intake.Logger, opts Options) *Server {
	if recorder == nil {
		panic("recorder cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if opts.Addr == "" {
		opts.Addr = fmt.Sprintf(":%d", intake.DefaultPort)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{intake.DefaultAllowedOrigin}
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = intake.DefaultWriteTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = intake.DefaultShutdownTimeout
	}
	if opts.ShutdownTimeout < opts.WriteTimeout {
		opts.ShutdownTimeout = opts.WriteTimeout
	}

	s := &Server{
		mux:      http.NewServeMux(),
		recorder: recorder,
		metrics:  collector,
		logger:   logger,
		opts:     opts,
	}
	s.registerRoutes()
	s.handler = newOriginGate(opts.AllowedOrigins, collector, logger, newCORS(opts.AllowedOrigins).Handler(s.mux))
	return s
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) registerRoutes() {
	for _, form := range forms.All {
		s.mux.HandleFunc("POST "+form.Path, s.handleSubmit(form))
	}
	s.mux.HandleFunc("GET /keepalive", s.handleKeepalive)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// ListenAndServe listens on opts.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("%w: listen on %s: %w", intake.ErrServerFailed, s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then drains in-flight
// requests for up to opts.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("Server is running on %s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%w: %w", intake.ErrServerFailed, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down, waiting up to %v for in-flight requests", s.opts.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%w: shutdown: %w", intake.ErrServerFailed, err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%w: %w", intake.ErrServerFailed, err)
	}
	return nil
}
