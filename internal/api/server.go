package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/trebuchet-org/deltasim/internal/domain/config"
	"github.com/trebuchet-org/deltasim/internal/usecase"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	maxBodyBytes      = 1 << 20
)

// Server is the HTTP surface of the simulator
type Server struct {
	addr   string
	router chi.Router
	log    *slog.Logger
}

// Handlers bundles the use cases served over HTTP
type Handlers struct {
	Simulator    *usecase.Simulator
	ForkHealth   *usecase.ForkHealth
	ListNetworks *usecase.ListNetworks
	RefreshFork  *usecase.RefreshFork
	// Metrics serves the Prometheus exposition; /metrics is not mounted when nil
	Metrics http.Handler
}

// NewServer creates a new HTTP server bound to cfg.Host:cfg.Port
func NewServer(cfg *config.RuntimeConfig, h Handlers, log *slog.Logger) *Server {
	s := &Server{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		log:  log.With("component", "HTTPServer"),
	}
	s.router = s.routes(h)
	return s
}

func (s *Server) routes(h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Post("/simulate", s.handleSimulate(h.Simulator))
	r.Get("/health", s.handleHealth(h.ForkHealth))
	r.Get("/networks", s.handleNetworks(h.ListNetworks))
	r.Post("/admin/refresh-fork", s.handleRefreshFork(h.RefreshFork))
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	return r
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe serves until ctx is canceled, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is canceled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		// Requests outlive ctx so Shutdown can drain them
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP server listening", "addr", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
