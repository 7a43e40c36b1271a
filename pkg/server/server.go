// Package server implements the read-only HTTP query surface combining
// the proof cache and claim cache into eligibility responses for
// claimants and operators.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/merkle-distributor/pkg/metrics"
)

type Server struct {
	log     *slog.Logger
	cfg     Config
	router  *chi.Mux
	httpSrv *http.Server
	limiter *rateLimiter

	distributors *distributorsCache
}

func New(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Server{
		log:          cfg.Logger,
		cfg:          cfg,
		limiter:      newRateLimiter(cfg.RateLimit, cfg.RateBurst),
		distributors: newDistributorsCache(),
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			return nil, fmt.Errorf("server: sentry init: %w", err)
		}
	}

	s.router = s.newRouter()
	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.rateLimitMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, s.cfg.RequestTimeout, `{"error":"request timed out"}`)
	})
	if s.cfg.SentryDSN != "" {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/distributors", s.handleListDistributors)
	r.Get("/user/{id}", s.handleGetUser)
	r.Get("/claim/{id}", s.handleGetClaim)
	r.Get("/eligibility/{id}", s.handleGetEligibility)

	return r
}

// Start launches the background refresh of the distributors cache and
// begins serving HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.refreshDistributors(ctx); err != nil {
		s.log.Warn("server: initial distributors scan failed", "error", err)
	}
	go s.refreshDistributorsLoop(ctx)
	return s.run(ctx)
}

func (s *Server) refreshDistributorsLoop(ctx context.Context) {
	clock := s.cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ticker := clock.NewTicker(s.cfg.DistributorRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.refreshDistributors(ctx); err != nil {
				s.log.Warn("server: distributors scan failed", "error", err)
			}
		}
	}
}

func (s *Server) refreshDistributors(ctx context.Context) error {
	records, err := s.cfg.DistributorScanner.ScanDistributors(ctx)
	if err != nil {
		return err
	}
	s.distributors.set(records)
	return nil
}

func (s *Server) run(ctx context.Context) error {
	serveErrCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- fmt.Errorf("server: listen and serve: %w", err)
		}
	}()
	s.log.Info("server: http listening", "address", s.cfg.ListenAddr)

	select {
	case <-ctx.Done():
		s.log.Info("server: stopping", "reason", ctx.Err())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	case err := <-serveErrCh:
		return err
	}
}

func metricsRateLimited(route string) {
	metrics.RateLimitedTotal.WithLabelValues(route).Inc()
}

// metricsMiddleware records request counts and latency per route/method,
// keyed on the matched chi route pattern rather than the raw path so
// per-claimant paths like /user/{id} don't create unbounded label
// cardinality.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, fmt.Sprint(ww.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
