// Package api exposes the shock analysis pipeline over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	apimw "github.com/hugo-lorenzo-mato/shockcast/internal/api/middleware"
	"github.com/hugo-lorenzo-mato/shockcast/internal/config"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
	"github.com/hugo-lorenzo-mato/shockcast/internal/service"
)

// maxBodyBytes bounds every request body the API decodes.
const maxBodyBytes = 1 << 20

// Server serves the analysis API.
type Server struct {
	router   chi.Router
	analyzer *service.Analyzer
	eventBus *events.EventBus
	metrics  *service.MetricsCollector
	logger   *logging.Logger
	cfg      config.ServerConfig
	registry *prometheus.Registry
	http     *httpMetrics
	limiter  *apimw.RateLimiter
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventBus enables the /api/v1/events stream.
func WithEventBus(bus *events.EventBus) ServerOption {
	return func(s *Server) {
		s.eventBus = bus
	}
}

// WithMetrics exposes the analyzer's in-process metrics on /api/v1/stats
// and /metrics. Pass the same collector given to the analyzer.
func WithMetrics(m *service.MetricsCollector) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithServerConfig sets CORS, rate limiting and request timeouts.
func WithServerConfig(cfg config.ServerConfig) ServerOption {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// NewServer creates a new API server around analyzer.
func NewServer(analyzer *service.Analyzer, opts ...ServerOption) *Server {
	s := &Server{
		analyzer: analyzer,
		logger:   logging.NewNop(),
		cfg:      config.Defaults().Server,
		registry: prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.http = newHTTPMetrics(s.registry)
	if s.metrics != nil {
		registerAnalysisMetrics(s.registry, s.metrics)
	}
	s.limiter = apimw.NewRateLimiter(s.cfg.RateLimit, s.cfg.RateBurst)
	s.limiter.OnReject = func(*http.Request) { s.http.rateLimited.Inc() }

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the Prometheus registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(s.instrument)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match", "X-Requested-With"},
		ExposedHeaders:   []string{"ETag", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// The event stream is long-lived, so it sits outside the timeout.
		r.Get("/events", s.handleSSE)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware)
			r.Use(middleware.Timeout(config.DurationOr(s.cfg.RequestTimeout, 30*time.Second)))

			r.Post("/analyses", s.handleAnalyze)
			r.Post("/scenarios/compare", s.handleCompare)
			r.Post("/reports", s.handleReport)
			r.Get("/reference", s.handleReference)
			r.Get("/stats", s.handleStats)
		})
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response. Encoding failures are reported as 500.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(status)
		return
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
