// Package httpadapter exposes the evaluation engine over HTTP. It is thin
// transport plumbing: decode, validate, call, encode. The engine owns every
// semantic decision.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloomwatch/bloom-eval-service/internal/adapter/globe"
	"github.com/bloomwatch/bloom-eval-service/internal/domain"
	"github.com/bloomwatch/bloom-eval-service/internal/eval"
)

// BloomEvaluator runs full bloom evaluations and reports readiness.
type BloomEvaluator interface {
	Evaluate(ctx context.Context, req eval.Request) (domain.BloomResult, error)
	CheckReadiness(ctx context.Context) error
}

// Providers collects the direct provider passthrough routes. Each mirrors a
// standalone endpoint of the service alongside the composed evaluation.
type Providers struct {
	Climate      eval.ClimateProvider
	Vegetation   eval.VegetationProvider
	Observations eval.ObservationProvider
	Globe        *globe.Client
}

// Server hosts the evaluation API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	evaluator  BloomEvaluator
	providers  Providers
	radiusKm   float64
	logger     *slog.Logger
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(addr string, evaluator BloomEvaluator, providers Providers, radiusKm float64, logger *slog.Logger) *Server {
	s := &Server{
		evaluator: evaluator,
		providers: providers,
		radiusKm:  radiusKm,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/bloom-status", s.handleBloomStatus)
	r.Post("/climate", s.handleClimate)
	r.Post("/ndvi", s.handleNDVI)
	r.Post("/inaturalist", s.handleObservations)
	r.Post("/globe", s.handleGlobe)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
		// The bloom route can legitimately block for the whole vegetation
		// polling budget.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.evaluator.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
