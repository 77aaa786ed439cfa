// Package api exposes the analysis service over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

// Server is the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer routes handler's endpoints.
func NewServer(cfg domain.ServerConfig, handler *Handler) *Server {
	router := chi.NewRouter()

	router.Use(CORSMiddleware)
	router.Use(RecoverMiddleware)
	router.Use(TracingMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(middleware.RealIP)
	router.Use(middleware.Compress(5))

	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(TenantMiddleware)

		r.Post("/analyze", handler.Analyze)
		r.Get("/analyses/{id}", handler.GetAnalysis)
		r.Get("/merchants/{id}/analyses", handler.ListMerchantAnalyses)
		r.Get("/reports/{id}", handler.GetReport)

		r.Get("/risk-codes", handler.ListRiskCodes)
		r.Post("/risks/evaluate", handler.EvaluateRisks)

		r.Get("/personas", handler.ListPersonas)
		r.Post("/personas", handler.CreatePersona)
		r.Post("/personas/reload", handler.ReloadPersonas)
		r.Post("/personas/match", handler.MatchPersona)
		r.Get("/personas/{name}", handler.GetPersona)
		r.Delete("/personas/{name}", handler.DeletePersona)

		r.Get("/industries", handler.ListIndustries)
		r.Put("/industries", handler.PutIndustry)
		r.Post("/industries/reload", handler.ReloadIndustries)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start listens until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
