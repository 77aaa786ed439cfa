package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/analysis"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/repository"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/velocity"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/worker"
)

// MaxListLimit caps GET /merchants/{id}/analyses.
const MaxListLimit = 100

// Dependencies are the collaborators a Handler serves from. Repo, Cache,
// Bus and Limiter may be nil.
type Dependencies struct {
	Repo     domain.Repository
	Cache    domain.Cache
	Bus      domain.EventBus
	Analyzer *analysis.Analyzer
	Limiter  *velocity.Limiter

	// CacheTTL is how long analyses stay cached; zero disables caching.
	CacheTTL     time.Duration
	MaxBodyBytes int64
	Version      string
}

// Handler holds the HTTP handlers.
type Handler struct {
	repo         domain.Repository
	cache        domain.Cache
	bus          domain.EventBus
	analyzer     *analysis.Analyzer
	limiter      *velocity.Limiter
	cacheTTL     time.Duration
	maxBodyBytes int64
	version      string
}

// NewHandler creates a handler. A nil analyzer is replaced by the default one.
func NewHandler(deps Dependencies) *Handler {
	if deps.Analyzer == nil {
		deps.Analyzer = analysis.NewDefault()
	}
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		repo:         deps.Repo,
		cache:        deps.Cache,
		bus:          deps.Bus,
		analyzer:     deps.Analyzer,
		limiter:      deps.Limiter,
		cacheTTL:     deps.CacheTTL,
		maxBodyBytes: deps.MaxBodyBytes,
		version:      deps.Version,
	}
}

// AnalyzeRequest is the request body for POST /analyze.
type AnalyzeRequest struct {
	ReportID   string             `json:"reportId,omitempty"`
	MerchantID string             `json:"merchantId"`
	StoreName  string             `json:"storeName,omitempty"`
	Sections   map[string]any     `json:"sections"`
	Extra      map[string]float64 `json:"extra,omitempty"`
}

// AnalyzeResponse is the synchronous response for POST /analyze.
type AnalyzeResponse struct {
	Analysis *domain.Analysis `json:"analysis"`
	Metadata struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
	} `json:"metadata"`
}

// AcceptedResponse is returned for POST /analyze?async=true.
type AcceptedResponse struct {
	ReportID string `json:"reportId"`
	Status   string `json:"status"`
	TraceID  string `json:"traceId"`
}

// Analyze handles POST /analyze. The report is analyzed in the request
// unless async=true, in which case it is queued for the worker.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "report exceeds the size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	details, err := validateAnalyzeRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "report does not match the expected shape",
			"details": details,
		})
		return
	}

	var req AnalyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	if _, err := h.limiter.Allow(ctx, tenantID, req.MerchantID); err != nil {
		if errors.Is(err, velocity.ErrThrottled) {
			writeError(w, http.StatusTooManyRequests, "too many analysis requests for this merchant")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := &domain.Report{
		ID:         req.ReportID,
		TenantID:   tenantID,
		MerchantID: req.MerchantID,
		StoreName:  req.StoreName,
		Sections:   req.Sections,
		CreatedAt:  time.Now().UTC(),
	}
	if report.ID == "" {
		report.ID = uuid.New().String()
	}

	saved := false
	if h.repo != nil {
		if err := h.repo.SaveReport(ctx, tenantID, report); err != nil {
			slog.Error("failed to save report", "report_id", report.ID, "error", err)
		} else {
			saved = true
		}
	}

	if r.URL.Query().Get("async") == "true" {
		h.enqueue(w, r, report, saved, req.Extra)
		return
	}

	a := h.analyzer.Run(ctx, &analysis.Input{
		TenantID:  tenantID,
		Report:    report,
		TraceID:   traceID,
		StartTime: start,
		Extra:     req.Extra,
	})
	h.store(r, a)

	resp := AnalyzeResponse{Analysis: a}
	resp.Metadata.TraceID = traceID
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusOK, resp)
}

// enqueue publishes report.ingested. A report that could not be stored
// travels inline.
func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, report *domain.Report, saved bool, extra map[string]float64) {
	if h.bus == nil {
		writeError(w, http.StatusServiceUnavailable, "event bus not available")
		return
	}

	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	msg := worker.ReportMessage{
		ReportID: report.ID,
		TenantID: tenantID,
		TraceID:  traceID,
		Extra:    extra,
	}
	if !saved {
		msg.Report = report
	}

	payload, _ := json.Marshal(msg)
	if err := h.bus.Publish(ctx, tenantID, domain.TopicReportIngested, payload); err != nil {
		slog.Error("failed to queue report", "report_id", report.ID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "failed to queue report")
		return
	}

	writeJSON(w, http.StatusAccepted, AcceptedResponse{
		ReportID: report.ID,
		Status:   "accepted",
		TraceID:  traceID,
	})
}

// store persists, caches and announces a synchronous analysis. Failures
// are logged and do not fail the request.
func (h *Handler) store(r *http.Request, a *domain.Analysis) {
	ctx := r.Context()
	tenantID := a.TenantID

	if h.repo != nil {
		if err := h.repo.SaveAnalysis(ctx, tenantID, a); err != nil {
			slog.Error("failed to save analysis", "analysis_id", a.ID, "error", err)
		}
	}
	if h.cache != nil && h.cacheTTL > 0 {
		if err := h.cache.SetAnalysis(ctx, tenantID, a, h.cacheTTL); err != nil {
			slog.Warn("failed to cache analysis", "analysis_id", a.ID, "error", err)
		}
	}
	if h.bus == nil {
		return
	}

	payload, _ := json.Marshal(a)
	if err := h.bus.Publish(ctx, tenantID, domain.TopicAnalysisCompleted, payload); err != nil {
		slog.Error("failed to publish analysis", "analysis_id", a.ID, "error", err)
	}
	if worker.ShouldAlert(a) {
		alert, _ := json.Marshal(worker.NewRiskAlert(a))
		if err := h.bus.Publish(ctx, tenantID, domain.TopicRiskAlert, alert); err != nil {
			slog.Error("failed to publish risk alert", "analysis_id", a.ID, "error", err)
		}
	}
}

// GetAnalysis handles GET /analyses/{id}, reading through the cache.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	id := chi.URLParam(r, "id")

	if h.cache != nil {
		a, err := h.cache.GetAnalysis(ctx, tenantID, id)
		if err != nil {
			slog.Warn("analysis cache read failed", "analysis_id", id, "error", err)
		}
		if a != nil {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, a)
			return
		}
	}

	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	a, err := h.repo.GetAnalysis(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		slog.Error("failed to get analysis", "analysis_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get analysis")
		return
	}

	if h.cache != nil && h.cacheTTL > 0 {
		if err := h.cache.SetAnalysis(ctx, tenantID, a, h.cacheTTL); err != nil {
			slog.Warn("failed to cache analysis", "analysis_id", a.ID, "error", err)
		}
	}

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, a)
}

// ListMerchantAnalyses handles GET /merchants/{id}/analyses?limit=n.
func (h *Handler) ListMerchantAnalyses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	merchantID := chi.URLParam(r, "id")

	limit := repository.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxListLimit)
	}

	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	analyses, err := h.repo.ListAnalysesByMerchant(ctx, tenantID, merchantID, limit)
	if err != nil {
		slog.Error("failed to list analyses", "merchant_id", merchantID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"merchantId": merchantID,
		"analyses":   analyses,
		"count":      len(analyses),
	})
}

// GetReport handles GET /reports/{id}.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	id := chi.URLParam(r, "id")

	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	report, err := h.repo.GetReport(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		slog.Error("failed to get report", "report_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Health reports degraded when a backing store fails its ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]string{}
	status := "healthy"

	check := func(name string, ping func() error) {
		if err := ping(); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			return
		}
		checks[name] = "ok"
	}
	if h.repo != nil {
		check("repository", func() error { return h.repo.Ping(ctx) })
	}
	if h.cache != nil {
		check("cache", func() error { return h.cache.Ping(ctx) })
	}
	if h.bus != nil {
		check("eventBus", func() error { return h.bus.Ping(ctx) })
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": h.version,
		"checks":  checks,
	})
}

// Ready reports whether the analyzer has a persona library and rules loaded.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.analyzer.Evaluator() == nil || h.analyzer.Matcher().Library() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"ready": "false"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ready": "true"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
