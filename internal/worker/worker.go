// Package worker analyzes reports published on the event bus.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/analysis"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/telemetry"
)

// ErrNoReport is returned for a message that neither carries a report nor
// names one the repository can find.
var ErrNoReport = errors.New("report not available")

// Worker consumes report.ingested events, runs the analyzer and fans the
// result out to storage, the cache and the completion and alert topics.
type Worker struct {
	bus      domain.EventBus
	repo     domain.Repository
	cache    domain.Cache
	analyzer *analysis.Analyzer
	cacheTTL time.Duration

	mu            sync.Mutex
	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs lists the tenants to consume. Empty subscribes to GlobalTenant.
	TenantIDs []string
}

// GlobalTenant is used when no tenants are configured. Messages published
// under it are processed with the tenant named in the payload.
const GlobalTenant = "_global"

// NewWorker creates a worker. repo and cache may be nil.
func NewWorker(bus domain.EventBus, repo domain.Repository, cache domain.Cache, analyzer *analysis.Analyzer, cacheTTL time.Duration) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		repo:     repo,
		cache:    cache,
		analyzer: analyzer,
		cacheTTL: cacheTTL,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to report.ingested for each configured tenant. A tenant
// that fails to subscribe is logged and skipped.
func (w *Worker) Start(cfg Config) error {
	tenants := cfg.TenantIDs
	if len(tenants) == 0 {
		tenants = []string{GlobalTenant}
	}

	started := 0
	for _, tenantID := range tenants {
		tenantID := tenantID
		sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicReportIngested, func(ctx context.Context, msg *domain.Message) error {
			return w.handle(ctx, tenantID, msg)
		})
		if err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}

		w.mu.Lock()
		w.subscriptions = append(w.subscriptions, sub)
		w.mu.Unlock()
		started++
	}

	if started == 0 {
		return fmt.Errorf("no tenant subscriptions could be started")
	}

	slog.Info("workers started",
		"tenant_count", started,
		"topic", domain.TopicReportIngested,
	)
	return nil
}

// ReportMessage is the report.ingested payload. Either Report is inlined or
// ReportID names a stored report.
type ReportMessage struct {
	ReportID string             `json:"reportId,omitempty"`
	TenantID string             `json:"tenantId,omitempty"`
	TraceID  string             `json:"traceId,omitempty"`
	Report   *domain.Report     `json:"report,omitempty"`
	Extra    map[string]float64 `json:"extra,omitempty"`
}

func (w *Worker) handle(ctx context.Context, tenantID string, msg *domain.Message) error {
	a, err := w.Process(ctx, tenantID, msg)
	if err != nil {
		telemetry.WorkerMessagesTotal.WithLabelValues("invalid").Inc()
		return err
	}
	telemetry.WorkerMessagesTotal.WithLabelValues("processed").Inc()

	if msg.ReplyTo != "" {
		payload, _ := json.Marshal(a)
		if err := w.bus.Reply(ctx, msg, payload); err != nil {
			slog.Error("failed to reply with analysis",
				"analysis_id", a.ID,
				"error", err,
			)
		}
	}
	return nil
}

// Process analyzes the report carried by msg and publishes the outcome.
// Storage and publish failures are logged; only unusable messages fail.
func (w *Worker) Process(ctx context.Context, tenantID string, msg *domain.Message) (*domain.Analysis, error) {
	start := time.Now()

	var rm ReportMessage
	if err := json.Unmarshal(msg.Payload, &rm); err != nil {
		slog.Error("failed to parse report message",
			"message_id", msg.ID,
			"error", err,
		)
		return nil, fmt.Errorf("parse report message: %w", err)
	}

	if rm.TenantID != "" {
		tenantID = rm.TenantID
	}

	report, err := w.loadReport(ctx, tenantID, &rm)
	if err != nil {
		slog.Error("report unavailable",
			"message_id", msg.ID,
			"report_id", rm.ReportID,
			"tenant_id", tenantID,
			"error", err,
		)
		return nil, err
	}

	traceID := rm.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	a := w.analyzer.Run(ctx, &analysis.Input{
		TenantID:  tenantID,
		Report:    report,
		TraceID:   traceID,
		StartTime: start,
		Extra:     rm.Extra,
	})

	if w.repo != nil {
		if err := w.repo.SaveAnalysis(ctx, tenantID, a); err != nil {
			slog.Error("failed to save analysis",
				"analysis_id", a.ID,
				"error", err,
			)
		}
	}
	if w.cache != nil && w.cacheTTL > 0 {
		if err := w.cache.SetAnalysis(ctx, tenantID, a, w.cacheTTL); err != nil {
			slog.Warn("failed to cache analysis",
				"analysis_id", a.ID,
				"error", err,
			)
		}
	}

	w.publish(ctx, tenantID, a)

	slog.Info("report analyzed",
		"analysis_id", a.ID,
		"report_id", a.ReportID,
		"merchant_id", a.MerchantID,
		"tenant_id", tenantID,
		"overall_level", a.Risk.OverallLevel,
		"persona", a.Persona.TemplateName,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return a, nil
}

func (w *Worker) loadReport(ctx context.Context, tenantID string, rm *ReportMessage) (*domain.Report, error) {
	if rm.Report != nil {
		return rm.Report, nil
	}
	if rm.ReportID == "" || w.repo == nil {
		return nil, ErrNoReport
	}
	report, err := w.repo.GetReport(ctx, tenantID, rm.ReportID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoReport, err)
	}
	return report, nil
}

func (w *Worker) publish(ctx context.Context, tenantID string, a *domain.Analysis) {
	payload, err := json.Marshal(a)
	if err != nil {
		slog.Error("failed to encode analysis", "analysis_id", a.ID, "error", err)
		return
	}
	if err := w.bus.Publish(ctx, tenantID, domain.TopicAnalysisCompleted, payload); err != nil {
		slog.Error("failed to publish analysis",
			"analysis_id", a.ID,
			"error", err,
		)
	}

	if !ShouldAlert(a) {
		return
	}

	alert, _ := json.Marshal(NewRiskAlert(a))
	if err := w.bus.Publish(ctx, tenantID, domain.TopicRiskAlert, alert); err != nil {
		slog.Error("failed to publish risk alert",
			"analysis_id", a.ID,
			"error", err,
		)
	}
}

// ShouldAlert reports whether a warrants a risk.alert event.
func ShouldAlert(a *domain.Analysis) bool {
	return a != nil && a.Risk.OverallLevel.Rank() >= domain.RiskHigh.Rank()
}

// NewRiskAlert summarizes a for the alert topic.
func NewRiskAlert(a *domain.Analysis) domain.RiskAlert {
	return domain.RiskAlert{
		AnalysisID:   a.ID,
		MerchantID:   a.MerchantID,
		OverallLevel: a.Risk.OverallLevel,
		AverageScore: a.Risk.AverageScore,
		Codes:        a.Risk.Codes(),
		Summary:      a.Risk.Summary,
	}
}

// Stop unsubscribes and cancels in-flight handlers.
func (w *Worker) Stop() error {
	w.cancel()

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("workers stopped")
	return nil
}

// Stats describes the worker's subscriptions.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
