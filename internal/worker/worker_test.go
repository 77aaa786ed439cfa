package worker

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/analysis"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/bus"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/cache"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/repository"
)

func riskyReport() *domain.Report {
	return &domain.Report{
		ID:         "rpt-001",
		TenantID:   "tenant-001",
		MerchantID: "m-001",
		Sections: map[string]any{
			domain.SectionStore: map[string]any{
				"industry":            "카페",
				"commercial_zone":     "중심상권",
				"months_in_operation": 30.0,
			},
			domain.SectionCustomer: map[string]any{
				"revisit_rate":        20.0,
				"new_customer_ratio":  25.0,
				"new_customer_change": -5.0,
				"core_age_gap":        0.0,
				"female_ratio":        70.0,
				"age_distribution":    map[string]any{"20대": 48.0, "30대": 22.0},
			},
			domain.SectionSales: map[string]any{
				"sales_amount_trend":    "decreasing",
				"sales_count_trend":     "stable",
				"unique_customer_trend": "decreasing",
				"slump_days":            3.0,
				"short_term_drop":       5.0,
			},
			domain.SectionDelivery: map[string]any{
				"delivery_ratio":        10.0,
				"delivery_sales_change": 0.0,
				"cancellation_rate":     1.0,
			},
			domain.SectionIndustry: map[string]any{
				"area_termination_ratio":     22.0,
				"industry_termination_ratio": 21.0,
			},
		},
	}
}

type fixture struct {
	bus    *bus.ChannelBus
	repo   domain.Repository
	cache  domain.Cache
	worker *Worker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "worker.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	c := cache.NewLRUCache(100)
	t.Cleanup(func() { c.Close() })

	return &fixture{
		bus:    eventBus,
		repo:   repo,
		cache:  c,
		worker: NewWorker(eventBus, repo, c, analysis.NewDefault(), time.Minute),
	}
}

func (f *fixture) collect(t *testing.T, tenantID, topic string) <-chan *domain.Message {
	t.Helper()
	ch := make(chan *domain.Message, 10)
	_, err := f.bus.Subscribe(context.Background(), tenantID, topic, func(ctx context.Context, msg *domain.Message) error {
		ch <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	return ch
}

func receive(t *testing.T, ch <-chan *domain.Message) *domain.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestWorkerStartStop(t *testing.T) {
	f := newFixture(t)

	if err := f.worker.Start(Config{TenantIDs: []string{"tenant-001", "tenant-002"}}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stats := f.worker.GetStats()
	if stats.SubscriptionCount != 2 {
		t.Errorf("expected 2 subscriptions, got %d", stats.SubscriptionCount)
	}
	for _, topic := range stats.Topics {
		if topic != domain.TopicReportIngested {
			t.Errorf("unexpected topic %s", topic)
		}
	}

	if err := f.worker.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if n := f.worker.GetStats().SubscriptionCount; n != 0 {
		t.Errorf("expected 0 subscriptions after stop, got %d", n)
	}
}

func TestWorkerGlobalTenant(t *testing.T) {
	f := newFixture(t)

	if err := f.worker.Start(Config{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.worker.Stop()

	if n := f.bus.SubscriberCount(GlobalTenant, domain.TopicReportIngested); n != 1 {
		t.Errorf("expected a global subscription, got %d", n)
	}
}

func TestWorkerPipeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := "tenant-001"

	completed := f.collect(t, tenantID, domain.TopicAnalysisCompleted)
	alerts := f.collect(t, tenantID, domain.TopicRiskAlert)

	if err := f.worker.Start(Config{TenantIDs: []string{tenantID}}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.worker.Stop()

	payload, _ := json.Marshal(ReportMessage{Report: riskyReport(), TraceID: "trace-001"})
	if err := f.bus.Publish(ctx, tenantID, domain.TopicReportIngested, payload); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	var got domain.Analysis
	if err := json.Unmarshal(receive(t, completed).Payload, &got); err != nil {
		t.Fatalf("failed to decode analysis: %v", err)
	}

	t.Run("Completed", func(t *testing.T) {
		if got.MerchantID != "m-001" || got.ReportID != "rpt-001" {
			t.Errorf("unexpected identity %s/%s", got.MerchantID, got.ReportID)
		}
		if got.Metadata.TraceID != "trace-001" {
			t.Errorf("expected trace-001, got %s", got.Metadata.TraceID)
		}
		if !got.Risk.Has("R10") {
			t.Errorf("expected R10 detected, got %v", got.Risk.Codes())
		}
	})

	t.Run("Alert", func(t *testing.T) {
		var alert domain.RiskAlert
		if err := json.Unmarshal(receive(t, alerts).Payload, &alert); err != nil {
			t.Fatalf("failed to decode alert: %v", err)
		}
		if alert.AnalysisID != got.ID {
			t.Errorf("expected alert for %s, got %s", got.ID, alert.AnalysisID)
		}
		if alert.OverallLevel.Rank() < domain.RiskHigh.Rank() {
			t.Errorf("expected HIGH or worse, got %s", alert.OverallLevel)
		}
	})

	t.Run("Persisted", func(t *testing.T) {
		stored, err := f.repo.GetAnalysis(ctx, tenantID, got.ID)
		if err != nil {
			t.Fatalf("GetAnalysis failed: %v", err)
		}
		if stored.Persona.TemplateName != got.Persona.TemplateName {
			t.Errorf("expected persona %s, got %s", got.Persona.TemplateName, stored.Persona.TemplateName)
		}
	})

	t.Run("Cached", func(t *testing.T) {
		cached, err := f.cache.GetAnalysis(ctx, tenantID, got.ID)
		if err != nil {
			t.Fatalf("GetAnalysis failed: %v", err)
		}
		if cached == nil {
			t.Fatal("expected cached analysis")
		}
		if cached.Risk.OverallLevel != got.Risk.OverallLevel {
			t.Errorf("expected %s, got %s", got.Risk.OverallLevel, cached.Risk.OverallLevel)
		}
	})
}

func TestWorkerProcess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("StoredReport", func(t *testing.T) {
		if err := f.repo.SaveReport(ctx, tenantID, riskyReport()); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}

		payload, _ := json.Marshal(ReportMessage{ReportID: "rpt-001"})
		a, err := f.worker.Process(ctx, tenantID, &domain.Message{ID: "msg-001", Payload: payload})
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if a.ReportID != "rpt-001" {
			t.Errorf("expected rpt-001, got %s", a.ReportID)
		}
		if a.Metadata.TraceID != "msg-001" {
			t.Errorf("expected message ID as trace, got %s", a.Metadata.TraceID)
		}
	})

	t.Run("PayloadTenantWins", func(t *testing.T) {
		payload, _ := json.Marshal(ReportMessage{TenantID: "tenant-xyz", Report: riskyReport()})
		a, err := f.worker.Process(ctx, GlobalTenant, &domain.Message{ID: "msg-002", Payload: payload})
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if a.TenantID != "tenant-xyz" {
			t.Errorf("expected tenant-xyz, got %s", a.TenantID)
		}
	})

	t.Run("MissingReport", func(t *testing.T) {
		payload, _ := json.Marshal(ReportMessage{ReportID: "does-not-exist"})
		_, err := f.worker.Process(ctx, tenantID, &domain.Message{ID: "msg-003", Payload: payload})
		if !errors.Is(err, ErrNoReport) {
			t.Errorf("expected ErrNoReport, got %v", err)
		}
	})

	t.Run("EmptyMessage", func(t *testing.T) {
		_, err := f.worker.Process(ctx, tenantID, &domain.Message{ID: "msg-004", Payload: []byte(`{}`)})
		if !errors.Is(err, ErrNoReport) {
			t.Errorf("expected ErrNoReport, got %v", err)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := f.worker.Process(ctx, tenantID, &domain.Message{ID: "msg-005", Payload: []byte("not json")})
		if err == nil {
			t.Error("expected error for invalid payload")
		}
	})
}

func TestWorkerRequestReply(t *testing.T) {
	f := newFixture(t)
	tenantID := "tenant-001"

	if err := f.worker.Start(Config{TenantIDs: []string{tenantID}}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer f.worker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload, _ := json.Marshal(ReportMessage{Report: riskyReport()})
	reply, err := f.bus.Request(ctx, tenantID, domain.TopicReportIngested, payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var a domain.Analysis
	if err := json.Unmarshal(reply, &a); err != nil {
		t.Fatalf("failed to decode reply: %v", err)
	}
	if a.MerchantID != "m-001" {
		t.Errorf("expected m-001, got %s", a.MerchantID)
	}
}

func TestShouldAlert(t *testing.T) {
	tests := []struct {
		level    domain.RiskLevel
		expected bool
	}{
		{domain.RiskLow, false},
		{domain.RiskMedium, false},
		{domain.RiskHigh, true},
		{domain.RiskCritical, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			a := &domain.Analysis{Risk: domain.RiskAssessment{OverallLevel: tt.level}}
			if got := ShouldAlert(a); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}

	if ShouldAlert(nil) {
		t.Error("expected no alert for nil analysis")
	}
}
