// Package analysis runs the full merchant analysis pipeline and assembles
// the analysis bundle.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/indicator"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/industry"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/mitigation"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/persona"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/rules"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/telemetry"
)

// EngineVersion is recorded in every analysis.
const EngineVersion = "storelens-1.0"

// Analyzer sequences metrics extraction, risk evaluation, persona matching
// and mitigation lookup. Steps never fail the run: a step that panics is
// logged, named in Analysis.Degraded and replaced by its neutral default.
//
// The persona library and industry table can be swapped at runtime; each
// run reads them once so it sees a consistent pair.
type Analyzer struct {
	evaluator  *rules.Evaluator
	advisor    *mitigation.Advisor
	matcher    atomic.Pointer[persona.Matcher]
	industries atomic.Pointer[industry.Table]
	generator  persona.Generator
	tracer     trace.Tracer

	// Step functions, replaceable in tests.
	extractMetrics    func(*domain.Report) domain.Metrics
	extractComponents func(*domain.Report) domain.PersonaComponents
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithGenerator sets a persona generator consulted when no template matches.
func WithGenerator(g persona.Generator) Option {
	return func(a *Analyzer) { a.generator = g }
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(a *Analyzer) { a.tracer = t }
}

// NewAnalyzer creates an analyzer from its collaborators.
func NewAnalyzer(ev *rules.Evaluator, lib *persona.Library, table *industry.Table, advisor *mitigation.Advisor, opts ...Option) *Analyzer {
	a := &Analyzer{
		evaluator:         ev,
		advisor:           advisor,
		tracer:            otel.Tracer("storelens/analysis"),
		extractMetrics:    indicator.Extract,
		extractComponents: persona.ExtractComponents,
	}
	a.matcher.Store(persona.NewMatcher(lib))
	a.industries.Store(table)

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewDefault creates an analyzer over the built-in rules, templates,
// industry averages and mitigation table.
func NewDefault(opts ...Option) *Analyzer {
	return NewAnalyzer(
		rules.NewEvaluator(rules.MustDefault()),
		persona.DefaultLibrary(),
		industry.DefaultTable(),
		mitigation.NewAdvisor(mitigation.DefaultTable()),
		opts...,
	)
}

// Evaluator returns the risk evaluator.
func (a *Analyzer) Evaluator() *rules.Evaluator { return a.evaluator }

// Matcher returns the current persona matcher.
func (a *Analyzer) Matcher() *persona.Matcher { return a.matcher.Load() }

// Industries returns the current industry averages table.
func (a *Analyzer) Industries() *industry.Table { return a.industries.Load() }

// SetLibrary swaps in a new persona library for subsequent runs.
func (a *Analyzer) SetLibrary(lib *persona.Library) {
	a.matcher.Store(persona.NewMatcher(lib))
}

// SetIndustries swaps in a new industry averages table for subsequent runs.
func (a *Analyzer) SetIndustries(t *industry.Table) {
	a.industries.Store(t)
}

// Input is one analysis request.
type Input struct {
	TenantID  string
	Report    *domain.Report
	TraceID   string
	StartTime time.Time

	// Extra is exposed to risk rule expressions as extra["name"].
	Extra map[string]float64
}

// Run analyzes in.Report. It always returns a complete analysis.
func (a *Analyzer) Run(ctx context.Context, in *Input) *domain.Analysis {
	start := time.Now()
	if in.StartTime.IsZero() {
		in.StartTime = start
	}

	report := in.Report
	if report == nil {
		report = &domain.Report{}
	}

	ctx, span := a.tracer.Start(ctx, "analysis.Run", trace.WithAttributes(
		attribute.String("tenant_id", in.TenantID),
		attribute.String("merchant_id", report.MerchantID),
		attribute.String("report_id", report.ID),
	))
	defer span.End()

	matcher := a.matcher.Load()
	table := a.industries.Load()

	result := &domain.Analysis{
		ID:         uuid.New().String(),
		TenantID:   in.TenantID,
		ReportID:   report.ID,
		MerchantID: report.MerchantID,
		Timestamp:  time.Now().UTC(),
		Metadata: domain.AnalysisMetadata{
			TraceID:       traceID(in.TraceID, span),
			EngineVersion: EngineVersion,
			StepTimesMs:   make(map[string]int64, 5),
		},
	}

	r := &run{analysis: result, report: report}

	result.Metrics = step(r, domain.StepMetrics, indicator.Neutral, func() domain.Metrics {
		return a.extractMetrics(report)
	})

	result.Components = step(r, domain.StepComponents, domain.DefaultComponents, func() domain.PersonaComponents {
		return a.extractComponents(report)
	})

	var averages domain.IndustryAverages
	if table != nil {
		key := industry.Key(result.Components.Industry)
		averages = table.Lookup(key)
		result.Metadata.Industry = averages.Industry
	}

	result.Risk = step(r, domain.StepRisk, neutralAssessment, func() domain.RiskAssessment {
		return a.evaluator.EvaluateExtra(result.Metrics, averages, in.Extra)
	})
	if !result.IsDegraded(domain.StepRisk) {
		result.Metadata.RulesEvaluated = a.evaluator.RuleSet().Len()
	}

	fallbackPersona := func() domain.PersonaMatch {
		return domain.PersonaMatch{
			TemplateName: persona.DefaultPersonaName,
			Fallback:     true,
			Template:     persona.DefaultPersona(),
			Components:   result.Components,
		}
	}
	result.Persona = step(r, domain.StepPersona, fallbackPersona, func() domain.PersonaMatch {
		return matcher.Match(result.Components)
	})
	if lib := matcher.Library(); lib != nil && !result.IsDegraded(domain.StepPersona) {
		result.Metadata.TemplatesScored = lib.Len()
	}
	if result.Persona.Fallback && a.generator != nil {
		a.generate(ctx, result)
	}

	result.Mitigations = step(r, domain.StepMitigation, noMitigations, func() []domain.Mitigation {
		return a.advisor.Suggest(result.Risk.Detected)
	})

	result.Metadata.TotalTimeMs = time.Since(in.StartTime).Milliseconds()

	a.record(span, result, time.Since(start))

	slog.Debug("analysis completed",
		"analysis_id", result.ID,
		"merchant_id", result.MerchantID,
		"overall_level", result.Risk.OverallLevel,
		"persona", result.Persona.TemplateName,
		"degraded", result.Degraded,
	)

	return result
}

// generate asks the generator for a persona after a fallback match.
// Failures keep the fallback persona.
func (a *Analyzer) generate(ctx context.Context, result *domain.Analysis) {
	ctx, span := a.tracer.Start(ctx, "analysis.GeneratePersona")
	defer span.End()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("persona generator panicked, keeping fallback persona",
				"analysis_id", result.ID,
				"error", fmt.Sprint(rec),
			)
		}
	}()

	t, err := a.generator.Generate(ctx, result.Components)
	if err != nil {
		span.RecordError(err)
		slog.Warn("persona generation failed, keeping fallback persona",
			"analysis_id", result.ID,
			"error", err,
		)
		return
	}

	result.Persona.TemplateName = t.Name
	result.Persona.Template = t
	result.Persona.Generated = true
}

func (a *Analyzer) record(span trace.Span, result *domain.Analysis, elapsed time.Duration) {
	telemetry.AnalysesTotal.WithLabelValues(string(result.Risk.OverallLevel)).Inc()
	telemetry.AnalysisDuration.Observe(elapsed.Seconds())
	telemetry.PersonaMatchesTotal.WithLabelValues(result.Persona.TemplateName).Inc()
	for _, d := range result.Risk.Detected {
		telemetry.RisksDetectedTotal.WithLabelValues(d.Code, string(d.Level)).Inc()
	}
	for _, s := range result.Degraded {
		telemetry.DegradedStepsTotal.WithLabelValues(s).Inc()
	}

	span.SetAttributes(
		attribute.String("analysis_id", result.ID),
		attribute.String("overall_level", string(result.Risk.OverallLevel)),
		attribute.Int("risks_detected", len(result.Risk.Detected)),
		attribute.String("persona", result.Persona.TemplateName),
	)
	if len(result.Degraded) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("degraded steps: %v", result.Degraded))
	}
}

// run carries per-invocation state for step.
type run struct {
	analysis *domain.Analysis
	report   *domain.Report
}

// step runs fn under a recover guard and records its duration. On panic it
// logs, marks the step degraded and returns fallback().
func step[T any](r *run, name string, fallback func() T, fn func() T) (out T) {
	start := time.Now()
	defer func() {
		r.analysis.Metadata.StepTimesMs[name] = time.Since(start).Milliseconds()
		if rec := recover(); rec != nil {
			slog.Warn("analysis step failed, using default",
				"step", name,
				"report_id", r.report.ID,
				"merchant_id", r.report.MerchantID,
				"error", fmt.Sprint(rec),
			)
			r.analysis.Degraded = append(r.analysis.Degraded, name)
			out = fallback()
		}
	}()
	return fn()
}

func neutralAssessment() domain.RiskAssessment {
	return domain.RiskAssessment{
		OverallLevel: domain.RiskLow,
		Detected:     []domain.DetectedRisk{},
		Summary:      "Risk evaluation was unavailable for this report.",
	}
}

func noMitigations() []domain.Mitigation {
	return []domain.Mitigation{}
}

func traceID(given string, span trace.Span) string {
	if given != "" {
		return given
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.New().String()
}
