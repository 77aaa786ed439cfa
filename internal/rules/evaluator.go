package rules

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/telemetry"
)

// summaryLimit is how many detected risks the summary names.
const summaryLimit = 3

// Evaluator applies a RuleSet to merchant metrics.
// It holds no mutable state and may be shared across goroutines.
type Evaluator struct {
	rules             *RuleSet
	evaluateDefaulted bool
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithDefaultedInputs evaluates rules against the neutral defaults of
// absent fields instead of marking those rules Unavailable. A missing
// revisit rate then reads as 0 and trips R2 and R10.
func WithDefaultedInputs() EvaluatorOption {
	return func(e *Evaluator) {
		e.evaluateDefaulted = true
	}
}

// NewEvaluator creates an evaluator over rs.
func NewEvaluator(rs *RuleSet, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{rules: rs}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RuleSet returns the rules this evaluator applies.
func (e *Evaluator) RuleSet() *RuleSet {
	return e.rules
}

// Evaluate runs every rule against m and the industry averages.
func (e *Evaluator) Evaluate(m domain.Metrics, industry domain.IndustryAverages) domain.RiskAssessment {
	return e.EvaluateExtra(m, industry, nil)
}

// EvaluateExtra is Evaluate with additional variables exposed to rule
// expressions as extra["name"].
//
// Rules run sequentially in registry order. A rule whose evaluation fails
// is recorded in Skipped and does not stop the others; a rule whose input
// metric was defaulted is recorded in Unavailable unless the evaluator was
// built WithDefaultedInputs.
func (e *Evaluator) EvaluateExtra(m domain.Metrics, industry domain.IndustryAverages, extra map[string]float64) domain.RiskAssessment {
	result := domain.RiskAssessment{
		OverallLevel: domain.RiskLow,
		Detected:     []domain.DetectedRisk{},
	}
	if e.rules == nil {
		result.Summary = summarize(result)
		return result
	}

	activation := NewActivation(m, industry, extra)

	for _, c := range e.rules.rules {
		if missing := defaultedInput(m, c.Inputs); missing != "" && !e.evaluateDefaulted {
			slog.Debug("risk rule not evaluated, input defaulted",
				"code", c.Rule.Code,
				"field", missing,
			)
			result.Unavailable = append(result.Unavailable, c.Rule.Code)
			continue
		}

		detected, triggered, err := evaluateRule(c, activation)
		if err != nil {
			slog.Warn("risk rule evaluation skipped",
				"code", c.Rule.Code,
				"error", err,
			)
			telemetry.RuleSkippedTotal.WithLabelValues(c.Rule.Code).Inc()
			result.Skipped = append(result.Skipped, c.Rule.Code)
			continue
		}
		if triggered {
			result.Detected = append(result.Detected, detected)
		}
	}

	SortDetected(result.Detected)

	if len(result.Detected) > 0 {
		total := 0.0
		worst := domain.RiskLow
		for _, d := range result.Detected {
			total += d.Score
			if d.Level.Rank() > worst.Rank() {
				worst = d.Level
			}
		}
		result.AverageScore = total / float64(len(result.Detected))
		result.OverallLevel = OverallLevel(result.AverageScore)
		// The worst single level is a floor so one severe risk is not averaged away.
		if worst.Rank() > result.OverallLevel.Rank() {
			result.OverallLevel = worst
		}
	}

	result.Summary = summarize(result)
	return result
}

// NewActivation builds the CEL variable bindings for one evaluation.
func NewActivation(m domain.Metrics, industry domain.IndustryAverages, extra map[string]float64) map[string]any {
	if extra == nil {
		extra = map[string]float64{}
	}
	return map[string]any{
		domain.FieldRevisitRate:              m.RevisitRate,
		domain.FieldNewCustomerRatio:         m.NewCustomerRatio,
		domain.FieldNewCustomerChange:        m.NewCustomerChange,
		domain.FieldDeliveryRatio:            m.DeliveryRatio,
		domain.FieldDeliverySalesChange:      m.DeliverySalesChange,
		domain.FieldCancellationRate:         m.CancellationRate,
		domain.FieldSlumpDays:                m.SlumpDays,
		domain.FieldShortTermDrop:            m.ShortTermDrop,
		domain.FieldCoreAgeGap:               m.CoreAgeGap,
		domain.FieldAreaTerminationRatio:     m.AreaTerminationRatio,
		domain.FieldIndustryTerminationRatio: m.IndustryTerminationRatio,
		domain.FieldMarketFitScore:           m.MarketFitScore,
		domain.FieldBusinessChurnRisk:        m.BusinessChurnRisk,
		VarIndustryRevisitRate:               industry.RevisitRate,
		VarIndustryDeliveryRatio:             industry.DeliveryRatio,
		VarIndustryCancellationRate:          industry.CancellationRate,
		VarIndustryMarketFit:                 industry.MarketFitScore,
		VarExtra:                             extra,
	}
}

func evaluateRule(c *CompiledRule, activation map[string]any) (d domain.DetectedRisk, triggered bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			triggered = false
		}
	}()

	value, err := evalDouble(c.Value, activation)
	if err != nil {
		return d, false, fmt.Errorf("value: %w", err)
	}
	threshold, err := evalDouble(c.Threshold, activation)
	if err != nil {
		return d, false, fmt.Errorf("threshold: %w", err)
	}

	if !crosses(c.Rule.Comparison, value, threshold) {
		return d, false, nil
	}

	severity := math.Abs(value - threshold)
	level := LevelFor(severity)

	return domain.DetectedRisk{
		Code:      c.Rule.Code,
		Name:      c.Rule.Name,
		Level:     level,
		Score:     math.Min(100, severity*c.Rule.Multiplier),
		Severity:  severity,
		Value:     value,
		Threshold: threshold,
		Evidence: fmt.Sprintf("%s = %.2f %s threshold %.2f (severity %.2f)",
			c.Rule.Value, value, c.Rule.Comparison, threshold, severity),
		Priority: c.Rule.Priority,
		Impact:   c.Rule.Impact,
	}, true, nil
}

func evalDouble(prg cel.Program, activation map[string]any) (float64, error) {
	out, _, err := prg.Eval(activation)
	if err != nil {
		return 0, err
	}
	v, ok := out.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("expected double, got %T", out.Value())
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite result %v", v)
	}
	return v, nil
}

func crosses(cmp domain.Comparison, value, threshold float64) bool {
	switch cmp {
	case domain.AtOrBelow:
		return value <= threshold
	case domain.AtOrAbove:
		return value >= threshold
	}
	return false
}

func defaultedInput(m domain.Metrics, inputs []string) string {
	for _, f := range inputs {
		if m.IsDefaulted(f) {
			return f
		}
	}
	return ""
}

// LevelFor maps a severity (distance past threshold) to a risk level.
func LevelFor(severity float64) domain.RiskLevel {
	switch {
	case severity >= 20:
		return domain.RiskCritical
	case severity >= 10:
		return domain.RiskHigh
	case severity >= 5:
		return domain.RiskMedium
	}
	return domain.RiskLow
}

// OverallLevel maps a mean detected score to a risk level.
func OverallLevel(mean float64) domain.RiskLevel {
	switch {
	case mean >= 80:
		return domain.RiskCritical
	case mean >= 60:
		return domain.RiskHigh
	case mean >= 40:
		return domain.RiskMedium
	}
	return domain.RiskLow
}

// SortDetected orders risks by priority ascending, then score descending.
// Equal keys keep their registry order.
func SortDetected(detected []domain.DetectedRisk) {
	sort.SliceStable(detected, func(i, j int) bool {
		if detected[i].Priority != detected[j].Priority {
			return detected[i].Priority < detected[j].Priority
		}
		return detected[i].Score > detected[j].Score
	})
}

func summarize(a domain.RiskAssessment) string {
	if len(a.Detected) == 0 {
		return "No risk indicators were triggered."
	}

	top := a.Detected
	if len(top) > summaryLimit {
		top = top[:summaryLimit]
	}
	names := make([]string, len(top))
	for i, d := range top {
		names[i] = fmt.Sprintf("%s %s (%s)", d.Code, d.Name, d.Level)
	}

	return fmt.Sprintf("%d risk indicator(s) triggered, overall level %s. Most urgent: %s.",
		len(a.Detected), a.OverallLevel, strings.Join(names, ", "))
}
