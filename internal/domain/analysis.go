package domain

import "time"

// Mitigation is the canned remediation for one detected risk code.
type Mitigation struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Tactics []string `json:"tactics"`
}

// Pipeline step names recorded in Analysis.Degraded and step timings.
const (
	StepMetrics    = "metrics"
	StepRisk       = "risk"
	StepComponents = "components"
	StepPersona    = "persona"
	StepMitigation = "mitigation"
)

// Analysis is the full result of one merchant analysis run.
type Analysis struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	ReportID   string `json:"reportId"`
	MerchantID string `json:"merchantId"`

	Metrics     Metrics           `json:"metrics"`
	Risk        RiskAssessment    `json:"risk"`
	Components  PersonaComponents `json:"components"`
	Persona     PersonaMatch      `json:"persona"`
	Mitigations []Mitigation      `json:"mitigations"`

	// Degraded names the pipeline steps that failed and were replaced by
	// their neutral defaults.
	Degraded []string `json:"degraded,omitempty"`

	Timestamp time.Time        `json:"timestamp"`
	Metadata  AnalysisMetadata `json:"metadata"`
}

// IsDegraded reports whether step fell back to its default.
func (a *Analysis) IsDegraded(step string) bool {
	for _, s := range a.Degraded {
		if s == step {
			return true
		}
	}
	return false
}

// AnalysisMetadata holds processing details for auditing.
type AnalysisMetadata struct {
	TraceID         string           `json:"traceId,omitempty"`
	EngineVersion   string           `json:"engineVersion"`
	Industry        string           `json:"industry"`
	RulesEvaluated  int              `json:"rulesEvaluated"`
	TemplatesScored int              `json:"templatesScored"`
	StepTimesMs     map[string]int64 `json:"stepTimesMs"`
	TotalTimeMs     int64            `json:"totalTimeMs"`
}
