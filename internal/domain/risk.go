package domain

// RiskLevel grades a detected risk or an overall assessment.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Rank orders levels from LOW (0) to CRITICAL (3). Unknown levels rank -1.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// Comparison is the direction in which a rule's value crosses its threshold.
type Comparison string

const (
	AtOrBelow Comparison = "<="
	AtOrAbove Comparison = ">="
)

// RiskRule defines one risk code.
// Value and Threshold are CEL expressions over the metric and industry
// variables; relative rules reference industry averages in Threshold.
type RiskRule struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Value       string     `json:"value"`
	Threshold   string     `json:"threshold"`
	Comparison  Comparison `json:"comparison"`

	// Multiplier scales severity into the 0-100 score.
	Multiplier float64 `json:"multiplier"`

	// Priority is the primary sort key; lower is more urgent.
	Priority int     `json:"priority"`
	Impact   float64 `json:"impact"`
}

// DetectedRisk is a triggered risk rule.
type DetectedRisk struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Level     RiskLevel `json:"level"`
	Score     float64   `json:"score"`
	Severity  float64   `json:"severity"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Evidence  string    `json:"evidence"`
	Priority  int       `json:"priority"`
	Impact    float64   `json:"impact"`
}

// RiskAssessment is the result of evaluating every risk rule for one merchant.
type RiskAssessment struct {
	OverallLevel RiskLevel      `json:"overallLevel"`
	AverageScore float64        `json:"averageScore"`
	Detected     []DetectedRisk `json:"detected"`

	// Skipped holds codes whose evaluation failed and were treated as not detected.
	Skipped []string `json:"skipped,omitempty"`

	// Unavailable holds codes not evaluated because an input metric was
	// absent from the report.
	Unavailable []string `json:"unavailable,omitempty"`
	Summary     string   `json:"summary"`
}

// Codes returns the detected risk codes in assessment order.
func (a RiskAssessment) Codes() []string {
	codes := make([]string, len(a.Detected))
	for i, d := range a.Detected {
		codes[i] = d.Code
	}
	return codes
}

// Has reports whether code was detected.
func (a RiskAssessment) Has(code string) bool {
	for _, d := range a.Detected {
		if d.Code == code {
			return true
		}
	}
	return false
}

// IndustryAverages holds the benchmark values for one industry category.
type IndustryAverages struct {
	Industry         string  `json:"industry"`
	RevisitRate      float64 `json:"revisitRate"`
	DeliveryRatio    float64 `json:"deliveryRatio"`
	CancellationRate float64 `json:"cancellationRate"`
	MarketFitScore   float64 `json:"marketFitScore"`
}
