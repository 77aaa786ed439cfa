package domain

// Trend is the direction of a time series over the report window.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Valid reports whether t is one of the known trend directions.
func (t Trend) Valid() bool {
	switch t {
	case TrendIncreasing, TrendDecreasing, TrendStable:
		return true
	}
	return false
}

// Metrics holds the numeric indicators derived from a merchant report.
// Percent fields are on a 0-100 scale. Values are computed once per analysis
// and never modified afterwards.
type Metrics struct {
	RevisitRate       float64 `json:"revisitRate"`
	NewCustomerRatio  float64 `json:"newCustomerRatio"`
	NewCustomerChange float64 `json:"newCustomerChange"`
	NewCustomerTrend  Trend   `json:"newCustomerTrend"`

	DeliveryRatio       float64 `json:"deliveryRatio"`
	DeliverySalesChange float64 `json:"deliverySalesChange"`
	CancellationRate    float64 `json:"cancellationRate"`

	SalesAmountTrend    Trend   `json:"salesAmountTrend"`
	SalesCountTrend     Trend   `json:"salesCountTrend"`
	UniqueCustomerTrend Trend   `json:"uniqueCustomerTrend"`
	SlumpDays           float64 `json:"slumpDays"`
	ShortTermDrop       float64 `json:"shortTermDrop"`

	CoreAgeGap float64 `json:"coreAgeGap"`

	AreaTerminationRatio     float64 `json:"areaTerminationRatio"`
	IndustryTerminationRatio float64 `json:"industryTerminationRatio"`

	MarketFitScore    float64 `json:"marketFitScore"`
	BusinessChurnRisk float64 `json:"businessChurnRisk"`

	// Defaulted lists the fields that were absent from the report and
	// replaced by a neutral default, as opposed to reported as zero.
	Defaulted []string `json:"defaulted,omitempty"`
}

// Metric field names, used in Defaulted and as rule expression variables.
const (
	FieldRevisitRate              = "revisit_rate"
	FieldNewCustomerRatio         = "new_customer_ratio"
	FieldNewCustomerChange        = "new_customer_change"
	FieldNewCustomerTrend         = "new_customer_trend"
	FieldDeliveryRatio            = "delivery_ratio"
	FieldDeliverySalesChange      = "delivery_sales_change"
	FieldCancellationRate         = "cancellation_rate"
	FieldSalesAmountTrend         = "sales_amount_trend"
	FieldSalesCountTrend          = "sales_count_trend"
	FieldUniqueCustomerTrend      = "unique_customer_trend"
	FieldSlumpDays                = "slump_days"
	FieldShortTermDrop            = "short_term_drop"
	FieldCoreAgeGap               = "core_age_gap"
	FieldAreaTerminationRatio     = "area_termination_ratio"
	FieldIndustryTerminationRatio = "industry_termination_ratio"
	FieldMarketFitScore           = "market_fit_score"
	FieldBusinessChurnRisk        = "business_churn_risk"
)

// IsDefaulted reports whether field was substituted with a default value.
func (m Metrics) IsDefaulted(field string) bool {
	for _, f := range m.Defaulted {
		if f == field {
			return true
		}
	}
	return false
}

// NeutralMetrics returns the metrics used when nothing could be extracted.
// Every field is marked as defaulted.
func NeutralMetrics() Metrics {
	return Metrics{
		NewCustomerTrend:    TrendStable,
		SalesAmountTrend:    TrendStable,
		SalesCountTrend:     TrendStable,
		UniqueCustomerTrend: TrendStable,
		Defaulted: []string{
			FieldRevisitRate, FieldNewCustomerRatio, FieldNewCustomerChange,
			FieldNewCustomerTrend, FieldDeliveryRatio, FieldDeliverySalesChange,
			FieldCancellationRate, FieldSalesAmountTrend, FieldSalesCountTrend,
			FieldUniqueCustomerTrend, FieldSlumpDays, FieldShortTermDrop,
			FieldCoreAgeGap, FieldAreaTerminationRatio, FieldIndustryTerminationRatio,
		},
	}
}
