package indicator

import (
	"strings"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

// TrendCutoff is the percent change at which a series stops being stable.
const TrendCutoff = 3.0

// ClassifyChange maps a percent change to a trend direction.
// Changes of at least +3 are increasing, at most -3 decreasing.
func ClassifyChange(change float64) domain.Trend {
	switch {
	case change >= TrendCutoff:
		return domain.TrendIncreasing
	case change <= -TrendCutoff:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// ParseTrend reads a trend label in English or Korean.
func ParseTrend(s string) (domain.Trend, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "increasing", "increase", "up", "rising", "증가", "상승":
		return domain.TrendIncreasing, true
	case "decreasing", "decrease", "down", "falling", "감소", "하락":
		return domain.TrendDecreasing, true
	case "stable", "flat", "steady", "유지", "보합":
		return domain.TrendStable, true
	}
	return "", false
}

// MarketFitScore combines revisit rate, new-customer ratio and the two
// headline trends into a 0-100 score. Bucket lower bounds are inclusive.
func MarketFitScore(m domain.Metrics) float64 {
	return revisitPoints(m.RevisitRate) +
		newCustomerPoints(m.NewCustomerRatio) +
		risingPoints(m.SalesAmountTrend) +
		risingPoints(m.UniqueCustomerTrend)
}

// BusinessChurnRisk combines area and industry termination ratios with the
// two headline trends into a 0-100 estimate of exit risk.
func BusinessChurnRisk(m domain.Metrics) float64 {
	return areaTerminationPoints(m.AreaTerminationRatio) +
		industryTerminationPoints(m.IndustryTerminationRatio) +
		salesDeclinePoints(m.SalesAmountTrend) +
		customerDeclinePoints(m.UniqueCustomerTrend)
}

func revisitPoints(rate float64) float64 {
	switch {
	case rate >= 50:
		return 40
	case rate >= 30:
		return 30
	case rate >= 20:
		return 20
	case rate >= 10:
		return 10
	}
	return 0
}

func newCustomerPoints(ratio float64) float64 {
	switch {
	case ratio >= 40:
		return 20
	case ratio >= 30:
		return 15
	case ratio >= 20:
		return 10
	case ratio >= 10:
		return 5
	}
	return 0
}

func risingPoints(t domain.Trend) float64 {
	switch t {
	case domain.TrendIncreasing:
		return 20
	case domain.TrendDecreasing:
		return 0
	}
	return 10
}

func areaTerminationPoints(ratio float64) float64 {
	switch {
	case ratio >= 20:
		return 30
	case ratio >= 10:
		return 20
	case ratio >= 5:
		return 10
	}
	return 0
}

func industryTerminationPoints(ratio float64) float64 {
	switch {
	case ratio >= 20:
		return 25
	case ratio >= 10:
		return 15
	case ratio >= 5:
		return 8
	}
	return 0
}

func salesDeclinePoints(t domain.Trend) float64 {
	switch t {
	case domain.TrendDecreasing:
		return 25
	case domain.TrendIncreasing:
		return 0
	}
	return 12
}

func customerDeclinePoints(t domain.Trend) float64 {
	switch t {
	case domain.TrendDecreasing:
		return 20
	case domain.TrendIncreasing:
		return 0
	}
	return 10
}
