// Package indicator derives numeric merchant indicators from analytics reports.
package indicator

import (
	"fmt"
	"log/slog"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

// Field aliases per metric. Upstream producers have shipped both English
// and Korean keys, so each metric lists every spelling seen so far.
var (
	revisitKeys          = []string{"revisit_rate", "revisit_ratio", "재방문율"}
	newCustomerRatioKeys = []string{"new_customer_ratio", "new_customer_rate", "신규고객비율"}
	newCustomerDeltaKeys = []string{"new_customer_change", "new_customer_change_pct", "신규고객증감률"}
	newCustomerTrendKeys = []string{"new_customer_trend", "신규고객추세"}
	coreAgeGapKeys       = []string{"core_age_gap", "target_age_gap", "핵심연령격차"}

	deliveryRatioKeys  = []string{"delivery_ratio", "delivery_sales_ratio", "배달매출비율"}
	deliveryDeltaKeys  = []string{"delivery_sales_change", "delivery_change_pct", "배달매출증감률"}
	cancellationKeys   = []string{"cancellation_rate", "cancel_rate", "취소율"}
	salesAmountTrend   = []string{"sales_amount_trend", "매출금액추세"}
	salesAmountDelta   = []string{"sales_amount_change", "매출금액증감률"}
	salesCountTrend    = []string{"sales_count_trend", "매출건수추세"}
	salesCountDelta    = []string{"sales_count_change", "매출건수증감률"}
	uniqueCustTrend    = []string{"unique_customer_trend", "유니크고객추세"}
	uniqueCustDelta    = []string{"unique_customer_change", "유니크고객증감률"}
	slumpDaysKeys      = []string{"slump_days", "consecutive_decline_days", "매출부진일수"}
	shortTermDropKeys  = []string{"short_term_drop", "short_term_drop_pct", "단기매출하락률"}
	areaTermKeys       = []string{"area_termination_ratio", "area_closure_ratio", "상권폐업비율"}
	industryTermKeys   = []string{"industry_termination_ratio", "industry_closure_ratio", "업종폐업비율"}
	deliverySectionAlt = []string{domain.SectionDelivery, domain.SectionSales}
)

// Extract derives Metrics from report. It never fails: absent fields fall
// back to 0 or stable and are listed in Metrics.Defaulted, and a panic
// during extraction yields Neutral().
func Extract(report *domain.Report) (m domain.Metrics) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("metrics extraction failed, using neutral metrics",
				"report_id", reportID(report),
				"error", fmt.Sprint(r),
			)
			m = Neutral()
		}
	}()

	if report == nil {
		return Neutral()
	}

	x := &extractor{report: report}

	m.RevisitRate = x.number(domain.FieldRevisitRate, []string{domain.SectionCustomer}, revisitKeys)
	m.NewCustomerRatio = x.number(domain.FieldNewCustomerRatio, []string{domain.SectionCustomer}, newCustomerRatioKeys)
	m.NewCustomerChange = x.number(domain.FieldNewCustomerChange, []string{domain.SectionCustomer}, newCustomerDeltaKeys)
	m.NewCustomerTrend = x.trend(domain.FieldNewCustomerTrend, domain.SectionCustomer, newCustomerTrendKeys, newCustomerDeltaKeys)
	m.CoreAgeGap = x.number(domain.FieldCoreAgeGap, []string{domain.SectionCustomer}, coreAgeGapKeys)

	m.DeliveryRatio = x.number(domain.FieldDeliveryRatio, deliverySectionAlt, deliveryRatioKeys)
	m.DeliverySalesChange = x.number(domain.FieldDeliverySalesChange, deliverySectionAlt, deliveryDeltaKeys)
	m.CancellationRate = x.number(domain.FieldCancellationRate, deliverySectionAlt, cancellationKeys)

	m.SalesAmountTrend = x.trend(domain.FieldSalesAmountTrend, domain.SectionSales, salesAmountTrend, salesAmountDelta)
	m.SalesCountTrend = x.trend(domain.FieldSalesCountTrend, domain.SectionSales, salesCountTrend, salesCountDelta)
	m.UniqueCustomerTrend = x.trend(domain.FieldUniqueCustomerTrend, domain.SectionSales, uniqueCustTrend, uniqueCustDelta)
	m.SlumpDays = x.number(domain.FieldSlumpDays, []string{domain.SectionSales}, slumpDaysKeys)
	m.ShortTermDrop = x.number(domain.FieldShortTermDrop, []string{domain.SectionSales}, shortTermDropKeys)

	m.AreaTerminationRatio = x.number(domain.FieldAreaTerminationRatio, []string{domain.SectionIndustry}, areaTermKeys)
	m.IndustryTerminationRatio = x.number(domain.FieldIndustryTerminationRatio, []string{domain.SectionIndustry}, industryTermKeys)

	m.MarketFitScore = MarketFitScore(m)
	m.BusinessChurnRisk = BusinessChurnRisk(m)
	m.Defaulted = x.defaulted

	return m
}

// Neutral returns the metrics used when a report cannot be read at all.
func Neutral() domain.Metrics {
	m := domain.NeutralMetrics()
	m.MarketFitScore = MarketFitScore(m)
	m.BusinessChurnRisk = BusinessChurnRisk(m)
	return m
}

// extractor records which fields had to be defaulted.
type extractor struct {
	report    *domain.Report
	defaulted []string
}

func (x *extractor) number(field string, sections, keys []string) float64 {
	for _, section := range sections {
		if v, ok := x.report.LookupAny(section, keys...); ok {
			if f, ok := domain.AsFloat(v); ok {
				return f
			}
			slog.Debug("ignoring non-numeric report field",
				"report_id", x.report.ID,
				"field", field,
			)
		}
	}
	x.defaulted = append(x.defaulted, field)
	return 0
}

func (x *extractor) trend(field, section string, labelKeys, changeKeys []string) domain.Trend {
	if t, ok := ReadTrend(x.report, section, labelKeys, changeKeys); ok {
		return t
	}
	x.defaulted = append(x.defaulted, field)
	return domain.TrendStable
}

// ReadTrend reads an explicit trend label from section, then classifies the
// matching change percentage. A numeric value under a label key is
// classified as a change.
func ReadTrend(report *domain.Report, section string, labelKeys, changeKeys []string) (domain.Trend, bool) {
	if v, ok := report.LookupAny(section, labelKeys...); ok {
		if s, ok := domain.AsString(v); ok {
			if t, ok := ParseTrend(s); ok {
				return t, true
			}
		}
		if f, ok := domain.AsFloat(v); ok {
			return ClassifyChange(f), true
		}
	}
	if v, ok := report.LookupAny(section, changeKeys...); ok {
		if f, ok := domain.AsFloat(v); ok {
			return ClassifyChange(f), true
		}
	}
	return "", false
}

// NewCustomerTrend reads the new-customer trend the same way Extract does.
func NewCustomerTrend(report *domain.Report) (domain.Trend, bool) {
	return ReadTrend(report, domain.SectionCustomer, newCustomerTrendKeys, newCustomerDeltaKeys)
}

// DeliveryRatio reads the delivery share of sales the same way Extract does.
func DeliveryRatio(report *domain.Report) (float64, bool) {
	for _, section := range deliverySectionAlt {
		if v, ok := report.LookupAny(section, deliveryRatioKeys...); ok {
			if f, ok := domain.AsFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func reportID(r *domain.Report) string {
	if r == nil {
		return ""
	}
	return r.ID
}
