// Package persona derives store persona components and matches them against
// a library of customer archetype templates.
package persona

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/indicator"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/industry"
)

// Component names recorded in PersonaComponents.Defaulted.
const (
	CompIndustry     = "industry"
	CompZone         = "commercial_zone"
	CompFranchise    = "is_franchise"
	CompStoreAge     = "store_age"
	CompGender       = "main_customer_gender"
	CompAge          = "main_customer_age"
	CompCustomerType = "customer_type"
	CompNewTrend     = "new_customer_trend"
	CompRevisitTrend = "revisit_trend"
	CompDelivery     = "delivery_ratio"
)

// Share cutoffs for the dominant customer attributes.
const (
	genderDominance = 60.0
	ageDominance    = 30.0
)

var (
	industryKeys  = []string{"industry", "category", "업종", "업종명"}
	zoneKeys      = []string{"commercial_zone", "zone_type", "area_type", "상권유형", "상권"}
	franchiseKeys = []string{"is_franchise", "franchise", "프랜차이즈여부", "프랜차이즈"}
	brandKeys     = []string{"brand", "brand_name", "브랜드"}
	monthsKeys    = []string{"months_in_operation", "operating_months", "운영개월수"}
	yearsKeys     = []string{"years_in_operation", "operating_years", "운영연수"}
	maleKeys      = []string{"male_ratio", "male_share", "남성비율"}
	femaleKeys    = []string{"female_ratio", "female_share", "여성비율"}
	ageKeys       = []string{"age_distribution", "age_ratio", "연령대비율"}
	typeKeys      = []string{"customer_type_ratio", "customer_types", "고객유형비율"}
	revisitTrend  = []string{"revisit_trend", "재방문추세"}
	revisitDelta  = []string{"revisit_change", "revisit_rate_change", "재방문율증감률"}
)

var zoneKeywords = []struct {
	zone     domain.CommercialZone
	keywords []string
}{
	{domain.ZoneTransport, []string{"역세권", "station", "transport", "교통", "터미널", "terminal"}},
	{domain.ZoneOffice, []string{"오피스", "office", "업무", "직장", "business district"}},
	{domain.ZoneMarket, []string{"시장", "market"}},
	{domain.ZoneCentral, []string{"중심", "central", "번화가", "downtown", "핫플", "유흥", "관광", "대학가"}},
	{domain.ZoneResidential, []string{"주거", "residential", "아파트", "주택", "동네"}},
}

var independentBrands = map[string]bool{
	"": true, "none": true, "independent": true, "없음": true, "개인": true, "개인매장": true, "-": true,
}

var customerTypeKeys = map[domain.CustomerType][]string{
	domain.CustomerResident:  {"resident", "residential", "거주", "주거"},
	domain.CustomerWorkplace: {"workplace", "worker", "office", "직장", "직장인"},
	domain.CustomerFloating:  {"floating", "visitor", "유동", "유동인구"},
}

// ExtractComponents maps report to persona components by keyword and
// threshold tables. It never fails: unknown or missing values fall back to
// documented defaults listed in Defaulted, and a panic yields
// domain.DefaultComponents().
func ExtractComponents(report *domain.Report) (c domain.PersonaComponents) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("persona component extraction failed, using defaults",
				"error", fmt.Sprint(r),
			)
			c = domain.DefaultComponents()
		}
	}()

	if report == nil {
		return domain.DefaultComponents()
	}

	x := &componentExtractor{report: report}

	c.Industry = x.industry()
	c.CommercialZone = x.zone()
	c.IsFranchise = x.franchise()
	c.StoreAge = x.storeAge()
	c.MainCustomerGender = x.gender()
	c.MainCustomerAge = x.age()
	c.CustomerType = x.customerType()
	c.NewCustomerTrend = x.trend(CompNewTrend, func() (domain.Trend, bool) {
		return indicator.NewCustomerTrend(report)
	})
	c.RevisitTrend = x.trend(CompRevisitTrend, func() (domain.Trend, bool) {
		return indicator.ReadTrend(report, domain.SectionCustomer, revisitTrend, revisitDelta)
	})
	c.DeliveryRatio = x.delivery()
	c.Defaulted = x.defaulted

	return c
}

// DeliveryBucketFor buckets a delivery share: at least 60 high, at least 30 medium.
func DeliveryBucketFor(ratio float64) domain.DeliveryBucket {
	switch {
	case ratio >= 60:
		return domain.DeliveryHigh
	case ratio >= 30:
		return domain.DeliveryMedium
	}
	return domain.DeliveryLow
}

// StoreAgeFor buckets months in operation: under 12 NEW, under 60 STABLE.
func StoreAgeFor(months float64) domain.StoreAge {
	switch {
	case months < 12:
		return domain.StoreNew
	case months < 60:
		return domain.StoreStable
	}
	return domain.StoreOld
}

// ClassifyZone maps a free-text commercial zone label to a CommercialZone.
func ClassifyZone(raw string) (domain.CommercialZone, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	if z := domain.CommercialZone(strings.ToUpper(s)); z.Valid() {
		return z, true
	}
	for _, rule := range zoneKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.zone, true
			}
		}
	}
	return "", false
}

type componentExtractor struct {
	report    *domain.Report
	defaulted []string
}

func (x *componentExtractor) fallback(name string) {
	x.defaulted = append(x.defaulted, name)
}

func (x *componentExtractor) text(section string, keys []string) (string, bool) {
	v, ok := x.report.LookupAny(section, keys...)
	if !ok {
		return "", false
	}
	return domain.AsString(v)
}

func (x *componentExtractor) number(section string, keys []string) (float64, bool) {
	v, ok := x.report.LookupAny(section, keys...)
	if !ok {
		return 0, false
	}
	return domain.AsFloat(v)
}

func (x *componentExtractor) industry() domain.Industry {
	raw, ok := x.text(domain.SectionStore, industryKeys)
	if !ok {
		x.fallback(CompIndustry)
		return domain.IndustryOther
	}
	return industry.Classify(raw)
}

func (x *componentExtractor) zone() domain.CommercialZone {
	raw, _ := x.text(domain.SectionStore, zoneKeys)
	if z, ok := ClassifyZone(raw); ok {
		return z
	}
	x.fallback(CompZone)
	return domain.ZoneResidential
}

func (x *componentExtractor) franchise() bool {
	if v, ok := x.report.LookupAny(domain.SectionStore, franchiseKeys...); ok {
		if b, ok := domain.AsBool(v); ok {
			return b
		}
	}
	if brand, ok := x.text(domain.SectionStore, brandKeys); ok {
		return !independentBrands[strings.ToLower(brand)]
	}
	x.fallback(CompFranchise)
	return false
}

func (x *componentExtractor) storeAge() domain.StoreAge {
	if months, ok := x.number(domain.SectionStore, monthsKeys); ok {
		return StoreAgeFor(months)
	}
	if years, ok := x.number(domain.SectionStore, yearsKeys); ok {
		return StoreAgeFor(years * 12)
	}
	x.fallback(CompStoreAge)
	return domain.StoreStable
}

func (x *componentExtractor) gender() string {
	male, maleOK := x.number(domain.SectionCustomer, maleKeys)
	female, femaleOK := x.number(domain.SectionCustomer, femaleKeys)
	switch {
	case !maleOK && !femaleOK:
		x.fallback(CompGender)
		return domain.Mixed
	case !maleOK:
		male = 100 - female
	case !femaleOK:
		female = 100 - male
	}

	switch {
	case female >= genderDominance:
		return domain.GenderFemale
	case male >= genderDominance:
		return domain.GenderMale
	}
	return domain.Mixed
}

// age returns the dominant age decade such as "20s", or mixed when no
// decade holds at least 30% of customers.
func (x *componentExtractor) age() string {
	v, ok := x.report.LookupAny(domain.SectionCustomer, ageKeys...)
	dist, isMap := v.(map[string]any)
	if !ok || !isMap || len(dist) == 0 {
		x.fallback(CompAge)
		return domain.Mixed
	}

	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestShare := "", -1.0
	for _, k := range keys {
		share, ok := domain.AsFloat(dist[k])
		if !ok {
			continue
		}
		if share > bestShare {
			best, bestShare = normalizeDecade(k), share
		}
	}

	if best == "" || bestShare < ageDominance {
		return domain.Mixed
	}
	return best
}

// customerType picks the largest of the resident, workplace and floating
// shares. Ties and missing data are FLOATING.
func (x *componentExtractor) customerType() domain.CustomerType {
	v, ok := x.report.LookupAny(domain.SectionCustomer, typeKeys...)
	shares, isMap := v.(map[string]any)
	if !ok || !isMap {
		x.fallback(CompCustomerType)
		return domain.CustomerFloating
	}

	totals := make(map[domain.CustomerType]float64, 3)
	found := false
	for k, raw := range shares {
		share, ok := domain.AsFloat(raw)
		if !ok {
			continue
		}
		if t, ok := customerTypeOf(k); ok {
			totals[t] += share
			found = true
		}
	}
	if !found {
		x.fallback(CompCustomerType)
		return domain.CustomerFloating
	}

	best, bestShare, tie := domain.CustomerFloating, -1.0, false
	for _, t := range []domain.CustomerType{domain.CustomerResident, domain.CustomerWorkplace, domain.CustomerFloating} {
		share := totals[t]
		switch {
		case share > bestShare:
			best, bestShare, tie = t, share, false
		case share == bestShare:
			tie = true
		}
	}
	if tie {
		return domain.CustomerFloating
	}
	return best
}

func (x *componentExtractor) trend(name string, read func() (domain.Trend, bool)) domain.Trend {
	if t, ok := read(); ok {
		return t
	}
	x.fallback(name)
	return domain.TrendStable
}

func (x *componentExtractor) delivery() domain.DeliveryBucket {
	ratio, ok := indicator.DeliveryRatio(x.report)
	if !ok {
		x.fallback(CompDelivery)
		return domain.DeliveryLow
	}
	return DeliveryBucketFor(ratio)
}

func customerTypeOf(key string) (domain.CustomerType, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, t := range []domain.CustomerType{domain.CustomerResident, domain.CustomerWorkplace, domain.CustomerFloating} {
		for _, kw := range customerTypeKeys[t] {
			if strings.Contains(k, kw) {
				return t, true
			}
		}
	}
	return "", false
}

// normalizeDecade turns labels such as "20대", "age_20s" or "20" into "20s".
func normalizeDecade(label string) string {
	var digits strings.Builder
	for _, r := range label {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return strings.ToLower(strings.TrimSpace(label))
	}
	return digits.String() + "s"
}
