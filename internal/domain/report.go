package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Standard report section names produced by the upstream analytics pipeline.
const (
	SectionStore    = "store_overview"
	SectionCustomer = "customer_analysis"
	SectionSales    = "sales_analysis"
	SectionDelivery = "delivery_analysis"
	SectionIndustry = "industry_analysis"
)

// Report is a snapshot of a merchant's analytics report.
// Sections is the nested JSON object as delivered upstream; any section or
// field may be missing.
type Report struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenantId"`
	MerchantID string         `json:"merchantId"`
	StoreName  string         `json:"storeName,omitempty"`
	Sections   map[string]any `json:"sections"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Lookup walks Sections along path and returns the value found there.
// It returns false when any step is missing or is not an object.
func (r *Report) Lookup(path ...string) (any, bool) {
	if r == nil || len(path) == 0 {
		return nil, false
	}

	var cur any = r.Sections
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// LookupAny returns the first value present under section for any of keys.
// Upstream producers are not consistent about field names, so callers list aliases.
func (r *Report) LookupAny(section string, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := r.Lookup(section, key); ok {
			return v, true
		}
	}
	return nil, false
}

// AsFloat converts a JSON value into a float64.
// Accepts numbers, numeric strings and percent strings such as "12.5%".
func AsFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimSuffix(s, "%")
		s = strings.ReplaceAll(s, ",", "")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AsString converts a JSON value into a trimmed string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// AsBool converts a JSON value into a bool.
// Accepts booleans and the usual yes/no spellings ("Y", "N", "true", "1").
func AsBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "y", "yes", "true", "1", "o":
			return true, true
		case "n", "no", "false", "0", "x":
			return false, true
		}
	}
	return false, false
}
