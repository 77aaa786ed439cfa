// Package industry holds per-industry benchmark averages and the shared
// industry keyword classifier.
package industry

import (
	"sort"
	"strings"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

// GeneralKey is the fallback row used when an industry has no averages.
const GeneralKey = "general"

// Table is an immutable set of industry averages.
type Table struct {
	rows map[string]domain.IndustryAverages
}

// NewTable builds a table from rows. Later rows replace earlier ones with
// the same key; keys are matched case-insensitively. A general row is
// added from the built-in defaults when rows does not supply one.
func NewTable(rows []domain.IndustryAverages) *Table {
	t := &Table{rows: make(map[string]domain.IndustryAverages, len(rows)+1)}
	for _, r := range rows {
		r.Industry = normalizeKey(r.Industry)
		if r.Industry == "" {
			continue
		}
		t.rows[r.Industry] = r
	}
	if _, ok := t.rows[GeneralKey]; !ok {
		t.rows[GeneralKey] = generalAverages
	}
	return t
}

// DefaultTable returns the built-in averages.
func DefaultTable() *Table {
	return NewTable(DefaultAverages())
}

// Merge returns a new table with overrides applied on top of t.
func (t *Table) Merge(overrides []domain.IndustryAverages) *Table {
	rows := t.All()
	return NewTable(append(rows, overrides...))
}

// Lookup returns the averages for key, falling back to the general row.
func (t *Table) Lookup(key string) domain.IndustryAverages {
	if r, ok := t.rows[normalizeKey(key)]; ok {
		return r
	}
	return t.rows[GeneralKey]
}

// Has reports whether key has its own row.
func (t *Table) Has(key string) bool {
	_, ok := t.rows[normalizeKey(key)]
	return ok
}

// All returns every row sorted by key.
func (t *Table) All() []domain.IndustryAverages {
	out := make([]domain.IndustryAverages, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Industry < out[j].Industry })
	return out
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == strings.ToLower(string(domain.IndustryOther)) {
		return GeneralKey
	}
	return key
}

var generalAverages = domain.IndustryAverages{
	Industry:         GeneralKey,
	RevisitRate:      32,
	DeliveryRatio:    25,
	CancellationRate: 0.5,
	MarketFitScore:   50,
}

// DefaultAverages returns the built-in rows keyed by lower-case industry.
func DefaultAverages() []domain.IndustryAverages {
	return []domain.IndustryAverages{
		generalAverages,
		{Industry: "cafe", RevisitRate: 38, DeliveryRatio: 18, CancellationRate: 0.4, MarketFitScore: 55},
		{Industry: "chinese", RevisitRate: 30, DeliveryRatio: 55, CancellationRate: 0.6, MarketFitScore: 48},
		{Industry: "chicken", RevisitRate: 28, DeliveryRatio: 70, CancellationRate: 0.8, MarketFitScore: 46},
		{Industry: "korean", RevisitRate: 35, DeliveryRatio: 25, CancellationRate: 0.5, MarketFitScore: 52},
		{Industry: "dessert", RevisitRate: 33, DeliveryRatio: 30, CancellationRate: 0.5, MarketFitScore: 50},
		{Industry: "fastfood", RevisitRate: 26, DeliveryRatio: 45, CancellationRate: 0.7, MarketFitScore: 45},
		{Industry: "japanese", RevisitRate: 34, DeliveryRatio: 28, CancellationRate: 0.4, MarketFitScore: 53},
		{Industry: "western", RevisitRate: 31, DeliveryRatio: 22, CancellationRate: 0.4, MarketFitScore: 51},
	}
}
