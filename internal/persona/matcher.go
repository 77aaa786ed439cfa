package persona

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

// Weights are the fixed points each dimension contributes when a template
// constrains it.
var Weights = map[domain.Dimension]int{
	domain.DimIndustry:         3,
	domain.DimFranchise:        1,
	domain.DimCustomerType:     2,
	domain.DimDeliveryRatio:    1,
	domain.DimNewCustomerTrend: 1,
	domain.DimRevisitTrend:     1,
	domain.DimCommercialZone:   2,
}

// Generator synthesizes a persona for components that no template fits.
// The matcher never calls it; callers may consult it after a fallback.
type Generator interface {
	Generate(ctx context.Context, c domain.PersonaComponents) (domain.PersonaTemplate, error)
}

// Matcher scores persona components against a template library.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	lib *Library
}

// NewMatcher creates a matcher over lib.
func NewMatcher(lib *Library) *Matcher {
	return &Matcher{lib: lib}
}

// Library returns the library the matcher scores against.
func (m *Matcher) Library() *Library {
	return m.lib
}

// Match returns the best scoring template for c. The first template in
// library order wins ties. When nothing scores above zero the library's
// fallback persona is returned with score 0 and Fallback set.
func (m *Matcher) Match(c domain.PersonaComponents) (result domain.PersonaMatch) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("persona matching failed, using fallback persona",
				"error", fmt.Sprint(r),
			)
			result = fallbackMatch(DefaultPersona(), c)
		}
	}()

	if m.lib == nil {
		return fallbackMatch(DefaultPersona(), c)
	}

	best := -1
	bestScore := 0.0
	var bestContrib []domain.DimensionContribution

	for i, t := range m.lib.templates {
		score, contrib := Score(t, c)
		if score > bestScore {
			best, bestScore, bestContrib = i, score, contrib
		}
	}

	if best < 0 {
		return fallbackMatch(m.lib.fallback, c)
	}

	t := cloneTemplate(m.lib.templates[best])
	return domain.PersonaMatch{
		TemplateName:  t.Name,
		Score:         bestScore,
		Template:      t,
		Components:    c,
		Contributions: bestContrib,
	}
}

// Score returns the percentage of applicable points c achieves against t.
// Dimensions t leaves unconstrained are not applicable.
func Score(t domain.PersonaTemplate, c domain.PersonaComponents) (float64, []domain.DimensionContribution) {
	achieved, applicable := 0, 0
	var contrib []domain.DimensionContribution

	for _, dim := range domain.Dimensions {
		values, constrained := t.Filters[dim]
		if !constrained {
			continue
		}
		w := Weights[dim]
		applicable += w

		matched := contains(values, c.Value(dim))
		if matched {
			achieved += w
		}
		contrib = append(contrib, domain.DimensionContribution{
			Dimension: dim,
			Weight:    w,
			Matched:   matched,
		})
	}

	if applicable == 0 {
		return 0, contrib
	}
	return float64(achieved) / float64(applicable) * 100, contrib
}

func fallbackMatch(t domain.PersonaTemplate, c domain.PersonaComponents) domain.PersonaMatch {
	return domain.PersonaMatch{
		TemplateName: t.Name,
		Score:        0,
		Fallback:     true,
		Template:     cloneTemplate(t),
		Components:   c,
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
