package persona

import (
	"errors"
	"fmt"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

var (
	// ErrDuplicateTemplate is returned when two templates share a name.
	ErrDuplicateTemplate = errors.New("duplicate persona template")

	// ErrInvalidTemplate is returned for a template with an empty name, an
	// unknown dimension or a value outside the dimension's domain.
	ErrInvalidTemplate = errors.New("invalid persona template")
)

// Library is an immutable, ordered persona template registry.
// Order is significant: the matcher resolves ties to the earlier template.
type Library struct {
	templates []domain.PersonaTemplate
	byName    map[string]int
	fallback  domain.PersonaTemplate
}

// NewLibrary validates and copies templates in order.
func NewLibrary(templates []domain.PersonaTemplate) (*Library, error) {
	lib := &Library{
		templates: make([]domain.PersonaTemplate, 0, len(templates)),
		byName:    make(map[string]int, len(templates)),
		fallback:  DefaultPersona(),
	}

	for _, t := range templates {
		if err := Validate(t); err != nil {
			return nil, err
		}
		if _, exists := lib.byName[t.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, t.Name)
		}
		lib.byName[t.Name] = len(lib.templates)
		lib.templates = append(lib.templates, cloneTemplate(t))
	}

	return lib, nil
}

// DefaultLibrary returns the built-in library. It panics if the built-in
// templates are invalid.
func DefaultLibrary() *Library {
	lib, err := NewLibrary(BuiltinTemplates())
	if err != nil {
		panic(err)
	}
	return lib
}

// Len returns the number of templates.
func (l *Library) Len() int {
	return len(l.templates)
}

// Templates returns copies of the templates in registry order.
func (l *Library) Templates() []domain.PersonaTemplate {
	out := make([]domain.PersonaTemplate, len(l.templates))
	for i, t := range l.templates {
		out[i] = cloneTemplate(t)
	}
	return out
}

// Get returns a copy of the named template.
func (l *Library) Get(name string) (domain.PersonaTemplate, bool) {
	i, ok := l.byName[name]
	if !ok {
		return domain.PersonaTemplate{}, false
	}
	return cloneTemplate(l.templates[i]), true
}

// Fallback returns the persona used when no template scores above zero.
func (l *Library) Fallback() domain.PersonaTemplate {
	return cloneTemplate(l.fallback)
}

// Merge returns base with overrides applied: an override replaces the
// template of the same name in place, otherwise it is appended.
func Merge(base []domain.PersonaTemplate, overrides []*domain.PersonaTemplate) []domain.PersonaTemplate {
	out := make([]domain.PersonaTemplate, len(base), len(base)+len(overrides))
	copy(out, base)

	index := make(map[string]int, len(out))
	for i, t := range out {
		index[t.Name] = i
	}
	for _, o := range overrides {
		if o == nil {
			continue
		}
		if i, ok := index[o.Name]; ok {
			out[i] = *o
			continue
		}
		index[o.Name] = len(out)
		out = append(out, *o)
	}
	return out
}

// Validate checks a single template.
func Validate(t domain.PersonaTemplate) error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	for dim, values := range t.Filters {
		valid, known := dimensionValues[dim]
		if !known {
			return fmt.Errorf("%w: %s: unknown dimension %q", ErrInvalidTemplate, t.Name, dim)
		}
		if len(values) == 0 {
			return fmt.Errorf("%w: %s: dimension %s has no values", ErrInvalidTemplate, t.Name, dim)
		}
		for _, v := range values {
			if !valid(v) {
				return fmt.Errorf("%w: %s: %q is not a valid %s", ErrInvalidTemplate, t.Name, v, dim)
			}
		}
	}
	return nil
}

var dimensionValues = map[domain.Dimension]func(string) bool{
	domain.DimIndustry: func(v string) bool { return domain.Industry(v).Valid() },
	domain.DimFranchise: func(v string) bool {
		return v == "true" || v == "false"
	},
	domain.DimCustomerType: func(v string) bool {
		switch domain.CustomerType(v) {
		case domain.CustomerResident, domain.CustomerWorkplace, domain.CustomerFloating:
			return true
		}
		return false
	},
	domain.DimDeliveryRatio: func(v string) bool {
		switch domain.DeliveryBucket(v) {
		case domain.DeliveryLow, domain.DeliveryMedium, domain.DeliveryHigh:
			return true
		}
		return false
	},
	domain.DimNewCustomerTrend: func(v string) bool { return domain.Trend(v).Valid() },
	domain.DimRevisitTrend:     func(v string) bool { return domain.Trend(v).Valid() },
	domain.DimCommercialZone:   func(v string) bool { return domain.CommercialZone(v).Valid() },
}

func cloneTemplate(t domain.PersonaTemplate) domain.PersonaTemplate {
	out := t
	if t.Filters != nil {
		out.Filters = make(map[domain.Dimension][]string, len(t.Filters))
		for k, v := range t.Filters {
			out.Filters[k] = append([]string(nil), v...)
		}
	}
	out.RiskCodes = append([]string(nil), t.RiskCodes...)
	out.KeyChannels = append([]string(nil), t.KeyChannels...)
	out.Strategies = append([]string(nil), t.Strategies...)
	return out
}
