package analysis

import (
	"context"
	"fmt"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/industry"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/persona"
)

// ReferenceTenantID owns the stored persona templates and industry averages.
// They apply to every tenant.
const ReferenceTenantID = "*"

// TemplateSource lists stored persona templates.
type TemplateSource interface {
	ListPersonaTemplates(ctx context.Context, tenantID string) ([]*domain.PersonaTemplate, error)
}

// AveragesSource lists stored industry averages.
type AveragesSource interface {
	ListIndustryAverages(ctx context.Context, tenantID string) ([]*domain.IndustryAverages, error)
}

// ReloadPersonas builds a library from the built-in templates overlaid with
// the stored ones and swaps it in. On error the current library is kept.
// It returns the size of the new library.
func (a *Analyzer) ReloadPersonas(ctx context.Context, src TemplateSource) (int, error) {
	stored, err := src.ListPersonaTemplates(ctx, ReferenceTenantID)
	if err != nil {
		return 0, fmt.Errorf("list persona templates: %w", err)
	}

	lib, err := persona.NewLibrary(persona.Merge(persona.BuiltinTemplates(), stored))
	if err != nil {
		return 0, fmt.Errorf("build persona library: %w", err)
	}

	a.SetLibrary(lib)
	return lib.Len(), nil
}

// ReloadIndustries rebuilds the averages table from the built-in rows
// overlaid with the stored ones and swaps it in.
func (a *Analyzer) ReloadIndustries(ctx context.Context, src AveragesSource) (int, error) {
	stored, err := src.ListIndustryAverages(ctx, ReferenceTenantID)
	if err != nil {
		return 0, fmt.Errorf("list industry averages: %w", err)
	}

	rows := make([]domain.IndustryAverages, 0, len(stored))
	for _, r := range stored {
		if r != nil {
			rows = append(rows, *r)
		}
	}

	table := industry.DefaultTable().Merge(rows)
	a.SetIndustries(table)
	return len(table.All()), nil
}
