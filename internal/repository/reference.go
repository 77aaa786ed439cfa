package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

// SavePersonaTemplate upserts a template by name. A template keeps its
// original position in list order when it is saved again.
func (r *SQLRepository) SavePersonaTemplate(ctx context.Context, tenantID string, t *domain.PersonaTemplate) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if t == nil || strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name is required", ErrInvalidInput)
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%w: template: %v", ErrInvalidInput, err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO persona_templates (tenant_id, name, payload, enabled, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(tenant_id, name) DO UPDATE SET
			payload = excluded.payload,
			enabled = 1,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query), tenantID, t.Name, string(payload), now, now)
	return err
}

// ListPersonaTemplates returns the tenant's active templates in the order
// they were first saved.
func (r *SQLRepository) ListPersonaTemplates(ctx context.Context, tenantID string) ([]*domain.PersonaTemplate, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT name, payload
		FROM persona_templates
		WHERE tenant_id = ? AND enabled = 1
		ORDER BY created_at, name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*domain.PersonaTemplate{}
	for rows.Next() {
		var name, payload string
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, err
		}

		var t domain.PersonaTemplate
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return nil, fmt.Errorf("failed to parse persona template %s: %w", name, err)
		}
		templates = append(templates, &t)
	}

	return templates, rows.Err()
}

// DeletePersonaTemplate soft-deletes a template by setting enabled = 0.
func (r *SQLRepository) DeletePersonaTemplate(ctx context.Context, tenantID string, name string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		UPDATE persona_templates
		SET enabled = 0, updated_at = ?
		WHERE tenant_id = ? AND name = ? AND enabled = 1
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), tenantID, name)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveIndustryAverages upserts one industry's benchmark row.
func (r *SQLRepository) SaveIndustryAverages(ctx context.Context, tenantID string, avg *domain.IndustryAverages) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if avg == nil || strings.TrimSpace(avg.Industry) == "" {
		return fmt.Errorf("%w: industry is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO industry_averages (
			tenant_id, industry, revisit_rate, delivery_ratio,
			cancellation_rate, market_fit_score, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, industry) DO UPDATE SET
			revisit_rate = excluded.revisit_rate,
			delivery_ratio = excluded.delivery_ratio,
			cancellation_rate = excluded.cancellation_rate,
			market_fit_score = excluded.market_fit_score,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		tenantID, strings.ToLower(strings.TrimSpace(avg.Industry)),
		avg.RevisitRate, avg.DeliveryRatio, avg.CancellationRate, avg.MarketFitScore,
		time.Now().UTC(),
	)
	return err
}

// ListIndustryAverages returns the tenant's overrides sorted by industry.
func (r *SQLRepository) ListIndustryAverages(ctx context.Context, tenantID string) ([]*domain.IndustryAverages, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT industry, revisit_rate, delivery_ratio, cancellation_rate, market_fit_score
		FROM industry_averages
		WHERE tenant_id = ?
		ORDER BY industry
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	averages := []*domain.IndustryAverages{}
	for rows.Next() {
		var avg domain.IndustryAverages
		if err := rows.Scan(
			&avg.Industry, &avg.RevisitRate, &avg.DeliveryRatio,
			&avg.CancellationRate, &avg.MarketFitScore,
		); err != nil {
			return nil, err
		}
		averages = append(averages, &avg)
	}

	return averages, rows.Err()
}
