// Package repository persists reports, analyses and tenant reference data.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// DefaultListLimit applies when ListAnalysesByMerchant is called without a limit.
const DefaultListLimit = 20

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New opens the configured database and applies the schema.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveReport stores a report. Saving the same ID again replaces it.
func (r *SQLRepository) SaveReport(ctx context.Context, tenantID string, rep *domain.Report) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if rep == nil || rep.ID == "" || rep.MerchantID == "" {
		return fmt.Errorf("%w: report ID and merchant ID are required", ErrInvalidInput)
	}

	sections, err := json.Marshal(rep.Sections)
	if err != nil {
		return fmt.Errorf("%w: sections: %v", ErrInvalidInput, err)
	}

	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reports (id, tenant_id, merchant_id, store_name, sections, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			merchant_id = excluded.merchant_id,
			store_name = excluded.store_name,
			sections = excluded.sections
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		rep.ID, tenantID, rep.MerchantID, rep.StoreName, string(sections), createdAt,
	)
	return err
}

// GetReport retrieves a report by ID with tenant isolation.
func (r *SQLRepository) GetReport(ctx context.Context, tenantID string, reportID string) (*domain.Report, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, merchant_id, store_name, sections, created_at
		FROM reports
		WHERE tenant_id = ? AND id = ?
	`

	var rep domain.Report
	var storeName sql.NullString
	var sections string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, reportID).Scan(
		&rep.ID, &rep.TenantID, &rep.MerchantID, &storeName, &sections, &rep.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rep.StoreName = storeName.String
	if err := json.Unmarshal([]byte(sections), &rep.Sections); err != nil {
		return nil, fmt.Errorf("failed to parse report sections: %w", err)
	}

	return &rep, nil
}

// SaveAnalysis stores a finished analysis. The full bundle is kept as JSON.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, tenantID string, a *domain.Analysis) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if a == nil || a.ID == "" {
		return fmt.Errorf("%w: analysis ID is required", ErrInvalidInput)
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("%w: analysis: %v", ErrInvalidInput, err)
	}

	query := `
		INSERT INTO analyses (
			id, tenant_id, report_id, merchant_id, overall_level,
			average_score, persona_name, timestamp, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		a.ID, tenantID, a.ReportID, a.MerchantID, string(a.Risk.OverallLevel),
		a.Risk.AverageScore, a.Persona.TemplateName, a.Timestamp, string(payload),
	)
	return err
}

// GetAnalysis retrieves an analysis by ID with tenant isolation.
func (r *SQLRepository) GetAnalysis(ctx context.Context, tenantID string, analysisID string) (*domain.Analysis, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `SELECT payload FROM analyses WHERE tenant_id = ? AND id = ?`

	var payload string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, analysisID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return decodeAnalysis(payload)
}

// ListAnalysesByMerchant returns a merchant's analyses, newest first.
func (r *SQLRepository) ListAnalysesByMerchant(ctx context.Context, tenantID string, merchantID string, limit int) ([]*domain.Analysis, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT payload
		FROM analyses
		WHERE tenant_id = ? AND merchant_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, merchantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := []*domain.Analysis{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		a, err := decodeAnalysis(payload)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func decodeAnalysis(payload string) (*domain.Analysis, error) {
	var a domain.Analysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	return &a, nil
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	result := make([]byte, 0, len(query)+8)
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = strconv.AppendInt(result, int64(n), 10)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
