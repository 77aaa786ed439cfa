// Package domain defines the data model and service interfaces for storelens.
package domain

import (
	"context"
	"time"
)

// Repository persists reports, analyses and the tunable reference data.
// Every call is tenant scoped.
type Repository interface {
	SaveReport(ctx context.Context, tenantID string, r *Report) error
	GetReport(ctx context.Context, tenantID string, reportID string) (*Report, error)

	SaveAnalysis(ctx context.Context, tenantID string, a *Analysis) error
	GetAnalysis(ctx context.Context, tenantID string, analysisID string) (*Analysis, error)
	// ListAnalysesByMerchant returns the newest analyses first, at most limit.
	ListAnalysesByMerchant(ctx context.Context, tenantID string, merchantID string, limit int) ([]*Analysis, error)

	// Stored persona templates are merged over the built-in library on reload.
	SavePersonaTemplate(ctx context.Context, tenantID string, t *PersonaTemplate) error
	ListPersonaTemplates(ctx context.Context, tenantID string) ([]*PersonaTemplate, error)
	DeletePersonaTemplate(ctx context.Context, tenantID string, name string) error

	SaveIndustryAverages(ctx context.Context, tenantID string, avg *IndustryAverages) error
	ListIndustryAverages(ctx context.Context, tenantID string) ([]*IndustryAverages, error)

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryConfig selects and tunes the database.
type RepositoryConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres

	SQLitePath string `mapstructure:"sqlite_path"`

	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDB       string `mapstructure:"postgres_db"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}
