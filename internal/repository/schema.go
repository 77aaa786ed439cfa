package repository

// Table definitions shared by SQLite and PostgreSQL. Documents are stored as
// JSON text; only the columns used for lookups are broken out.

const schemaReports = `
CREATE TABLE IF NOT EXISTS reports (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    merchant_id TEXT NOT NULL,
    store_name TEXT,
    sections TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_reports_merchant ON reports(tenant_id, merchant_id);
`

const schemaAnalyses = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    report_id TEXT NOT NULL,
    merchant_id TEXT NOT NULL,
    overall_level TEXT NOT NULL,
    average_score REAL NOT NULL,
    persona_name TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    payload TEXT NOT NULL,
    PRIMARY KEY (tenant_id, id)
);

CREATE INDEX IF NOT EXISTS idx_analyses_merchant ON analyses(tenant_id, merchant_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_analyses_level ON analyses(tenant_id, overall_level);
`

const schemaPersonaTemplates = `
CREATE TABLE IF NOT EXISTS persona_templates (
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    payload TEXT NOT NULL,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (tenant_id, name)
);

CREATE INDEX IF NOT EXISTS idx_persona_templates_enabled ON persona_templates(tenant_id, enabled);
`

const schemaIndustryAverages = `
CREATE TABLE IF NOT EXISTS industry_averages (
    tenant_id TEXT NOT NULL,
    industry TEXT NOT NULL,
    revisit_rate REAL NOT NULL,
    delivery_ratio REAL NOT NULL,
    cancellation_rate REAL NOT NULL,
    market_fit_score REAL NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (tenant_id, industry)
);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaReports,
		schemaAnalyses,
		schemaPersonaTemplates,
		schemaIndustryAverages,
	}
}
