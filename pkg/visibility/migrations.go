package visibility

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrations returns the visibility schema migrations in order.
func Migrations() []string {
	return []string{
		`
		CREATE TABLE IF NOT EXISTS engineers (
			id BIGSERIAL PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			name_kana VARCHAR(255),
			email VARCHAR(255),
			availability VARCHAR(50) NOT NULL DEFAULT 'adjustable',
			skills TEXT[] NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_public BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_engineers_tenant_id ON engineers(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_engineers_availability ON engineers(availability);
		`,
		`
		CREATE TABLE IF NOT EXISTS visibility_settings (
			id BIGSERIAL PRIMARY KEY,
			business_partner_id BIGINT NOT NULL UNIQUE,
			view_type VARCHAR(50) NOT NULL,
			show_waiting_only BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS engineer_permissions (
			id BIGSERIAL PRIMARY KEY,
			business_partner_id BIGINT NOT NULL,
			engineer_id BIGINT NOT NULL,
			is_allowed BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(business_partner_id, engineer_id)
		);

		CREATE INDEX IF NOT EXISTS idx_engineer_permissions_partner ON engineer_permissions(business_partner_id);
		`,
		`
		CREATE TABLE IF NOT EXISTS ng_list_entries (
			id BIGSERIAL PRIMARY KEY,
			business_partner_id BIGINT NOT NULL,
			engineer_id BIGINT NOT NULL,
			reason TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(business_partner_id, engineer_id)
		);

		CREATE INDEX IF NOT EXISTS idx_ng_list_entries_partner ON ng_list_entries(business_partner_id);
		`,
	}
}

// RunMigrations applies the visibility migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for i, m := range Migrations() {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("visibility migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
