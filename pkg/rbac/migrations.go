package rbac

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns the RBAC schema migrations in order.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create roles table",
			SQL: `
				CREATE TABLE IF NOT EXISTS roles (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					description TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_roles_name ON roles(name);
			`,
		},
		{
			Version:     2,
			Description: "Create permissions catalog",
			SQL: `
				CREATE TABLE IF NOT EXISTS permissions (
					id BIGSERIAL PRIMARY KEY,
					resource VARCHAR(100) NOT NULL,
					action VARCHAR(100) NOT NULL,
					scope VARCHAR(50) NOT NULL DEFAULT '',
					UNIQUE(resource, action, scope)
				);

				CREATE TABLE IF NOT EXISTS role_permissions (
					role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
					permission_id BIGINT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
					PRIMARY KEY (role_id, permission_id)
				);
			`,
		},
		{
			Version:     3,
			Description: "Create principal_roles table",
			SQL: `
				CREATE TABLE IF NOT EXISTS principal_roles (
					id BIGSERIAL PRIMARY KEY,
					principal_id BIGINT NOT NULL,
					role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
					granted_by BIGINT,
					granted_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(principal_id, role_id)
				);

				CREATE INDEX IF NOT EXISTS idx_principal_roles_principal_id ON principal_roles(principal_id);
			`,
		},
	}
}

// RunMigrations applies all RBAC migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for _, m := range Migrations() {
		if _, err := db.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("rbac migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
	}
	return nil
}
