// Package partners persists business partners, the tenant-scoped client
// relationships that engineer visibility is configured against.
package partners

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sesflow/accesscore/pkg/errdefs"
)

// Store handles business partner persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a new partner store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create creates a new business partner owned by its tenant.
func (s *Store) Create(ctx context.Context, partner *BusinessPartner) error {
	if partner.TenantID == 0 {
		return errdefs.Validation("tenant_id", "tenant is required")
	}
	if partner.Name == "" {
		return errdefs.Validation("name", "name is required")
	}
	partner.IsActive = true

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO business_partners (tenant_id, name, contact_email, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, partner.TenantID, partner.Name, partner.ContactEmail, partner.IsActive).
		Scan(&partner.ID, &partner.CreatedAt, &partner.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create business partner: %w", err)
	}
	return nil
}

// GetForTenant retrieves a live partner scoped to the owning tenant.
// Cross-tenant and soft-deleted partners report not-found; this lookup
// is the tenant isolation boundary every visibility operation passes
// through first.
func (s *Store) GetForTenant(ctx context.Context, tenantID, partnerID int64) (*BusinessPartner, error) {
	partner := &BusinessPartner{}
	var contactEmail sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, contact_email, is_active, created_at, updated_at
		FROM business_partners
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`, partnerID, tenantID).Scan(
		&partner.ID, &partner.TenantID, &partner.Name, &contactEmail,
		&partner.IsActive, &partner.CreatedAt, &partner.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errdefs.NotFound("business partner", partnerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business partner: %w", err)
	}
	if contactEmail.Valid {
		partner.ContactEmail = contactEmail.String
	}
	return partner, nil
}

// ListForTenant lists the tenant's live partners, newest first.
func (s *Store) ListForTenant(ctx context.Context, tenantID int64) ([]BusinessPartner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, contact_email, is_active, created_at, updated_at
		FROM business_partners
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list business partners: %w", err)
	}
	defer rows.Close()

	var result []BusinessPartner
	for rows.Next() {
		var partner BusinessPartner
		var contactEmail sql.NullString
		if err := rows.Scan(
			&partner.ID, &partner.TenantID, &partner.Name, &contactEmail,
			&partner.IsActive, &partner.CreatedAt, &partner.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan business partner: %w", err)
		}
		if contactEmail.Valid {
			partner.ContactEmail = contactEmail.String
		}
		result = append(result, partner)
	}
	return result, rows.Err()
}

// SetActive toggles the active flag on a tenant's partner.
func (s *Store) SetActive(ctx context.Context, tenantID, partnerID int64, active bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE business_partners
		SET is_active = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`, partnerID, tenantID, active)
	if err != nil {
		return fmt.Errorf("failed to update business partner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update business partner: %w", err)
	}
	if affected == 0 {
		return errdefs.NotFound("business partner", partnerID)
	}
	return nil
}

// SoftDelete logically deletes a tenant's partner. The row is never
// removed; dependent client users are cascaded by the owning service.
func (s *Store) SoftDelete(ctx context.Context, tenantID, partnerID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE business_partners
		SET deleted_at = $3, is_active = FALSE, updated_at = $3
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`, partnerID, tenantID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete business partner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete business partner: %w", err)
	}
	if affected == 0 {
		return errdefs.NotFound("business partner", partnerID)
	}
	return nil
}

// Migrations returns the partner schema migrations.
func Migrations() []string {
	return []string{`
		CREATE TABLE IF NOT EXISTS business_partners (
			id BIGSERIAL PRIMARY KEY,
			tenant_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL,
			contact_email VARCHAR(255),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_business_partners_tenant_id ON business_partners(tenant_id);
	`}
}

// RunMigrations applies the partner migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for _, m := range Migrations() {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("partners migration failed: %w", err)
		}
	}
	return nil
}
