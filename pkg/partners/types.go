package partners

import "time"

// BusinessPartner is a tenant-scoped relationship between an SES company
// (the owning tenant) and a client company. The owning tenant is
// immutable after creation. Partners are only ever logically deleted.
type BusinessPartner struct {
	ID           int64      `json:"id"`
	TenantID     int64      `json:"tenant_id"`
	Name         string     `json:"name"`
	ContactEmail string     `json:"contact_email,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}
