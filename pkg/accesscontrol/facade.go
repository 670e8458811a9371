package accesscontrol

import (
	"context"

	"github.com/sesflow/accesscore/pkg/observability"
	"github.com/sesflow/accesscore/pkg/rbac"
	"github.com/sesflow/accesscore/pkg/visibility"
)

// RoleGrantStore persists role grants. Implemented by rbac.Store.
type RoleGrantStore interface {
	GrantRole(ctx context.Context, principalID int64, roleName string, grantedBy *int64) (*rbac.RoleGrant, error)
	RevokeRole(ctx context.Context, principalID int64, roleName string) error
}

// VisibilityStore persists visibility settings, allow lists, and NG
// lists. Implemented by visibility.Store.
type VisibilityStore interface {
	GetSetting(ctx context.Context, partnerID int64) (*visibility.VisibilitySetting, error)
	ReplaceAllowList(ctx context.Context, tenantID, partnerID int64, viewType visibility.ViewType, engineerIDs []int64) error
	ListAllow(ctx context.Context, partnerID int64) ([]visibility.EngineerPermission, error)
	AddToNgList(ctx context.Context, tenantID, partnerID, engineerID int64, reason *string) (*visibility.NgListEntry, error)
	RemoveFromNgList(ctx context.Context, partnerID, engineerID int64) error
	ListNg(ctx context.Context, partnerID int64) ([]visibility.NgListEntry, error)
}

// Facade is the single entry point surrounding collaborators call. It
// wires the permission resolver, the visibility resolver, and the stores
// together, and owns the cache-invalidation sequencing around grants.
type Facade struct {
	resolver   rbac.Resolver
	grants     RoleGrantStore
	partners   visibility.PartnerSource
	store      VisibilityStore
	visibility *visibility.Resolver
	logger     *observability.Logger
}

// NewFacade creates a Facade.
func NewFacade(resolver rbac.Resolver, grants RoleGrantStore, p visibility.PartnerSource, store VisibilityStore, vis *visibility.Resolver, logger *observability.Logger) *Facade {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Facade{
		resolver:   resolver,
		grants:     grants,
		partners:   p,
		store:      store,
		visibility: vis,
		logger:     logger,
	}
}

// Authorize reports whether the principal may perform the request.
func (f *Facade) Authorize(ctx context.Context, principal rbac.Principal, req rbac.AuthorizeRequest) (bool, error) {
	return f.resolver.Authorize(ctx, principal, req)
}

// GrantRole grants a role and invalidates the principal's cached
// permission set before returning, so a subsequent Authorize in the same
// logical operation sees the new grant.
func (f *Facade) GrantRole(ctx context.Context, principalID int64, roleName string, grantedBy *int64) (*rbac.RoleGrant, error) {
	grant, err := f.grants.GrantRole(ctx, principalID, roleName, grantedBy)
	if err != nil {
		return nil, err
	}
	if err := f.resolver.InvalidatePrincipal(ctx, principalID); err != nil {
		return nil, err
	}
	return grant, nil
}

// RevokeRole revokes a role and invalidates the principal's cached
// permission set before returning. A failed invalidation here is the
// failure mode to avoid above all others (stale-positive authorization),
// so it propagates.
func (f *Facade) RevokeRole(ctx context.Context, principalID int64, roleName string) error {
	if err := f.grants.RevokeRole(ctx, principalID, roleName); err != nil {
		return err
	}
	return f.resolver.InvalidatePrincipal(ctx, principalID)
}

// EngineerPermissions is the full visibility configuration of a partner.
type EngineerPermissions struct {
	PartnerID int64                           `json:"business_partner_id"`
	ViewType  visibility.ViewType             `json:"view_type"`
	Engineers []visibility.EngineerPermission `json:"engineers"`
}

// GetEngineerPermissions returns the partner's view mode and allow list.
// The partner must belong to the tenant.
func (f *Facade) GetEngineerPermissions(ctx context.Context, tenantID, partnerID int64) (*EngineerPermissions, error) {
	if _, err := f.partners.GetForTenant(ctx, tenantID, partnerID); err != nil {
		return nil, err
	}

	setting, err := f.store.GetSetting(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	viewType := visibility.DefaultViewType
	if setting != nil {
		viewType = setting.ViewType
	}

	entries, err := f.store.ListAllow(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	return &EngineerPermissions{
		PartnerID: partnerID,
		ViewType:  viewType,
		Engineers: entries,
	}, nil
}

// SetEngineerPermissions sets the partner's view mode and replaces its
// allow list wholesale. The partner/tenant relationship is re-validated
// before any write.
func (f *Facade) SetEngineerPermissions(ctx context.Context, tenantID, partnerID int64, viewType visibility.ViewType, engineerIDs []int64) error {
	if _, err := f.partners.GetForTenant(ctx, tenantID, partnerID); err != nil {
		return err
	}
	return f.store.ReplaceAllowList(ctx, tenantID, partnerID, viewType, engineerIDs)
}

// GetNgList returns the partner's NG entries.
func (f *Facade) GetNgList(ctx context.Context, tenantID, partnerID int64) ([]visibility.NgListEntry, error) {
	if _, err := f.partners.GetForTenant(ctx, tenantID, partnerID); err != nil {
		return nil, err
	}
	return f.store.ListNg(ctx, partnerID)
}

// AddToNgList blocks an engineer for the partner.
func (f *Facade) AddToNgList(ctx context.Context, tenantID, partnerID, engineerID int64, reason *string) (*visibility.NgListEntry, error) {
	if _, err := f.partners.GetForTenant(ctx, tenantID, partnerID); err != nil {
		return nil, err
	}
	return f.store.AddToNgList(ctx, tenantID, partnerID, engineerID, reason)
}

// RemoveFromNgList unblocks an engineer for the partner.
func (f *Facade) RemoveFromNgList(ctx context.Context, tenantID, partnerID, engineerID int64) error {
	if _, err := f.partners.GetForTenant(ctx, tenantID, partnerID); err != nil {
		return err
	}
	return f.store.RemoveFromNgList(ctx, partnerID, engineerID)
}

// ListVisibleEngineers returns the engineers the partner may see.
func (f *Facade) ListVisibleEngineers(ctx context.Context, tenantID, partnerID int64, params visibility.ListParams) ([]visibility.Engineer, int, error) {
	return f.visibility.ListVisibleEngineers(ctx, tenantID, partnerID, params)
}
