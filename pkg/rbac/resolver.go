package rbac

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sesflow/accesscore/pkg/observability"
	"github.com/sesflow/accesscore/pkg/permcache"
)

// RoleSource supplies the authoritative role/permission relationship for
// a principal. Implemented by Store; tests substitute an in-memory fake.
type RoleSource interface {
	RolesForPrincipal(ctx context.Context, principalID int64) ([]Role, error)
}

// Resolver decides allow/deny for a principal and an action.
type Resolver interface {
	// Authorize reports whether the principal may perform the request.
	// A plain denial is (false, nil); an error is returned only for
	// infrastructure failure, and always together with false.
	Authorize(ctx context.Context, principal Principal, req AuthorizeRequest) (bool, error)

	// EffectivePermissions returns the principal's resolved permission
	// set as wire strings, sorted.
	EffectivePermissions(ctx context.Context, principalID int64) ([]string, error)

	// InvalidatePrincipal drops the principal's cached permission and
	// role sets.
	InvalidatePrincipal(ctx context.Context, principalID int64) error
}

// PermissionResolver implements Resolver with a cache-aside permission
// set per principal.
type PermissionResolver struct {
	roles   RoleSource
	cache   permcache.Cache
	logger  *observability.Logger
	metrics *observability.Metrics
	group   singleflight.Group
}

// NewPermissionResolver creates a PermissionResolver. metrics may be nil.
func NewPermissionResolver(roles RoleSource, cache permcache.Cache, logger *observability.Logger, metrics *observability.Metrics) *PermissionResolver {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &PermissionResolver{
		roles:   roles,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// Authorize reports whether the principal may perform the request.
//
// The decision procedure: super-admins bypass everything; otherwise the
// principal's effective permission set must intersect the candidate
// strings that would justify the request. Unscoped grants
// (resource:action) match any requested scope. The requested scope is
// matched literally against instance ownership and never escalated: a
// company-scoped grant does not satisfy an own-scoped request about
// someone else's resource, and vice versa.
func (r *PermissionResolver) Authorize(ctx context.Context, principal Principal, req AuthorizeRequest) (bool, error) {
	start := time.Now()
	allowed, err := r.authorize(ctx, principal, req)
	if r.metrics != nil {
		r.metrics.AuthorizeDuration.Observe(time.Since(start).Seconds())
		r.metrics.RecordDecision(allowed && err == nil)
	}
	if err != nil {
		// Fail closed: any lookup failure denies.
		return false, err
	}
	return allowed, nil
}

func (r *PermissionResolver) authorize(ctx context.Context, principal Principal, req AuthorizeRequest) (bool, error) {
	if principal.HasRole(RoleSuperAdmin) {
		return true, nil
	}
	if req.Scope != ScopeNone && !ValidScope(req.Scope) {
		return false, nil
	}

	permissions, err := r.EffectivePermissions(ctx, principal.ID)
	if err != nil {
		return false, err
	}

	candidates := candidatePermissions(principal, req)
	have := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		have[p] = struct{}{}
	}
	for _, c := range candidates {
		if _, ok := have[c]; ok {
			return true, nil
		}
	}
	return false, nil
}

// candidatePermissions builds the permission strings that would justify
// the request, most general first.
func candidatePermissions(principal Principal, req AuthorizeRequest) []string {
	base := Permission{Resource: req.Resource, Action: req.Action}

	candidates := []string{
		Permission{Resource: req.Resource, Action: req.Action, Scope: ScopeAll}.String(),
		base.String(),
	}

	switch req.Scope {
	case ScopeOwn:
		// An own-scoped grant only covers the principal's own resources.
		if req.TargetOwnerID != nil && *req.TargetOwnerID == principal.ID {
			candidates = append(candidates, Permission{Resource: req.Resource, Action: req.Action, Scope: ScopeOwn}.String())
		}
	case ScopeCompany:
		// A company-scoped grant covers resources of the principal's
		// tenant; an unset target tenant means "the caller's own".
		if req.TargetTenantID == nil || *req.TargetTenantID == principal.TenantID {
			candidates = append(candidates, Permission{Resource: req.Resource, Action: req.Action, Scope: ScopeCompany}.String())
		}
	}

	return candidates
}

// EffectivePermissions returns the principal's resolved permission set,
// via the cache when possible, recomputing from the role relationship on
// a miss. Cache failures degrade to a recompute; store failures
// propagate.
func (r *PermissionResolver) EffectivePermissions(ctx context.Context, principalID int64) ([]string, error) {
	if r.cache != nil {
		permissions, ok, err := r.cache.GetPermissions(ctx, principalID)
		if err != nil {
			// The cache is non-authoritative; treat errors as a miss.
			r.logger.WithError(err).Debug("permission cache read failed, recomputing")
		} else if ok {
			r.metrics.RecordCacheHit(true)
			return permissions, nil
		}
		r.metrics.RecordCacheHit(false)
	}

	// Concurrent misses for the same principal share one recompute.
	value, err, _ := r.group.Do(fmt.Sprintf("perms:%d", principalID), func() (interface{}, error) {
		return r.recompute(ctx, principalID)
	})
	if err != nil {
		return nil, err
	}
	return value.([]string), nil
}

func (r *PermissionResolver) recompute(ctx context.Context, principalID int64) ([]string, error) {
	roles, err := r.roles.RolesForPrincipal(ctx, principalID)
	if err != nil {
		r.metrics.RecordStoreError("rbac")
		return nil, fmt.Errorf("failed to load roles for principal %d: %w", principalID, err)
	}

	permSet := make(map[string]struct{})
	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleNames = append(roleNames, role.Name)
		for _, p := range role.Permissions {
			permSet[p.String()] = struct{}{}
		}
	}

	permissions := make([]string, 0, len(permSet))
	for p := range permSet {
		permissions = append(permissions, p)
	}
	sort.Strings(permissions)
	sort.Strings(roleNames)

	if r.cache != nil {
		if err := r.cache.SetPermissions(ctx, principalID, permissions); err != nil {
			r.logger.WithError(err).Debug("permission cache write failed")
		}
		if err := r.cache.SetRoles(ctx, principalID, roleNames); err != nil {
			r.logger.WithError(err).Debug("role cache write failed")
		}
	}

	return permissions, nil
}

// InvalidatePrincipal drops the principal's cached permission and role
// sets. Grant and revoke paths call it synchronously after their
// transaction commits, before returning to the caller.
func (r *PermissionResolver) InvalidatePrincipal(ctx context.Context, principalID int64) error {
	if r.cache == nil {
		return nil
	}
	if err := r.cache.Invalidate(ctx, principalID); err != nil {
		return fmt.Errorf("failed to invalidate cache for principal %d: %w", principalID, err)
	}
	r.metrics.RecordInvalidation()
	return nil
}
