package permcache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores resolved permission and role sets per principal. A cache
// is a pure performance optimization and never the source of truth: a
// miss (or any error) must fall through to a full recompute from the
// role/permission relationship.
type Cache interface {
	// GetPermissions returns the cached permission set for a principal.
	// The second return value is false on a miss.
	GetPermissions(ctx context.Context, principalID int64) ([]string, bool, error)

	// SetPermissions stores the permission set for a principal.
	SetPermissions(ctx context.Context, principalID int64, permissions []string) error

	// GetRoles returns the cached role-name set for a principal.
	GetRoles(ctx context.Context, principalID int64) ([]string, bool, error)

	// SetRoles stores the role-name set for a principal.
	SetRoles(ctx context.Context, principalID int64, roles []string) error

	// Invalidate drops all cached entries for a principal. Callers must
	// invoke it synchronously after any grant or revoke commits.
	Invalidate(ctx context.Context, principalID int64) error
}

// DefaultTTL bounds staleness when an invalidation is missed (for
// example by a crashed process between commit and invalidate).
const DefaultTTL = 5 * time.Minute

// DefaultMaxEntries caps the in-memory cache size.
const DefaultMaxEntries = 4096

// MemoryCache is an in-process Cache backed by expirable LRUs.
type MemoryCache struct {
	permissions *lru.LRU[int64, []string]
	roles       *lru.LRU[int64, []string]
}

// NewMemoryCache creates a MemoryCache. Non-positive maxEntries or ttl
// fall back to the package defaults.
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		permissions: lru.NewLRU[int64, []string](maxEntries, nil, ttl),
		roles:       lru.NewLRU[int64, []string](maxEntries, nil, ttl),
	}
}

// GetPermissions returns the cached permission set for a principal.
func (c *MemoryCache) GetPermissions(ctx context.Context, principalID int64) ([]string, bool, error) {
	values, ok := c.permissions.Get(principalID)
	if !ok {
		return nil, false, nil
	}
	return copyStrings(values), true, nil
}

// SetPermissions stores the permission set for a principal.
func (c *MemoryCache) SetPermissions(ctx context.Context, principalID int64, permissions []string) error {
	c.permissions.Add(principalID, copyStrings(permissions))
	return nil
}

// GetRoles returns the cached role-name set for a principal.
func (c *MemoryCache) GetRoles(ctx context.Context, principalID int64) ([]string, bool, error) {
	values, ok := c.roles.Get(principalID)
	if !ok {
		return nil, false, nil
	}
	return copyStrings(values), true, nil
}

// SetRoles stores the role-name set for a principal.
func (c *MemoryCache) SetRoles(ctx context.Context, principalID int64, roles []string) error {
	c.roles.Add(principalID, copyStrings(roles))
	return nil
}

// Invalidate drops all cached entries for a principal.
func (c *MemoryCache) Invalidate(ctx context.Context, principalID int64) error {
	c.permissions.Remove(principalID)
	c.roles.Remove(principalID)
	return nil
}

// Copies guard against callers mutating a slice the cache still holds.
func copyStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
