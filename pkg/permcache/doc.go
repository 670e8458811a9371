// Package permcache caches resolved permission and role sets per
// principal.
//
// The cache is a pure performance optimization: a miss or any cache
// error falls through to a full recompute from the role/permission
// relationship, and grant/revoke paths invalidate synchronously after
// their transaction commits. Two implementations are provided, an
// in-process expirable LRU and a Redis-backed cache for multi-replica
// deployments. The TTL is a staleness bound, not the invalidation
// mechanism.
package permcache
