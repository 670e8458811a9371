// Package rbac implements role/permission-based access control with
// scoped grants.
//
// Permissions are resource:action[:scope] strings; scope is one of own,
// company, all, or absent. Roles bundle permissions, principals hold
// roles, and the effective permission set of a principal is the union
// over its roles. PermissionResolver answers Authorize questions against
// that set with literal scope matching, caching resolved sets per
// principal through a permcache.Cache.
//
// The resolver fails closed: lookup failures deny, and cache failures
// degrade to a direct recompute from the Store.
package rbac
