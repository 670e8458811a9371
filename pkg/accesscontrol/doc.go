// Package accesscontrol composes the permission resolver, the engineer
// visibility resolver, and their stores behind a single facade.
//
// Surrounding controllers call the facade for every protected operation.
// Mutating operations re-validate the tenant/partner relationship before
// touching sub-stores and invalidate affected cache entries after the
// persistence transaction commits, before returning.
package accesscontrol
