// Package visibility decides which engineers a business partner may see.
//
// Three layers combine into the decision: the partner's view mode
// (all, waiting, or custom with an explicit allow list), the per-partner
// NG block list, and the tenant boundary. NG is absolute: a blocked
// engineer never appears, regardless of view mode or allow-list
// membership. Both the setting-driven waiting filter and the
// availability-filter overlay draw from the one canonical
// WaitingAvailabilities set.
package visibility
