// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here to
// prevent typos and make key usage discoverable.
package contextkeys

import (
	"context"

	"github.com/sesflow/accesscore/pkg/rbac"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// PrincipalKey contains the authenticated rbac.Principal.
	// Set by: the external auth middleware (principal supplier)
	// Required by: RequirePermission middleware, all handlers
	PrincipalKey Key = "principal"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: RequestIDMiddleware
	// Used by: logger, error responses
	RequestIDKey Key = "request_id"
)

// WithPrincipal adds the authenticated principal to the context.
func WithPrincipal(ctx context.Context, principal rbac.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// GetPrincipal retrieves the authenticated principal from the context.
// The second return value is false when no principal supplier ran.
func GetPrincipal(ctx context.Context) (rbac.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(rbac.Principal)
	return principal, ok
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
