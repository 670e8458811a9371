package accesscontrol

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sesflow/accesscore/pkg/contextkeys"
	"github.com/sesflow/accesscore/pkg/httputil"
	"github.com/sesflow/accesscore/pkg/rbac"
)

// RequestIDMiddleware assigns a UUID to every request for log
// correlation.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission creates middleware that requires the given
// permission. The principal is read from the request context, where the
// external auth middleware (the principal supplier) placed it; requests
// without a principal are unauthorized, denials are forbidden, and
// resolver infrastructure failures are internal errors, never silent
// allows.
func (f *Facade) RequirePermission(resource rbac.Resource, action rbac.Action, scope rbac.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := contextkeys.GetPrincipal(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			req := rbac.AuthorizeRequest{
				Resource: resource,
				Action:   action,
				Scope:    scope,
			}
			if scope == rbac.ScopeCompany {
				req.TargetTenantID = &principal.TenantID
			}

			allowed, err := f.Authorize(r.Context(), principal, req)
			if err != nil {
				f.logger.WithError(err).WithFields(map[string]interface{}{
					"request_id":   contextkeys.GetRequestID(r.Context()),
					"principal_id": principal.ID,
				}).Error("authorization check failed")
				httputil.WriteErrorMessage(w, http.StatusInternalServerError, "authorization check failed")
				return
			}
			if !allowed {
				httputil.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// StaticPrincipalMiddleware injects a fixed principal into every
// request. It stands in for the external principal supplier in local
// development and tests.
func StaticPrincipalMiddleware(principal rbac.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := contextkeys.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
