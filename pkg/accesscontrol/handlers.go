package accesscontrol

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sesflow/accesscore/pkg/contextkeys"
	"github.com/sesflow/accesscore/pkg/httputil"
	"github.com/sesflow/accesscore/pkg/rbac"
	"github.com/sesflow/accesscore/pkg/visibility"
)

// Handlers exposes the facade operations over HTTP for the
// access-control management screens and the partner-facing engineer
// listing.
type Handlers struct {
	facade *Facade
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(facade *Facade) *Handlers {
	return &Handlers{facade: facade}
}

// RegisterRoutes registers all access-control routes on the router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	roles := router.PathPrefix("/principals/{principalID:[0-9]+}/roles").Subrouter()
	roles.Use(h.facade.RequirePermission(rbac.ResourceRole, rbac.ActionManage, rbac.ScopeNone))
	roles.HandleFunc("", h.GrantRole).Methods(http.MethodPost)
	roles.HandleFunc("/{roleName}", h.RevokeRole).Methods(http.MethodDelete)

	partners := router.PathPrefix("/business-partners/{partnerID:[0-9]+}").Subrouter()

	manage := partners.NewRoute().Subrouter()
	manage.Use(h.facade.RequirePermission(rbac.ResourceNgList, rbac.ActionManage, rbac.ScopeCompany))
	manage.HandleFunc("/engineer-permissions", h.GetEngineerPermissions).Methods(http.MethodGet)
	manage.HandleFunc("/engineer-permissions", h.SetEngineerPermissions).Methods(http.MethodPut)
	manage.HandleFunc("/ng-list", h.GetNgList).Methods(http.MethodGet)
	manage.HandleFunc("/ng-list", h.AddToNgList).Methods(http.MethodPost)
	manage.HandleFunc("/ng-list/{engineerID:[0-9]+}", h.RemoveFromNgList).Methods(http.MethodDelete)

	listing := partners.NewRoute().Subrouter()
	listing.Use(h.facade.RequirePermission(rbac.ResourceEngineer, rbac.ActionView, rbac.ScopeCompany))
	listing.HandleFunc("/engineers", h.ListVisibleEngineers).Methods(http.MethodGet)
}

type grantRoleRequest struct {
	Role string `json:"role"`
}

// GrantRole grants a role to a principal.
func (h *Handlers) GrantRole(w http.ResponseWriter, r *http.Request) {
	principalID := httputil.ParsePathInt64(mux.Vars(r), "principalID")

	var req grantRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Role == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "role is required")
		return
	}

	var grantedBy *int64
	if actor, ok := contextkeys.GetPrincipal(r.Context()); ok {
		grantedBy = &actor.ID
	}

	grant, err := h.facade.GrantRole(r.Context(), principalID, req.Role, grantedBy)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, grant)
}

// RevokeRole revokes a role from a principal.
func (h *Handlers) RevokeRole(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	principalID := httputil.ParsePathInt64(vars, "principalID")

	if err := h.facade.RevokeRole(r.Context(), principalID, vars["roleName"]); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// GetEngineerPermissions returns the partner's view mode and allow list.
func (h *Handlers) GetEngineerPermissions(w http.ResponseWriter, r *http.Request) {
	principal, _ := contextkeys.GetPrincipal(r.Context())
	partnerID := httputil.ParsePathInt64(mux.Vars(r), "partnerID")

	result, err := h.facade.GetEngineerPermissions(r.Context(), principal.TenantID, partnerID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

type setEngineerPermissionsRequest struct {
	ViewType    visibility.ViewType `json:"view_type"`
	EngineerIDs []int64             `json:"engineer_ids"`
}

// SetEngineerPermissions replaces the partner's view mode and allow list.
func (h *Handlers) SetEngineerPermissions(w http.ResponseWriter, r *http.Request) {
	principal, _ := contextkeys.GetPrincipal(r.Context())
	partnerID := httputil.ParsePathInt64(mux.Vars(r), "partnerID")

	var req setEngineerPermissionsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	err := h.facade.SetEngineerPermissions(r.Context(), principal.TenantID, partnerID, req.ViewType, req.EngineerIDs)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// GetNgList returns the partner's NG entries.
func (h *Handlers) GetNgList(w http.ResponseWriter, r *http.Request) {
	principal, _ := contextkeys.GetPrincipal(r.Context())
	partnerID := httputil.ParsePathInt64(mux.Vars(r), "partnerID")

	entries, err := h.facade.GetNgList(r.Context(), principal.TenantID, partnerID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, entries)
}

type addNgRequest struct {
	EngineerID int64   `json:"engineer_id"`
	Reason     *string `json:"reason,omitempty"`
}

// AddToNgList blocks an engineer for the partner.
func (h *Handlers) AddToNgList(w http.ResponseWriter, r *http.Request) {
	principal, _ := contextkeys.GetPrincipal(r.Context())
	partnerID := httputil.ParsePathInt64(mux.Vars(r), "partnerID")

	var req addNgRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.EngineerID == 0 {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "engineer_id is required")
		return
	}

	entry, err := h.facade.AddToNgList(r.Context(), principal.TenantID, partnerID, req.EngineerID, req.Reason)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, entry)
}

// RemoveFromNgList unblocks an engineer for the partner.
func (h *Handlers) RemoveFromNgList(w http.ResponseWriter, r *http.Request) {
	principal, _ := contextkeys.GetPrincipal(r.Context())
	vars := mux.Vars(r)
	partnerID := httputil.ParsePathInt64(vars, "partnerID")
	engineerID := httputil.ParsePathInt64(vars, "engineerID")

	if err := h.facade.RemoveFromNgList(r.Context(), principal.TenantID, partnerID, engineerID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// engineerPage is the paginated listing response.
type engineerPage struct {
	Items    []visibility.Engineer `json:"items"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// ListVisibleEngineers returns the engineers the partner may see.
func (h *Handlers) ListVisibleEngineers(w http.ResponseWriter, r *http.Request) {
	principal, _ := contextkeys.GetPrincipal(r.Context())
	partnerID := httputil.ParsePathInt64(mux.Vars(r), "partnerID")

	params := visibility.ListParams{
		Page:               httputil.ParseQueryInt(r, "page", 1),
		PageSize:           httputil.ParseQueryInt(r, "page_size", visibility.DefaultPageSize),
		Search:             r.URL.Query().Get("search"),
		AvailabilityFilter: visibility.AvailabilityBucket(r.URL.Query().Get("availability")),
	}
	if skills := r.URL.Query().Get("skills"); skills != "" {
		params.Skills = strings.Split(skills, ",")
	}

	items, total, err := h.facade.ListVisibleEngineers(r.Context(), principal.TenantID, partnerID, params)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if items == nil {
		items = []visibility.Engineer{}
	}
	httputil.WriteSuccess(w, engineerPage{
		Items:    items,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}
