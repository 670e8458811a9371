package rbac

import (
	"fmt"
	"strings"
	"time"
)

// Resource represents a resource type in the system
type Resource string

const (
	ResourceEngineer        Resource = "engineer"
	ResourceCompany         Resource = "company"
	ResourceBusinessPartner Resource = "business_partner"
	ResourceClientUser      Resource = "client_user"
	ResourceRole            Resource = "role"
	ResourceNgList          Resource = "ng_list"
)

// Action represents an action that can be performed on a resource
type Action string

const (
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Scope is the breadth qualifier on a permission, limiting which resource
// instances a grant covers. The empty scope is valid and matches any
// requested scope.
type Scope string

const (
	ScopeNone    Scope = ""
	ScopeOwn     Scope = "own"
	ScopeCompany Scope = "company"
	ScopeAll     Scope = "all"
)

// ValidScope reports whether s is one of the closed set of scopes.
func ValidScope(s Scope) bool {
	switch s {
	case ScopeNone, ScopeOwn, ScopeCompany, ScopeAll:
		return true
	}
	return false
}

// Permission is a parsed resource:action[:scope] triple. Permissions are
// compared by their wire string; malformed strings are rejected at the
// boundary by ParsePermission rather than silently mismatching during
// set intersection.
type Permission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
	Scope    Scope    `json:"scope,omitempty"`
}

// String returns the wire representation of the permission.
func (p Permission) String() string {
	s := string(p.Resource) + ":" + string(p.Action)
	if p.Scope != ScopeNone {
		s += ":" + string(p.Scope)
	}
	return s
}

// ParsePermission parses a resource:action[:scope] wire string.
func ParsePermission(s string) (Permission, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Permission{}, fmt.Errorf("malformed permission %q: want resource:action[:scope]", s)
	}
	if parts[0] == "" || parts[1] == "" {
		return Permission{}, fmt.Errorf("malformed permission %q: empty resource or action", s)
	}
	p := Permission{Resource: Resource(parts[0]), Action: Action(parts[1])}
	if len(parts) == 3 {
		if parts[2] == "" || !ValidScope(Scope(parts[2])) {
			return Permission{}, fmt.Errorf("malformed permission %q: unknown scope %q", s, parts[2])
		}
		p.Scope = Scope(parts[2])
	}
	return p, nil
}

// Role represents a named bundle of permissions
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// RoleSuperAdmin bypasses all permission checks.
const RoleSuperAdmin = "super_admin"

// Built-in role names
const (
	RoleCompanyAdmin = "company_admin"
	RoleSales        = "sales"
	RoleClientUser   = "client_user"
)

// Principal is the authenticated actor making a request. It is built per
// request by the external principal supplier; the resolver trusts it as
// already authenticated.
type Principal struct {
	ID       int64    `json:"id"`
	TenantID int64    `json:"tenant_id"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the principal holds the named role.
func (p Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// RoleGrant represents a role assignment to a principal
type RoleGrant struct {
	ID          int64     `json:"id"`
	PrincipalID int64     `json:"principal_id"`
	RoleID      int64     `json:"role_id"`
	GrantedBy   *int64    `json:"granted_by,omitempty"`
	GrantedAt   time.Time `json:"granted_at"`
}

// AuthorizeRequest carries the qualifiers of an Authorize call. Scope is
// the scope the caller is requesting the action under; TargetTenantID and
// TargetOwnerID identify the resource instance when the requested scope
// is company or own respectively.
type AuthorizeRequest struct {
	Resource       Resource
	Action         Action
	Scope          Scope
	TargetTenantID *int64
	TargetOwnerID  *int64
}

// BuiltInRoles returns the role definitions seeded by the migrations.
func BuiltInRoles() []Role {
	return []Role{
		{
			Name:        RoleSuperAdmin,
			Description: "Operator role, bypasses all permission checks",
		},
		{
			Name:        RoleCompanyAdmin,
			Description: "Full access to resources of the own SES company",
			Permissions: []Permission{
				{Resource: ResourceEngineer, Action: ActionCreate},
				{Resource: ResourceEngineer, Action: ActionView, Scope: ScopeCompany},
				{Resource: ResourceEngineer, Action: ActionUpdate, Scope: ScopeCompany},
				{Resource: ResourceEngineer, Action: ActionDelete, Scope: ScopeCompany},
				{Resource: ResourceBusinessPartner, Action: ActionCreate},
				{Resource: ResourceBusinessPartner, Action: ActionView, Scope: ScopeCompany},
				{Resource: ResourceBusinessPartner, Action: ActionUpdate, Scope: ScopeCompany},
				{Resource: ResourceBusinessPartner, Action: ActionDelete, Scope: ScopeCompany},
				{Resource: ResourceClientUser, Action: ActionCreate},
				{Resource: ResourceClientUser, Action: ActionView, Scope: ScopeCompany},
				{Resource: ResourceClientUser, Action: ActionUpdate, Scope: ScopeCompany},
				{Resource: ResourceNgList, Action: ActionManage, Scope: ScopeCompany},
				{Resource: ResourceRole, Action: ActionView},
			},
		},
		{
			Name:        RoleSales,
			Description: "Manages business partners and engineer visibility",
			Permissions: []Permission{
				{Resource: ResourceEngineer, Action: ActionView, Scope: ScopeCompany},
				{Resource: ResourceBusinessPartner, Action: ActionView, Scope: ScopeCompany},
				{Resource: ResourceBusinessPartner, Action: ActionUpdate, Scope: ScopeCompany},
				{Resource: ResourceNgList, Action: ActionManage, Scope: ScopeCompany},
			},
		},
		{
			Name:        RoleClientUser,
			Description: "Client-company user, sees only engineers shared with the partner",
			Permissions: []Permission{
				{Resource: ResourceEngineer, Action: ActionView, Scope: ScopeOwn},
				{Resource: ResourceClientUser, Action: ActionUpdate, Scope: ScopeOwn},
			},
		},
	}
}
