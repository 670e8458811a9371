package rbac

import "testing"

func TestParsePermission(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Permission
		wantErr bool
	}{
		{
			name:  "resource and action",
			input: "engineer:view",
			want:  Permission{Resource: ResourceEngineer, Action: ActionView},
		},
		{
			name:  "with scope",
			input: "engineer:view:company",
			want:  Permission{Resource: ResourceEngineer, Action: ActionView, Scope: ScopeCompany},
		},
		{
			name:  "own scope",
			input: "client_user:update:own",
			want:  Permission{Resource: ResourceClientUser, Action: ActionUpdate, Scope: ScopeOwn},
		},
		{
			name:    "missing action",
			input:   "engineer",
			wantErr: true,
		},
		{
			name:    "empty action",
			input:   "engineer:",
			wantErr: true,
		},
		{
			name:    "empty resource",
			input:   ":view",
			wantErr: true,
		},
		{
			name:    "unknown scope",
			input:   "engineer:view:galaxy",
			wantErr: true,
		},
		{
			name:    "trailing colon",
			input:   "engineer:view:",
			wantErr: true,
		},
		{
			name:    "too many parts",
			input:   "engineer:view:company:extra",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePermission(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePermission(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePermission(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePermission(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPermissionString(t *testing.T) {
	p := Permission{Resource: ResourceNgList, Action: ActionManage, Scope: ScopeCompany}
	if got := p.String(); got != "ng_list:manage:company" {
		t.Errorf("String() = %q, want %q", got, "ng_list:manage:company")
	}

	unscoped := Permission{Resource: ResourceEngineer, Action: ActionCreate}
	if got := unscoped.String(); got != "engineer:create" {
		t.Errorf("String() = %q, want %q", got, "engineer:create")
	}
}

func TestPermissionStringRoundTrip(t *testing.T) {
	for _, role := range BuiltInRoles() {
		for _, p := range role.Permissions {
			parsed, err := ParsePermission(p.String())
			if err != nil {
				t.Errorf("built-in permission %q does not parse: %v", p, err)
				continue
			}
			if parsed != p {
				t.Errorf("round trip of %q = %+v, want %+v", p, parsed, p)
			}
		}
	}
}

func TestValidScope(t *testing.T) {
	for _, s := range []Scope{ScopeNone, ScopeOwn, ScopeCompany, ScopeAll} {
		if !ValidScope(s) {
			t.Errorf("ValidScope(%q) = false, want true", s)
		}
	}
	if ValidScope(Scope("global")) {
		t.Error("ValidScope(\"global\") = true, want false")
	}
}

func TestPrincipalHasRole(t *testing.T) {
	p := Principal{ID: 1, TenantID: 1, Roles: []string{RoleSales, RoleCompanyAdmin}}
	if !p.HasRole(RoleSales) {
		t.Error("expected principal to hold sales role")
	}
	if p.HasRole(RoleSuperAdmin) {
		t.Error("did not expect principal to hold super_admin role")
	}

	empty := Principal{ID: 2, TenantID: 1}
	if empty.HasRole(RoleSales) {
		t.Error("principal with no roles should hold nothing")
	}
}

func TestBuiltInRoles(t *testing.T) {
	roles := BuiltInRoles()

	byName := make(map[string]Role, len(roles))
	for _, r := range roles {
		byName[r.Name] = r
	}

	for _, name := range []string{RoleSuperAdmin, RoleCompanyAdmin, RoleSales, RoleClientUser} {
		if _, ok := byName[name]; !ok {
			t.Errorf("built-in role %q missing", name)
		}
	}

	// Super admin bypasses checks instead of enumerating grants.
	if len(byName[RoleSuperAdmin].Permissions) != 0 {
		t.Errorf("super_admin should carry no permissions, got %d", len(byName[RoleSuperAdmin].Permissions))
	}

	// Client users see only their own slice of the system.
	for _, p := range byName[RoleClientUser].Permissions {
		if p.Scope != ScopeOwn {
			t.Errorf("client_user permission %q should be own-scoped", p)
		}
	}
}
