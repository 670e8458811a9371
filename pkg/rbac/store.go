package rbac

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sesflow/accesscore/pkg/errdefs"
)

// Store handles role and grant persistence. Unlike the caches it is
// authoritative: the resolver recomputes permission sets from it on
// every cache miss.
type Store struct {
	db *sql.DB
}

// NewStore creates a new RBAC store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateRole creates a new role with its permissions. Permission rows
// are shared catalog entries, unique on (resource, action, scope).
func (s *Store) CreateRole(ctx context.Context, role *Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO roles (name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id
	`, role.Name, role.Description, now).Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	for _, p := range role.Permissions {
		if err := linkPermission(ctx, tx, role.ID, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role: %w", err)
	}

	role.CreatedAt = now
	role.UpdatedAt = now
	return nil
}

// AddPermissionToRole attaches a permission to an existing role,
// creating the catalog entry when needed.
func (s *Store) AddPermissionToRole(ctx context.Context, roleID int64, p Permission) error {
	if _, err := ParsePermission(p.String()); err != nil {
		return errdefs.Validation("permission", err.Error())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := linkPermission(ctx, tx, roleID, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit permission: %w", err)
	}
	return nil
}

func linkPermission(ctx context.Context, tx *sql.Tx, roleID int64, p Permission) error {
	var permissionID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO permissions (resource, action, scope)
		VALUES ($1, $2, $3)
		ON CONFLICT (resource, action, scope) DO UPDATE SET resource = EXCLUDED.resource
		RETURNING id
	`, string(p.Resource), string(p.Action), string(p.Scope)).Scan(&permissionID)
	if err != nil {
		return fmt.Errorf("failed to upsert permission %s: %w", p, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		VALUES ($1, $2)
		ON CONFLICT (role_id, permission_id) DO NOTHING
	`, roleID, permissionID)
	if err != nil {
		return fmt.Errorf("failed to link permission %s to role %d: %w", p, roleID, err)
	}
	return nil
}

// GetRoleByName retrieves a role and its permissions by name.
func (s *Store) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	var role Role
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles
		WHERE name = $1
	`, name).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("role %q: %w", name, errdefs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	role.Permissions, err = s.rolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// ListRoles lists all roles with their permissions.
func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		roles[i].Permissions, err = s.rolePermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func (s *Store) rolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.resource, p.action, p.scope
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.resource, p.action, p.scope
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}
	defer rows.Close()

	var permissions []Permission
	for rows.Next() {
		var resource, action, scope string
		if err := rows.Scan(&resource, &action, &scope); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, Permission{
			Resource: Resource(resource),
			Action:   Action(action),
			Scope:    Scope(scope),
		})
	}
	return permissions, rows.Err()
}

// RolesForPrincipal returns the roles (with permissions) granted to a
// principal. Implements RoleSource.
func (s *Store) RolesForPrincipal(ctx context.Context, principalID int64) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at
		FROM roles r
		JOIN principal_roles pr ON pr.role_id = r.id
		WHERE pr.principal_id = $1
		ORDER BY r.name ASC
	`, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get principal roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		roles[i].Permissions, err = s.rolePermissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return roles, nil
}

// GrantRole grants the named role to a principal. Granting an already
// held role is a validation error so that administrative screens see
// the double submit.
func (s *Store) GrantRole(ctx context.Context, principalID int64, roleName string, grantedBy *int64) (*RoleGrant, error) {
	role, err := s.GetRoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}

	grant := &RoleGrant{
		PrincipalID: principalID,
		RoleID:      role.ID,
		GrantedBy:   grantedBy,
		GrantedAt:   time.Now(),
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO principal_roles (principal_id, role_id, granted_by, granted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (principal_id, role_id) DO NOTHING
		RETURNING id
	`, grant.PrincipalID, grant.RoleID, grant.GrantedBy, grant.GrantedAt).Scan(&grant.ID)
	if err == sql.ErrNoRows {
		return nil, errdefs.Validationf("role", "principal %d already holds role %q", principalID, roleName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to grant role: %w", err)
	}
	return grant, nil
}

// RevokeRole removes the named role from a principal. Revoking a role
// the principal does not hold is a validation error.
func (s *Store) RevokeRole(ctx context.Context, principalID int64, roleName string) error {
	role, err := s.GetRoleByName(ctx, roleName)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM principal_roles
		WHERE principal_id = $1 AND role_id = $2
	`, principalID, role.ID)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	if affected == 0 {
		return errdefs.Validationf("role", "principal %d does not hold role %q", principalID, roleName)
	}
	return nil
}

// SeedBuiltInRoles inserts the built-in roles and their permissions,
// skipping roles that already exist.
func (s *Store) SeedBuiltInRoles(ctx context.Context) error {
	for _, role := range BuiltInRoles() {
		existing, err := s.GetRoleByName(ctx, role.Name)
		if err == nil {
			role.ID = existing.ID
		} else if errdefs.IsNotFound(err) {
			r := role
			if err := s.CreateRole(ctx, &r); err != nil {
				return err
			}
			continue
		} else {
			return err
		}

		for _, p := range role.Permissions {
			if err := s.AddPermissionToRole(ctx, role.ID, p); err != nil {
				return err
			}
		}
	}
	return nil
}
