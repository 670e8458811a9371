package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sesflow/accesscore/pkg/errdefs"
)

func roleRow(id int64, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
		AddRow(id, name, "", now, now)
}

func emptyPermissionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"resource", "action", "scope"})
}

func TestStore_GetRoleByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM roles").
		WithArgs("sales").
		WillReturnRows(roleRow(3, "sales"))
	mock.ExpectQuery("SELECT (.+) FROM permissions p").
		WithArgs(int64(3)).
		WillReturnRows(emptyPermissionRows().
			AddRow("engineer", "view", "company").
			AddRow("ng_list", "manage", "company"))

	store := NewStore(db)
	role, err := store.GetRoleByName(context.Background(), "sales")
	require.NoError(t, err)

	assert.Equal(t, int64(3), role.ID)
	assert.Equal(t, "sales", role.Name)
	require.Len(t, role.Permissions, 2)
	assert.Equal(t, "engineer:view:company", role.Permissions[0].String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetRoleByName_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM roles").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}))

	store := NewStore(db)
	_, err = store.GetRoleByName(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err), "missing role should report not-found, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GrantRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM roles").
		WithArgs("sales").
		WillReturnRows(roleRow(3, "sales"))
	mock.ExpectQuery("SELECT (.+) FROM permissions p").
		WithArgs(int64(3)).
		WillReturnRows(emptyPermissionRows())
	mock.ExpectQuery("INSERT INTO principal_roles").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	store := NewStore(db)
	grant, err := store.GrantRole(context.Background(), 7, "sales", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(42), grant.ID)
	assert.Equal(t, int64(7), grant.PrincipalID)
	assert.Equal(t, int64(3), grant.RoleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GrantRole_AlreadyHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM roles").
		WithArgs("sales").
		WillReturnRows(roleRow(3, "sales"))
	mock.ExpectQuery("SELECT (.+) FROM permissions p").
		WithArgs(int64(3)).
		WillReturnRows(emptyPermissionRows())
	// ON CONFLICT DO NOTHING: the conflicting insert returns no row.
	mock.ExpectQuery("INSERT INTO principal_roles").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := NewStore(db)
	_, err = store.GrantRole(context.Background(), 7, "sales", nil)
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err), "double grant should be a validation error, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RevokeRole_NotHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM roles").
		WithArgs("sales").
		WillReturnRows(roleRow(3, "sales"))
	mock.ExpectQuery("SELECT (.+) FROM permissions p").
		WithArgs(int64(3)).
		WillReturnRows(emptyPermissionRows())
	mock.ExpectExec("DELETE FROM principal_roles").
		WithArgs(int64(7), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewStore(db)
	err = store.RevokeRole(context.Background(), 7, "sales")
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err), "revoking an unheld role should be a validation error, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RevokeRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM roles").
		WithArgs("sales").
		WillReturnRows(roleRow(3, "sales"))
	mock.ExpectQuery("SELECT (.+) FROM permissions p").
		WithArgs(int64(3)).
		WillReturnRows(emptyPermissionRows())
	mock.ExpectExec("DELETE FROM principal_roles").
		WithArgs(int64(7), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewStore(db)
	require.NoError(t, store.RevokeRole(context.Background(), 7, "sales"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddPermissionToRole_RejectsMalformed(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	err = store.AddPermissionToRole(context.Background(), 3, Permission{Resource: "engineer", Action: "view", Scope: "galaxy"})
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
}

func TestStore_CreateRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO roles").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectQuery("INSERT INTO permissions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectExec("INSERT INTO role_permissions").
		WithArgs(int64(9), int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewStore(db)
	role := &Role{
		Name: "auditor",
		Permissions: []Permission{
			{Resource: ResourceEngineer, Action: ActionView, Scope: ScopeAll},
		},
	}
	require.NoError(t, store.CreateRole(context.Background(), role))
	assert.Equal(t, int64(9), role.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
