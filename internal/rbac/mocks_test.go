package rbac_test

import (
	"context"

	"github.com/invoxlabs/invox/internal/models"
)

// mockRoleStore implements the role write surface rbac.Service depends on.
type mockRoleStore struct {
	getFn    func(ctx context.Context, roleID int64) (*models.Role, error)
	listFn   func(ctx context.Context) ([]models.Role, error)
	createFn func(ctx context.Context, name, description string, permissionKeys []string) (*models.Role, error)
	updateFn func(ctx context.Context, roleID int64, name, description *string, permissionKeys []string) (*models.Role, error)
	deleteFn func(ctx context.Context, roleID int64) error
}

func (m *mockRoleStore) GetRole(ctx context.Context, roleID int64) (*models.Role, error) {
	return m.getFn(ctx, roleID)
}

func (m *mockRoleStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	return m.listFn(ctx)
}

func (m *mockRoleStore) CreateRole(ctx context.Context, name, description string, permissionKeys []string) (*models.Role, error) {
	return m.createFn(ctx, name, description, permissionKeys)
}

func (m *mockRoleStore) UpdateRole(ctx context.Context, roleID int64, name, description *string, permissionKeys []string) (*models.Role, error) {
	return m.updateFn(ctx, roleID, name, description, permissionKeys)
}

func (m *mockRoleStore) DeleteRole(ctx context.Context, roleID int64) error {
	return m.deleteFn(ctx, roleID)
}

// mockDirectory implements the actor directory surface rbac.Service depends on.
type mockDirectory struct {
	byEmailFn  func(ctx context.Context, email string) (*models.Actor, error)
	byIDFn     func(ctx context.Context, id int64) (*models.Actor, error)
	rolePerms  func(ctx context.Context, roleID int64) ([]string, error)
	listPerms  func(ctx context.Context) ([]models.Permission, error)
	rolePermsN int
}

func (m *mockDirectory) GetActorByEmail(ctx context.Context, email string) (*models.Actor, error) {
	return m.byEmailFn(ctx, email)
}

func (m *mockDirectory) GetActorByID(ctx context.Context, id int64) (*models.Actor, error) {
	return m.byIDFn(ctx, id)
}

func (m *mockDirectory) ActivePermissionsForRole(ctx context.Context, roleID int64) ([]string, error) {
	m.rolePermsN++
	return m.rolePerms(ctx, roleID)
}

func (m *mockDirectory) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	return m.listPerms(ctx)
}
