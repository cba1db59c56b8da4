package rbac_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/models"
	"github.com/invoxlabs/invox/internal/rbac"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func TestCreateRole_ReconcilesBeforePersist(t *testing.T) {
	t.Parallel()

	var persisted []string
	roles := &mockRoleStore{
		createFn: func(_ context.Context, name, _ string, keys []string) (*models.Role, error) {
			persisted = keys
			return &models.Role{ID: 1, Name: name, Permissions: keys}, nil
		},
	}

	svc := rbac.NewService(roles, &mockDirectory{}, testLogger())

	_, err := svc.CreateRole(context.Background(), models.CreateRoleRequest{
		Name:        "Uploader",
		Permissions: []string{"invoice.uploader"},
	})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	want := []string{"invoice.template", "invoice.uploader"}
	if !reflect.DeepEqual(persisted, want) {
		t.Errorf("persisted %v, want %v", persisted, want)
	}
}

func TestCreateRole_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	svc := rbac.NewService(&mockRoleStore{}, &mockDirectory{}, testLogger())

	_, err := svc.CreateRole(context.Background(), models.CreateRoleRequest{
		Name:        "Broken",
		Permissions: []string{"invoice.teleport"},
	})
	if !errors.Is(err, models.ErrUnknownPermissionKey) {
		t.Fatalf("expected ErrUnknownPermissionKey, got %v", err)
	}
}

func TestUpdateRole_ReconcilesAndStrips(t *testing.T) {
	t.Parallel()

	var persisted []string
	roles := &mockRoleStore{
		updateFn: func(_ context.Context, roleID int64, _, _ *string, keys []string) (*models.Role, error) {
			persisted = keys
			return &models.Role{ID: roleID, Name: "Clerk", Permissions: keys}, nil
		},
	}

	svc := rbac.NewService(roles, &mockDirectory{}, testLogger())

	// invoice.template is requested without its trigger and must not survive.
	_, err := svc.UpdateRole(context.Background(), 7, models.UpdateRoleRequest{
		Permissions: &[]string{"invoice.template", "invoice.view"},
	})
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}

	want := []string{"invoice.view"}
	if !reflect.DeepEqual(persisted, want) {
		t.Errorf("persisted %v, want %v", persisted, want)
	}
}

func TestUpdateRole_NilPermissionsKeepsCurrentSet(t *testing.T) {
	t.Parallel()

	current := []string{"invoice.view", "buyer.view"}

	var persisted []string
	roles := &mockRoleStore{
		getFn: func(_ context.Context, roleID int64) (*models.Role, error) {
			return &models.Role{ID: roleID, Name: "Clerk", Permissions: current}, nil
		},
		updateFn: func(_ context.Context, roleID int64, _, _ *string, keys []string) (*models.Role, error) {
			persisted = keys
			return &models.Role{ID: roleID, Name: "Clerk", Permissions: keys}, nil
		},
	}

	svc := rbac.NewService(roles, &mockDirectory{}, testLogger())

	name := "Senior Clerk"
	_, err := svc.UpdateRole(context.Background(), 7, models.UpdateRoleRequest{Name: &name})
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}

	if !reflect.DeepEqual(persisted, current) {
		t.Errorf("persisted %v, want current set %v", persisted, current)
	}
}

func TestUpdateRole_EmptyPermissionsStripsAll(t *testing.T) {
	t.Parallel()

	var persisted []string
	roles := &mockRoleStore{
		updateFn: func(_ context.Context, roleID int64, _, _ *string, keys []string) (*models.Role, error) {
			persisted = keys
			return &models.Role{ID: roleID, Name: "Clerk", Permissions: keys}, nil
		},
	}

	svc := rbac.NewService(roles, &mockDirectory{}, testLogger())

	_, err := svc.UpdateRole(context.Background(), 7, models.UpdateRoleRequest{
		Permissions: &[]string{},
	})
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}

	if len(persisted) != 0 {
		t.Errorf("persisted %v, want empty set", persisted)
	}
}

func TestUserHasPermission_NilActor(t *testing.T) {
	t.Parallel()

	svc := rbac.NewService(&mockRoleStore{}, &mockDirectory{}, testLogger())

	_, err := svc.UserHasPermission(context.Background(), nil, "invoice.view")
	if !errors.Is(err, models.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestUserHasPermission_AdminBypassesLookup(t *testing.T) {
	t.Parallel()

	dir := &mockDirectory{
		byEmailFn: func(context.Context, string) (*models.Actor, error) {
			t.Fatal("admin check must not hit the directory")
			return nil, nil
		},
	}
	svc := rbac.NewService(&mockRoleStore{}, dir, testLogger())

	admin := &models.Actor{ID: 1, Email: "ops@invox.test", Kind: models.ActorAdmin}

	ok, err := svc.UserHasPermission(context.Background(), admin, "role.manage")
	if err != nil || !ok {
		t.Fatalf("admin should hold every permission, got ok=%v err=%v", ok, err)
	}
}

func TestUserHasPermission_ExactMatchOnly(t *testing.T) {
	t.Parallel()

	roleID := int64(3)
	dir := &mockDirectory{
		byEmailFn: func(_ context.Context, email string) (*models.Actor, error) {
			return &models.Actor{ID: 9, Email: email, Kind: models.ActorTenantUser, RoleID: &roleID}, nil
		},
		rolePerms: func(context.Context, int64) ([]string, error) {
			return []string{"invoice.view", "invoice.create"}, nil
		},
	}
	svc := rbac.NewService(&mockRoleStore{}, dir, testLogger())

	user := &models.Actor{ID: 9, Email: "clerk@acme.test", Kind: models.ActorTenantUser}

	ok, err := svc.UserHasPermission(context.Background(), user, "invoice.view")
	if err != nil || !ok {
		t.Fatalf("expected held permission, got ok=%v err=%v", ok, err)
	}

	ok, err = svc.UserHasPermission(context.Background(), user, "invoice.delete")
	if err != nil || ok {
		t.Fatalf("expected denied permission, got ok=%v err=%v", ok, err)
	}
}

func TestUserHasPermission_CachesPerActor(t *testing.T) {
	t.Parallel()

	roleID := int64(3)
	dir := &mockDirectory{
		byEmailFn: func(_ context.Context, email string) (*models.Actor, error) {
			return &models.Actor{ID: 9, Email: email, Kind: models.ActorTenantUser, RoleID: &roleID}, nil
		},
		rolePerms: func(context.Context, int64) ([]string, error) {
			return []string{"invoice.view"}, nil
		},
	}
	svc := rbac.NewService(&mockRoleStore{}, dir, testLogger())

	user := &models.Actor{Email: "clerk@acme.test", Kind: models.ActorTenantUser}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.UserHasPermission(ctx, user, "invoice.view"); err != nil {
			t.Fatalf("UserHasPermission: %v", err)
		}
	}

	if dir.rolePermsN != 1 {
		t.Errorf("expected 1 directory lookup, got %d", dir.rolePermsN)
	}
}

func TestUserPermissions_SystemRoleGetsFullCatalog(t *testing.T) {
	t.Parallel()

	dir := &mockDirectory{
		listPerms: func(context.Context) ([]models.Permission, error) {
			return []models.Permission{
				{Key: "invoice.view", IsActive: true},
				{Key: "invoice.post", IsActive: false},
				{Key: "role.manage", IsActive: true},
			}, nil
		},
	}
	svc := rbac.NewService(&mockRoleStore{}, dir, testLogger())

	operator := &models.Actor{Email: "op@invox.test", Kind: models.ActorTenantUser, RoleIsSystem: true}

	perms, err := svc.UserPermissions(context.Background(), operator)
	if err != nil {
		t.Fatalf("UserPermissions: %v", err)
	}

	want := []string{"invoice.view", "role.manage"}
	if !reflect.DeepEqual(perms, want) {
		t.Errorf("got %v, want %v (inactive keys must be excluded)", perms, want)
	}
}
