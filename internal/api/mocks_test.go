package api_test

import (
	"context"

	"github.com/invoxlabs/invox/internal/models"
)

// mockRoleService implements api.RoleService.
type mockRoleService struct {
	getFn       func(ctx context.Context, roleID int64) (*models.Role, error)
	listFn      func(ctx context.Context) ([]models.Role, error)
	createFn    func(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error)
	updateFn    func(ctx context.Context, roleID int64, req models.UpdateRoleRequest) (*models.Role, error)
	deleteFn    func(ctx context.Context, roleID int64) error
	catalogFn   func(ctx context.Context) ([]models.Permission, error)
	userPermsFn func(ctx context.Context, actor *models.Actor) ([]string, error)
}

func (m *mockRoleService) GetRole(ctx context.Context, roleID int64) (*models.Role, error) {
	return m.getFn(ctx, roleID)
}

func (m *mockRoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return m.listFn(ctx)
}

func (m *mockRoleService) CreateRole(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error) {
	return m.createFn(ctx, req)
}

func (m *mockRoleService) UpdateRole(ctx context.Context, roleID int64, req models.UpdateRoleRequest) (*models.Role, error) {
	return m.updateFn(ctx, roleID, req)
}

func (m *mockRoleService) DeleteRole(ctx context.Context, roleID int64) error {
	return m.deleteFn(ctx, roleID)
}

func (m *mockRoleService) ListCatalog(ctx context.Context) ([]models.Permission, error) {
	return m.catalogFn(ctx)
}

func (m *mockRoleService) UserPermissions(ctx context.Context, actor *models.Actor) ([]string, error) {
	return m.userPermsFn(ctx, actor)
}

// mockBackupReader implements api.BackupReader.
type mockBackupReader struct {
	historyFn func(ctx context.Context, tenantID string, invoiceID int64, limit, offset int) ([]models.Snapshot, bool, error)
	summaryFn func(ctx context.Context, tenantID string, invoiceID int64) (*models.SnapshotSummary, error)
}

func (m *mockBackupReader) History(ctx context.Context, tenantID string, invoiceID int64, limit, offset int) ([]models.Snapshot, bool, error) {
	return m.historyFn(ctx, tenantID, invoiceID, limit, offset)
}

func (m *mockBackupReader) Summary(ctx context.Context, tenantID string, invoiceID int64) (*models.SnapshotSummary, error) {
	return m.summaryFn(ctx, tenantID, invoiceID)
}
