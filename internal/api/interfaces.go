package api

import (
	"context"
	"io"

	"github.com/invoxlabs/invox/internal/audit"
	"github.com/invoxlabs/invox/internal/models"
)

// RoleService defines the role and permission operations used by RoleHandler.
// Implemented by rbac.Service.
type RoleService interface {
	GetRole(ctx context.Context, roleID int64) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	CreateRole(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error)
	UpdateRole(ctx context.Context, roleID int64, req models.UpdateRoleRequest) (*models.Role, error)
	DeleteRole(ctx context.Context, roleID int64) error
	ListCatalog(ctx context.Context) ([]models.Permission, error)
	UserPermissions(ctx context.Context, actor *models.Actor) ([]string, error)
}

// AuditService defines audit trail operations used by AuditHandler.
// Implemented by audit.Service.
type AuditService interface {
	LogEvent(ctx context.Context, event audit.Event)
	Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	ExportCSV(ctx context.Context, opts models.AuditQueryOpts, w io.Writer) error
	Purge(ctx context.Context, retentionDays int) (int, error)
}

// BackupReader defines the snapshot read surface used by BackupHandler.
// Implemented by snapshot.Engine.
type BackupReader interface {
	History(ctx context.Context, tenantID string, invoiceID int64, limit, offset int) ([]models.Snapshot, bool, error)
	Summary(ctx context.Context, tenantID string, invoiceID int64) (*models.SnapshotSummary, error)
}

// TenantDirectory defines the tenant listing used by TenantHandler.
// Implemented by store.DirectoryStore.
type TenantDirectory interface {
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	ListActiveTenants(ctx context.Context) ([]models.Tenant, error)
}
