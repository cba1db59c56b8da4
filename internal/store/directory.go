package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/invoxlabs/invox/internal/models"
)

// DirectoryStore reads tenants and actors from the shared directory store.
// Tenants are provisioned externally; this service never writes them.
type DirectoryStore struct {
	Base
}

// NewDirectoryStore creates a DirectoryStore.
func NewDirectoryStore(base Base) *DirectoryStore {
	return &DirectoryStore{Base: base}
}

// GetTenant returns a tenant row by id, regardless of its active flag.
// The caller decides whether inactive tenants are acceptable.
func (s *DirectoryStore) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var t models.Tenant

	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, store_dsn, active, company_name, tax_number, created_at
		FROM tenants WHERE id = $1`, tenantID,
	).Scan(&t.ID, &t.Name, &t.StoreDSN, &t.Active, &t.CompanyName, &t.TaxNumber, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTenantNotFound
		}

		return nil, fmt.Errorf("looking up tenant: %w", err)
	}

	return &t, nil
}

// ListActiveTenants returns all active tenants, for administrative fan-out.
func (s *DirectoryStore) ListActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, store_dsn, active, company_name, tax_number, created_at
		FROM tenants WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing active tenants: %w", err)
	}
	defer rows.Close()

	var tenants []models.Tenant

	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.StoreDSN, &t.Active, &t.CompanyName, &t.TaxNumber, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant: %w", err)
		}
		tenants = append(tenants, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenants: %w", err)
	}

	return tenants, nil
}

const actorColumns = `
	u.id, u.email, u.kind, u.role_id,
	COALESCE(r.name, ''), COALESCE(r.is_system, FALSE)`

// scanActor scans one actor row including its joined role fields.
func scanActor(row pgx.Row) (*models.Actor, error) {
	var a models.Actor
	var kind string

	err := row.Scan(&a.ID, &a.Email, &kind, &a.RoleID, &a.RoleName, &a.RoleIsSystem)
	if err != nil {
		return nil, err
	}

	a.Kind = models.ActorKind(kind)

	return &a, nil
}

// GetActorByAPIKey resolves an active user by API key hash.
func (s *DirectoryStore) GetActorByAPIKey(ctx context.Context, apiKey string) (*models.Actor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	actor, err := scanActor(s.Pool.QueryRow(ctx, `
		SELECT `+actorColumns+`
		FROM users u LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.api_key_hash = $1 AND u.active`, HashAPIKey(apiKey)))
	if err != nil {
		return nil, fmt.Errorf("looking up actor by API key: %w", err)
	}

	return actor, nil
}

// GetActorByEmail resolves an active user by email.
func (s *DirectoryStore) GetActorByEmail(ctx context.Context, email string) (*models.Actor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	actor, err := scanActor(s.Pool.QueryRow(ctx, `
		SELECT `+actorColumns+`
		FROM users u LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1 AND u.active`, email))
	if err != nil {
		return nil, fmt.Errorf("looking up actor by email: %w", err)
	}

	return actor, nil
}

// GetActorByID resolves an active user by id. Fallback path only: admin and
// tenant-user ids live in separate spaces, so email lookup is preferred.
func (s *DirectoryStore) GetActorByID(ctx context.Context, id int64) (*models.Actor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	actor, err := scanActor(s.Pool.QueryRow(ctx, `
		SELECT `+actorColumns+`
		FROM users u LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1 AND u.active`, id))
	if err != nil {
		return nil, fmt.Errorf("looking up actor by id: %w", err)
	}

	return actor, nil
}

// ActivePermissionsForRole returns the keys of all active permissions linked
// to the given role. Inactive permissions are filtered out here so they can
// never grant access even while still linked.
func (s *DirectoryStore) ActivePermissionsForRole(ctx context.Context, roleID int64) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `
		SELECT p.key
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 AND p.is_active
		ORDER BY p.key`, roleID)
	if err != nil {
		return nil, fmt.Errorf("querying role permissions: %w", err)
	}
	defer rows.Close()

	var keys []string

	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning permission key: %w", err)
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permission keys: %w", err)
	}

	return keys, nil
}

// ListPermissions returns the full permission catalog.
func (s *DirectoryStore) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `
		SELECT id, key, category, description, is_active
		FROM permissions ORDER BY category, key`)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	defer rows.Close()

	var perms []models.Permission

	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Key, &p.Category, &p.Description, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		perms = append(perms, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permissions: %w", err)
	}

	return perms, nil
}
