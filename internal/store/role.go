package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/invoxlabs/invox/internal/models"
)

// RoleStore provides data access for roles and their permission sets.
// Implication rules are applied by the rbac service before the requested set
// reaches this layer; the store persists exactly what it is given.
type RoleStore struct {
	Base
}

// NewRoleStore creates a RoleStore.
func NewRoleStore(base Base) *RoleStore {
	return &RoleStore{Base: base}
}

// GetRole returns a role with its linked permission keys (active or not;
// the graph shows what is linked, enforcement filters on is_active).
func (s *RoleStore) GetRole(ctx context.Context, roleID int64) (*models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var r models.Role

	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, description, is_system, created_at, updated_at
		FROM roles WHERE id = $1`, roleID,
	).Scan(&r.ID, &r.Name, &r.Description, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRoleNotFound
		}

		return nil, fmt.Errorf("looking up role: %w", err)
	}

	perms, err := s.rolePermissionKeys(ctx, roleID)
	if err != nil {
		return nil, err
	}
	r.Permissions = perms

	return &r, nil
}

// ListRoles returns all roles with their permission keys.
func (s *RoleStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.is_system, r.created_at, r.updated_at,
		       COALESCE(array_agg(p.key ORDER BY p.key) FILTER (WHERE p.key IS NOT NULL), '{}')
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		GROUP BY r.id
		ORDER BY r.name`)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role

	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt, &r.Permissions); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	return roles, nil
}

// CreateRole inserts a role and its permission set in one transaction.
// Returns ErrRoleNameConflict on a (case-sensitive) name collision.
func (s *RoleStore) CreateRole(ctx context.Context, name, description string, permissionKeys []string) (*models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	var r models.Role

	err = tx.QueryRow(ctx, `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, is_system, created_at, updated_at`,
		name, description,
	).Scan(&r.ID, &r.Name, &r.Description, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrRoleNameConflict
		}

		return nil, fmt.Errorf("inserting role: %w", err)
	}

	if err := insertRolePermissions(ctx, tx, r.ID, permissionKeys); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing role create: %w", err)
	}

	r.Permissions = permissionKeys

	return &r, nil
}

// UpdateRole rewrites a role and its permission set wholesale in one
// transaction. System-flagged roles are immutable.
func (s *RoleStore) UpdateRole(ctx context.Context, roleID int64, name, description *string, permissionKeys []string) (*models.Role, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	if err := lockMutableRole(ctx, tx, roleID); err != nil {
		return nil, err
	}

	var r models.Role

	err = tx.QueryRow(ctx, `
		UPDATE roles
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, is_system, created_at, updated_at`,
		roleID, name, description,
	).Scan(&r.ID, &r.Name, &r.Description, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrRoleNameConflict
		}

		return nil, fmt.Errorf("updating role: %w", err)
	}

	// Wholesale rewrite: delete all, then insert the reconciled set.
	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return nil, fmt.Errorf("clearing role permissions: %w", err)
	}

	if err := insertRolePermissions(ctx, tx, roleID, permissionKeys); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing role update: %w", err)
	}

	r.Permissions = permissionKeys

	return &r, nil
}

// DeleteRole removes a role. Fails with ErrRoleInUse while any user still
// references it, and ErrSystemRoleImmutable for system-flagged roles.
func (s *RoleStore) DeleteRole(ctx context.Context, roleID int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	if err := lockMutableRole(ctx, tx, roleID); err != nil {
		return err
	}

	var users int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID).Scan(&users); err != nil {
		return fmt.Errorf("counting role users: %w", err)
	}
	if users > 0 {
		return models.ErrRoleInUse
	}

	if _, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID); err != nil {
		return fmt.Errorf("deleting role: %w", err)
	}

	return tx.Commit(ctx)
}

// lockMutableRole row-locks the role for the rest of the transaction and
// rejects system-flagged roles.
func lockMutableRole(ctx context.Context, tx pgx.Tx, roleID int64) error {
	var isSystem bool

	err := tx.QueryRow(ctx, `SELECT is_system FROM roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&isSystem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrRoleNotFound
		}

		return fmt.Errorf("locking role: %w", err)
	}

	if isSystem {
		return models.ErrSystemRoleImmutable
	}

	return nil
}

// insertRolePermissions links the given permission keys to the role.
// Unknown keys are silently skipped; the rbac service validates keys against
// the catalog before they reach the store.
func insertRolePermissions(ctx context.Context, tx pgx.Tx, roleID int64, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, id FROM permissions WHERE key = ANY($2)`,
		roleID, keys)
	if err != nil {
		return fmt.Errorf("inserting role permissions: %w", err)
	}

	return nil
}

// rolePermissionKeys returns all permission keys linked to a role.
func (s *RoleStore) rolePermissionKeys(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT p.key
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.key`, roleID)
	if err != nil {
		return nil, fmt.Errorf("querying role permission keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}

	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning permission key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}
