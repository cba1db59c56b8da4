package rbac

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/models"
)

// roleStore is the data-access interface Service depends on for role writes.
// Defined at the consumer so the store package depends on no rbac types.
type roleStore interface {
	GetRole(ctx context.Context, roleID int64) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	CreateRole(ctx context.Context, name, description string, permissionKeys []string) (*models.Role, error)
	UpdateRole(ctx context.Context, roleID int64, name, description *string, permissionKeys []string) (*models.Role, error)
	DeleteRole(ctx context.Context, roleID int64) error
}

// actorDirectory is the directory-store interface for permission lookups.
type actorDirectory interface {
	GetActorByEmail(ctx context.Context, email string) (*models.Actor, error)
	GetActorByID(ctx context.Context, id int64) (*models.Actor, error)
	ActivePermissionsForRole(ctx context.Context, roleID int64) ([]string, error)
	ListPermissions(ctx context.Context) ([]models.Permission, error)
}

const (
	permCacheSize = 4096
	permCacheTTL  = 30 * time.Second
)

// Service implements the role/permission graph operations. Role writes apply
// the implication table before persisting, so create and update paths can
// never diverge. Permission lookups are cached briefly per actor; the cache
// is flushed on every role write.
type Service struct {
	roles roleStore
	dir   actorDirectory
	log   *logrus.Logger
	cache *expirable.LRU[string, []string]
}

// NewService creates a Service.
func NewService(roles roleStore, dir actorDirectory, log *logrus.Logger) *Service {
	return &Service{
		roles: roles,
		dir:   dir,
		log:   log,
		cache: expirable.NewLRU[string, []string](permCacheSize, nil, permCacheTTL),
	}
}

// CreateRole validates and reconciles the requested permission set, then
// persists the role. Template-style derived keys are added or stripped here.
func (s *Service) CreateRole(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error) {
	if err := ValidateKeys(req.Permissions); err != nil {
		return nil, err
	}

	role, err := s.roles.CreateRole(ctx, req.Name, req.Description, Reconcile(req.Permissions))
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"role":        role.Name,
		"permissions": len(role.Permissions),
	}).Info("role created")

	return role, nil
}

// UpdateRole rewrites a role with the reconciled permission set. A nil
// Permissions field keeps the stored set; a non-nil one replaces it
// wholesale.
func (s *Service) UpdateRole(ctx context.Context, roleID int64, req models.UpdateRoleRequest) (*models.Role, error) {
	var perms []string

	if req.Permissions != nil {
		if err := ValidateKeys(*req.Permissions); err != nil {
			return nil, err
		}
		perms = Reconcile(*req.Permissions)
	} else {
		current, err := s.roles.GetRole(ctx, roleID)
		if err != nil {
			return nil, err
		}
		perms = current.Permissions
	}

	role, err := s.roles.UpdateRole(ctx, roleID, req.Name, req.Description, perms)
	if err != nil {
		return nil, err
	}

	s.cache.Purge()
	s.log.WithField("role", role.Name).Info("role updated")

	return role, nil
}

// DeleteRole removes a role that is neither system-flagged nor in use.
func (s *Service) DeleteRole(ctx context.Context, roleID int64) error {
	if err := s.roles.DeleteRole(ctx, roleID); err != nil {
		return err
	}

	s.cache.Purge()
	s.log.WithField("role_id", roleID).Info("role deleted")

	return nil
}

// GetRole returns one role with its linked permission keys.
func (s *Service) GetRole(ctx context.Context, roleID int64) (*models.Role, error) {
	return s.roles.GetRole(ctx, roleID)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.roles.ListRoles(ctx)
}

// ListCatalog returns the persisted permission catalog.
func (s *Service) ListCatalog(ctx context.Context) ([]models.Permission, error) {
	return s.dir.ListPermissions(ctx)
}

// UserHasPermission reports whether the actor may exercise the named
// permission. Administrators and holders of system-flagged roles always may,
// regardless of the name queried.
func (s *Service) UserHasPermission(ctx context.Context, actor *models.Actor, permission string) (bool, error) {
	if actor == nil {
		return false, models.ErrAuthenticationRequired
	}

	if actor.IsAdmin() || actor.RoleIsSystem {
		return true, nil
	}

	perms, err := s.activePermissions(ctx, actor)
	if err != nil {
		return false, err
	}

	for _, p := range perms {
		if p == permission {
			return true, nil
		}
	}

	return false, nil
}

// UserPermissions returns the actor's full active permission set. For
// administrators and system roles this is the whole active catalog.
func (s *Service) UserPermissions(ctx context.Context, actor *models.Actor) ([]string, error) {
	if actor == nil {
		return nil, models.ErrAuthenticationRequired
	}

	if actor.IsAdmin() || actor.RoleIsSystem {
		catalog, err := s.dir.ListPermissions(ctx)
		if err != nil {
			return nil, err
		}

		keys := make([]string, 0, len(catalog))
		for _, p := range catalog {
			if p.IsActive {
				keys = append(keys, p.Key)
			}
		}

		return keys, nil
	}

	return s.activePermissions(ctx, actor)
}

// activePermissions resolves the actor's role and returns its active
// permission keys, from cache when fresh.
func (s *Service) activePermissions(ctx context.Context, actor *models.Actor) ([]string, error) {
	key := cacheKey(actor)
	if perms, ok := s.cache.Get(key); ok {
		return perms, nil
	}

	resolved, err := s.resolveActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	if resolved.RoleID == nil {
		s.cache.Add(key, nil)
		return nil, nil
	}

	perms, err := s.dir.ActivePermissionsForRole(ctx, *resolved.RoleID)
	if err != nil {
		return nil, err
	}

	s.cache.Add(key, perms)

	return perms, nil
}

// resolveActor re-reads the actor's directory row. Email is preferred
// because administrator and tenant-user ids occupy separate spaces; numeric
// id lookup is strictly a fallback for actors without an email.
func (s *Service) resolveActor(ctx context.Context, actor *models.Actor) (*models.Actor, error) {
	if actor.Email != "" {
		resolved, err := s.dir.GetActorByEmail(ctx, actor.Email)
		if err != nil {
			return nil, fmt.Errorf("resolving actor %q: %w", actor.Email, err)
		}

		return resolved, nil
	}

	resolved, err := s.dir.GetActorByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving actor id %d: %w", actor.ID, err)
	}

	return resolved, nil
}

func cacheKey(actor *models.Actor) string {
	if actor.Email != "" {
		return "email:" + actor.Email
	}

	return "id:" + strconv.FormatInt(actor.ID, 10)
}
