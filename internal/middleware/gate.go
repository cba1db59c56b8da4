package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/httputil"
	"github.com/invoxlabs/invox/internal/metrics"
	"github.com/invoxlabs/invox/internal/models"
)

// PermissionChecker evaluates one permission for an actor. Implemented by
// rbac.Service.
type PermissionChecker interface {
	UserHasPermission(ctx context.Context, actor *models.Actor, permission string) (bool, error)
}

// Gate is the stateless access enforcement layer. Every variant fails closed:
// no actor means 401, a negative or failed evaluation means the request never
// reaches its handler. The gate has no side effects beyond allow or block.
type Gate struct {
	checker PermissionChecker
	log     *logrus.Logger
}

// NewGate creates a Gate.
func NewGate(checker PermissionChecker, log *logrus.Logger) *Gate {
	return &Gate{checker: checker, log: log}
}

// RequirePermission blocks unless the actor holds the named permission.
func (g *Gate) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		g.enforce(c, []string{permission}, false)
	}
}

// RequireAnyPermission blocks unless the actor holds at least one of the
// named permissions.
func (g *Gate) RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		g.enforce(c, permissions, false)
	}
}

// RequireAllPermissions blocks unless the actor holds every named permission.
func (g *Gate) RequireAllPermissions(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		g.enforce(c, permissions, true)
	}
}

// RequireAdmin blocks everyone but administrators. Used for platform-level
// surfaces that no tenant-scoped permission covers.
func (g *Gate) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor == nil {
			httputil.RespondError(c, http.StatusUnauthorized, "authentication_required", "no authenticated actor")
			return
		}

		if !actor.IsAdmin() {
			metrics.PermissionDenials.WithLabelValues("admin").Inc()
			httputil.RespondError(c, http.StatusForbidden, "permission_denied", "requires administrator access")
			return
		}

		c.Next()
	}
}

// RequireAdminOrPermission passes administrators straight through;
// everyone else needs the named permission.
func (g *Gate) RequireAdminOrPermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor != nil && actor.IsAdmin() {
			c.Next()
			return
		}

		g.enforce(c, []string{permission}, false)
	}
}

// enforce evaluates the permission set. requireAll selects between
// all-of and any-of semantics.
func (g *Gate) enforce(c *gin.Context, permissions []string, requireAll bool) {
	actor := ActorFrom(c)
	if actor == nil {
		httputil.RespondError(c, http.StatusUnauthorized, "authentication_required", "no authenticated actor")
		return
	}

	// An empty list would let the all-of variant pass vacuously.
	if len(permissions) == 0 {
		g.log.Error("gate configured with no permissions")
		httputil.RespondError(c, http.StatusForbidden, "permission_denied", "no permission configured for route")
		return
	}

	allowed, err := g.evaluate(c, actor, permissions, requireAll)
	if err != nil {
		g.log.WithError(err).WithField("permissions", permissions).Error("permission evaluation failed")
		httputil.RespondError(c, http.StatusInternalServerError, "internal_error", "permission evaluation failed")
		return
	}

	if !allowed {
		for _, p := range permissions {
			metrics.PermissionDenials.WithLabelValues(p).Inc()
		}
		httputil.RespondError(c, http.StatusForbidden, "permission_denied",
			"requires "+strings.Join(permissions, ", "))
		return
	}

	c.Next()
}

func (g *Gate) evaluate(c *gin.Context, actor *models.Actor, permissions []string, requireAll bool) (bool, error) {
	ctx := c.Request.Context()

	for _, p := range permissions {
		ok, err := g.checker.UserHasPermission(ctx, actor, p)
		if err != nil {
			return false, err
		}

		if ok && !requireAll {
			return true, nil
		}
		if !ok && requireAll {
			return false, nil
		}
	}

	return requireAll, nil
}
