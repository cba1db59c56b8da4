package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/audit"
	"github.com/invoxlabs/invox/internal/dbpool"
	"github.com/invoxlabs/invox/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool
	Roles       RoleService
	Audit       *audit.Service
	Backups     BackupReader
	Tenants     TenantDirectory
	Handles     HandleCounter
	Queue       QueueDepther
	ActorLookup middleware.ActorLookup
	Checker     middleware.PermissionChecker
	CORSOrigins []string
	Version     string
}

// Router-level limits.
const (
	maxBodySize = 1 << 20 // 1 MB; the API carries metadata, never bulk payloads
	rateLimit   = 100     // requests per second per IP
	rateBurst   = 200     // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", middleware.TenantIDHeader},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.Prometheus())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version)
	roles := NewRoleHandler(deps.Roles, log)
	auditH := NewAuditHandler(deps.Audit, log)
	backups := NewBackupHandler(deps.Backups, log)
	tenantsH := NewTenantHandler(deps.Tenants, log)
	stats := NewStatsHandler(deps.Pool, deps.Handles, deps.Queue, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require an authenticated actor.
	api.Use(middleware.Auth(middleware.NewCachedActorLookup(deps.ActorLookup), log))

	gate := middleware.NewGate(deps.Checker, log)
	roleTrail := func() gin.HandlerFunc {
		return middleware.AuditTrail(deps.Audit, log, middleware.AuditConfig{
			EntityType:  "role",
			PriorValues: rolePriorValues(deps.Roles),
		})
	}

	// Permission catalog and own effective permissions.
	api.GET("/permissions", gate.RequireAnyPermission("role.view", "role.manage"), roles.Catalog)
	api.GET("/me/permissions", roles.Mine)

	// Roles. Writes require role.manage and leave an audit trail.
	api.GET("/roles", gate.RequireAnyPermission("role.view", "role.manage"), roles.List)
	api.GET("/roles/:id", gate.RequireAnyPermission("role.view", "role.manage"), roles.Get)
	api.POST("/roles", gate.RequirePermission("role.manage"), roleTrail(), roles.Create)
	api.PUT("/roles/:id", gate.RequirePermission("role.manage"), roleTrail(), roles.Update)
	api.DELETE("/roles/:id", gate.RequirePermission("role.manage"), roleTrail(), roles.Delete)

	// Audit trail.
	api.GET("/audit", gate.RequirePermission("audit.view"), auditH.Query)
	api.GET("/audit/export", gate.RequireAllPermissions("audit.view", "audit.export"), auditH.Export)
	api.DELETE("/audit", gate.RequireAdmin(), auditH.Purge)

	// Invoice snapshot history.
	api.GET("/invoices/:id/backups", gate.RequirePermission("invoice.view"), backups.History)
	api.GET("/invoices/:id/backups/summary", gate.RequirePermission("invoice.view"), backups.Summary)

	// Platform administration.
	api.GET("/tenants", gate.RequireAdmin(), tenantsH.List)
	api.GET("/tenants/:id", gate.RequireAdmin(), tenantsH.Get)
	api.GET("/stats", gate.RequireAdmin(), stats.GetStats)
}

// rolePriorValues resolves a role's current state for UPDATE/DELETE audit
// diffs, as a generic map so the diff engine can compare it to the request
// body field by field.
func rolePriorValues(svc RoleService) middleware.PriorValuesFunc {
	return func(ctx context.Context, entityID string) (map[string]any, error) {
		roleID, err := strconv.ParseInt(entityID, 10, 64)
		if err != nil {
			return nil, err
		}

		role, err := svc.GetRole(ctx, roleID)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(role)
		if err != nil {
			return nil, err
		}

		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}

		return m, nil
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(r.Group("/api/v1"), deps)

	return r
}
