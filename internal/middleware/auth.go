package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/audit"
	"github.com/invoxlabs/invox/internal/httputil"
	"github.com/invoxlabs/invox/internal/models"
)

// Gin context keys set by Auth.
const (
	ActorKey    = "actor"
	TenantIDKey = "tenant_id"
)

// TenantIDHeader carries the tenant identifier resolved upstream.
const TenantIDHeader = "X-Tenant-ID"

// authTimingFloor is the minimum response time for failed auth to prevent
// timing oracles that could distinguish valid from invalid API keys.
const authTimingFloor = 50 * time.Millisecond

// ActorLookup resolves an API key to an authenticated actor.
type ActorLookup interface {
	GetActorByAPIKey(ctx context.Context, apiKey string) (*models.Actor, error)
}

// Auth authenticates requests via Bearer token and attaches the actor,
// tenant identifier and audit request metadata to the request context.
func Auth(lookup ActorLookup, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			httputil.RespondError(c, http.StatusUnauthorized, "authentication_required", "missing or invalid authorization header")
			return
		}

		actor, err := lookup.GetActorByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			logAuthFailure(log, c, apiKey)
			httputil.RespondError(c, http.StatusUnauthorized, "authentication_required", "invalid api key")
			return
		}

		c.Set(ActorKey, actor)

		tenantID := c.GetHeader(TenantIDHeader)
		if tenantID != "" {
			c.Set(TenantIDKey, tenantID)
		}

		// Everything the audit trail denormalizes is pinned here, so audit
		// writes need no later access to the request.
		meta := audit.RequestMeta{
			Actor:     actor,
			TenantID:  tenantID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: c.GetString(RequestIDKey),
		}
		c.Request = c.Request.WithContext(audit.WithMeta(c.Request.Context(), meta))

		c.Next()
	}
}

// ActorFrom returns the authenticated actor attached by Auth, or nil.
func ActorFrom(c *gin.Context) *models.Actor {
	v, exists := c.Get(ActorKey)
	if !exists {
		return nil
	}

	actor, ok := v.(*models.Actor)
	if !ok {
		return nil
	}

	return actor
}

// TenantIDFrom returns the tenant identifier attached by Auth, or "".
func TenantIDFrom(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}

// ExtractBearerToken extracts the API key from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// truncateKey returns at most the first 4 characters of key followed by "...".
func truncateKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return key
}

// logAuthFailure logs a failed authentication attempt.
func logAuthFailure(log *logrus.Logger, c *gin.Context, apiKey string) {
	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString(RequestIDKey),
		"key_prefix": truncateKey(apiKey),
	}).Warn("authentication failed: invalid api key")
}
