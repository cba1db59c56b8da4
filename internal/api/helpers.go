package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/httputil"
	"github.com/invoxlabs/invox/internal/middleware"
)

// maxPaginationLimit caps the maximum number of items per page.
const maxPaginationLimit = 100

// maxPaginationOffset caps the maximum offset for paginated queries.
const maxPaginationOffset = 100000

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	if v > maxPaginationLimit {
		return maxPaginationLimit
	}

	return v
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	if v > maxPaginationOffset {
		return maxPaginationOffset
	}

	return v
}

// parseID parses a numeric path parameter, returning false after writing the
// error response when the value is not a positive integer.
func parseID(c *gin.Context, param string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || v <= 0 {
		httputil.RespondError(c, 400, ErrCodeInvalidRequest, "invalid "+param)

		return 0, false
	}

	return v, true
}

// getTenantID extracts the tenant ID set by the auth middleware. Endpoints
// that operate on a tenant store require it.
func getTenantID(c *gin.Context) string {
	tid := middleware.TenantIDFrom(c)
	if tid == "" {
		httputil.RespondError(c, 400, ErrCodeInvalidRequest, "missing X-Tenant-ID header")

		return ""
	}

	return tid
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		if tid := middleware.TenantIDFrom(c); tid != "" {
			fields["tenant_id"] = tid
		}
		if actor := middleware.ActorFrom(c); actor != nil {
			fields["actor"] = actor.Email
		}
		log.WithFields(fields).Info("request")
	}
}
