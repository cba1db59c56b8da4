package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/dbpool"
	"github.com/invoxlabs/invox/internal/httputil"
)

// HandleCounter reports the number of open tenant store handles.
// Implemented by tenants.Multiplexer.
type HandleCounter interface {
	OpenHandles() int
}

// QueueDepther reports the audit worker backlog. Implemented by audit.Worker.
type QueueDepther interface {
	QueueDepth() int
}

// StatsHandler serves the platform statistics endpoint. Admin-only.
type StatsHandler struct {
	pool    *dbpool.Pool
	handles HandleCounter
	queue   QueueDepther
	log     *logrus.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(pool *dbpool.Pool, handles HandleCounter, queue QueueDepther, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{pool: pool, handles: handles, queue: queue, log: log}
}

// statsResponse is the JSON payload returned by the stats endpoint.
type statsResponse struct {
	Tenants         int `json:"tenants"`
	ActiveTenants   int `json:"active_tenants"`
	Users           int `json:"users"`
	Roles           int `json:"roles"`
	AuditEntries    int `json:"audit_entries"`
	OpenHandles     int `json:"open_tenant_handles"`
	AuditQueueDepth int `json:"audit_queue_depth"`
}

// GetStats handles GET /api/v1/stats — aggregate directory statistics plus
// runtime gauges.
func (h *StatsHandler) GetStats(c *gin.Context) {
	var resp statsResponse

	// Single consolidated query over the directory tables.
	if err := h.pool.QueryRow(c.Request.Context(),
		`SELECT
			(SELECT COUNT(*) FROM tenants),
			(SELECT COUNT(*) FROM tenants WHERE active),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM roles),
			(SELECT COUNT(*) FROM audit_log)`,
	).Scan(
		&resp.Tenants, &resp.ActiveTenants, &resp.Users,
		&resp.Roles, &resp.AuditEntries,
	); err != nil {
		h.log.WithError(err).Error("stats: consolidated query")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	resp.OpenHandles = h.handles.OpenHandles()
	resp.AuditQueueDepth = h.queue.QueueDepth()

	c.JSON(http.StatusOK, resp)
}
