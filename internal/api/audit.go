package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/audit"
	"github.com/invoxlabs/invox/internal/httputil"
	"github.com/invoxlabs/invox/internal/models"
)

// AuditHandler serves audit trail endpoints.
type AuditHandler struct {
	svc AuditService
	log *logrus.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(svc AuditService, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{svc: svc, log: log}
}

// auditQueryOpts builds filter options from the request query string,
// returning false after responding when a date filter is malformed.
func auditQueryOpts(c *gin.Context) (models.AuditQueryOpts, bool) {
	opts := models.AuditQueryOpts{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Operation:  c.Query("operation"),
		ActorEmail: c.Query("actor"),
		TenantID:   c.Query("tenant_id"),
		Search:     c.Query("search"),
		Limit:      parseInt(c.Query("limit"), 50),
		Offset:     parseOffset(c.Query("offset")),
	}

	for _, f := range []struct {
		name string
		dst  **time.Time
	}{
		{"from", &opts.From},
		{"to", &opts.To},
	} {
		raw := c.Query(f.name)
		if raw == "" {
			continue
		}

		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.RespondError(c, http.StatusBadRequest, ErrCodeInvalidRequest,
				fmt.Sprintf("invalid %s format, use RFC3339", f.name))

			return opts, false
		}
		*f.dst = &t
	}

	return opts, true
}

// Query handles GET /api/v1/audit.
func (h *AuditHandler) Query(c *gin.Context) {
	opts, ok := auditQueryOpts(c)
	if !ok {
		return
	}

	entries, hasMore, err := h.svc.Query(c.Request.Context(), opts)
	if err != nil {
		h.log.WithError(err).Error("querying audit log")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to query audit log")

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":  entries,
		"has_more": hasMore,
	})
}

// Export handles GET /api/v1/audit/export — streams a CSV file over the same
// filters as Query. Pagination parameters are ignored; the export walks every
// matching row up to the configured cap.
func (h *AuditHandler) Export(c *gin.Context) {
	opts, ok := auditQueryOpts(c)
	if !ok {
		return
	}

	ts := time.Now().UTC().Format("20060102T150405Z")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=audit-export-%s.csv", ts))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if err := h.svc.ExportCSV(c.Request.Context(), opts, c.Writer); err != nil {
		// Headers are already sent; all we can do is log and cut the stream.
		h.log.WithError(err).Error("exporting audit log")
		c.Abort()

		return
	}

	// The export itself leaves a trace: who pulled the log, with what filters.
	h.svc.LogEvent(c.Request.Context(), audit.Event{
		EntityType: "audit_log",
		Operation:  models.OpExport,
		Extra:      exportFilters(opts),
	})
}

func exportFilters(opts models.AuditQueryOpts) map[string]any {
	filters := make(map[string]any)

	for k, v := range map[string]string{
		"entity_type": opts.EntityType,
		"entity_id":   opts.EntityID,
		"operation":   opts.Operation,
		"actor":       opts.ActorEmail,
		"tenant_id":   opts.TenantID,
		"search":      opts.Search,
	} {
		if v != "" {
			filters[k] = v
		}
	}
	if opts.From != nil {
		filters["from"] = opts.From.Format(time.RFC3339)
	}
	if opts.To != nil {
		filters["to"] = opts.To.Format(time.RFC3339)
	}

	return filters
}

// Purge handles DELETE /api/v1/audit.
func (h *AuditHandler) Purge(c *gin.Context) {
	retentionDays := 90
	if rd := c.Query("retention_days"); rd != "" {
		v, err := strconv.Atoi(rd)
		if err != nil || v < 1 {
			httputil.RespondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be a positive integer")

			return
		}
		retentionDays = v
	}

	deleted, err := h.svc.Purge(c.Request.Context(), retentionDays)
	if err != nil {
		h.log.WithError(err).Error("purging audit entries")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to purge audit entries")

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted":        deleted,
		"retention_days": retentionDays,
	})
}
