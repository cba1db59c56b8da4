package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/httputil"
	"github.com/invoxlabs/invox/internal/models"
)

// BackupHandler serves invoice snapshot history endpoints. Snapshots are
// written by the invoicing workflow; this surface is read-only.
type BackupHandler struct {
	reader BackupReader
	log    *logrus.Logger
}

// NewBackupHandler creates a BackupHandler.
func NewBackupHandler(reader BackupReader, log *logrus.Logger) *BackupHandler {
	return &BackupHandler{reader: reader, log: log}
}

// History handles GET /api/v1/invoices/:id/backups — the snapshot trail of
// one invoice, newest first.
func (h *BackupHandler) History(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}

	limit := parseInt(c.Query("limit"), 50)
	offset := parseOffset(c.Query("offset"))

	snaps, hasMore, err := h.reader.History(c.Request.Context(), tenantID, invoiceID, limit, offset)
	if err != nil {
		h.respondTenantError(c, err, "listing invoice backups")

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snaps,
		"has_more":  hasMore,
	})
}

// Summary handles GET /api/v1/invoices/:id/backups/summary.
func (h *BackupHandler) Summary(c *gin.Context) {
	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	invoiceID, ok := parseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.reader.Summary(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.respondTenantError(c, err, "reading backup summary")

		return
	}

	if summary == nil {
		httputil.RespondError(c, http.StatusNotFound, ErrCodeNotFound, "no snapshots for this invoice")

		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *BackupHandler) respondTenantError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, models.ErrTenantNotFound),
		errors.Is(err, models.ErrTenantInactive),
		errors.Is(err, models.ErrTenantUnreachable):
		respondDomainError(c, err)
	default:
		h.log.WithError(err).Error(action)
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
