package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/httputil"
	"github.com/invoxlabs/invox/internal/models"
)

// TenantHandler serves the platform tenant directory. Admin-only.
type TenantHandler struct {
	dir TenantDirectory
	log *logrus.Logger
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(dir TenantDirectory, log *logrus.Logger) *TenantHandler {
	return &TenantHandler{dir: dir, log: log}
}

// List handles GET /api/v1/tenants — all active tenants.
func (h *TenantHandler) List(c *gin.Context) {
	ts, err := h.dir.ListActiveTenants(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("listing tenants")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"tenants": ts})
}

// Get handles GET /api/v1/tenants/:id.
func (h *TenantHandler) Get(c *gin.Context) {
	t, err := h.dir.GetTenant(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrTenantNotFound) {
			respondDomainError(c, err)

			return
		}

		h.log.WithError(err).Error("getting tenant")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, t)
}
