package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/httputil"
	"github.com/invoxlabs/invox/internal/middleware"
	"github.com/invoxlabs/invox/internal/models"
)

// RoleHandler serves role CRUD and permission catalog endpoints.
type RoleHandler struct {
	svc RoleService
	log *logrus.Logger
}

// NewRoleHandler creates a RoleHandler.
func NewRoleHandler(svc RoleService, log *logrus.Logger) *RoleHandler {
	return &RoleHandler{svc: svc, log: log}
}

// List handles GET /api/v1/roles.
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.svc.ListRoles(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("listing roles")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

// Get handles GET /api/v1/roles/:id.
func (h *RoleHandler) Get(c *gin.Context) {
	roleID, ok := parseID(c, "id")
	if !ok {
		return
	}

	role, err := h.svc.GetRole(c.Request.Context(), roleID)
	if err != nil {
		if errors.Is(err, models.ErrRoleNotFound) {
			respondDomainError(c, err)

			return
		}

		h.log.WithError(err).Error("getting role")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, role)
}

// Create handles POST /api/v1/roles.
func (h *RoleHandler) Create(c *gin.Context) {
	var req models.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	role, err := h.svc.CreateRole(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrRoleNameConflict) {
			respondDomainError(c, err)

			return
		}

		if errors.Is(err, models.ErrUnknownPermissionKey) {
			httputil.RespondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}

		h.log.WithError(err).Error("creating role")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusCreated, role)
}

// Update handles PUT /api/v1/roles/:id. The permission set in the request is
// reconciled against the implication rules before persisting, so the stored
// set may differ from the submitted one.
func (h *RoleHandler) Update(c *gin.Context) {
	roleID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	role, err := h.svc.UpdateRole(c.Request.Context(), roleID, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRoleNotFound),
			errors.Is(err, models.ErrSystemRoleImmutable),
			errors.Is(err, models.ErrRoleNameConflict):
			respondDomainError(c, err)
		case errors.Is(err, models.ErrUnknownPermissionKey):
			httputil.RespondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		default:
			h.log.WithError(err).Error("updating role")
			httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		}

		return
	}

	c.JSON(http.StatusOK, role)
}

// Delete handles DELETE /api/v1/roles/:id.
func (h *RoleHandler) Delete(c *gin.Context) {
	roleID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteRole(c.Request.Context(), roleID); err != nil {
		switch {
		case errors.Is(err, models.ErrRoleNotFound),
			errors.Is(err, models.ErrSystemRoleImmutable),
			errors.Is(err, models.ErrRoleInUse):
			respondDomainError(c, err)
		default:
			h.log.WithError(err).Error("deleting role")
			httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
		}

		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": roleID})
}

// Catalog handles GET /api/v1/permissions — the full permission catalog.
func (h *RoleHandler) Catalog(c *gin.Context) {
	perms, err := h.svc.ListCatalog(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("listing permission catalog")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

// Mine handles GET /api/v1/me/permissions — the effective permission set of
// the authenticated actor.
func (h *RoleHandler) Mine(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	perms, err := h.svc.UserPermissions(c.Request.Context(), actor)
	if err != nil {
		if errors.Is(err, models.ErrAuthenticationRequired) {
			respondDomainError(c, err)

			return
		}

		h.log.WithError(err).Error("resolving actor permissions")
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}
