package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invoxlabs/invox/internal/httputil"
	"github.com/invoxlabs/invox/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeNotFound            = "not_found"
	ErrCodeInternalError       = "internal_error"
	ErrCodeAuthRequired        = "authentication_required"
	ErrCodePermissionDenied    = "permission_denied"
	ErrCodeTenantInactive      = "tenant_inactive"
	ErrCodeTenantUnreachable   = "tenant_unreachable"
	ErrCodeRoleNameConflict    = "role_name_conflict"
	ErrCodeSystemRoleImmutable = "system_role_immutable"
	ErrCodeRoleInUse           = "role_in_use"
	ErrCodeSnapshotFailed      = "snapshot_write_failed"
)

// respondDomainError maps the error taxonomy to HTTP responses. The reason
// and a human-readable detail are surfaced; internal failure detail is not.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrAuthenticationRequired):
		httputil.RespondError(c, http.StatusUnauthorized, ErrCodeAuthRequired, "no authenticated actor")
	case errors.Is(err, models.ErrPermissionDenied):
		httputil.RespondError(c, http.StatusForbidden, ErrCodePermissionDenied, err.Error())
	case errors.Is(err, models.ErrTenantNotFound):
		httputil.RespondError(c, http.StatusNotFound, ErrCodeNotFound, "tenant not found")
	case errors.Is(err, models.ErrTenantInactive):
		httputil.RespondError(c, http.StatusForbidden, ErrCodeTenantInactive, "tenant is not active")
	case errors.Is(err, models.ErrTenantUnreachable):
		httputil.RespondError(c, http.StatusServiceUnavailable, ErrCodeTenantUnreachable, "tenant store unreachable")
	case errors.Is(err, models.ErrRoleNotFound):
		httputil.RespondError(c, http.StatusNotFound, ErrCodeNotFound, "role not found")
	case errors.Is(err, models.ErrRoleNameConflict):
		httputil.RespondError(c, http.StatusConflict, ErrCodeRoleNameConflict, "a role with this name already exists")
	case errors.Is(err, models.ErrSystemRoleImmutable):
		httputil.RespondError(c, http.StatusForbidden, ErrCodeSystemRoleImmutable, "system roles cannot be modified or deleted")
	case errors.Is(err, models.ErrRoleInUse):
		httputil.RespondError(c, http.StatusConflict, ErrCodeRoleInUse, "role is still assigned to users")
	case errors.Is(err, models.ErrSnapshotWriteFailed):
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeSnapshotFailed, "snapshot could not be written")
	default:
		httputil.RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}
