package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for tenant resolution.
var (
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrTenantInactive    = errors.New("tenant inactive")
	ErrTenantUnreachable = errors.New("tenant store unreachable")
)

// Sentinel errors for role management.
var (
	ErrRoleNotFound        = errors.New("role not found")
	ErrRoleNameConflict    = errors.New("role name already exists")
	ErrSystemRoleImmutable = errors.New("system role cannot be modified")
	ErrRoleInUse           = errors.New("role is assigned to users")
)

// ErrUnknownPermissionKey indicates a role write named a permission key that
// is not part of the catalog.
var ErrUnknownPermissionKey = errors.New("unknown permission key")

// ErrAuthenticationRequired indicates no actor was attached to the request.
var ErrAuthenticationRequired = errors.New("authentication required")

// ErrPermissionDenied is the sentinel matched by errors.Is against
// *PermissionDeniedError values.
var ErrPermissionDenied = errors.New("permission denied")

// ErrSnapshotWriteFailed indicates the snapshot+summary transaction failed.
// Unlike audit writes this is surfaced to the caller.
var ErrSnapshotWriteFailed = errors.New("snapshot write failed")

// PermissionDeniedError carries the permission name(s) the actor lacked.
type PermissionDeniedError struct {
	Required []string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: requires %s", strings.Join(e.Required, ", "))
}

// Is makes errors.Is(err, ErrPermissionDenied) match.
func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}
