package models

// ActorKind distinguishes platform administrators from tenant users.
// Administrators and tenant users live in separate id spaces, which is why
// permission lookups prefer email over id.
type ActorKind string

const (
	ActorAdmin      ActorKind = "admin"
	ActorTenantUser ActorKind = "tenant_user"
)

// Actor is the authenticated caller record attached to each request by the
// auth middleware. Role fields are resolved at auth time so downstream
// permission checks need no extra lookup for the common cases.
type Actor struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Kind         ActorKind `json:"kind"`
	RoleID       *int64    `json:"role_id,omitempty"`
	RoleName     string    `json:"role_name,omitempty"`
	RoleIsSystem bool      `json:"-"`
}

// IsAdmin reports whether the actor holds implicit blanket access.
func (a *Actor) IsAdmin() bool {
	return a.Kind == ActorAdmin
}
