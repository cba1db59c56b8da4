package models

import (
	"encoding/json"
	"time"
)

// Audit operations. EXPORT covers bulk reads that must leave a trace.
const (
	OpCreate = "CREATE"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	OpExport = "EXPORT"
)

// FieldChange is one changed key in an UPDATE diff.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditEntry is one immutable audit log row. Actor and tenant identity are
// denormalized at write time: the row records the role held at the moment of
// the action, not a live reference.
type AuditEntry struct {
	ID            int64                  `json:"id"`
	TenantID      string                 `json:"tenant_id,omitempty"`
	EntityType    string                 `json:"entity_type"`
	EntityID      *string                `json:"entity_id,omitempty"` // nil for bulk/export events
	Operation     string                 `json:"operation"`
	ActorID       int64                  `json:"actor_id"`
	ActorEmail    string                 `json:"actor_email"`
	ActorRole     string                 `json:"actor_role,omitempty"`
	OldValues     json.RawMessage        `json:"old_values,omitempty"`
	NewValues     json.RawMessage        `json:"new_values,omitempty"`
	ChangedFields map[string]FieldChange `json:"changed_fields,omitempty"` // UPDATE only
	IP            string                 `json:"ip,omitempty"`
	UserAgent     string                 `json:"user_agent,omitempty"`
	RequestID     string                 `json:"request_id,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// AuditQueryOpts holds filters for querying the audit log.
type AuditQueryOpts struct {
	EntityType string
	EntityID   string
	Operation  string
	ActorEmail string
	TenantID   string
	From       *time.Time
	To         *time.Time
	Search     string // free text over entity type, actor email and payloads
	Limit      int
	Offset     int
}
