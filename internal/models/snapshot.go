package models

import (
	"encoding/json"
	"time"
)

// SnapshotKind identifies the lifecycle transition a snapshot captures.
type SnapshotKind string

const (
	SnapshotDraft            SnapshotKind = "draft"
	SnapshotSaved            SnapshotKind = "saved"
	SnapshotEdit             SnapshotKind = "edit"
	SnapshotPosted           SnapshotKind = "posted"
	SnapshotRequestSent      SnapshotKind = "external_request"
	SnapshotResponseReceived SnapshotKind = "external_response"
)

// Snapshot is one immutable point-in-time capture of an invoice at a
// lifecycle transition. Payload and Extra are opaque serialized data; the
// engine reads only the denormalized columns it writes itself.
type Snapshot struct {
	ID            int64           `json:"id"`
	InvoiceID     int64           `json:"invoice_id"`
	Kind          SnapshotKind    `json:"kind"`
	StatusBefore  *string         `json:"status_before,omitempty"`
	StatusAfter   *string         `json:"status_after,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	ExternalRef   *string         `json:"external_ref,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Extra         json.RawMessage `json:"extra,omitempty"`
	ActorEmail    string          `json:"actor_email,omitempty"`
	ActorRole     string          `json:"actor_role,omitempty"`
	TenantID      string          `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SnapshotSummary is the mutable per-invoice rollup, one row per invoice.
// Created on the first snapshot, updated on each subsequent one.
type SnapshotSummary struct {
	InvoiceID      int64        `json:"invoice_id"`
	TotalCount     int          `json:"total_count"`
	FirstAt        time.Time    `json:"first_at"`
	LastAt         time.Time    `json:"last_at"`
	LastKind       SnapshotKind `json:"last_kind"`
	CreatedBy      string       `json:"created_by"`
	LastModifiedBy string       `json:"last_modified_by"`
}
