// Package snapshot implements the versioned snapshot engine: lifecycle-keyed
// point-in-time captures of an invoice plus a per-invoice rollup summary.
//
// The calling workflow decides when a transition occurs; this engine only
// enforces the capture contract per transition and the atomicity of the
// snapshot+summary pair.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/metrics"
	"github.com/invoxlabs/invox/internal/models"
	"github.com/invoxlabs/invox/internal/store"
	"github.com/invoxlabs/invox/internal/tenants"
)

// HandleSource resolves tenants to store handles. Implemented by
// tenants.Multiplexer.
type HandleSource interface {
	Handle(ctx context.Context, tenantID string) (*tenants.Handle, error)
}

// Store is the per-tenant data access the engine writes through.
// Implemented by store.SnapshotStore.
type Store interface {
	Insert(ctx context.Context, snap *models.Snapshot) error
	History(ctx context.Context, invoiceID int64, limit, offset int) ([]models.Snapshot, bool, error)
	Summary(ctx context.Context, invoiceID int64) (*models.SnapshotSummary, error)
}

// Invoice is the invoice+items payload captured by a snapshot. The engine
// treats it as opaque beyond the denormalized identity fields on Input.
type Invoice struct {
	Invoice map[string]any   `json:"invoice"`
	Items   []map[string]any `json:"items,omitempty"`
}

// Input identifies the invoice and actor for one snapshot.
type Input struct {
	TenantID      string
	InvoiceID     int64
	InvoiceNumber string
	ExternalRef   *string
	ActorEmail    string
	ActorRole     string
}

// Engine writes lifecycle snapshots through the tenant multiplexer.
type Engine struct {
	handles  HandleSource
	log      *logrus.Logger
	newStore func(h *tenants.Handle) Store
}

// NewEngine creates an Engine backed by store.SnapshotStore.
func NewEngine(handles HandleSource, log *logrus.Logger) *Engine {
	return &Engine{
		handles: handles,
		log:     log,
		newStore: func(h *tenants.Handle) Store {
			return store.NewSnapshotStore(store.Base{Pool: h.Pool, Log: log})
		},
	}
}

// NewEngineWithStore creates an Engine with a custom store factory, for tests.
func NewEngineWithStore(handles HandleSource, log *logrus.Logger, newStore func(h *tenants.Handle) Store) *Engine {
	return &Engine{handles: handles, log: log, newStore: newStore}
}

// SnapshotDraft captures a draft create or update. statusBefore is nil on
// first creation and "draft" thereafter.
func (e *Engine) SnapshotDraft(ctx context.Context, in Input, statusBefore *string, inv Invoice) (*models.Snapshot, error) {
	return e.create(ctx, in, models.SnapshotDraft, statusBefore, ptr("draft"), inv.payload(), nil)
}

// SnapshotSave captures a validate/save transition.
func (e *Engine) SnapshotSave(ctx context.Context, in Input, statusBefore *string, inv Invoice) (*models.Snapshot, error) {
	return e.create(ctx, in, models.SnapshotSaved, statusBefore, ptr("saved"), inv.payload(), nil)
}

// SnapshotEdit captures an edit: the OLD invoice is the snapshot payload and
// the updated invoice rides along as extra metadata.
func (e *Engine) SnapshotEdit(ctx context.Context, in Input, oldStatus, newStatus string, oldInv, newInv Invoice) (*models.Snapshot, error) {
	extra := map[string]any{"updated_invoice": newInv.payload()}

	return e.create(ctx, in, models.SnapshotEdit, &oldStatus, &newStatus, oldInv.payload(), extra)
}

// SnapshotPost captures the posting of an invoice to the tax authority.
func (e *Engine) SnapshotPost(ctx context.Context, in Input, statusBefore string, inv Invoice) (*models.Snapshot, error) {
	return e.create(ctx, in, models.SnapshotPosted, &statusBefore, ptr("posted"), inv.payload(), nil)
}

// SnapshotRequestSent captures an outbound external payload. The invoice
// status is unchanged by this transition.
func (e *Engine) SnapshotRequestSent(ctx context.Context, in Input, status string, outbound map[string]any) (*models.Snapshot, error) {
	extra := map[string]any{"request": outbound}

	return e.create(ctx, in, models.SnapshotRequestSent, &status, &status, nil, extra)
}

// SnapshotResponseReceived captures an inbound external payload. The invoice
// status is unchanged by this transition.
func (e *Engine) SnapshotResponseReceived(ctx context.Context, in Input, status string, inbound map[string]any) (*models.Snapshot, error) {
	extra := map[string]any{"response": inbound}

	return e.create(ctx, in, models.SnapshotResponseReceived, &status, &status, nil, extra)
}

// History returns an invoice's snapshots, newest first, page size ≤ 100.
func (e *Engine) History(ctx context.Context, tenantID string, invoiceID int64, limit, offset int) ([]models.Snapshot, bool, error) {
	h, err := e.handles.Handle(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}

	return e.newStore(h).History(ctx, invoiceID, limit, offset)
}

// Summary returns an invoice's rollup, or nil when it has no snapshots.
func (e *Engine) Summary(ctx context.Context, tenantID string, invoiceID int64) (*models.SnapshotSummary, error) {
	h, err := e.handles.Handle(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return e.newStore(h).Summary(ctx, invoiceID)
}

// create is the single write path shared by every transition.
func (e *Engine) create(
	ctx context.Context,
	in Input,
	kind models.SnapshotKind,
	statusBefore, statusAfter *string,
	payload any,
	extra map[string]any,
) (*models.Snapshot, error) {
	h, err := e.handles.Handle(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		InvoiceID:     in.InvoiceID,
		Kind:          kind,
		StatusBefore:  statusBefore,
		StatusAfter:   statusAfter,
		InvoiceNumber: in.InvoiceNumber,
		ExternalRef:   in.ExternalRef,
		ActorEmail:    in.ActorEmail,
		ActorRole:     in.ActorRole,
		TenantID:      in.TenantID,
	}

	if payload != nil {
		if snap.Payload, err = json.Marshal(Sanitize(payload)); err != nil {
			return nil, fmt.Errorf("%w: serializing payload: %v", models.ErrSnapshotWriteFailed, err)
		}
	}

	if len(extra) > 0 {
		if snap.Extra, err = json.Marshal(Sanitize(extra)); err != nil {
			return nil, fmt.Errorf("%w: serializing extra: %v", models.ErrSnapshotWriteFailed, err)
		}
	}

	if err := e.newStore(h).Insert(ctx, snap); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSnapshotWriteFailed, err)
	}

	metrics.SnapshotsWritten.WithLabelValues(string(kind)).Inc()
	e.log.WithFields(logrus.Fields{
		"tenant_id":  in.TenantID,
		"invoice_id": in.InvoiceID,
		"kind":       kind,
	}).Info("snapshot written")

	return snap, nil
}

// payload normalizes an Invoice into the opaque stored form.
func (inv Invoice) payload() map[string]any {
	out := map[string]any{"invoice": inv.Invoice}
	if inv.Items != nil {
		out["items"] = inv.Items
	}

	return out
}

func ptr(s string) *string { return &s }
