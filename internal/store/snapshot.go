package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/invoxlabs/invox/internal/models"
)

// SnapshotStore provides data access for invoice snapshots and their rollup
// summaries inside one tenant database. It is constructed per request from a
// multiplexer handle and carries no state beyond the handle's pool.
type SnapshotStore struct {
	Base
}

// NewSnapshotStore creates a SnapshotStore bound to one tenant's pool.
func NewSnapshotStore(base Base) *SnapshotStore {
	return &SnapshotStore{Base: base}
}

// Insert writes the snapshot row and upserts the summary in one transaction.
// The summary increment runs database-side (ON CONFLICT DO UPDATE against
// the current committed row), so concurrent snapshots for the same invoice
// serialize on the summary row lock and no update is lost.
func (s *SnapshotStore) Insert(ctx context.Context, snap *models.Snapshot) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	err = tx.QueryRow(ctx, `
		INSERT INTO invoice_snapshots (invoice_id, kind, status_before, status_after,
			invoice_number, external_ref, payload, extra, actor_email, actor_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		snap.InvoiceID, snap.Kind, snap.StatusBefore, snap.StatusAfter,
		snap.InvoiceNumber, snap.ExternalRef,
		nullableJSON(snap.Payload), nullableJSON(snap.Extra),
		snap.ActorEmail, snap.ActorRole,
	).Scan(&snap.ID, &snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO invoice_snapshot_summaries
			(invoice_id, total_count, first_at, last_at, last_kind, created_by, last_modified_by)
		VALUES ($1, 1, $2, $2, $3, $4, $4)
		ON CONFLICT (invoice_id) DO UPDATE SET
			total_count      = invoice_snapshot_summaries.total_count + 1,
			last_at          = EXCLUDED.last_at,
			last_kind        = EXCLUDED.last_kind,
			last_modified_by = EXCLUDED.last_modified_by`,
		snap.InvoiceID, snap.CreatedAt, snap.Kind, snap.ActorEmail,
	)
	if err != nil {
		return fmt.Errorf("upserting snapshot summary: %w", err)
	}

	return tx.Commit(ctx)
}

// History returns snapshots for an invoice, newest first, page size ≤ 100.
func (s *SnapshotStore) History(ctx context.Context, invoiceID int64, limit, offset int) ([]models.Snapshot, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit, offset = clampPage(limit, offset)

	rows, err := s.Pool.Query(ctx, `
		SELECT id, invoice_id, kind, status_before, status_after, invoice_number,
		       external_ref, payload, extra, actor_email, actor_role, created_at
		FROM invoice_snapshots
		WHERE invoice_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		invoiceID, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("querying snapshot history: %w", err)
	}
	defer rows.Close()

	var snaps []models.Snapshot

	for rows.Next() {
		var sn models.Snapshot
		if err := rows.Scan(
			&sn.ID, &sn.InvoiceID, &sn.Kind, &sn.StatusBefore, &sn.StatusAfter,
			&sn.InvoiceNumber, &sn.ExternalRef, &sn.Payload, &sn.Extra,
			&sn.ActorEmail, &sn.ActorRole, &sn.CreatedAt,
		); err != nil {
			return nil, false, fmt.Errorf("scanning snapshot: %w", err)
		}
		snaps = append(snaps, sn)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating snapshots: %w", err)
	}

	hasMore := len(snaps) > limit
	if hasMore {
		snaps = snaps[:limit]
	}

	return snaps, hasMore, nil
}

// Summary returns the rollup for an invoice, or nil when no snapshot exists.
func (s *SnapshotStore) Summary(ctx context.Context, invoiceID int64) (*models.SnapshotSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var sum models.SnapshotSummary

	err := s.Pool.QueryRow(ctx, `
		SELECT invoice_id, total_count, first_at, last_at, last_kind, created_by, last_modified_by
		FROM invoice_snapshot_summaries
		WHERE invoice_id = $1`, invoiceID,
	).Scan(&sum.InvoiceID, &sum.TotalCount, &sum.FirstAt, &sum.LastAt, &sum.LastKind, &sum.CreatedBy, &sum.LastModifiedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("querying snapshot summary: %w", err)
	}

	return &sum, nil
}
