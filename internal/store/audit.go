package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/invoxlabs/invox/internal/models"
)

// AuditStore provides data access for the audit_log table. Rows are
// append-only: the application never updates or deletes individual entries,
// only the batched retention purge removes them.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

const auditColumns = `id, tenant_id, entity_type, entity_id, operation,
	actor_id, actor_email, actor_role, old_values, new_values, changed_fields,
	ip, user_agent, request_id, created_at`

// Record inserts one audit log entry.
func (s *AuditStore) Record(ctx context.Context, e *models.AuditEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var changedJSON []byte
	if len(e.ChangedFields) > 0 {
		var err error
		changedJSON, err = json.Marshal(e.ChangedFields)
		if err != nil {
			return fmt.Errorf("marshaling changed fields: %w", err)
		}
	}

	var tenantID *string
	if e.TenantID != "" {
		tenantID = &e.TenantID
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO audit_log (tenant_id, entity_type, entity_id, operation,
			actor_id, actor_email, actor_role, old_values, new_values,
			changed_fields, ip, user_agent, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		tenantID, e.EntityType, e.EntityID, e.Operation,
		e.ActorID, e.ActorEmail, e.ActorRole,
		nullableJSON(e.OldValues), nullableJSON(e.NewValues), changedJSON,
		e.IP, e.UserAgent, e.RequestID,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// nullableJSON maps empty payloads to NULL instead of empty strings.
func nullableJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}

	return raw
}

// buildAuditFilter builds a WHERE clause and args from AuditQueryOpts.
func buildAuditFilter(opts models.AuditQueryOpts) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	add := func(cond string, val any) {
		conditions = append(conditions, cond+"$"+strconv.Itoa(argIdx))
		args = append(args, val)
		argIdx++
	}

	if opts.EntityType != "" {
		add("entity_type = ", opts.EntityType)
	}
	if opts.EntityID != "" {
		add("entity_id = ", opts.EntityID)
	}
	if opts.Operation != "" {
		add("operation = ", opts.Operation)
	}
	if opts.ActorEmail != "" {
		add("actor_email = ", opts.ActorEmail)
	}
	if opts.TenantID != "" {
		add("tenant_id = ", opts.TenantID)
	}
	if opts.From != nil {
		add("created_at >= ", *opts.From)
	}
	if opts.To != nil {
		add("created_at <= ", *opts.To)
	}
	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(entity_type ILIKE $%d OR actor_email ILIKE $%d OR old_values::text ILIKE $%d OR new_values::text ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx))
		args = append(args, pattern)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// Query returns audit entries matching the given filters, newest first.
// The page size is capped at 100 regardless of the requested limit.
// Returns entries, hasMore flag, and any error.
func (s *AuditStore) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where, args, argIdx := buildAuditFilter(opts)
	limit, offset := clampPage(opts.Limit, opts.Offset)

	query := fmt.Sprintf(
		"SELECT %s FROM audit_log %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		auditColumns, where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, offset)

	entries, err := s.scanAuditRows(ctx, query, args)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// ExportAll returns every entry matching the filters up to rowCap, oldest
// first for stable exports. The cap protects memory on unbounded filter sets.
func (s *AuditStore) ExportAll(ctx context.Context, opts models.AuditQueryOpts, rowCap int) ([]models.AuditEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if rowCap <= 0 {
		rowCap = 10000
	}

	where, args, argIdx := buildAuditFilter(opts)
	query := fmt.Sprintf(
		"SELECT %s FROM audit_log %s ORDER BY created_at, id LIMIT $%d",
		auditColumns, where, argIdx,
	)
	args = append(args, rowCap)

	return s.scanAuditRows(ctx, query, args)
}

// scanAuditRows executes a query and scans audit entries from the result.
func (s *AuditStore) scanAuditRows(ctx context.Context, query string, args []any) ([]models.AuditEntry, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry

	for rows.Next() {
		var e models.AuditEntry
		var tenantID *string
		var changedJSON []byte

		if err := rows.Scan(
			&e.ID, &tenantID, &e.EntityType, &e.EntityID, &e.Operation,
			&e.ActorID, &e.ActorEmail, &e.ActorRole,
			&e.OldValues, &e.NewValues, &changedJSON,
			&e.IP, &e.UserAgent, &e.RequestID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		if tenantID != nil {
			e.TenantID = *tenantID
		}
		if changedJSON != nil {
			if err := json.Unmarshal(changedJSON, &e.ChangedFields); err != nil {
				s.Log.WithError(err).Warn("failed to unmarshal changed fields")
			}
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// purgeBatchSize limits the number of rows deleted per transaction to avoid
// holding long locks on audit_log.
const purgeBatchSize = 5000

// PurgeOldEntries deletes audit entries older than retentionDays in batches.
// Returns the number of deleted entries.
func (s *AuditStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		deleted, err := s.purgeBatch(batchCtx, retentionDays)
		cancel()

		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}

// purgeBatch deletes a single batch of expired audit entries.
func (s *AuditStore) purgeBatch(ctx context.Context, retentionDays int) (int, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning purge transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	tag, err := tx.Exec(ctx,
		`DELETE FROM audit_log WHERE ctid IN (
			SELECT ctid FROM audit_log
			WHERE created_at < NOW() - make_interval(days => $1)
			LIMIT $2
		)`,
		retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging audit entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}
