package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/models"
)

// queryStore is the data-access interface Service depends on for reads and
// retention. Writes go through the Worker instead.
type queryStore interface {
	Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	ExportAll(ctx context.Context, opts models.AuditQueryOpts, rowCap int) ([]models.AuditEntry, error)
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// Event is the imperative audit input, used where entity identity or
// before/after values cannot be inferred from the request shape (bulk
// operations, multi-step workflows).
type Event struct {
	EntityType string
	EntityID   *string // nil for bulk/export events
	Operation  string
	OldValues  map[string]any
	NewValues  map[string]any
	Extra      map[string]any
}

// Service is the audit trail engine: one write path shared by the imperative
// LogEvent and the declarative HTTP wrapper, plus the read/export surface.
type Service struct {
	store     queryStore
	worker    *Worker
	log       *logrus.Logger
	exportCap int
}

// NewService creates a Service. exportCap bounds CSV export memory.
func NewService(store queryStore, worker *Worker, log *logrus.Logger, exportCap int) *Service {
	return &Service{store: store, worker: worker, log: log, exportCap: exportCap}
}

// LogEvent records one audit event, best-effort. Actor, tenant and request
// metadata are taken from the context (see WithMeta). For UPDATE events the
// field diff is computed here and an empty diff suppresses the write
// entirely: an update that changed nothing leaves no trace.
//
// LogEvent never returns an error and never blocks on persistence; every
// failure is logged internally and absorbed.
func (s *Service) LogEvent(ctx context.Context, event Event) {
	entry, ok := s.buildEntry(ctx, event)
	if !ok {
		return
	}

	s.worker.Enqueue(entry)
}

// buildEntry assembles the denormalized audit row. The second return is
// false when the event must not be written (no actor, failed serialization,
// or an UPDATE that changed nothing).
func (s *Service) buildEntry(ctx context.Context, event Event) (*models.AuditEntry, bool) {
	meta, ok := MetaFrom(ctx)
	if !ok || meta.Actor == nil {
		s.log.WithField("entity_type", event.EntityType).Warn("audit event without actor context, skipping")
		return nil, false
	}

	entry := &models.AuditEntry{
		TenantID:   meta.TenantID,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Operation:  event.Operation,
		ActorID:    meta.Actor.ID,
		ActorEmail: meta.Actor.Email,
		ActorRole:  meta.Actor.RoleName,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		RequestID:  meta.RequestID,
	}

	if event.Operation == models.OpUpdate {
		changed, err := ComputeDiff(event.OldValues, event.NewValues)
		if err != nil {
			s.log.WithError(err).Warn("audit diff computation failed, skipping entry")
			return nil, false
		}

		if len(changed) == 0 {
			// Nothing changed: no audit record.
			return nil, false
		}

		entry.ChangedFields = changed
	}

	var err error
	if entry.OldValues, err = marshalValues(event.OldValues); err != nil {
		s.log.WithError(err).Warn("audit old values serialization failed, skipping entry")
		return nil, false
	}
	if entry.NewValues, err = marshalValues(mergeExtra(event.NewValues, event.Extra)); err != nil {
		s.log.WithError(err).Warn("audit new values serialization failed, skipping entry")
		return nil, false
	}

	return entry, true
}

func marshalValues(values map[string]any) (json.RawMessage, error) {
	if len(values) == 0 {
		return nil, nil
	}

	return json.Marshal(values)
}

// mergeExtra folds imperative extra metadata into the stored new values
// under a reserved key, keeping the payload columns opaque.
func mergeExtra(values, extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return values
	}

	merged := make(map[string]any, len(values)+1)
	for k, v := range values {
		merged[k] = v
	}
	merged["_extra"] = extra

	return merged
}

// Query returns audit entries matching the filters. The page size ceiling of
// 100 is enforced in the store regardless of the requested limit.
func (s *Service) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return s.store.Query(ctx, opts)
}

// csvHeader is the column order of audit CSV exports.
var csvHeader = []string{
	"id", "created_at", "tenant_id", "entity_type", "entity_id", "operation",
	"actor_id", "actor_email", "actor_role", "changed_fields",
	"old_values", "new_values", "ip", "user_agent", "request_id",
}

// ExportCSV streams all entries matching the filters as CSV. The export is
// internally capped to protect memory on unbounded filter sets.
func (s *Service) ExportCSV(ctx context.Context, opts models.AuditQueryOpts, w io.Writer) error {
	entries, err := s.store.ExportAll(ctx, opts, s.exportCap)
	if err != nil {
		return fmt.Errorf("exporting audit entries: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for i := range entries {
		if err := cw.Write(csvRow(&entries[i])); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func csvRow(e *models.AuditEntry) []string {
	entityID := ""
	if e.EntityID != nil {
		entityID = *e.EntityID
	}

	changed := ""
	if len(e.ChangedFields) > 0 {
		if b, err := json.Marshal(e.ChangedFields); err == nil {
			changed = string(b)
		}
	}

	return []string{
		strconv.FormatInt(e.ID, 10),
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.TenantID,
		e.EntityType,
		entityID,
		e.Operation,
		strconv.FormatInt(e.ActorID, 10),
		e.ActorEmail,
		e.ActorRole,
		changed,
		string(e.OldValues),
		string(e.NewValues),
		e.IP,
		e.UserAgent,
		e.RequestID,
	}
}

// Purge deletes entries older than retentionDays and logs the result.
func (s *Service) Purge(ctx context.Context, retentionDays int) (int, error) {
	deleted, err := s.store.PurgeOldEntries(ctx, retentionDays)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"retention_days": retentionDays,
		"deleted":        deleted,
	}).Info("audit.purge")

	return deleted, nil
}
