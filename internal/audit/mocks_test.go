package audit_test

import (
	"context"
	"sync"

	"github.com/invoxlabs/invox/internal/models"
)

// mockRecorder implements audit.Recorder, collecting entries under a lock so
// tests can assert against worker goroutine writes.
type mockRecorder struct {
	mu       sync.Mutex
	entries  []*models.AuditEntry
	recordFn func(ctx context.Context, entry *models.AuditEntry) error
}

func (m *mockRecorder) Record(ctx context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recordFn != nil {
		return m.recordFn(ctx, entry)
	}

	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockRecorder) recorded() []*models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// mockQueryStore implements the read/retention surface of audit.Service.
type mockQueryStore struct {
	queryFn  func(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	exportFn func(ctx context.Context, opts models.AuditQueryOpts, rowCap int) ([]models.AuditEntry, error)
	purgeFn  func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockQueryStore) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.queryFn(ctx, opts)
}

func (m *mockQueryStore) ExportAll(ctx context.Context, opts models.AuditQueryOpts, rowCap int) ([]models.AuditEntry, error) {
	return m.exportFn(ctx, opts, rowCap)
}

func (m *mockQueryStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	return m.purgeFn(ctx, retentionDays)
}
