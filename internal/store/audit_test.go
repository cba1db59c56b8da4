package store_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/invoxlabs/invox/internal/models"
	"github.com/invoxlabs/invox/internal/store"
)

// newAuditFixture returns an AuditStore plus a per-test actor email; all
// rows written under that actor are cleaned up afterwards.
func newAuditFixture(t *testing.T) (*store.AuditStore, string) {
	t.Helper()

	env := getTestEnv(t)
	actor := uniqueName("auditor") + "@invox.test"
	t.Cleanup(func() {
		env.pool.Exec(context.Background(), "DELETE FROM audit_log WHERE actor_email = $1", actor) //nolint:errcheck // best-effort cleanup
	})

	return store.NewAuditStore(setupTestBase(t)), actor
}

func recordEntry(t *testing.T, as *store.AuditStore, e *models.AuditEntry) {
	t.Helper()

	if err := as.Record(context.Background(), e); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func TestAuditRecordAndQuery(t *testing.T) {
	as, actor := newAuditFixture(t)
	ctx := context.Background()

	entityID := "inv-77"
	recordEntry(t, as, &models.AuditEntry{
		EntityType: "invoice",
		EntityID:   &entityID,
		Operation:  models.OpCreate,
		ActorID:    7,
		ActorEmail: actor,
		ActorRole:  "Clerk",
		NewValues:  json.RawMessage(`{"number": "INV-77"}`),
		IP:         "10.0.0.1",
		UserAgent:  "store-test",
		RequestID:  "req-1",
	})

	entries, hasMore, err := as.Query(ctx, models.AuditQueryOpts{ActorEmail: actor, Limit: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Query returned %d entries, want 1", len(entries))
	}
	if hasMore {
		t.Error("hasMore = true, want false")
	}

	e := entries[0]
	if e.Operation != models.OpCreate {
		t.Errorf("Operation = %q, want CREATE", e.Operation)
	}
	if e.EntityID == nil || *e.EntityID != entityID {
		t.Errorf("EntityID = %v, want %q", e.EntityID, entityID)
	}
	if e.ActorRole != "Clerk" {
		t.Errorf("ActorRole = %q, want Clerk", e.ActorRole)
	}
	if !strings.Contains(string(e.NewValues), "INV-77") {
		t.Errorf("NewValues = %s, want INV-77 present", e.NewValues)
	}
	if e.TenantID != "" {
		t.Errorf("TenantID = %q, want empty for a platform event", e.TenantID)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestAuditQueryFilters(t *testing.T) {
	as, actor := newAuditFixture(t)
	ctx := context.Background()

	tenantID := uuid.NewString()
	invA, invB, roleC := "inv-a", "inv-b", "role-c"

	recordEntry(t, as, &models.AuditEntry{
		EntityType: "invoice", EntityID: &invA, Operation: models.OpCreate,
		ActorID: 7, ActorEmail: actor,
		NewValues: json.RawMessage(`{"number": "INV-FILTER-A"}`),
	})
	recordEntry(t, as, &models.AuditEntry{
		EntityType: "invoice", EntityID: &invB, Operation: models.OpUpdate,
		ActorID: 7, ActorEmail: actor, TenantID: tenantID,
		ChangedFields: map[string]models.FieldChange{
			"status": {Old: "draft", New: "posted"},
		},
	})
	recordEntry(t, as, &models.AuditEntry{
		EntityType: "role", EntityID: &roleC, Operation: models.OpDelete,
		ActorID: 7, ActorEmail: actor,
	})

	byType, _, err := as.Query(ctx, models.AuditQueryOpts{ActorEmail: actor, EntityType: "invoice", Limit: 10})
	if err != nil {
		t.Fatalf("Query by entity type: %v", err)
	}
	if len(byType) != 2 {
		t.Errorf("entity_type filter returned %d, want 2", len(byType))
	}

	byOp, _, err := as.Query(ctx, models.AuditQueryOpts{ActorEmail: actor, Operation: models.OpDelete, Limit: 10})
	if err != nil {
		t.Fatalf("Query by operation: %v", err)
	}
	if len(byOp) != 1 || byOp[0].EntityType != "role" {
		t.Errorf("operation filter returned %v, want the one role DELETE", byOp)
	}

	byTenant, _, err := as.Query(ctx, models.AuditQueryOpts{TenantID: tenantID, Limit: 10})
	if err != nil {
		t.Fatalf("Query by tenant: %v", err)
	}
	if len(byTenant) != 1 {
		t.Fatalf("tenant filter returned %d, want 1", len(byTenant))
	}
	if byTenant[0].ChangedFields["status"].New != "posted" {
		t.Errorf("ChangedFields = %v, want status old draft new posted", byTenant[0].ChangedFields)
	}

	bySearch, _, err := as.Query(ctx, models.AuditQueryOpts{ActorEmail: actor, Search: "INV-FILTER-A", Limit: 10})
	if err != nil {
		t.Fatalf("Query by search: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].EntityID == nil || *bySearch[0].EntityID != invA {
		t.Errorf("search filter returned %v, want the INV-FILTER-A entry", bySearch)
	}
}

func TestAuditQueryPagination(t *testing.T) {
	as, actor := newAuditFixture(t)
	ctx := context.Background()

	for _, id := range []string{"inv-1", "inv-2", "inv-3"} {
		recordEntry(t, as, &models.AuditEntry{
			EntityType: "invoice", EntityID: &id, Operation: models.OpCreate,
			ActorID: 7, ActorEmail: actor,
		})
	}

	page, hasMore, err := as.Query(ctx, models.AuditQueryOpts{ActorEmail: actor, Limit: 2})
	if err != nil {
		t.Fatalf("Query first page: %v", err)
	}
	if len(page) != 2 || !hasMore {
		t.Fatalf("first page = %d entries hasMore=%v, want 2/true", len(page), hasMore)
	}
	// Newest first: id ordering breaks the tie on equal timestamps.
	if *page[0].EntityID != "inv-3" {
		t.Errorf("first entry = %q, want inv-3", *page[0].EntityID)
	}

	rest, hasMore, err := as.Query(ctx, models.AuditQueryOpts{ActorEmail: actor, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Query second page: %v", err)
	}
	if len(rest) != 1 || hasMore {
		t.Errorf("second page = %d entries hasMore=%v, want 1/false", len(rest), hasMore)
	}
}

func TestAuditExportAll(t *testing.T) {
	as, actor := newAuditFixture(t)
	ctx := context.Background()

	for _, id := range []string{"exp-a", "exp-b", "exp-c"} {
		recordEntry(t, as, &models.AuditEntry{
			EntityType: "invoice", EntityID: &id, Operation: models.OpCreate,
			ActorID: 7, ActorEmail: actor,
		})
	}

	capped, err := as.ExportAll(ctx, models.AuditQueryOpts{ActorEmail: actor}, 2)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("ExportAll with cap 2 returned %d rows", len(capped))
	}
	// Oldest first for stable exports.
	if *capped[0].EntityID != "exp-a" || *capped[1].EntityID != "exp-b" {
		t.Errorf("export order = %q, %q; want exp-a, exp-b", *capped[0].EntityID, *capped[1].EntityID)
	}

	all, err := as.ExportAll(ctx, models.AuditQueryOpts{ActorEmail: actor}, 0)
	if err != nil {
		t.Fatalf("ExportAll uncapped: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ExportAll with default cap returned %d rows, want 3", len(all))
	}
}

func TestAuditPurgeOldEntries(t *testing.T) {
	env := getTestEnv(t)
	as, actor := newAuditFixture(t)
	ctx := context.Background()

	oldID, newID := "purge-old", "purge-new"
	recordEntry(t, as, &models.AuditEntry{
		EntityType: "invoice", EntityID: &oldID, Operation: models.OpDelete,
		ActorID: 7, ActorEmail: actor,
	})
	recordEntry(t, as, &models.AuditEntry{
		EntityType: "invoice", EntityID: &newID, Operation: models.OpCreate,
		ActorID: 7, ActorEmail: actor,
	})

	_, err := env.pool.Exec(ctx,
		"UPDATE audit_log SET created_at = NOW() - INTERVAL '400 days' WHERE actor_email = $1 AND entity_id = $2",
		actor, oldID)
	if err != nil {
		t.Fatalf("backdating audit entry: %v", err)
	}

	purged, err := as.PurgeOldEntries(ctx, 365)
	if err != nil {
		t.Fatalf("PurgeOldEntries: %v", err)
	}
	if purged < 1 {
		t.Errorf("PurgeOldEntries purged %d, want >= 1", purged)
	}

	entries, _, err := as.Query(ctx, models.AuditQueryOpts{ActorEmail: actor, Limit: 10})
	if err != nil {
		t.Fatalf("Query after purge: %v", err)
	}
	if len(entries) != 1 || *entries[0].EntityID != newID {
		t.Errorf("entries after purge = %v, want only %q", entries, newID)
	}
}
