package middleware_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/invoxlabs/invox/internal/audit"
	"github.com/invoxlabs/invox/internal/middleware"
	"github.com/invoxlabs/invox/internal/models"
)

// captureRecorder collects audit entries written through the worker.
type captureRecorder struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
}

func (r *captureRecorder) Record(_ context.Context, entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *captureRecorder) recorded() []*models.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// trailFixture wires a real audit service over a capture recorder so the
// declarative wrapper is tested end to end minus the database.
type trailFixture struct {
	rec    *captureRecorder
	svc    *audit.Service
	worker *audit.Worker
}

func newTrailFixture() *trailFixture {
	rec := &captureRecorder{}
	w := audit.NewWorker(rec, testLogger(), 16)

	return &trailFixture{
		rec:    rec,
		svc:    audit.NewService(nil, w, testLogger(), 100),
		worker: w,
	}
}

// drain flushes the worker queue synchronously.
func (f *trailFixture) drain() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.worker.Run(ctx)
}

// trailRouter builds a router with actor metadata and the audit wrapper, the
// way registered routes carry them.
func trailRouter(f *trailFixture, cfg middleware.AuditConfig) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		meta := audit.RequestMeta{
			Actor:    &models.Actor{ID: 7, Email: "clerk@acme.test", RoleName: "Clerk"},
			TenantID: "t-1",
		}
		c.Request = c.Request.WithContext(audit.WithMeta(c.Request.Context(), meta))
		c.Next()
	})
	r.Use(middleware.AuditTrail(f.svc, testLogger(), cfg))

	return r
}

func TestAuditTrail_PostRecordsCreate(t *testing.T) {
	t.Parallel()

	f := newTrailFixture()
	r := trailRouter(f, middleware.AuditConfig{EntityType: "role"})
	r.POST("/roles", func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{"id": 1}) })

	doRequest(r, http.MethodPost, "/roles", `{"name":"Clerk"}`)
	f.drain()

	entries := f.rec.recorded()
	if len(entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(entries))
	}
	if entries[0].Operation != models.OpCreate || entries[0].EntityType != "role" {
		t.Errorf("entry = %+v", entries[0])
	}
	if entries[0].ActorEmail != "clerk@acme.test" {
		t.Errorf("actor not denormalized: %+v", entries[0])
	}
}

func TestAuditTrail_FailedHandlerLeavesNoTrace(t *testing.T) {
	t.Parallel()

	f := newTrailFixture()
	r := trailRouter(f, middleware.AuditConfig{EntityType: "role"})
	r.POST("/roles", func(c *gin.Context) { c.JSON(http.StatusConflict, gin.H{"error": "dup"}) })

	doRequest(r, http.MethodPost, "/roles", `{"name":"Clerk"}`)
	f.drain()

	if got := len(f.rec.recorded()); got != 0 {
		t.Errorf("recorded %d entries for a failed request, want 0", got)
	}
}

func TestAuditTrail_GetIsNotAudited(t *testing.T) {
	t.Parallel()

	f := newTrailFixture()
	r := trailRouter(f, middleware.AuditConfig{EntityType: "role"})
	r.GET("/roles", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })

	doRequest(r, http.MethodGet, "/roles", "")
	f.drain()

	if got := len(f.rec.recorded()); got != 0 {
		t.Errorf("recorded %d entries for a read, want 0", got)
	}
}

func TestAuditTrail_UpdateDiffsAgainstPriorValues(t *testing.T) {
	t.Parallel()

	f := newTrailFixture()
	r := trailRouter(f, middleware.AuditConfig{
		EntityType: "role",
		PriorValues: func(_ context.Context, _ string) (map[string]any, error) {
			return map[string]any{"name": "Clerk"}, nil
		},
	})
	r.PUT("/roles/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })

	doRequest(r, http.MethodPut, "/roles/42", `{"name":"Manager"}`)
	f.drain()

	entries := f.rec.recorded()
	if len(entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(entries))
	}

	e := entries[0]
	if e.Operation != models.OpUpdate {
		t.Errorf("operation = %s", e.Operation)
	}
	if e.EntityID == nil || *e.EntityID != "42" {
		t.Errorf("entity id = %v", e.EntityID)
	}
	change, ok := e.ChangedFields["name"]
	if !ok || change.Old != "Clerk" || change.New != "Manager" {
		t.Errorf("changed fields = %v", e.ChangedFields)
	}
}

// Resubmitting an unchanged entity produces an empty diff; no entry may be
// written even though the handler returned 2xx.
func TestAuditTrail_UnchangedUpdateLeavesNoTrace(t *testing.T) {
	t.Parallel()

	f := newTrailFixture()
	r := trailRouter(f, middleware.AuditConfig{
		EntityType: "role",
		PriorValues: func(context.Context, string) (map[string]any, error) {
			return map[string]any{"name": "Clerk"}, nil
		},
	})
	r.PUT("/roles/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })

	doRequest(r, http.MethodPut, "/roles/42", `{"name":"Clerk"}`)
	f.drain()

	if got := len(f.rec.recorded()); got != 0 {
		t.Errorf("recorded %d entries for an unchanged update, want 0", got)
	}
}

func TestAuditTrail_PriorValueFailureDoesNotBlockRequest(t *testing.T) {
	t.Parallel()

	f := newTrailFixture()
	r := trailRouter(f, middleware.AuditConfig{
		EntityType: "role",
		PriorValues: func(context.Context, string) (map[string]any, error) {
			return nil, context.DeadlineExceeded
		},
	})
	r.DELETE("/roles/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"deleted": 42}) })

	w := doRequest(r, http.MethodDelete, "/roles/42", "")
	if w.Code != http.StatusOK {
		t.Fatalf("request must succeed despite audit lookup failure, got %d", w.Code)
	}

	f.drain()
	if got := len(f.rec.recorded()); got != 1 {
		t.Errorf("recorded %d entries, want 1 (delete without prior values)", got)
	}
}
