// Package tenants resolves tenant identifiers to isolated store handles.
//
// The Multiplexer owns the handle cache for the whole process: created at
// startup, torn down at shutdown, safe for concurrent use. One tenant's
// connectivity failure never blocks or poisons another tenant's entry —
// dials are deduplicated per tenant id and failures are not cached.
package tenants

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/invoxlabs/invox/internal/dbpool"
	"github.com/invoxlabs/invox/internal/metrics"
	"github.com/invoxlabs/invox/internal/models"
)

// Handle is a live, concurrency-safe connection to one tenant's isolated
// store, plus the directory row it was resolved from.
type Handle struct {
	Tenant models.Tenant
	Pool   *dbpool.Pool
}

// DirectoryReader is the directory-store interface the multiplexer depends on.
type DirectoryReader interface {
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	ListActiveTenants(ctx context.Context) ([]models.Tenant, error)
}

// Dialer opens a pool against a tenant store locator.
type Dialer func(ctx context.Context, dsn string) (*dbpool.Pool, error)

// DefaultDialer opens a pgx pool with per-tenant sizing.
func DefaultDialer(ctx context.Context, dsn string) (*dbpool.Pool, error) {
	return dbpool.NewPool(ctx, dsn, dbpool.DefaultTenantOptions())
}

// Multiplexer caches one store handle per tenant identifier.
type Multiplexer struct {
	dir  DirectoryReader
	dial Dialer
	log  *logrus.Logger

	mu      sync.RWMutex
	handles map[string]*Handle
	group   singleflight.Group
}

// NewMultiplexer creates a Multiplexer. Pass nil dial to use DefaultDialer.
func NewMultiplexer(dir DirectoryReader, dial Dialer, log *logrus.Logger) *Multiplexer {
	if dial == nil {
		dial = DefaultDialer
	}

	return &Multiplexer{
		dir:     dir,
		dial:    dial,
		log:     log,
		handles: make(map[string]*Handle),
	}
}

// Handle resolves a tenant identifier to a live store handle.
//
// The tenant row is re-read from the directory on every call so deactivation
// takes effect immediately; only the dialed pool is cached. A cache miss
// dials under singleflight, so concurrent requests for the same tenant share
// one dial while other tenants proceed independently.
func (m *Multiplexer) Handle(ctx context.Context, tenantID string) (*Handle, error) {
	tenant, err := m.dir.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if !tenant.Active {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, models.ErrTenantInactive)
	}

	m.mu.RLock()
	h, ok := m.handles[tenantID]
	m.mu.RUnlock()

	if ok {
		return &Handle{Tenant: *tenant, Pool: h.Pool}, nil
	}

	v, err, _ := m.group.Do(tenantID, func() (any, error) {
		// Another request may have won the race before this flight started.
		m.mu.RLock()
		existing, ok := m.handles[tenantID]
		m.mu.RUnlock()
		if ok {
			return existing, nil
		}

		pool, err := m.dial(ctx, tenant.StoreDSN)
		if err != nil {
			// Not cached: the next request retries the dial.
			return nil, fmt.Errorf("%w: tenant %s: %v", models.ErrTenantUnreachable, tenantID, err)
		}

		handle := &Handle{Tenant: *tenant, Pool: pool}

		m.mu.Lock()
		m.handles[tenantID] = handle
		open := len(m.handles)
		m.mu.Unlock()

		metrics.OpenTenantHandles.Set(float64(open))
		m.log.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"open":      open,
		}).Info("tenant handle opened")

		return handle, nil
	})
	if err != nil {
		return nil, err
	}

	cached := v.(*Handle)

	return &Handle{Tenant: *tenant, Pool: cached.Pool}, nil
}

// OpenHandles returns the number of cached tenant handles.
func (m *Multiplexer) OpenHandles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.handles)
}

// Evict closes and forgets a single tenant's handle, if present.
func (m *Multiplexer) Evict(tenantID string) {
	m.mu.Lock()
	h, ok := m.handles[tenantID]
	if ok {
		delete(m.handles, tenantID)
	}
	open := len(m.handles)
	m.mu.Unlock()

	if ok {
		h.Pool.Close()
		metrics.OpenTenantHandles.Set(float64(open))
	}
}

// Close tears down every cached handle. Called once at shutdown.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[string]*Handle)
	m.mu.Unlock()

	for _, h := range handles {
		h.Pool.Close()
	}

	metrics.OpenTenantHandles.Set(0)
}

// forEachConcurrency bounds the administrative fan-out so a large directory
// does not open every tenant pool at once.
const forEachConcurrency = 4

// ForEachActiveTenant runs fn against every active tenant's handle. This is
// the administrative path that bypasses per-request scoping; request-scoped
// access always goes through Handle. Every tenant is attempted even when an
// earlier one fails; the first error is returned after all complete.
func (m *Multiplexer) ForEachActiveTenant(ctx context.Context, fn func(ctx context.Context, h *Handle) error) error {
	tenantsList, err := m.dir.ListActiveTenants(ctx)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(forEachConcurrency)

	for _, t := range tenantsList {
		t := t
		g.Go(func() error {
			h, err := m.Handle(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("tenant %s: %w", t.ID, err)
			}

			return fn(ctx, h)
		})
	}

	return g.Wait()
}
