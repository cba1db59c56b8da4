package store_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/dbpool"
	"github.com/invoxlabs/invox/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

// getTestEnv connects to TEST_DATABASE_URL, skipping when unset. The target
// database must have both migration sets applied (directory and tenant, see
// internal/db/migrations) so directory and snapshot tables coexist.
func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := dbpool.NewPool(context.Background(), dbURL, dbpool.DefaultDirectoryOptions())
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{pool: pool, log: log}

	return sharedEnv
}

// setupTestBase returns a store.Base over the shared test pool.
func setupTestBase(t *testing.T) store.Base {
	t.Helper()

	env := getTestEnv(t)

	return store.Base{Pool: env.pool, Log: env.log}
}

// invoiceIDCounter hands out invoice IDs unique across reruns against the
// same database.
var invoiceIDCounter atomic.Int64

func init() {
	invoiceIDCounter.Store(time.Now().UnixNano())
}

func nextInvoiceID() int64 {
	return invoiceIDCounter.Add(1)
}

// uniqueName suffixes a prefix with random hex so repeated runs never
// collide on unique columns.
func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
