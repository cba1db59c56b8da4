// Package store provides focused, single-concern data access stores
// for the invox directory and tenant databases.
//
// Each store owns one domain (tenants/actors, roles, audit log, snapshots)
// and embeds shared helpers (Pool, logger) via the Base struct. Stores never
// import each other; shared logic lives in this file.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// maxListLimit is the hard page-size ceiling for every paginated read.
const maxListLimit = 100

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// clampPage normalizes limit/offset to safe values.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// HashAPIKey returns the hex-encoded SHA-256 hash of an API key, the only
// form in which keys are stored or compared.
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))

	return hex.EncodeToString(hash[:])
}
