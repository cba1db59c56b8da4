package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/invoxlabs/invox/internal/models"
)

const (
	actorCacheTTL    = 5 * time.Minute
	negativeCacheTTL = 30 * time.Second
	actorCacheSize   = 10000
)

// errCachedNotFound is returned for negative cache hits.
var errCachedNotFound = errors.New("actor not found (cached)")

// hashKey returns a hex-encoded SHA-256 hash of the API key so raw keys
// are never stored in memory.
func hashKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

// CachedActorLookup wraps an ActorLookup with bounded in-memory caches.
// Failed lookups are negatively cached with a short TTL to prevent
// brute-force database hammering.
type CachedActorLookup struct {
	inner    ActorLookup
	actors   *expirable.LRU[string, *models.Actor]
	negative *expirable.LRU[string, struct{}]
}

// NewCachedActorLookup creates a caching wrapper around the given ActorLookup.
func NewCachedActorLookup(inner ActorLookup) *CachedActorLookup {
	return &CachedActorLookup{
		inner:    inner,
		actors:   expirable.NewLRU[string, *models.Actor](actorCacheSize, nil, actorCacheTTL),
		negative: expirable.NewLRU[string, struct{}](actorCacheSize, nil, negativeCacheTTL),
	}
}

// GetActorByAPIKey returns a cached actor or delegates to the inner lookup.
func (c *CachedActorLookup) GetActorByAPIKey(ctx context.Context, apiKey string) (*models.Actor, error) {
	hk := hashKey(apiKey)

	if actor, ok := c.actors.Get(hk); ok {
		return actor, nil
	}

	if _, ok := c.negative.Get(hk); ok {
		return nil, errCachedNotFound
	}

	actor, err := c.inner.GetActorByAPIKey(ctx, apiKey)
	if err != nil {
		c.negative.Add(hk, struct{}{})
		return nil, err
	}

	c.actors.Add(hk, actor)

	return actor, nil
}
