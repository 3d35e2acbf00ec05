package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ginkoai/ginko/internal/identity"
)

// resolver is the narrow capability-resolution surface identity.AccessGate
// exposes; kept as an interface so this package has no dependency on identity
// beyond the types it passes through.
type resolver interface {
	Resolve(ctx context.Context, userID, graphID string) (identity.CapabilitySet, error)
}

// CapabilityCache memoizes Access Gate resolutions for a short TTL, avoiding
// a relational round-trip on every request for an unchanged (user, graph) pair.
type CapabilityCache struct {
	gate  resolver
	cache *Cache
	ttl   time.Duration
}

func NewCapabilityCache(gate resolver, ttl time.Duration) *CapabilityCache {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &CapabilityCache{gate: gate, cache: New(Config{DefaultTTL: ttl}), ttl: ttl}
}

func key(userID, graphID string) string {
	return fmt.Sprintf("cap:%s:%s", graphID, userID)
}

// Resolve returns the cached capability set, or consults the gate and caches
// the result on a miss. Errors are never cached.
func (c *CapabilityCache) Resolve(ctx context.Context, userID, graphID string) (identity.CapabilitySet, error) {
	k := key(userID, graphID)
	if v, ok := c.cache.Get(k); ok {
		return v.(identity.CapabilitySet), nil
	}
	caps, err := c.gate.Resolve(ctx, userID, graphID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(k, caps, c.ttl)
	return caps, nil
}

// InvalidateGraph drops every cached capability for a graph namespace,
// called after a membership or ownership change.
func (c *CapabilityCache) InvalidateGraph(graphID string) {
	c.cache.InvalidatePrefix(fmt.Sprintf("cap:%s:", graphID))
}
