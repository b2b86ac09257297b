// Package cache keeps recent reconciliation outcomes in memory so a client
// can fetch them again by run ID without re-uploading its files.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/eshaffer321/orderrecon/internal/domain/reconciler"
)

const (
	DefaultTTL     = 30 * time.Minute
	cleanupDivisor = 2
)

// OutcomeCache is a TTL cache of outcomes keyed by run ID. It is safe for
// concurrent use.
type OutcomeCache struct {
	items *gocache.Cache
}

// NewOutcomeCache creates a cache whose entries expire after ttl.
// A non-positive ttl uses DefaultTTL.
func NewOutcomeCache(ttl time.Duration) *OutcomeCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &OutcomeCache{items: gocache.New(ttl, ttl/cleanupDivisor)}
}

// Put stores out under runID with the default expiration.
func (c *OutcomeCache) Put(runID string, out *reconciler.Outcome) {
	c.items.SetDefault(runID, out)
}

// Get returns the outcome for runID if it has not expired.
func (c *OutcomeCache) Get(runID string) (*reconciler.Outcome, bool) {
	v, ok := c.items.Get(runID)
	if !ok {
		return nil, false
	}
	out, ok := v.(*reconciler.Outcome)
	return out, ok
}

// Len is the number of cached outcomes, including expired ones not yet evicted.
func (c *OutcomeCache) Len() int {
	return c.items.ItemCount()
}
