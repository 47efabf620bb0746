package mission

import (
	"sync"
	"time"

	"github.com/geowatch/nextpass/internal/plan"
)

// planEntry holds a merged plan with its expiration time.
type planEntry struct {
	collection *plan.Collection
	expiresAt  time.Time
}

// planCache is an in-memory TTL cache of merged plans keyed by mission
// name, so repeated queries within the refresh interval do not hit the
// upstream manifest source again.
type planCache struct {
	mu    sync.RWMutex
	plans map[string]planEntry
	ttl   time.Duration
}

func newPlanCache(ttl time.Duration) *planCache {
	return &planCache{
		plans: make(map[string]planEntry),
		ttl:   ttl,
	}
}

func (c *planCache) get(mission string) (*plan.Collection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.plans[mission]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.collection, true
}

func (c *planCache) put(mission string, col *plan.Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.plans[mission] = planEntry{
		collection: col,
		expiresAt:  time.Now().Add(c.ttl),
	}
}

// invalidate drops a mission's cached plan.
func (c *planCache) invalidate(mission string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.plans, mission)
}
