package data

import (
	"sync"
	"time"

	"github.com/hedgeai/marketdata/src/eventmodels"
)

// SpotCache holds the latest spot snapshot. The refresh worker is the only
// writer; readers always see a complete snapshot because replacement swaps
// the whole value under the lock.
type SpotCache struct {
	mu       sync.RWMutex
	snapshot *eventmodels.SpotSnapshot
}

func NewSpotCache() *SpotCache {
	return &SpotCache{}
}

// Current returns the latest snapshot, or nil before the first refresh.
func (c *SpotCache) Current() *eventmodels.SpotSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshot
}

func (c *SpotCache) Replace(snapshot *eventmodels.SpotSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = snapshot
}

func (c *SpotCache) IsStale(now time.Time) bool {
	return c.Current().Stale(now)
}
