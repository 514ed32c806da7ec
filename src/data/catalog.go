package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hedgeai/marketdata/src/eventmodels"
)

// The instrument dump only changes when the exchange lists or delists
// contracts, so minutes of lag is acceptable.
const DefaultCatalogRefreshFloor = 15 * time.Minute

// CatalogCache holds the instrument dump for one exchange segment and
// throttles how often it is re-downloaded. Rows are replaced wholesale on a
// successful fetch; a failed fetch changes nothing, so readers keep
// whatever catalog they had.
type CatalogCache struct {
	provider eventmodels.MarketDataProvider
	exchange string
	floor    time.Duration

	mu          sync.RWMutex
	instruments []eventmodels.Instrument
	fetchedAt   time.Time

	// serializes downloads so concurrent Ensure calls cannot stampede
	fetchMu sync.Mutex
}

func NewCatalogCache(provider eventmodels.MarketDataProvider, exchange string, floor time.Duration) *CatalogCache {
	if floor <= 0 {
		floor = DefaultCatalogRefreshFloor
	}

	return &CatalogCache{
		provider: provider,
		exchange: exchange,
		floor:    floor,
	}
}

func (c *CatalogCache) fresh(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.instruments) > 0 && !c.fetchedAt.IsZero() && now.Sub(c.fetchedAt) < c.floor
}

// Ensure makes the catalog available, downloading the dump at most once per
// floor interval. On failure both the rows and fetchedAt stay untouched:
// the next caller retries immediately, and callers holding rows may keep
// serving them.
func (c *CatalogCache) Ensure(ctx context.Context) error {
	if c.fresh(time.Now()) {
		return nil
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// another caller may have refreshed while we waited on the lock
	if c.fresh(time.Now()) {
		return nil
	}

	instruments, err := c.provider.GetInstrumentCatalog(ctx, c.exchange)
	if err != nil {
		return fmt.Errorf("CatalogCache.Ensure: %w", err)
	}

	if len(instruments) == 0 {
		return fmt.Errorf("CatalogCache.Ensure: provider returned an empty catalog for %s", c.exchange)
	}

	c.mu.Lock()
	c.instruments = instruments
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	log.Infof("CatalogCache: loaded %d instruments for %s", len(instruments), c.exchange)

	return nil
}

// Invalidate forces the next Ensure to refetch, bypassing the floor. Called
// when the credential changes.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetchedAt = time.Time{}
}

// Instruments returns the current rows. Callers must treat them as
// read-only.
func (c *CatalogCache) Instruments() []eventmodels.Instrument {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.instruments
}
