package data

import (
	"sync"

	"github.com/hedgeai/marketdata/src/eventmodels"
)

// QuoteCache holds the last good quote per contract symbol so a provider
// outage degrades to stale answers instead of empty ones.
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[string]eventmodels.OptionQuote
}

func NewQuoteCache() *QuoteCache {
	return &QuoteCache{quotes: make(map[string]eventmodels.OptionQuote)}
}

func (c *QuoteCache) Get(symbol string) (eventmodels.OptionQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	quote, found := c.quotes[symbol]
	return quote, found
}

func (c *QuoteCache) Put(quote eventmodels.OptionQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.quotes[quote.Symbol] = quote
}

// Snapshot copies the cache for persistence.
func (c *QuoteCache) Snapshot() map[string]eventmodels.OptionQuote {
	c.mu.RLock()
	defer c.mu.RUnlock()

	quotes := make(map[string]eventmodels.OptionQuote, len(c.quotes))
	for symbol, quote := range c.quotes {
		quotes[symbol] = quote
	}

	return quotes
}

// Restore seeds the cache from a persisted snapshot. Restored quotes are
// flagged stale; they stay that way until a live fetch replaces them.
func (c *QuoteCache) Restore(quotes map[string]eventmodels.OptionQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for symbol, quote := range quotes {
		quote.Stale = true
		c.quotes[symbol] = quote
	}
}
