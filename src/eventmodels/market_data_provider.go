package eventmodels

import "context"

// MarketDataProvider is the upstream brokerage market-data surface. Keys are
// exchange-prefixed ("NSE:NIFTY 50", "NFO:NIFTY24O0325900CE"). Both calls
// fail on missing/rejected credentials and on transport errors; callers keep
// serving their previous state when that happens.
type MarketDataProvider interface {
	GetQuotes(ctx context.Context, keys []string) (map[string]KiteQuoteDTO, error)
	GetInstrumentCatalog(ctx context.Context, exchange string) ([]Instrument, error)
}
