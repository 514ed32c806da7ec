package eventmodels

type UnderlyingSymbol string

// TrackedUnderlying is one index the refresh loop polls. QuoteKey is the
// exchange-prefixed key the quote API expects (e.g. "NSE:NIFTY 50");
// CatalogName is the name field used by instrument dump rows (e.g. "NIFTY").
type TrackedUnderlying struct {
	Symbol      UnderlyingSymbol
	QuoteKey    string
	CatalogName string
	LotSize     int
}
