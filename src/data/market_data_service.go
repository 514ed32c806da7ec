package data

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hedgeai/marketdata/src/eventmodels"
	"github.com/hedgeai/marketdata/src/eventservices"
)

// The storefront dropdown shows at most four upcoming expiries.
const maxExpiries = 4

// MarketDataService is the read/write surface the handlers and the refresh
// worker share: spot snapshot, instrument catalog, per-contract quotes and
// the admin credential, wired to one provider and one durable store.
type MarketDataService struct {
	config      *eventmodels.UnderlyingsConfigYAML
	catalog     *CatalogCache
	spotCache   *SpotCache
	quoteCache  *QuoteCache
	credentials *CredentialStore
	provider    eventmodels.MarketDataProvider
	store       Store
}

func NewMarketDataService(config *eventmodels.UnderlyingsConfigYAML, catalog *CatalogCache, spotCache *SpotCache, quoteCache *QuoteCache, credentials *CredentialStore, provider eventmodels.MarketDataProvider, store Store) *MarketDataService {
	return &MarketDataService{
		config:      config,
		catalog:     catalog,
		spotCache:   spotCache,
		quoteCache:  quoteCache,
		credentials: credentials,
		provider:    provider,
		store:       store,
	}
}

func (s *MarketDataService) CurrentSpot() *eventmodels.SpotSnapshot {
	return s.spotCache.Current()
}

func (s *MarketDataService) IsStale() bool {
	return s.spotCache.IsStale(time.Now())
}

func (s *MarketDataService) TokenPresent() bool {
	_, present := s.credentials.Token()
	return present
}

// Chain returns the cached per-contract quotes for the /latest payload.
func (s *MarketDataService) Chain() map[string]eventmodels.OptionQuote {
	return s.quoteCache.Snapshot()
}

// LotSizes is config-derived, so it is available even before the first
// successful fetch.
func (s *MarketDataService) LotSizes() map[eventmodels.UnderlyingSymbol]int {
	lotSizes := make(map[eventmodels.UnderlyingSymbol]int)
	for _, underlying := range s.config.TrackedUnderlyings() {
		lotSizes[underlying.Symbol] = underlying.LotSize
	}

	return lotSizes
}

// SetCredential applies a new access token and invalidates the catalog so
// the next access refetches with the fresh credential.
func (s *MarketDataService) SetCredential(ctx context.Context, accessToken string) error {
	if err := s.credentials.Set(ctx, accessToken); err != nil {
		return fmt.Errorf("MarketDataService.SetCredential: %w", err)
	}

	s.catalog.Invalidate()

	return nil
}

// ensureCatalog refreshes the catalog when due. A refresh failure is
// swallowed when rows are already in hand (stale catalog beats none) and
// returned only when the cache is empty.
func (s *MarketDataService) ensureCatalog(ctx context.Context, op string) error {
	if err := s.catalog.Ensure(ctx); err != nil {
		if len(s.catalog.Instruments()) == 0 {
			return err
		}

		log.Warnf("%s: serving stale catalog: %v", op, err)
	}

	return nil
}

// Expiries lists upcoming expiry dates for an underlying, soonest first,
// capped at four. When no catalog can be had the list is empty; it is never
// padded with made-up dates.
func (s *MarketDataService) Expiries(ctx context.Context, symbol eventmodels.UnderlyingSymbol) ([]eventmodels.Expiry, error) {
	underlying, err := s.config.GetUnderlying(symbol)
	if err != nil {
		return nil, eventmodels.NewWebError(404, fmt.Sprintf("unknown instrument: %s", symbol), err)
	}

	if err := s.ensureCatalog(ctx, "MarketDataService.Expiries"); err != nil {
		log.Warnf("MarketDataService.Expiries: catalog unavailable: %v", err)
		return []eventmodels.Expiry{}, nil
	}

	return eventservices.CollectExpiries(s.catalog.Instruments(), underlying.CatalogName, maxExpiries), nil
}

// Strikes lists the strikes listed for one expiry, narrowed to a band
// around the current spot when one is cached.
func (s *MarketDataService) Strikes(ctx context.Context, symbol eventmodels.UnderlyingSymbol, expiry time.Time) ([]float64, error) {
	underlying, err := s.config.GetUnderlying(symbol)
	if err != nil {
		return nil, eventmodels.NewWebError(404, fmt.Sprintf("unknown instrument: %s", symbol), err)
	}

	if err := s.ensureCatalog(ctx, "MarketDataService.Strikes"); err != nil {
		log.Warnf("MarketDataService.Strikes: catalog unavailable: %v", err)
		return []float64{}, nil
	}

	spot := 0.0
	if price, found := s.spotCache.Current().Price(eventmodels.UnderlyingSymbol(underlying.Symbol)); found {
		spot = price
	}

	return eventservices.CollectStrikes(s.catalog.Instruments(), underlying.CatalogName, expiry, spot, s.config.StrikeBand), nil
}

// OptionQuote resolves a contract through the catalog and fetches its live
// quote. On a fetch failure the last cached quote is returned with Stale
// forced; with no cache either, the error wraps ErrNoCachedQuote. Prices
// are never invented.
func (s *MarketDataService) OptionQuote(ctx context.Context, symbol eventmodels.UnderlyingSymbol, expiry time.Time, strike float64, side eventmodels.OptionSide) (eventmodels.OptionQuote, error) {
	underlying, err := s.config.GetUnderlying(symbol)
	if err != nil {
		return eventmodels.OptionQuote{}, eventmodels.NewWebError(404, fmt.Sprintf("unknown instrument: %s", symbol), err)
	}

	if err := s.ensureCatalog(ctx, "MarketDataService.OptionQuote"); err != nil {
		return eventmodels.OptionQuote{}, fmt.Errorf("MarketDataService.OptionQuote: catalog unavailable: %w", err)
	}

	contract, err := eventservices.ResolveOptionContract(s.catalog.Instruments(), underlying.CatalogName, expiry, strike, side)
	if err != nil {
		return eventmodels.OptionQuote{}, fmt.Errorf("MarketDataService.OptionQuote: %w", err)
	}

	quoteKey := contract.QuoteKey()

	quotes, fetchErr := s.provider.GetQuotes(ctx, []string{quoteKey})
	if fetchErr == nil {
		dto, found := quotes[quoteKey]
		if found {
			quote := dto.ToOptionQuote(contract.TradingSymbol, time.Now())
			s.quoteCache.Put(quote)
			return quote, nil
		}

		fetchErr = fmt.Errorf("provider returned no quote for %s", quoteKey)
	}

	if cached, found := s.quoteCache.Get(contract.TradingSymbol); found {
		log.Warnf("MarketDataService.OptionQuote: serving cached quote for %s: %v", contract.TradingSymbol, fetchErr)
		cached.Stale = true
		return cached, nil
	}

	return eventmodels.OptionQuote{}, fmt.Errorf("MarketDataService.OptionQuote: %v: %w", fetchErr, eventmodels.ErrNoCachedQuote)
}

// RestoreFromStore reloads the persisted snapshot at boot. Whatever comes
// back is served immediately but flagged stale until the next live fetch.
func (s *MarketDataService) RestoreFromStore(ctx context.Context) error {
	snapshot, found, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("MarketDataService.RestoreFromStore: %w", err)
	}

	if !found {
		log.Info("MarketDataService: no persisted snapshot yet")
		return nil
	}

	s.spotCache.Replace(snapshot.ToSpotSnapshot())
	s.quoteCache.Restore(snapshot.Chain)

	log.Infof("MarketDataService: restored snapshot from %s", snapshot.CachedAt.Format("2006-01-02 15:04:05"))

	return nil
}
