package eventconsumers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/hedgeai/marketdata/src/data"
	"github.com/hedgeai/marketdata/src/eventmodels"
	"github.com/hedgeai/marketdata/src/eventservices"
)

// MarketDataWorker polls the provider for spot prices of the tracked
// underlyings and is the only writer of the spot snapshot. Every cycle
// error is logged and swallowed; the loop ends only with the context.
type MarketDataWorker struct {
	wg          *sync.WaitGroup
	underlyings []eventmodels.TrackedUnderlying
	credentials eventservices.CredentialSource
	provider    eventmodels.MarketDataProvider
	catalog     *data.CatalogCache
	spotCache   *data.SpotCache
	quoteCache  *data.QuoteCache
	store       data.Store
	interval    time.Duration
}

func NewMarketDataWorker(wg *sync.WaitGroup, underlyings []eventmodels.TrackedUnderlying, credentials eventservices.CredentialSource, provider eventmodels.MarketDataProvider, catalog *data.CatalogCache, spotCache *data.SpotCache, quoteCache *data.QuoteCache, store data.Store, interval time.Duration) *MarketDataWorker {
	if interval <= 0 {
		interval = 60 * time.Second
	}

	return &MarketDataWorker{
		wg:          wg,
		underlyings: underlyings,
		credentials: credentials,
		provider:    provider,
		catalog:     catalog,
		spotCache:   spotCache,
		quoteCache:  quoteCache,
		store:       store,
		interval:    interval,
	}
}

func (w *MarketDataWorker) runCycle(ctx context.Context) {
	logger := log.WithField("cycle", uuid.NewString())

	if _, present := w.credentials.Token(); !present {
		// expected before the first admin token of the day
		logger.Debug("MarketDataWorker: no access token loaded, skipping cycle")
		return
	}

	if err := w.catalog.Ensure(ctx); err != nil {
		logger.Warnf("MarketDataWorker: catalog refresh failed: %v", err)
	}

	keys := make([]string, 0, len(w.underlyings))
	for _, underlying := range w.underlyings {
		keys = append(keys, underlying.QuoteKey)
	}

	quotes, err := w.provider.GetQuotes(ctx, keys)
	if err != nil {
		logger.Errorf("MarketDataWorker: failed to fetch quotes, keeping previous snapshot: %v", err)
		return
	}

	now := time.Now()
	spot := make(map[eventmodels.UnderlyingSymbol]float64)
	lotSizes := make(map[eventmodels.UnderlyingSymbol]int)

	for _, underlying := range w.underlyings {
		lotSizes[underlying.Symbol] = underlying.LotSize

		quote, found := quotes[underlying.QuoteKey]
		if !found {
			logger.Warnf("MarketDataWorker: no quote for %s", underlying.QuoteKey)
			continue
		}

		spot[underlying.Symbol] = quote.LastPrice
	}

	if len(spot) == 0 {
		logger.Warn("MarketDataWorker: response contained no spot prices, keeping previous snapshot")
		return
	}

	snapshot := &eventmodels.SpotSnapshot{
		Spot:     spot,
		LotSizes: lotSizes,
		CachedAt: now,
	}

	w.spotCache.Replace(snapshot)

	if err := w.store.SaveSnapshot(ctx, eventmodels.NewMarketSnapshotDTO(snapshot, w.quoteCache.Snapshot())); err != nil {
		// the in-memory cache is already updated, only durability suffered
		logger.Errorf("MarketDataWorker: failed to persist snapshot: %v", err)
	}

	logger.Infof("MarketDataWorker: cached spot for %d of %d underlyings", len(spot), len(w.underlyings))
}

func (w *MarketDataWorker) Start(ctx context.Context) {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()

		// fires immediately, then sleep-after-work below
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("stopping MarketDataWorker consumer")
				return
			case <-timer.C:
				w.runCycle(ctx)

				// interval is measured from the end of the cycle so a slow
				// upstream cannot pipeline overlapping fetches
				timer.Reset(w.interval)
			}
		}
	}()
}
