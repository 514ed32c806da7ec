package eventconsumers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hedgeai/marketdata/src/data"
	"github.com/hedgeai/marketdata/src/eventmodels"
)

type workerProvider struct {
	mtx          sync.Mutex
	catalog      []eventmodels.Instrument
	catalogErr   error
	catalogCalls int
	quotes       map[string]eventmodels.KiteQuoteDTO
	quotesErr    error
	quoteCalls   int
	lastKeys     []string
}

func (p *workerProvider) GetQuotes(ctx context.Context, keys []string) (map[string]eventmodels.KiteQuoteDTO, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.quoteCalls++
	p.lastKeys = append([]string{}, keys...)

	if p.quotesErr != nil {
		return nil, p.quotesErr
	}

	return p.quotes, nil
}

func (p *workerProvider) GetInstrumentCatalog(ctx context.Context, exchange string) ([]eventmodels.Instrument, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.catalogCalls++

	if p.catalogErr != nil {
		return nil, p.catalogErr
	}

	return p.catalog, nil
}

func (p *workerProvider) calls() (int, int) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.quoteCalls, p.catalogCalls
}

type staticToken struct {
	token string
}

func (s staticToken) Token() (string, bool) {
	return s.token, s.token != ""
}

type workerStore struct {
	mtx         sync.Mutex
	snapshot    *eventmodels.MarketSnapshotDTO
	snapshotErr error
	saves       int
}

func (s *workerStore) SaveCredential(ctx context.Context, accessToken string) error {
	return nil
}

func (s *workerStore) LoadCredential(ctx context.Context) (string, bool, error) {
	return "", false, nil
}

func (s *workerStore) SaveSnapshot(ctx context.Context, snapshot *eventmodels.MarketSnapshotDTO) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.saves++

	if s.snapshotErr != nil {
		return s.snapshotErr
	}

	s.snapshot = snapshot
	return nil
}

func (s *workerStore) LoadSnapshot(ctx context.Context) (*eventmodels.MarketSnapshotDTO, bool, error) {
	return nil, false, nil
}

func (s *workerStore) saved() (*eventmodels.MarketSnapshotDTO, int) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.snapshot, s.saves
}

type workerFixture struct {
	provider   *workerProvider
	store      *workerStore
	spotCache  *data.SpotCache
	quoteCache *data.QuoteCache
	worker     *MarketDataWorker
	wg         *sync.WaitGroup
}

func newWorkerFixture(t *testing.T, token string) *workerFixture {
	t.Helper()

	underlyings := []eventmodels.TrackedUnderlying{
		{Symbol: "NIFTY_50", QuoteKey: "NSE:NIFTY 50", CatalogName: "NIFTY", LotSize: 75},
		{Symbol: "BANKNIFTY", QuoteKey: "NSE:NIFTY BANK", CatalogName: "BANKNIFTY", LotSize: 35},
	}

	provider := &workerProvider{
		catalog: []eventmodels.Instrument{
			{
				Underlying:    "NIFTY",
				TradingSymbol: "NIFTY25OCT25900CE",
				Exchange:      "NFO",
				Segment:       "NFO-OPT",
				Expiry:        time.Date(2025, 10, 28, 0, 0, 0, 0, time.UTC),
				Strike:        25900,
				Type:          eventmodels.InstrumentTypeCE,
				LotSize:       75,
			},
		},
	}

	store := &workerStore{}
	spotCache := data.NewSpotCache()
	quoteCache := data.NewQuoteCache()
	catalog := data.NewCatalogCache(provider, "NFO", time.Hour)

	wg := &sync.WaitGroup{}
	worker := NewMarketDataWorker(wg, underlyings, staticToken{token: token}, provider, catalog, spotCache, quoteCache, store, 5*time.Millisecond)

	return &workerFixture{
		provider:   provider,
		store:      store,
		spotCache:  spotCache,
		quoteCache: quoteCache,
		worker:     worker,
		wg:         wg,
	}
}

func TestMarketDataWorkerRunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("caches spot and persists snapshot", func(t *testing.T) {
		fixture := newWorkerFixture(t, "tok_abcdef")
		fixture.provider.quotes = map[string]eventmodels.KiteQuoteDTO{
			"NSE:NIFTY 50":   {LastPrice: 25977.4},
			"NSE:NIFTY BANK": {LastPrice: 57123.85},
		}
		fixture.quoteCache.Put(eventmodels.OptionQuote{Symbol: "NIFTY25OCT25900CE", LastPrice: 143.2, CachedAt: time.Now()})

		fixture.worker.runCycle(ctx)

		snapshot := fixture.spotCache.Current()
		require.NotNil(t, snapshot)
		assert.Equal(t, 25977.4, snapshot.Spot["NIFTY_50"])
		assert.Equal(t, 57123.85, snapshot.Spot["BANKNIFTY"])
		assert.Equal(t, 75, snapshot.LotSizes["NIFTY_50"])
		assert.Equal(t, 35, snapshot.LotSizes["BANKNIFTY"])
		assert.WithinDuration(t, time.Now(), snapshot.CachedAt, 2*time.Second)
		assert.False(t, snapshot.Stale(time.Now()))

		saved, saves := fixture.store.saved()
		require.Equal(t, 1, saves)
		require.NotNil(t, saved)
		assert.Equal(t, 25977.4, saved.Spot["NIFTY_50"])
		assert.Equal(t, 75, saved.LotSizes["NIFTY_50"])
		assert.Contains(t, saved.Chain, "NIFTY25OCT25900CE")

		quoteCalls, catalogCalls := fixture.provider.calls()
		assert.Equal(t, 1, quoteCalls)
		assert.Equal(t, 1, catalogCalls)
		assert.ElementsMatch(t, []string{"NSE:NIFTY 50", "NSE:NIFTY BANK"}, fixture.provider.lastKeys)
	})

	t.Run("skips cycle without credential", func(t *testing.T) {
		fixture := newWorkerFixture(t, "")

		fixture.worker.runCycle(ctx)

		quoteCalls, catalogCalls := fixture.provider.calls()
		assert.Equal(t, 0, quoteCalls)
		assert.Equal(t, 0, catalogCalls)
		assert.Nil(t, fixture.spotCache.Current())
	})

	t.Run("keeps previous snapshot when fetch fails", func(t *testing.T) {
		fixture := newWorkerFixture(t, "tok_abcdef")
		previous := &eventmodels.SpotSnapshot{
			Spot:     map[eventmodels.UnderlyingSymbol]float64{"NIFTY_50": 25900},
			LotSizes: map[eventmodels.UnderlyingSymbol]int{"NIFTY_50": 75},
			CachedAt: time.Now().Add(-time.Minute),
		}
		fixture.spotCache.Replace(previous)
		fixture.provider.quotesErr = errors.New("gateway timeout")

		fixture.worker.runCycle(ctx)

		assert.Same(t, previous, fixture.spotCache.Current())

		_, saves := fixture.store.saved()
		assert.Equal(t, 0, saves)
	})

	t.Run("partial response still replaces snapshot", func(t *testing.T) {
		fixture := newWorkerFixture(t, "tok_abcdef")
		fixture.provider.quotes = map[string]eventmodels.KiteQuoteDTO{
			"NSE:NIFTY 50": {LastPrice: 25871.1},
		}

		fixture.worker.runCycle(ctx)

		snapshot := fixture.spotCache.Current()
		require.NotNil(t, snapshot)
		assert.Equal(t, 25871.1, snapshot.Spot["NIFTY_50"])
		assert.NotContains(t, snapshot.Spot, eventmodels.UnderlyingSymbol("BANKNIFTY"))
		assert.Equal(t, 35, snapshot.LotSizes["BANKNIFTY"])
	})

	t.Run("keeps previous snapshot when response is empty", func(t *testing.T) {
		fixture := newWorkerFixture(t, "tok_abcdef")
		previous := &eventmodels.SpotSnapshot{
			Spot:     map[eventmodels.UnderlyingSymbol]float64{"NIFTY_50": 25900},
			CachedAt: time.Now().Add(-time.Minute),
		}
		fixture.spotCache.Replace(previous)
		fixture.provider.quotes = map[string]eventmodels.KiteQuoteDTO{}

		fixture.worker.runCycle(ctx)

		assert.Same(t, previous, fixture.spotCache.Current())
	})

	t.Run("persistence failure keeps cache update", func(t *testing.T) {
		fixture := newWorkerFixture(t, "tok_abcdef")
		fixture.provider.quotes = map[string]eventmodels.KiteQuoteDTO{
			"NSE:NIFTY 50": {LastPrice: 25977.4},
		}
		fixture.store.snapshotErr = errors.New("disk full")

		fixture.worker.runCycle(ctx)

		snapshot := fixture.spotCache.Current()
		require.NotNil(t, snapshot)
		assert.Equal(t, 25977.4, snapshot.Spot["NIFTY_50"])

		_, saves := fixture.store.saved()
		assert.Equal(t, 1, saves)
	})

	t.Run("catalog failure does not block spot refresh", func(t *testing.T) {
		fixture := newWorkerFixture(t, "tok_abcdef")
		fixture.provider.catalogErr = errors.New("instrument dump unavailable")
		fixture.provider.quotes = map[string]eventmodels.KiteQuoteDTO{
			"NSE:NIFTY 50": {LastPrice: 25977.4},
		}

		fixture.worker.runCycle(ctx)

		snapshot := fixture.spotCache.Current()
		require.NotNil(t, snapshot)
		assert.Equal(t, 25977.4, snapshot.Spot["NIFTY_50"])
	})
}

func TestMarketDataWorkerStart(t *testing.T) {
	fixture := newWorkerFixture(t, "tok_abcdef")
	fixture.provider.quotes = map[string]eventmodels.KiteQuoteDTO{
		"NSE:NIFTY 50": {LastPrice: 25977.4},
	}

	ctx, cancel := context.WithCancel(context.Background())

	fixture.worker.Start(ctx)

	assert.Eventually(t, func() bool {
		quoteCalls, _ := fixture.provider.calls()
		return quoteCalls >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	fixture.wg.Wait()

	require.NotNil(t, fixture.spotCache.Current())
}
