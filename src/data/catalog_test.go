package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hedgeai/marketdata/src/eventmodels"
)

func niftyCallRow(expiry time.Time, strike float64) eventmodels.Instrument {
	return eventmodels.Instrument{
		Underlying:    "NIFTY",
		TradingSymbol: fmt.Sprintf("NIFTY-TEST-%0.f", strike),
		Exchange:      "NFO",
		Segment:       "NFO-OPT",
		Expiry:        expiry,
		Strike:        strike,
		Type:          eventmodels.InstrumentTypeCE,
		LotSize:       75,
	}
}

func TestCatalogCacheEnsure(t *testing.T) {
	ctx := context.Background()
	expiry := time.Date(2025, 10, 28, 0, 0, 0, 0, time.UTC)

	t.Run("repeated calls within floor fetch once", func(t *testing.T) {
		provider := &fakeProvider{catalog: []eventmodels.Instrument{niftyCallRow(expiry, 25900)}}
		catalog := NewCatalogCache(provider, "NFO", time.Hour)

		for i := 0; i < 5; i++ {
			assert.NoError(t, catalog.Ensure(ctx))
		}

		assert.Equal(t, 1, provider.catalogCalls)
		assert.Len(t, catalog.Instruments(), 1)
	})

	t.Run("failure keeps rows and retries immediately", func(t *testing.T) {
		provider := &fakeProvider{catalog: []eventmodels.Instrument{niftyCallRow(expiry, 25900)}}
		catalog := NewCatalogCache(provider, "NFO", time.Hour)
		assert.NoError(t, catalog.Ensure(ctx))

		catalog.Invalidate()
		provider.catalogErr = fmt.Errorf("connection reset")

		err := catalog.Ensure(ctx)
		assert.Error(t, err)
		assert.Len(t, catalog.Instruments(), 1, "failed refresh must not drop rows")

		// floor not advanced by the failure, next call hits upstream again
		provider.catalogErr = nil
		provider.catalog = []eventmodels.Instrument{niftyCallRow(expiry, 25900), niftyCallRow(expiry, 25950)}
		assert.NoError(t, catalog.Ensure(ctx))
		assert.Len(t, catalog.Instruments(), 2)
		assert.Equal(t, 3, provider.catalogCalls)
	})

	t.Run("empty catalog counts as failure", func(t *testing.T) {
		provider := &fakeProvider{catalog: []eventmodels.Instrument{niftyCallRow(expiry, 25900)}}
		catalog := NewCatalogCache(provider, "NFO", time.Hour)
		assert.NoError(t, catalog.Ensure(ctx))

		catalog.Invalidate()
		provider.catalog = nil

		err := catalog.Ensure(ctx)
		assert.Error(t, err)
		assert.Len(t, catalog.Instruments(), 1)
	})

	t.Run("invalidate bypasses the floor", func(t *testing.T) {
		provider := &fakeProvider{catalog: []eventmodels.Instrument{niftyCallRow(expiry, 25900)}}
		catalog := NewCatalogCache(provider, "NFO", time.Hour)

		assert.NoError(t, catalog.Ensure(ctx))
		catalog.Invalidate()
		assert.NoError(t, catalog.Ensure(ctx))

		assert.Equal(t, 2, provider.catalogCalls)
	})

	t.Run("error propagates when no rows exist", func(t *testing.T) {
		provider := &fakeProvider{catalogErr: eventmodels.ErrNoCredential}
		catalog := NewCatalogCache(provider, "NFO", time.Hour)

		err := catalog.Ensure(ctx)
		assert.ErrorIs(t, err, eventmodels.ErrNoCredential)
		assert.Empty(t, catalog.Instruments())
	})
}
