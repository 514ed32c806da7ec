package eventmodels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpotSnapshotStale(t *testing.T) {
	now := time.Date(2025, 10, 24, 10, 30, 0, 0, time.UTC)

	t.Run("nil snapshot is stale", func(t *testing.T) {
		var snapshot *SpotSnapshot
		assert.True(t, snapshot.Stale(now))
	})

	t.Run("zero cached at is stale", func(t *testing.T) {
		snapshot := &SpotSnapshot{
			Spot: map[UnderlyingSymbol]float64{"NIFTY_50": 25900.5},
		}
		assert.True(t, snapshot.Stale(now))
	})

	t.Run("fresh within window", func(t *testing.T) {
		snapshot := &SpotSnapshot{
			Spot:     map[UnderlyingSymbol]float64{"NIFTY_50": 25900.5},
			CachedAt: now.Add(-30 * time.Second),
		}
		assert.False(t, snapshot.Stale(now))
	})

	t.Run("stale past window", func(t *testing.T) {
		snapshot := &SpotSnapshot{
			Spot:     map[UnderlyingSymbol]float64{"NIFTY_50": 25900.5},
			CachedAt: now.Add(-FreshnessWindow - time.Second),
		}
		assert.True(t, snapshot.Stale(now))
	})

	t.Run("staleness is monotonic in elapsed time", func(t *testing.T) {
		snapshot := &SpotSnapshot{
			Spot:     map[UnderlyingSymbol]float64{"NIFTY_50": 25900.5},
			CachedAt: now,
		}

		wasStale := false
		for _, elapsed := range []time.Duration{0, 30 * time.Second, 90 * time.Second, 150 * time.Second, time.Hour} {
			stale := snapshot.Stale(now.Add(elapsed))
			if wasStale {
				assert.True(t, stale, "snapshot went fresh again after %s", elapsed)
			}
			wasStale = stale
		}
		assert.True(t, wasStale)
	})

	t.Run("restored snapshot is stale even when recent", func(t *testing.T) {
		snapshot := &SpotSnapshot{
			Spot:     map[UnderlyingSymbol]float64{"NIFTY_50": 25900.5},
			CachedAt: now.Add(-5 * time.Second),
			Restored: true,
		}
		assert.True(t, snapshot.Stale(now))
	})
}

func TestSpotSnapshotPrice(t *testing.T) {
	snapshot := &SpotSnapshot{
		Spot: map[UnderlyingSymbol]float64{"NIFTY_50": 25900.5},
	}

	t.Run("known symbol", func(t *testing.T) {
		price, found := snapshot.Price("NIFTY_50")
		assert.True(t, found)
		assert.Equal(t, 25900.5, price)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, found := snapshot.Price("BANKNIFTY")
		assert.False(t, found)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		var empty *SpotSnapshot
		_, found := empty.Price("NIFTY_50")
		assert.False(t, found)
	})
}
