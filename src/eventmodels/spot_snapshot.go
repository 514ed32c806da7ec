package eventmodels

import "time"

// FreshnessWindow is the single staleness threshold shared by the health
// check, the latest-data endpoint and per-quote responses.
const FreshnessWindow = 120 * time.Second

// SpotSnapshot holds the last-known index prices from one fetch cycle.
// Snapshots are replaced whole, never mutated in place. Restored marks a
// snapshot loaded back from durable storage: it keeps its original prices
// and CachedAt but is reported stale until the next live fetch.
type SpotSnapshot struct {
	Spot     map[UnderlyingSymbol]float64 `json:"spot"`
	LotSizes map[UnderlyingSymbol]int     `json:"lot_sizes"`
	CachedAt time.Time                    `json:"cached_at"`
	Restored bool                         `json:"-"`
}

func (s *SpotSnapshot) Stale(now time.Time) bool {
	if s == nil || s.CachedAt.IsZero() {
		return true
	}

	if s.Restored {
		return true
	}

	return now.Sub(s.CachedAt) > FreshnessWindow
}

func (s *SpotSnapshot) Price(symbol UnderlyingSymbol) (float64, bool) {
	if s == nil {
		return 0, false
	}

	price, found := s.Spot[symbol]
	return price, found
}
