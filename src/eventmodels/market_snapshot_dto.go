package eventmodels

import "time"

// MarketSnapshotDTO is the persisted image of the market caches: the spot
// snapshot plus whichever option quotes were cached when it was written.
type MarketSnapshotDTO struct {
	CachedAt time.Time                    `json:"cached_at"`
	Spot     map[UnderlyingSymbol]float64 `json:"spot"`
	LotSizes map[UnderlyingSymbol]int     `json:"lot_sizes"`
	Chain    map[string]OptionQuote       `json:"chain,omitempty"`
}

func NewMarketSnapshotDTO(snapshot *SpotSnapshot, chain map[string]OptionQuote) *MarketSnapshotDTO {
	if snapshot == nil {
		return nil
	}

	return &MarketSnapshotDTO{
		CachedAt: snapshot.CachedAt,
		Spot:     snapshot.Spot,
		LotSizes: snapshot.LotSizes,
		Chain:    chain,
	}
}

// ToSpotSnapshot rebuilds the in-memory snapshot. A restored snapshot keeps
// its prices and timestamp but reports stale until the next refresh lands.
func (dto *MarketSnapshotDTO) ToSpotSnapshot() *SpotSnapshot {
	return &SpotSnapshot{
		Spot:     dto.Spot,
		LotSizes: dto.LotSizes,
		CachedAt: dto.CachedAt,
		Restored: true,
	}
}
