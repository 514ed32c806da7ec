package eventservices

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hedgeai/marketdata/src/eventmodels"
	"github.com/hedgeai/marketdata/src/utils"
)

// Strikes arrive as floats from the instrument dump; two values closer than
// this are the same strike.
const strikeEpsilon = 0.01

func optionsForUnderlying(instruments []eventmodels.Instrument, catalogName string) []eventmodels.Instrument {
	options := make([]eventmodels.Instrument, 0)
	for _, instrument := range instruments {
		if instrument.Underlying != catalogName {
			continue
		}

		if !instrument.Type.IsOption() {
			continue
		}

		options = append(options, instrument)
	}

	return options
}

// ResolveOptionContract finds the listed contract matching an expiry date,
// strike and side. Matching is by calendar date and epsilon strike compare,
// never by assembling a trading symbol from its parts.
func ResolveOptionContract(instruments []eventmodels.Instrument, catalogName string, expiry time.Time, strike float64, side eventmodels.OptionSide) (eventmodels.Instrument, error) {
	instrumentType := side.InstrumentType()

	for _, instrument := range optionsForUnderlying(instruments, catalogName) {
		if instrument.Type != instrumentType {
			continue
		}

		if !utils.SameCalendarDate(instrument.Expiry, expiry) {
			continue
		}

		if math.Abs(instrument.Strike-strike) > strikeEpsilon {
			continue
		}

		return instrument, nil
	}

	return eventmodels.Instrument{}, fmt.Errorf("ResolveOptionContract: %s %s %.2f %s: %w", catalogName, expiry.Format("2006-01-02"), strike, side, eventmodels.ErrContractNotFound)
}

// CollectExpiries returns the distinct expiry dates listed for an
// underlying's options, soonest first, capped at max.
func CollectExpiries(instruments []eventmodels.Instrument, catalogName string, max int) []eventmodels.Expiry {
	seen := make(map[time.Time]struct{})
	dates := make([]time.Time, 0)

	for _, instrument := range optionsForUnderlying(instruments, catalogName) {
		if _, found := seen[instrument.Expiry]; found {
			continue
		}

		seen[instrument.Expiry] = struct{}{}
		dates = append(dates, instrument.Expiry)
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	if max > 0 && len(dates) > max {
		dates = dates[:max]
	}

	expiries := make([]eventmodels.Expiry, 0, len(dates))
	for _, date := range dates {
		expiries = append(expiries, eventmodels.NewExpiry(date))
	}

	return expiries
}

// CollectStrikes returns the distinct strikes listed for an underlying's
// options on one expiry date, ascending. When a positive spot and band are
// given the list is narrowed to [spot-band, spot+band]; if that window
// matches nothing the full list is returned so callers always see the real
// ladder.
func CollectStrikes(instruments []eventmodels.Instrument, catalogName string, expiry time.Time, spot, band float64) []float64 {
	strikes := make([]float64, 0)

	for _, instrument := range optionsForUnderlying(instruments, catalogName) {
		if !utils.SameCalendarDate(instrument.Expiry, expiry) {
			continue
		}

		duplicate := false
		for _, strike := range strikes {
			if math.Abs(strike-instrument.Strike) <= strikeEpsilon {
				duplicate = true
				break
			}
		}

		if !duplicate {
			strikes = append(strikes, instrument.Strike)
		}
	}

	sort.Float64s(strikes)

	if spot <= 0 || band <= 0 {
		return strikes
	}

	banded := make([]float64, 0, len(strikes))
	for _, strike := range strikes {
		if strike >= spot-band && strike <= spot+band {
			banded = append(banded, strike)
		}
	}

	if len(banded) == 0 {
		return strikes
	}

	return banded
}
