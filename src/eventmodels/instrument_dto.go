package eventmodels

import (
	"fmt"
	"time"
)

// InstrumentDTO maps one row of the exchange instrument dump, which the
// provider serves as CSV.
type InstrumentDTO struct {
	InstrumentToken uint32  `csv:"instrument_token"`
	ExchangeToken   uint32  `csv:"exchange_token"`
	TradingSymbol   string  `csv:"tradingsymbol"`
	Name            string  `csv:"name"`
	LastPrice       float64 `csv:"last_price"`
	Expiry          string  `csv:"expiry"`
	Strike          float64 `csv:"strike"`
	TickSize        float64 `csv:"tick_size"`
	LotSize         int     `csv:"lot_size"`
	InstrumentType  string  `csv:"instrument_type"`
	Segment         string  `csv:"segment"`
	Exchange        string  `csv:"exchange"`
}

func (dto *InstrumentDTO) ToInstrument() (Instrument, error) {
	instrumentType := InstrumentType(dto.InstrumentType)
	if err := instrumentType.Validate(); err != nil {
		return Instrument{}, fmt.Errorf("InstrumentDTO.ToInstrument: %w", err)
	}

	if dto.Expiry == "" {
		return Instrument{}, fmt.Errorf("InstrumentDTO.ToInstrument: missing expiry for %s", dto.TradingSymbol)
	}

	expiry, err := time.Parse("2006-01-02", dto.Expiry)
	if err != nil {
		return Instrument{}, fmt.Errorf("InstrumentDTO.ToInstrument: failed to parse expiry %q: %w", dto.Expiry, err)
	}

	return Instrument{
		Underlying:    dto.Name,
		TradingSymbol: dto.TradingSymbol,
		Exchange:      dto.Exchange,
		Segment:       dto.Segment,
		Expiry:        expiry,
		Strike:        dto.Strike,
		Type:          instrumentType,
		LotSize:       dto.LotSize,
	}, nil
}
