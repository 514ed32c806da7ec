package eventmodels

import (
	"fmt"
	"time"
)

type InstrumentType string

const (
	InstrumentTypeCE  InstrumentType = "CE"
	InstrumentTypePE  InstrumentType = "PE"
	InstrumentTypeFUT InstrumentType = "FUT"
)

func (t InstrumentType) Validate() error {
	if t != InstrumentTypeCE && t != InstrumentTypePE && t != InstrumentTypeFUT {
		return fmt.Errorf("InstrumentType: Validate: invalid instrument type: %s", t)
	}

	return nil
}

func (t InstrumentType) IsOption() bool {
	return t == InstrumentTypeCE || t == InstrumentTypePE
}

// Instrument is one tradable contract from the exchange instrument dump.
// Expiry carries a calendar date only; Strike is 0 for futures.
type Instrument struct {
	Underlying    string
	TradingSymbol string
	Exchange      string
	Segment       string
	Expiry        time.Time
	Strike        float64
	Type          InstrumentType
	LotSize       int
}

// QuoteKey returns the exchange-qualified identifier the quote endpoint
// expects, e.g. "NFO:NIFTY25O2825900CE".
func (i Instrument) QuoteKey() string {
	return fmt.Sprintf("%s:%s", i.Exchange, i.TradingSymbol)
}
