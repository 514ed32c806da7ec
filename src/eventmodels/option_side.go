package eventmodels

import (
	"fmt"
	"strings"
)

// OptionSide is the request-facing call/put selector. The storefront sends
// either the exchange codes (CE/PE) or the spelled-out side (CALL/PUT).
type OptionSide string

const (
	OptionSideCall OptionSide = "CALL"
	OptionSidePut  OptionSide = "PUT"
)

func ParseOptionSide(value string) (OptionSide, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CE", "CALL", "C":
		return OptionSideCall, nil
	case "PE", "PUT", "P":
		return OptionSidePut, nil
	default:
		return "", fmt.Errorf("ParseOptionSide: invalid option side: %s", value)
	}
}

func (s OptionSide) InstrumentType() InstrumentType {
	if s == OptionSidePut {
		return InstrumentTypePE
	}

	return InstrumentTypeCE
}
