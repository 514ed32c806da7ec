package eventmodels

import "time"

// KiteQuoteDTO is one entry of the quote API response. The greeks block is
// not guaranteed by the provider; fields stay nil when absent.
type KiteQuoteDTO struct {
	InstrumentToken   int64    `json:"instrument_token"`
	LastPrice         float64  `json:"last_price"`
	OI                float64  `json:"oi"`
	ImpliedVolatility *float64 `json:"implied_volatility,omitempty"`
	Delta             *float64 `json:"delta,omitempty"`
	Gamma             *float64 `json:"gamma,omitempty"`
	Theta             *float64 `json:"theta,omitempty"`
	Vega              *float64 `json:"vega,omitempty"`
}

func (dto KiteQuoteDTO) ToOptionQuote(symbol string, now time.Time) OptionQuote {
	return OptionQuote{
		Symbol:            symbol,
		LastPrice:         dto.LastPrice,
		OpenInterest:      dto.OI,
		ImpliedVolatility: dto.ImpliedVolatility,
		Delta:             dto.Delta,
		Gamma:             dto.Gamma,
		Theta:             dto.Theta,
		Vega:              dto.Vega,
		CachedAt:          now,
		Stale:             false,
	}
}

type KiteQuotesResponseDTO struct {
	Status string                  `json:"status"`
	Data   map[string]KiteQuoteDTO `json:"data"`
}

type KiteErrorDTO struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
}

type KiteSessionResponseDTO struct {
	Status string `json:"status"`
	Data   struct {
		UserID      string `json:"user_id"`
		UserName    string `json:"user_name"`
		AccessToken string `json:"access_token"`
		PublicToken string `json:"public_token"`
	} `json:"data"`
}
