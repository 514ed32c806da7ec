package eventmodels

import "time"

// OptionQuote is the cached quote for one option trading symbol. Greeks and
// IV are optional: the provider supplies them opportunistically and this
// service never derives them.
type OptionQuote struct {
	Symbol            string    `json:"symbol"`
	LastPrice         float64   `json:"last_price"`
	OpenInterest      float64   `json:"oi"`
	ImpliedVolatility *float64  `json:"iv,omitempty"`
	Delta             *float64  `json:"delta,omitempty"`
	Gamma             *float64  `json:"gamma,omitempty"`
	Theta             *float64  `json:"theta,omitempty"`
	Vega              *float64  `json:"vega,omitempty"`
	CachedAt          time.Time `json:"cached_at"`
	Stale             bool      `json:"stale"`
}

func (q OptionQuote) StaleAt(now time.Time) bool {
	if q.Stale {
		return true
	}

	return now.Sub(q.CachedAt) > FreshnessWindow
}
