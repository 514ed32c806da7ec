package eventmodels

import (
	"fmt"
	"strings"
)

// UnderlyingsConfigYAML is the static tracked-underlyings configuration,
// loaded once at startup. Exchange is the derivatives segment of the
// instrument dump (e.g. "NFO"); StrikeBand bounds the strike dropdown to
// spot ± band.
type UnderlyingsConfigYAML struct {
	Exchange    string           `yaml:"exchange"`
	StrikeBand  float64          `yaml:"strikeBand"`
	Underlyings []UnderlyingYAML `yaml:"underlyings"`
}

type UnderlyingYAML struct {
	Symbol      string `yaml:"symbol"`
	QuoteKey    string `yaml:"quoteKey"`
	CatalogName string `yaml:"catalogName"`
	LotSize     int    `yaml:"lotSize"`
}

func (c *UnderlyingsConfigYAML) Validate() error {
	if c.Exchange == "" {
		return fmt.Errorf("UnderlyingsConfigYAML: Validate: exchange is empty")
	}

	if c.StrikeBand < 0 {
		return fmt.Errorf("UnderlyingsConfigYAML: Validate: negative strike band: %f", c.StrikeBand)
	}

	if len(c.Underlyings) == 0 {
		return fmt.Errorf("UnderlyingsConfigYAML: Validate: no underlyings configured")
	}

	for _, u := range c.Underlyings {
		if u.Symbol == "" || u.QuoteKey == "" || u.CatalogName == "" {
			return fmt.Errorf("UnderlyingsConfigYAML: Validate: incomplete underlying entry: %+v", u)
		}

		if u.LotSize <= 0 {
			return fmt.Errorf("UnderlyingsConfigYAML: Validate: invalid lot size for %s: %d", u.Symbol, u.LotSize)
		}
	}

	return nil
}

func (c *UnderlyingsConfigYAML) GetUnderlying(symbol UnderlyingSymbol) (*UnderlyingYAML, error) {
	sym1 := strings.ToLower(string(symbol))
	for _, underlying := range c.Underlyings {
		sym2 := strings.ToLower(underlying.Symbol)
		if sym1 == sym2 {
			return &underlying, nil
		}
	}

	return nil, fmt.Errorf("UnderlyingsConfigYAML: underlying not found: %s", symbol)
}

func (c *UnderlyingsConfigYAML) TrackedUnderlyings() []TrackedUnderlying {
	tracked := make([]TrackedUnderlying, 0, len(c.Underlyings))
	for _, u := range c.Underlyings {
		tracked = append(tracked, TrackedUnderlying{
			Symbol:      UnderlyingSymbol(u.Symbol),
			QuoteKey:    u.QuoteKey,
			CatalogName: u.CatalogName,
			LotSize:     u.LotSize,
		})
	}

	return tracked
}
