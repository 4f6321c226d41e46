// Package domain defines core data structures shared by the market core.
package domain

// Token is the metadata resolved for a denom or a symbol.
type Token struct {
	// Symbol is the ticker symbol, e.g. "INJ".
	Symbol string `json:"symbol" yaml:"symbol"`
	// Name is the human readable name.
	Name string `json:"name,omitempty" yaml:"name"`
	// Denom is the on-chain denomination the token was resolved for.
	Denom string `json:"denom,omitempty" yaml:"denom"`
	// Decimals is the exponent between the on-chain integer amount and the human amount.
	Decimals int32 `json:"decimals" yaml:"decimals"`
	// CoinGeckoID is the id used by USD price feeds.
	CoinGeckoID string `json:"coinGeckoId,omitempty" yaml:"coingecko_id"`
	// Address is the ERC20 contract address of peggy tokens.
	Address string `json:"address,omitempty" yaml:"address"`
}

// WithDenom returns a copy of the token bound to denom.
func (t Token) WithDenom(denom string) Token {
	if denom != "" {
		t.Denom = denom
	}

	return t
}

// DenomTrace is the IBC denom trace (path + base denom) for an ibc/ hashed denom.
type DenomTrace struct {
	Path      string `json:"path" yaml:"path"`
	BaseDenom string `json:"baseDenom" yaml:"base_denom"`
}
