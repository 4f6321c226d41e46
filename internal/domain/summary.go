package domain

import "github.com/shopspring/decimal"

// Change is the direction of the last price move.
type Change string

const (
	ChangeIncrease Change = "increase"
	ChangeDecrease Change = "decrease"
	ChangeNoChange Change = "no-change"
)

// MarketSummary is the 24h summary of a market, keyed by market id.
type MarketSummary struct {
	MarketID string          `json:"marketId"`
	Price    decimal.Decimal `json:"price"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Volume   decimal.Decimal `json:"volume"`
	Change   decimal.Decimal `json:"change"`

	// LastPrice is the price held before the latest refresh.
	LastPrice decimal.NullDecimal `json:"lastPrice"`
	// LastPriceChange is the direction from LastPrice to Price.
	LastPriceChange Change `json:"lastPriceChange,omitempty"`
}

// MarketAndSummary pairs a market with its current summary.
type MarketAndSummary struct {
	Market  UiMarket      `json:"market"`
	Summary MarketSummary `json:"summary"`
}
