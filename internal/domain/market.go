package domain

import "github.com/shopspring/decimal"

// RawMarket is a vendor shaped market record as returned by the exchange API.
type RawMarket struct {
	MarketID            string          `json:"marketId"`
	MarketStatus        string          `json:"marketStatus,omitempty"`
	Ticker              string          `json:"ticker"`
	OracleBase          string          `json:"oracleBase,omitempty"`
	OracleQuote         string          `json:"oracleQuote,omitempty"`
	BaseDenom           string          `json:"baseDenom,omitempty"`
	QuoteDenom          string          `json:"quoteDenom"`
	MakerFeeRate        decimal.Decimal `json:"makerFeeRate"`
	TakerFeeRate        decimal.Decimal `json:"takerFeeRate"`
	MinPriceTickSize    decimal.Decimal `json:"minPriceTickSize"`
	MinQuantityTickSize decimal.Decimal `json:"minQuantityTickSize"`
	IsPerpetual         bool            `json:"isPerpetual,omitempty"`
	// QuoteToken is the embedded quote token meta, present on newer API versions.
	QuoteToken *Token `json:"quoteToken,omitempty"`
}

// UiMarket is a market joined with resolved token metadata and display settings.
type UiMarket struct {
	RawMarket

	Slug             string     `json:"slug"`
	BaseToken        Token      `json:"baseToken"`
	QuoteToken       Token      `json:"quoteToken"`
	PriceDecimals    int32      `json:"priceDecimals"`
	QuantityDecimals int32      `json:"quantityDecimals"`
	Type             MarketType `json:"type"`
	SubType          MarketType `json:"subType"`
}
