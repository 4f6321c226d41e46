package domain

import "github.com/shopspring/decimal"

// BankBalances maps a denom to its on-chain amount.
type BankBalances map[string]decimal.Decimal

// Coin is a single bank balance entry as returned by the chain.
type Coin struct {
	Denom  string          `json:"denom"`
	Amount decimal.Decimal `json:"amount"`
}

// BankBalanceWithToken is a bank balance joined with its token metadata.
type BankBalanceWithToken struct {
	Denom   string          `json:"denom"`
	Balance decimal.Decimal `json:"balance"`
	Token   Token           `json:"token"`
}

// SubaccountBalance is the balance of a denom held by a subaccount.
type SubaccountBalance struct {
	Denom            string          `json:"denom"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
}

// Subaccount is a subaccount id with its balances.
type Subaccount struct {
	SubaccountID string              `json:"subaccountId"`
	Balances     []SubaccountBalance `json:"balances,omitempty"`
}

// SubaccountBalanceWithToken is a subaccount balance joined with token meta and USD price.
type SubaccountBalanceWithToken struct {
	SubaccountBalance

	Token      Token           `json:"token"`
	PriceInUSD decimal.Decimal `json:"priceInUsd"`
}

// AccountPortfolio is the aggregated portfolio value of an account.
type AccountPortfolio struct {
	PortfolioValue   decimal.Decimal `json:"portfolioValue"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	LockedBalance    decimal.Decimal `json:"lockedBalance"`
	UnrealizedPnl    decimal.Decimal `json:"unrealizedPnl"`
}
