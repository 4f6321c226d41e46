package domain

import "github.com/shopspring/decimal"

// Trade is an executed trade of a subaccount, spot or derivative.
type Trade struct {
	OrderHash         string          `json:"orderHash"`
	SubaccountID      string          `json:"subaccountId"`
	MarketID          string          `json:"marketId"`
	MarketType        MarketType      `json:"marketType,omitempty"`
	TradeDirection    string          `json:"tradeDirection"`
	ExecutionPrice    decimal.Decimal `json:"executionPrice"`
	ExecutionQuantity decimal.Decimal `json:"executionQuantity"`
	Fee               decimal.Decimal `json:"fee"`
	ExecutedAt        int64           `json:"executedAt"`
}

// UserDeposit is a bridge deposit eligible for a gas rebate.
type UserDeposit struct {
	TxHash    string          `json:"txHash"`
	Address   string          `json:"address"`
	Denom     string          `json:"denom"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp int64           `json:"timestamp"`
}

// Transfer moves funds between the bank account and a subaccount.
type Transfer struct {
	Address          string          `json:"address"`
	InjectiveAddress string          `json:"injectiveAddress"`
	SubaccountID     string          `json:"subaccountId"`
	Denom            string          `json:"denom"`
	Amount           decimal.Decimal `json:"amount"`
}
