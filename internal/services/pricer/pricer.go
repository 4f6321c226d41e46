// Package pricer fetches spot prices from public exchange APIs.
package pricer

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

// Pricer returns the last price of pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}
