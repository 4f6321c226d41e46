// Package summary reconciles refreshed market summaries with the ones already held.
package summary

import (
	"github.com/shopspring/decimal"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

// Reconcile merges next over prev, tagging the direction of the price move.
// Equal prices keep the previous tag, or NoChange when there is none.
func Reconcile(prev, next domain.MarketSummary) domain.MarketSummary {
	merged := next
	merged.LastPrice = decimal.NewNullDecimal(prev.Price)

	switch {
	case prev.Price.Equal(next.Price):
		merged.LastPriceChange = prev.LastPriceChange
		if merged.LastPriceChange == "" {
			merged.LastPriceChange = domain.ChangeNoChange
		}
	case next.Price.GreaterThanOrEqual(prev.Price):
		merged.LastPriceChange = domain.ChangeIncrease
	default:
		merged.LastPriceChange = domain.ChangeDecrease
	}

	return merged
}

// ReconcileAll reconciles every held summary with its refreshed counterpart.
// The held list is authoritative: markets missing from next, or refreshed with a
// zero price, are reconciled against themselves and kept.
func ReconcileAll(prev, next []domain.MarketSummary) []domain.MarketSummary {
	byID := make(map[string]domain.MarketSummary, len(next))
	for _, s := range next {
		if _, ok := byID[s.MarketID]; !ok {
			byID[s.MarketID] = s
		}
	}

	merged := make([]domain.MarketSummary, 0, len(prev))
	for _, old := range prev {
		fresh, ok := byID[old.MarketID]
		if !ok || fresh.Price.IsZero() {
			fresh = old
		}

		merged = append(merged, Reconcile(old, fresh))
	}

	return merged
}
