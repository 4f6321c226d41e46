// Package decimals derives display precision from market tick sizes.
package decimals

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Of returns the number of fractional digits of the canonical decimal
// expansion of tick, e.g. 0.001 -> 3, 1 -> 0, 0.0500 -> 2.
func Of(tick decimal.Decimal) int32 {
	// String never uses exponent notation and drops trailing zeros.
	s := tick.Abs().String()

	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}

	return int32(len(s) - dot - 1)
}

// FromString parses tick and returns Of(tick).
func FromString(tick string) (int32, error) {
	d, err := decimal.NewFromString(tick)
	if err != nil {
		return 0, errors.Wrapf(err, "parse tick size %q", tick)
	}

	return Of(d), nil
}

// Price converts an on-chain price tick into human units using the quote token
// decimals and returns its digit count.
func Price(minPriceTickSize decimal.Decimal, quoteDecimals int32) int32 {
	return Of(minPriceTickSize.Shift(-quoteDecimals))
}

// Quantity returns the digit count of a quantity tick, which is already in human units.
func Quantity(minQuantityTickSize decimal.Decimal) int32 {
	return Of(minQuantityTickSize)
}

// SpotPrice is Price for spot markets, whose price tick is quoted per smallest
// base unit and so carries the base decimals too.
func SpotPrice(minPriceTickSize decimal.Decimal, baseDecimals, quoteDecimals int32) int32 {
	return Of(minPriceTickSize.Shift(baseDecimals - quoteDecimals))
}

// SpotQuantity converts a spot quantity tick from base units to human units.
func SpotQuantity(minQuantityTickSize decimal.Decimal, baseDecimals int32) int32 {
	return Of(minQuantityTickSize.Shift(-baseDecimals))
}
