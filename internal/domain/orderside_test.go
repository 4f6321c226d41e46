package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderSide_GrpcOrderType(t *testing.T) {
	tests := []struct {
		name     string
		side     OrderSide
		expected GrpcOrderType
	}{
		{name: "unspecified", side: OrderSideUnspecified, expected: 0},
		{name: "buy", side: OrderSideBuy, expected: 1},
		{name: "sell", side: OrderSideSell, expected: 2},
		{name: "stop buy", side: OrderSideStopBuy, expected: 3},
		{name: "stop sell", side: OrderSideStopSell, expected: 4},
		{name: "take buy", side: OrderSideTakeBuy, expected: 5},
		{name: "take sell", side: OrderSideTakeSell, expected: 6},
		{name: "unknown falls back to buy", side: OrderSide("market"), expected: GrpcOrderTypeBuy},
		{name: "empty falls back to buy", side: OrderSide(""), expected: GrpcOrderTypeBuy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.side.GrpcOrderType())
		})
	}
}

func TestMarketType_IsValid(t *testing.T) {
	for _, m := range []MarketType{MarketTypeSpot, MarketTypeDerivative, MarketTypePerpetual, MarketTypeFutures} {
		assert.True(t, m.IsValid(), m.String())
	}

	assert.False(t, MarketType("options").IsValid())
	assert.False(t, MarketType("").IsValid())
	assert.Equal(t, "perpetual", MarketTypePerpetual.String())
}
