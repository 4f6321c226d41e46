package clients

import (
	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient creates a client for the Bybit public market data API.
func NewBybitClient() *bybit.Client {
	return bybit.NewClient()
}
