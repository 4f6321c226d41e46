package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient creates a client for the Binance public market data API.
func NewBinanceClient() *binance.Client {
	// no API keys, public data only
	return binance.NewClient("", "")
}
