package domain

// MarketType is the kind of market shown by the UI.
type MarketType string

const (
	// MarketTypeSpot is a spot market.
	MarketTypeSpot MarketType = "spot"
	// MarketTypeDerivative is a derivative market.
	MarketTypeDerivative MarketType = "derivative"
	// MarketTypePerpetual is the perpetual futures sub type.
	MarketTypePerpetual MarketType = "perpetual"
	// MarketTypeFutures is the expiry futures sub type.
	MarketTypeFutures MarketType = "futures"
)

// String returns the string representation.
func (m MarketType) String() string {
	return string(m)
}

// IsValid checks if the MarketType value is valid.
func (m MarketType) IsValid() bool {
	switch m {
	case MarketTypeSpot, MarketTypeDerivative, MarketTypePerpetual, MarketTypeFutures:
		return true
	}

	return false
}
