package domain

// OrderSide is the order side as used by the UI.
type OrderSide string

const (
	OrderSideUnspecified OrderSide = "unspecified"
	OrderSideBuy         OrderSide = "buy"
	OrderSideSell        OrderSide = "sell"
	OrderSideStopBuy     OrderSide = "stop_buy"
	OrderSideStopSell    OrderSide = "stop_sell"
	OrderSideTakeBuy     OrderSide = "take_buy"
	OrderSideTakeSell    OrderSide = "take_sell"
)

// GrpcOrderType is the numeric order type understood by the chain.
type GrpcOrderType int32

const (
	GrpcOrderTypeUnspecified GrpcOrderType = iota
	GrpcOrderTypeBuy
	GrpcOrderTypeSell
	GrpcOrderTypeStopBuy
	GrpcOrderTypeStopSell
	GrpcOrderTypeTakeBuy
	GrpcOrderTypeTakeSell
)

// GrpcOrderType maps the side to its chain order type. Unknown sides map to buy.
func (s OrderSide) GrpcOrderType() GrpcOrderType {
	switch s {
	case OrderSideUnspecified:
		return GrpcOrderTypeUnspecified
	case OrderSideBuy:
		return GrpcOrderTypeBuy
	case OrderSideSell:
		return GrpcOrderTypeSell
	case OrderSideStopBuy:
		return GrpcOrderTypeStopBuy
	case OrderSideStopSell:
		return GrpcOrderTypeStopSell
	case OrderSideTakeBuy:
		return GrpcOrderTypeTakeBuy
	case OrderSideTakeSell:
		return GrpcOrderTypeTakeSell
	default:
		return GrpcOrderTypeBuy
	}
}
