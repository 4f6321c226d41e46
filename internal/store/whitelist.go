package store

// DefaultPersistMutations lists the mutations whose commit writes the persisted slice.
var DefaultPersistMutations = []string{
	MutationAcceptHighPriceDeviations,
	MutationSetAuctionsViewed,
	MutationWalletReset,
	MutationSetAddress,
	MutationSetAddresses,
	MutationSetWallet,
	MutationSetWalletOptions,
	MutationSetInjectiveAddress,
	MutationSetAddressConfirmation,
}

// DefaultBusyActions lists the actions after which the app state returns to idle.
var DefaultBusyActions = []string{
	"account/deposit",
	"account/withdraw",
	"derivatives/cancelOrder",
	"derivatives/batchCancelOrder",
	"derivatives/submitLimitOrder",
	"derivatives/submitMarketOrder",
	"derivatives/closePosition",
	"derivatives/closeAllPosition",
	"derivatives/addMarginToPosition",
	"spot/cancelOrder",
	"spot/batchCancelOrder",
	"spot/submitLimitOrder",
	"spot/submitMarketOrder",
	"portfolio/closePosition",
	"portfolio/cancelOrder",
	"portfolio/batchCancelSpotOrders",
	"portfolio/batchCancelDerivativeOrders",
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	return set
}
