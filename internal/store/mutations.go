package store

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

// Mutation names understood by Reduce.
const (
	MutationSetAppState                = "app/setAppState"
	MutationAcceptHighPriceDeviations  = "app/acceptHighPriceDeviations"
	MutationSetAuctionsViewed          = "auction/setAuctionsViewed"
	MutationWalletReset                = "wallet/reset"
	MutationSetAddress                 = "wallet/setAddress"
	MutationSetAddresses               = "wallet/setAddresses"
	MutationSetWallet                  = "wallet/setWallet"
	MutationSetWalletOptions           = "wallet/setWalletOptions"
	MutationSetInjectiveAddress        = "wallet/setInjectiveAddress"
	MutationSetAddressConfirmation     = "wallet/setAddressConfirmation"
	MutationSetSubaccountIDs           = "account/setSubaccountIds"
	MutationSetSubaccount              = "account/setSubaccount"
	MutationAccountReset               = "account/reset"
	MutationSetDerivativeMarkets       = "derivatives/setMarkets"
	MutationSetDerivativeMarketSummary = "derivatives/setMarketsSummary"
	MutationSetSpotMarkets             = "spot/setMarkets"
	MutationSetSpotMarketSummary       = "spot/setMarketsSummary"
	MutationSetGasRebateTrades         = "gasRebate/setTrades"
	MutationSetGasRebateDeposits       = "gasRebate/setDeposits"
	MutationGasRebateReset             = "gasRebate/reset"
)

const injectiveAddressPrefix = "inj1"

// Mutation is a named state change with an optional payload.
type Mutation struct {
	Type    string
	Payload any
}

// Reducer computes the next state. It must not modify state in place.
type Reducer func(state State, m Mutation) (State, error)

type mutationFn func(state State, payload any) (State, error)

var mutations = map[string]mutationFn{
	MutationSetAppState: func(s State, p any) (State, error) {
		v, err := payloadAs[domain.AppState](p)
		if err != nil {
			return s, err
		}
		s.App.State = v
		return s, nil
	},
	MutationAcceptHighPriceDeviations: func(s State, _ any) (State, error) {
		s.App.AcceptHighPriceDeviations = true
		return s, nil
	},
	MutationSetAuctionsViewed: func(s State, p any) (State, error) {
		v, err := payloadAs[[]uint64](p)
		if err != nil {
			return s, err
		}
		s.Auction.AuctionsViewed = append([]uint64(nil), v...)
		return s, nil
	},
	MutationWalletReset: func(s State, _ any) (State, error) {
		s.Wallet = DefaultState().Wallet
		return s, nil
	},
	MutationSetAddress: func(s State, p any) (State, error) {
		v, err := payloadAs[string](p)
		if err != nil {
			return s, err
		}
		if !common.IsHexAddress(v) {
			return s, errors.Wrapf(domain.ErrInvalidAddress, "address %q", v)
		}
		s.Wallet.Address = v
		return s, nil
	},
	MutationSetAddresses: func(s State, p any) (State, error) {
		v, err := payloadAs[[]string](p)
		if err != nil {
			return s, err
		}
		for _, a := range v {
			if !common.IsHexAddress(a) {
				return s, errors.Wrapf(domain.ErrInvalidAddress, "address %q", a)
			}
		}
		s.Wallet.Addresses = append([]string(nil), v...)
		return s, nil
	},
	MutationSetWallet: func(s State, p any) (State, error) {
		v, err := payloadAs[string](p)
		if err != nil {
			return s, err
		}
		s.Wallet.Wallet = v
		return s, nil
	},
	MutationSetWalletOptions: func(s State, p any) (State, error) {
		v, err := payloadAs[map[string]string](p)
		if err != nil {
			return s, err
		}
		opts := make(map[string]string, len(v))
		for k, val := range v {
			opts[k] = val
		}
		s.Wallet.WalletOptions = opts
		return s, nil
	},
	MutationSetInjectiveAddress: func(s State, p any) (State, error) {
		v, err := payloadAs[string](p)
		if err != nil {
			return s, err
		}
		if !strings.HasPrefix(v, injectiveAddressPrefix) {
			return s, errors.Wrapf(domain.ErrInvalidAddress, "injective address %q", v)
		}
		s.Wallet.InjectiveAddress = v
		return s, nil
	},
	MutationSetAddressConfirmation: func(s State, p any) (State, error) {
		v, err := payloadAs[string](p)
		if err != nil {
			return s, err
		}
		s.Wallet.AddressConfirmation = v
		return s, nil
	},
	MutationSetSubaccountIDs: func(s State, p any) (State, error) {
		v, err := payloadAs[[]string](p)
		if err != nil {
			return s, err
		}
		s.Account.SubaccountIDs = append([]string(nil), v...)
		return s, nil
	},
	MutationSetSubaccount: func(s State, p any) (State, error) {
		v, err := payloadAs[*domain.Subaccount](p)
		if err != nil {
			return s, err
		}
		s.Account.Subaccount = v
		return s, nil
	},
	MutationAccountReset: func(s State, _ any) (State, error) {
		s.Account = DefaultState().Account
		return s, nil
	},
	MutationSetDerivativeMarkets: func(s State, p any) (State, error) {
		v, err := payloadAs[[]domain.UiMarket](p)
		if err != nil {
			return s, err
		}
		s.Derivatives.Markets = v
		return s, nil
	},
	MutationSetDerivativeMarketSummary: func(s State, p any) (State, error) {
		v, err := payloadAs[[]domain.MarketSummary](p)
		if err != nil {
			return s, err
		}
		s.Derivatives.Summaries = v
		return s, nil
	},
	MutationSetSpotMarkets: func(s State, p any) (State, error) {
		v, err := payloadAs[[]domain.UiMarket](p)
		if err != nil {
			return s, err
		}
		s.Spot.Markets = v
		return s, nil
	},
	MutationSetSpotMarketSummary: func(s State, p any) (State, error) {
		v, err := payloadAs[[]domain.MarketSummary](p)
		if err != nil {
			return s, err
		}
		s.Spot.Summaries = v
		return s, nil
	},
	MutationSetGasRebateTrades: func(s State, p any) (State, error) {
		v, err := payloadAs[[]domain.Trade](p)
		if err != nil {
			return s, err
		}
		s.GasRebate.Trades = v
		return s, nil
	},
	MutationSetGasRebateDeposits: func(s State, p any) (State, error) {
		v, err := payloadAs[[]domain.UserDeposit](p)
		if err != nil {
			return s, err
		}
		s.GasRebate.Deposits = v
		return s, nil
	},
	// deposits survive a reset, only the trades of the previous wallet are dropped
	MutationGasRebateReset: func(s State, _ any) (State, error) {
		s.GasRebate.Trades = []domain.Trade{}
		return s, nil
	},
}

// Reduce is the application reducer.
func Reduce(state State, m Mutation) (State, error) {
	fn, ok := mutations[m.Type]
	if !ok {
		return state, errors.Wrap(domain.ErrUnknownMutation, m.Type)
	}

	return fn(state, m.Payload)
}

func payloadAs[T any](payload any) (T, error) {
	v, ok := payload.(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("unexpected payload type %T, want %T", payload, zero)
	}

	return v, nil
}
