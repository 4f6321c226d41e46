// Package store holds the application state behind an explicit reducer and
// notifies subscribers after mutations and settled actions.
package store

import "github.com/unlimitedExchange/injective-dex/internal/domain"

// State is the root application state.
type State struct {
	App         AppState       `json:"app"`
	Auction     AuctionState   `json:"auction"`
	Wallet      WalletState    `json:"wallet"`
	Account     AccountState   `json:"account"`
	Derivatives MarketsState   `json:"derivatives"`
	Spot        MarketsState   `json:"spot"`
	GasRebate   GasRebateState `json:"gasRebate"`
}

// AppState holds the global UI flags.
type AppState struct {
	State                     domain.AppState `json:"state"`
	AcceptHighPriceDeviations bool            `json:"acceptHighPriceDeviations"`
}

// AuctionState tracks the auctions the user has already seen.
type AuctionState struct {
	AuctionsViewed []uint64 `json:"auctionsViewed"`
}

// WalletState is the identity of the connected wallet.
type WalletState struct {
	Wallet              string            `json:"wallet"`
	WalletOptions       map[string]string `json:"walletOptions"`
	Addresses           []string          `json:"addresses"`
	Address             string            `json:"address"`
	InjectiveAddress    string            `json:"injectiveAddress"`
	AddressConfirmation string            `json:"addressConfirmation"`
}

// AccountState holds the subaccounts of the connected wallet.
type AccountState struct {
	SubaccountIDs []string           `json:"subaccountIds"`
	Subaccount    *domain.Subaccount `json:"subaccount"`
}

// MarketsState holds the catalog and summaries of one market kind.
type MarketsState struct {
	Markets   []domain.UiMarket      `json:"markets"`
	Summaries []domain.MarketSummary `json:"marketSummaries"`
}

// GasRebateState holds the trades and bridge deposits shown on the gas rebate page.
type GasRebateState struct {
	Trades   []domain.Trade       `json:"trades"`
	Deposits []domain.UserDeposit `json:"deposits"`
}

// IsUserWalletConnected reports whether a wallet address is known.
func (s State) IsUserWalletConnected() bool {
	return s.Wallet.Address != "" && s.Wallet.InjectiveAddress != ""
}

// DefaultState returns the initial state of a fresh session.
func DefaultState() State {
	return State{
		App: AppState{State: domain.AppStateIdle},
		Auction: AuctionState{
			AuctionsViewed: []uint64{},
		},
		Wallet: WalletState{
			WalletOptions: map[string]string{},
			Addresses:     []string{},
		},
		Account: AccountState{
			SubaccountIDs: []string{},
		},
		GasRebate: GasRebateState{
			Trades:   []domain.Trade{},
			Deposits: []domain.UserDeposit{},
		},
	}
}

// PersistedState is the subset of State kept across sessions.
type PersistedState struct {
	App struct {
		AcceptHighPriceDeviations bool `json:"acceptHighPriceDeviations"`
	} `json:"app"`
	Auction AuctionState `json:"auction"`
	Wallet  WalletState  `json:"wallet"`
	Account AccountState `json:"account"`
}

// Persisted extracts the persisted slice of s.
func (s State) Persisted() PersistedState {
	var p PersistedState
	p.App.AcceptHighPriceDeviations = s.App.AcceptHighPriceDeviations
	p.Auction = s.Auction
	p.Wallet = s.Wallet
	p.Account = s.Account

	return p
}

// clonePersisted copies s with fresh maps and slices under the persisted
// branches, so merging into the copy cannot write through to s.
func (s State) clonePersisted() State {
	out := s
	out.Auction.AuctionsViewed = cloneSlice(s.Auction.AuctionsViewed)
	out.Wallet.Addresses = cloneSlice(s.Wallet.Addresses)
	out.Account.SubaccountIDs = cloneSlice(s.Account.SubaccountIDs)

	if s.Wallet.WalletOptions != nil {
		out.Wallet.WalletOptions = make(map[string]string, len(s.Wallet.WalletOptions))
		for k, v := range s.Wallet.WalletOptions {
			out.Wallet.WalletOptions[k] = v
		}
	}

	if s.Account.Subaccount != nil {
		sub := *s.Account.Subaccount
		sub.Balances = cloneSlice(sub.Balances)
		out.Account.Subaccount = &sub
	}

	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}

	return append(make([]T, 0, len(in)), in...)
}

func (p PersistedState) toState() State {
	return State{
		App:     AppState{AcceptHighPriceDeviations: p.App.AcceptHighPriceDeviations},
		Auction: p.Auction,
		Wallet:  p.Wallet,
		Account: p.Account,
	}
}
