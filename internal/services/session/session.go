// Package session runs the user level actions of a connected wallet through
// the store, so persisted mutations and busy resets go through the plugin.
package session

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/internal/store"
)

// Action names dispatched by Service.
const (
	ActionConnectWallet             = "wallet/connect"
	ActionLogout                    = "wallet/logout"
	ActionAcceptHighPriceDeviations = "app/acceptHighPriceDeviations"
	ActionMarkAuctionViewed         = "auction/markAuctionViewed"
	ActionFetchSubaccountsBalances  = "account/fetchSubaccountsBalances"
	ActionDeposit                   = "account/deposit"
	ActionWithdraw                  = "account/withdraw"
	ActionGasRebateInit             = "gasRebate/init"
	ActionGasRebateFetchTrades      = "gasRebate/fetchTrades"
	ActionGasRebateFetchDeposits    = "gasRebate/fetchDeposits"
	ActionGasRebateRedeem           = "gasRebate/redeem"
)

// AccountConsumer reads the subaccounts of an injective address.
type AccountConsumer interface {
	SubaccountIDs(ctx context.Context, address string) ([]string, error)
	SubaccountBalances(ctx context.Context, subaccountID string) ([]domain.SubaccountBalance, error)
}

// HistoryConsumer reads the trade history of a subaccount.
type HistoryConsumer interface {
	SubaccountTrades(ctx context.Context, subaccountID string) ([]domain.Trade, error)
}

// DepositConsumer reads the bridge deposits of an ethereum address.
type DepositConsumer interface {
	UserDeposits(ctx context.Context, address string) ([]domain.UserDeposit, error)
}

// Transactor submits transactions and returns their hash.
type Transactor interface {
	Deposit(ctx context.Context, t domain.Transfer) (string, error)
	Withdraw(ctx context.Context, t domain.Transfer) (string, error)
	Redeem(ctx context.Context, address, injectiveAddress string) (string, error)
}

// Connection is what a wallet reports when the user connects it.
type Connection struct {
	Wallet           string            `json:"wallet"`
	Addresses        []string          `json:"addresses"`
	InjectiveAddress string            `json:"injectiveAddress"`
	Options          map[string]string `json:"walletOptions,omitempty"`
}

// Service dispatches user actions on a store.
type Service struct {
	l        *zap.Logger
	store    *store.Store
	accounts AccountConsumer
	history  HistoryConsumer
	deposits DepositConsumer
	tx       Transactor
}

// NewService creates service. A nil tx makes transaction actions fail with
// domain.ErrNotConfigured.
func NewService(
	l *zap.Logger,
	st *store.Store,
	accounts AccountConsumer,
	history HistoryConsumer,
	deposits DepositConsumer,
	tx Transactor,
) *Service {
	return &Service{
		l:        l,
		store:    st,
		accounts: accounts,
		history:  history,
		deposits: deposits,
		tx:       tx,
	}
}

// ConnectWallet stores the wallet identity and loads its first subaccount.
// A rejected address leaves the wallet reset.
func (s *Service) ConnectWallet(ctx context.Context, c Connection) error {
	return s.store.Dispatch(ctx, ActionConnectWallet, func(ctx context.Context, st *store.Store) error {
		if len(c.Addresses) == 0 {
			return errors.Wrap(domain.ErrInvalidAddress, "no addresses")
		}

		commits := []store.Mutation{
			{Type: store.MutationSetInjectiveAddress, Payload: c.InjectiveAddress},
			{Type: store.MutationSetAddresses, Payload: c.Addresses},
			{Type: store.MutationSetAddress, Payload: c.Addresses[0]},
			{Type: store.MutationSetWallet, Payload: c.Wallet},
		}
		if c.Options != nil {
			commits = append(commits, store.Mutation{Type: store.MutationSetWalletOptions, Payload: c.Options})
		}

		for _, m := range commits {
			if err := st.Commit(m); err != nil {
				if resetErr := st.Commit(store.Mutation{Type: store.MutationWalletReset}); resetErr != nil {
					s.l.Error("failed to reset wallet", zap.Error(resetErr))
				}
				return err
			}
		}

		if err := s.loadSubaccounts(ctx, st); err != nil {
			s.l.Warn("failed to load subaccounts",
				zap.String("injective_address", c.InjectiveAddress),
				zap.Error(err))
		}

		return nil
	})
}

// Logout forgets the wallet together with its account and gas rebate data.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Dispatch(ctx, ActionLogout, func(_ context.Context, st *store.Store) error {
		for _, t := range []string{store.MutationWalletReset, store.MutationAccountReset, store.MutationGasRebateReset} {
			if err := st.Commit(store.Mutation{Type: t}); err != nil {
				return err
			}
		}
		return nil
	})
}

// AcceptHighPriceDeviations records that the user accepted the warning.
func (s *Service) AcceptHighPriceDeviations(ctx context.Context) error {
	return s.store.Dispatch(ctx, ActionAcceptHighPriceDeviations, func(_ context.Context, st *store.Store) error {
		return st.Commit(store.Mutation{Type: store.MutationAcceptHighPriceDeviations})
	})
}

// MarkAuctionViewed adds round to the viewed auctions. Known rounds are ignored.
func (s *Service) MarkAuctionViewed(ctx context.Context, round uint64) error {
	return s.store.Dispatch(ctx, ActionMarkAuctionViewed, func(_ context.Context, st *store.Store) error {
		viewed := st.State().Auction.AuctionsViewed
		if slices.Contains(viewed, round) {
			return nil
		}

		next := append(slices.Clone(viewed), round)
		return st.Commit(store.Mutation{Type: store.MutationSetAuctionsViewed, Payload: next})
	})
}

// FetchSubaccountsBalances refreshes the balances of the selected subaccount.
func (s *Service) FetchSubaccountsBalances(ctx context.Context) error {
	return s.store.Dispatch(ctx, ActionFetchSubaccountsBalances, func(ctx context.Context, st *store.Store) error {
		return s.refreshSubaccount(ctx, st)
	})
}

// Deposit moves amount of denom from the bank account into the selected subaccount.
func (s *Service) Deposit(ctx context.Context, denom string, amount decimal.Decimal) (string, error) {
	return s.transfer(ctx, ActionDeposit, denom, amount, func(ctx context.Context, t domain.Transfer) (string, error) {
		return s.tx.Deposit(ctx, t)
	})
}

// Withdraw moves amount of denom from the selected subaccount to the bank account.
func (s *Service) Withdraw(ctx context.Context, denom string, amount decimal.Decimal) (string, error) {
	return s.transfer(ctx, ActionWithdraw, denom, amount, func(ctx context.Context, t domain.Transfer) (string, error) {
		return s.tx.Withdraw(ctx, t)
	})
}

// InitGasRebate loads trades and deposits, then refreshes the subaccount balances.
func (s *Service) InitGasRebate(ctx context.Context) error {
	return s.store.Dispatch(ctx, ActionGasRebateInit, func(ctx context.Context, _ *store.Store) error {
		if err := s.FetchGasRebateTrades(ctx); err != nil {
			return err
		}
		if err := s.FetchGasRebateDeposits(ctx); err != nil {
			return err
		}
		return s.FetchSubaccountsBalances(ctx)
	})
}

// FetchGasRebateTrades loads the trades of the selected subaccount. It does
// nothing while no wallet or subaccount is known.
func (s *Service) FetchGasRebateTrades(ctx context.Context) error {
	return s.store.Dispatch(ctx, ActionGasRebateFetchTrades, func(ctx context.Context, st *store.Store) error {
		state := st.State()
		if !state.IsUserWalletConnected() || state.Account.Subaccount == nil {
			return nil
		}

		trades, err := s.history.SubaccountTrades(ctx, state.Account.Subaccount.SubaccountID)
		if err != nil {
			return errors.Wrap(err, "failed to fetch trades")
		}

		return st.Commit(store.Mutation{Type: store.MutationSetGasRebateTrades, Payload: trades})
	})
}

// FetchGasRebateDeposits loads the bridge deposits of the wallet address.
func (s *Service) FetchGasRebateDeposits(ctx context.Context) error {
	return s.store.Dispatch(ctx, ActionGasRebateFetchDeposits, func(ctx context.Context, st *store.Store) error {
		state := st.State()
		if !state.IsUserWalletConnected() || state.Wallet.Address == "" {
			return nil
		}

		deposits, err := s.deposits.UserDeposits(ctx, state.Wallet.Address)
		if err != nil {
			return errors.Wrap(err, "failed to fetch deposits")
		}

		return st.Commit(store.Mutation{Type: store.MutationSetGasRebateDeposits, Payload: deposits})
	})
}

// RedeemGasRebate claims the rebate of the connected wallet. Without a
// connected wallet it returns an empty hash and no error.
func (s *Service) RedeemGasRebate(ctx context.Context) (string, error) {
	var hash string

	err := s.store.Dispatch(ctx, ActionGasRebateRedeem, func(ctx context.Context, st *store.Store) error {
		state := st.State()
		if state.Wallet.Address == "" || !state.IsUserWalletConnected() {
			return nil
		}
		if s.tx == nil {
			return errors.Wrap(domain.ErrNotConfigured, "transaction gateway")
		}

		h, err := s.tx.Redeem(ctx, state.Wallet.Address, state.Wallet.InjectiveAddress)
		if err != nil {
			return errors.Wrap(err, "failed to redeem gas rebate")
		}
		hash = h

		if err := s.refreshSubaccount(ctx, st); err != nil {
			s.l.Warn("failed to refresh balances after redeem", zap.Error(err))
		}

		return nil
	})

	return hash, err
}

func (s *Service) transfer(
	ctx context.Context,
	name, denom string,
	amount decimal.Decimal,
	send func(ctx context.Context, t domain.Transfer) (string, error),
) (string, error) {
	var hash string

	err := s.store.Dispatch(ctx, name, func(ctx context.Context, st *store.Store) error {
		if s.tx == nil {
			return errors.Wrap(domain.ErrNotConfigured, "transaction gateway")
		}

		state := st.State()
		if !state.IsUserWalletConnected() || state.Account.Subaccount == nil {
			return domain.ErrWalletNotConnected
		}
		if !amount.IsPositive() {
			return errors.Wrapf(domain.ErrInvalidAmount, "amount %s", amount)
		}

		if err := st.Commit(store.Mutation{Type: store.MutationSetAppState, Payload: domain.AppStateBusy}); err != nil {
			return err
		}

		h, err := send(ctx, domain.Transfer{
			Address:          state.Wallet.Address,
			InjectiveAddress: state.Wallet.InjectiveAddress,
			SubaccountID:     state.Account.Subaccount.SubaccountID,
			Denom:            denom,
			Amount:           amount,
		})
		if err != nil {
			return errors.Wrapf(err, "failed to submit %s", name)
		}
		hash = h

		if err := s.refreshSubaccount(ctx, st); err != nil {
			s.l.Warn("failed to refresh subaccount balances",
				zap.String("action", name),
				zap.Error(err))
		}

		return nil
	})

	return hash, err
}

func (s *Service) loadSubaccounts(ctx context.Context, st *store.Store) error {
	ids, err := s.accounts.SubaccountIDs(ctx, st.State().Wallet.InjectiveAddress)
	if err != nil {
		return errors.Wrap(err, "failed to fetch subaccount ids")
	}
	if err := st.Commit(store.Mutation{Type: store.MutationSetSubaccountIDs, Payload: ids}); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	return s.setSubaccount(ctx, st, ids[0])
}

func (s *Service) refreshSubaccount(ctx context.Context, st *store.Store) error {
	sub := st.State().Account.Subaccount
	if sub == nil {
		return nil
	}

	return s.setSubaccount(ctx, st, sub.SubaccountID)
}

func (s *Service) setSubaccount(ctx context.Context, st *store.Store, id string) error {
	balances, err := s.accounts.SubaccountBalances(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch balances of %s", id)
	}

	return st.Commit(store.Mutation{
		Type:    store.MutationSetSubaccount,
		Payload: &domain.Subaccount{SubaccountID: id, Balances: balances},
	})
}
