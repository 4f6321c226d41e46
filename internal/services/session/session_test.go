package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/internal/storage/filekv"
	"github.com/unlimitedExchange/injective-dex/internal/store"
)

const (
	ethAddress   = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	injAddress   = "inj1hkhdaj2a2clmq5jq6mspsggqs32vynpk228q3r"
	subaccountID = "0xbdaedec95d563fb05240d6e01821008454c24c36000000000000000000000000"
)

type accountsMock struct{ mock.Mock }

func (m *accountsMock) SubaccountIDs(ctx context.Context, address string) ([]string, error) {
	args := m.Called(ctx, address)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *accountsMock) SubaccountBalances(ctx context.Context, id string) ([]domain.SubaccountBalance, error) {
	args := m.Called(ctx, id)
	balances, _ := args.Get(0).([]domain.SubaccountBalance)
	return balances, args.Error(1)
}

func (m *accountsMock) SubaccountTrades(ctx context.Context, id string) ([]domain.Trade, error) {
	args := m.Called(ctx, id)
	trades, _ := args.Get(0).([]domain.Trade)
	return trades, args.Error(1)
}

func (m *accountsMock) UserDeposits(ctx context.Context, address string) ([]domain.UserDeposit, error) {
	args := m.Called(ctx, address)
	deposits, _ := args.Get(0).([]domain.UserDeposit)
	return deposits, args.Error(1)
}

type txMock struct{ mock.Mock }

func (m *txMock) Deposit(ctx context.Context, t domain.Transfer) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}

func (m *txMock) Withdraw(ctx context.Context, t domain.Transfer) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}

func (m *txMock) Redeem(ctx context.Context, address, injectiveAddress string) (string, error) {
	args := m.Called(ctx, address, injectiveAddress)
	return args.String(0), args.Error(1)
}

type fixture struct {
	store    *store.Store
	kv       *filekv.Store
	accounts *accountsMock
	tx       *txMock
	svc      *Service
}

func newFixture(t *testing.T, withTx bool) *fixture {
	t.Helper()

	kv, err := filekv.New(t.TempDir())
	require.NoError(t, err)

	st := store.New(zap.NewNop(), store.DefaultState(), nil)
	require.NoError(t, store.NewPersistencePlugin(zap.NewNop(), kv, nil, nil).Install(st))

	f := &fixture{store: st, kv: kv, accounts: &accountsMock{}, tx: &txMock{}}

	var tx Transactor
	if withTx {
		tx = f.tx
	}
	f.svc = NewService(zap.NewNop(), st, f.accounts, f.accounts, f.accounts, tx)

	return f
}

func (f *fixture) persisted(t *testing.T) store.PersistedState {
	t.Helper()

	raw, err := f.kv.Get(store.DefaultStateKey)
	require.NoError(t, err)

	var p store.PersistedState
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()

	f.accounts.On("SubaccountIDs", mock.Anything, injAddress).Return([]string{subaccountID}, nil).Once()
	f.accounts.On("SubaccountBalances", mock.Anything, subaccountID).Return([]domain.SubaccountBalance{
		{Denom: "inj", AvailableBalance: decimal.NewFromInt(5), TotalBalance: decimal.NewFromInt(5)},
	}, nil).Once()

	require.NoError(t, f.svc.ConnectWallet(context.Background(), Connection{
		Wallet:           "metamask",
		Addresses:        []string{ethAddress},
		InjectiveAddress: injAddress,
	}))
}

func TestService_ConnectWalletPersistsIdentity(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)

	state := f.store.State()
	assert.True(t, state.IsUserWalletConnected())
	assert.Equal(t, "metamask", state.Wallet.Wallet)
	assert.Equal(t, []string{subaccountID}, state.Account.SubaccountIDs)
	require.NotNil(t, state.Account.Subaccount)
	assert.Len(t, state.Account.Subaccount.Balances, 1)

	p := f.persisted(t)
	assert.Equal(t, ethAddress, p.Wallet.Address)
	assert.Equal(t, injAddress, p.Wallet.InjectiveAddress)
	f.accounts.AssertExpectations(t)
}

func TestService_ConnectWalletRejectsInvalidAddress(t *testing.T) {
	f := newFixture(t, false)

	err := f.svc.ConnectWallet(context.Background(), Connection{
		Wallet:           "metamask",
		Addresses:        []string{"not-an-address"},
		InjectiveAddress: injAddress,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidAddress))

	state := f.store.State()
	assert.False(t, state.IsUserWalletConnected())
	assert.Empty(t, state.Wallet.InjectiveAddress)
	f.accounts.AssertNotCalled(t, "SubaccountIDs", mock.Anything, mock.Anything)
}

func TestService_ConnectWalletSurvivesAccountFailure(t *testing.T) {
	f := newFixture(t, false)
	f.accounts.On("SubaccountIDs", mock.Anything, injAddress).Return(nil, domain.ErrNotConfigured)

	require.NoError(t, f.svc.ConnectWallet(context.Background(), Connection{
		Wallet:           "keplr",
		Addresses:        []string{ethAddress},
		InjectiveAddress: injAddress,
	}))
	assert.True(t, f.store.State().IsUserWalletConnected())
	assert.Nil(t, f.store.State().Account.Subaccount)
}

func TestService_LogoutClearsSession(t *testing.T) {
	f := newFixture(t, false)
	f.connect(t)
	require.NoError(t, f.store.Commit(store.Mutation{
		Type:    store.MutationSetGasRebateTrades,
		Payload: []domain.Trade{{OrderHash: "0x1"}},
	}))

	require.NoError(t, f.svc.Logout(context.Background()))

	state := f.store.State()
	assert.False(t, state.IsUserWalletConnected())
	assert.Nil(t, state.Account.Subaccount)
	assert.Empty(t, state.GasRebate.Trades)
	assert.Empty(t, f.persisted(t).Wallet.Address)
}

func TestService_MarkAuctionViewedIsIdempotent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.svc.MarkAuctionViewed(ctx, 3))
	require.NoError(t, f.svc.MarkAuctionViewed(ctx, 4))
	require.NoError(t, f.svc.MarkAuctionViewed(ctx, 3))

	assert.Equal(t, []uint64{3, 4}, f.store.State().Auction.AuctionsViewed)
	assert.Equal(t, []uint64{3, 4}, f.persisted(t).Auction.AuctionsViewed)
}

func TestService_AcceptHighPriceDeviations(t *testing.T) {
	f := newFixture(t, false)

	require.NoError(t, f.svc.AcceptHighPriceDeviations(context.Background()))
	assert.True(t, f.store.State().App.AcceptHighPriceDeviations)
	assert.True(t, f.persisted(t).App.AcceptHighPriceDeviations)
}

func TestService_DepositReturnsToIdle(t *testing.T) {
	f := newFixture(t, true)
	f.connect(t)

	var busyDuringSubmit domain.AppState
	f.tx.On("Deposit", mock.Anything, mock.MatchedBy(func(tr domain.Transfer) bool {
		return tr.SubaccountID == subaccountID && tr.InjectiveAddress == injAddress && tr.Denom == "inj"
	})).Run(func(mock.Arguments) {
		busyDuringSubmit = f.store.State().App.State
	}).Return("0xhash", nil).Once()
	f.accounts.On("SubaccountBalances", mock.Anything, subaccountID).Return([]domain.SubaccountBalance{
		{Denom: "inj", AvailableBalance: decimal.NewFromInt(6), TotalBalance: decimal.NewFromInt(6)},
	}, nil).Once()

	hash, err := f.svc.Deposit(context.Background(), "inj", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, "0xhash", hash)
	assert.Equal(t, domain.AppStateBusy, busyDuringSubmit)

	state := f.store.State()
	assert.Equal(t, domain.AppStateIdle, state.App.State)
	assert.True(t, state.Account.Subaccount.Balances[0].TotalBalance.Equal(decimal.NewFromInt(6)))
	f.tx.AssertExpectations(t)
}

func TestService_WithdrawFailureReturnsToIdle(t *testing.T) {
	f := newFixture(t, true)
	f.connect(t)
	f.tx.On("Withdraw", mock.Anything, mock.Anything).Return("", errors.New("insufficient funds"))

	_, err := f.svc.Withdraw(context.Background(), "inj", decimal.NewFromInt(100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.Equal(t, domain.AppStateIdle, f.store.State().App.State)
}

func TestService_TransferGuards(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, false)
	_, err := f.svc.Deposit(ctx, "inj", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, domain.ErrNotConfigured))

	f = newFixture(t, true)
	_, err = f.svc.Deposit(ctx, "inj", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, domain.ErrWalletNotConnected))

	f.connect(t)
	_, err = f.svc.Withdraw(ctx, "inj", decimal.Zero)
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
	f.tx.AssertNotCalled(t, "Withdraw", mock.Anything, mock.Anything)
}

func TestService_GasRebateWithoutWalletIsNoop(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.svc.InitGasRebate(ctx))
	hash, err := f.svc.RedeemGasRebate(ctx)
	require.NoError(t, err)
	assert.Empty(t, hash)

	f.accounts.AssertNotCalled(t, "SubaccountTrades", mock.Anything, mock.Anything)
	f.accounts.AssertNotCalled(t, "UserDeposits", mock.Anything, mock.Anything)
	f.tx.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_InitGasRebate(t *testing.T) {
	f := newFixture(t, true)
	f.connect(t)

	f.accounts.On("SubaccountTrades", mock.Anything, subaccountID).Return([]domain.Trade{{OrderHash: "0x1"}}, nil).Once()
	f.accounts.On("UserDeposits", mock.Anything, ethAddress).Return([]domain.UserDeposit{{TxHash: "0xd"}}, nil).Once()
	f.accounts.On("SubaccountBalances", mock.Anything, subaccountID).Return([]domain.SubaccountBalance{}, nil).Once()

	require.NoError(t, f.svc.InitGasRebate(context.Background()))

	state := f.store.State()
	require.Len(t, state.GasRebate.Trades, 1)
	require.Len(t, state.GasRebate.Deposits, 1)
	assert.Equal(t, "0xd", state.GasRebate.Deposits[0].TxHash)
	f.accounts.AssertExpectations(t)
}

func TestService_RedeemGasRebate(t *testing.T) {
	f := newFixture(t, true)
	f.connect(t)

	f.tx.On("Redeem", mock.Anything, ethAddress, injAddress).Return("0xrebate", nil).Once()
	f.accounts.On("SubaccountBalances", mock.Anything, subaccountID).Return(nil, errors.New("indexer down")).Once()

	hash, err := f.svc.RedeemGasRebate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xrebate", hash)
	f.tx.AssertExpectations(t)
}
