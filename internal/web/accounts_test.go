package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/internal/events"
)

const injAddress = "inj1hkhdaj2a2clmq5jq6mspsggqs32vynpk228q3r"

type accountsMock struct{ mock.Mock }

func (m *accountsMock) BankBalances(ctx context.Context, address string) (domain.BankBalances, domain.BankBalances, error) {
	args := m.Called(ctx, address)
	bank, _ := args.Get(0).(domain.BankBalances)
	ibc, _ := args.Get(1).(domain.BankBalances)
	return bank, ibc, args.Error(2)
}

func (m *accountsMock) BankBalancesWithTokenMeta(ctx context.Context, balances domain.BankBalances) ([]domain.BankBalanceWithToken, error) {
	args := m.Called(ctx, balances)
	out, _ := args.Get(0).([]domain.BankBalanceWithToken)
	return out, args.Error(1)
}

func (m *accountsMock) SubaccountBalancesWithPrices(ctx context.Context, id string) ([]domain.SubaccountBalanceWithToken, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).([]domain.SubaccountBalanceWithToken)
	return out, args.Error(1)
}

func (m *accountsMock) Balance(ctx context.Context, address, denom string) (decimal.Decimal, error) {
	args := m.Called(ctx, address, denom)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *accountsMock) Portfolio(ctx context.Context, address string) (domain.AccountPortfolio, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(domain.AccountPortfolio), args.Error(1)
}

func newAccountsServer(t *testing.T, accounts *accountsMock) *httptest.Server {
	t.Helper()

	s := NewServer(":0", zap.NewNop(), staticState{state: testState()}, events.NewSummaryBroadcaster(1), WithAccounts(accounts))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_AccountBalances(t *testing.T) {
	accounts := &accountsMock{}
	bank := domain.BankBalances{"inj": decimal.NewFromInt(3)}
	ibc := domain.BankBalances{"ibc/C4CF": decimal.NewFromInt(7)}
	accounts.On("BankBalances", mock.Anything, injAddress).Return(bank, ibc, nil)
	accounts.On("BankBalancesWithTokenMeta", mock.Anything, bank).Return([]domain.BankBalanceWithToken{
		{Denom: "inj", Balance: decimal.NewFromInt(3), Token: domain.Token{Symbol: "INJ"}},
	}, nil)
	accounts.On("BankBalancesWithTokenMeta", mock.Anything, ibc).Return([]domain.BankBalanceWithToken{
		{Denom: "ibc/C4CF", Balance: decimal.NewFromInt(7), Token: domain.Token{Symbol: "ATOM"}},
	}, nil)

	srv := newAccountsServer(t, accounts)

	resp, err := http.Get(srv.URL + "/accounts/" + injAddress + "/balances")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out accountBalances
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Bank, 1)
	require.Len(t, out.Ibc, 1)
	assert.Equal(t, "INJ", out.Bank[0].Token.Symbol)
	assert.Equal(t, "ATOM", out.Ibc[0].Token.Symbol)
	accounts.AssertExpectations(t)
}

func TestServer_AccountBalanceOfIbcDenom(t *testing.T) {
	accounts := &accountsMock{}
	accounts.On("Balance", mock.Anything, injAddress, "ibc/C4CF").Return(decimal.RequireFromString("1.25"), nil)

	srv := newAccountsServer(t, accounts)

	resp, err := http.Get(srv.URL + "/accounts/" + injAddress + "/balances/ibc/C4CF")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out denomBalance
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ibc/C4CF", out.Denom)
	assert.True(t, out.Balance.Equal(decimal.RequireFromString("1.25")))
}

func TestServer_AccountErrors(t *testing.T) {
	accounts := &accountsMock{}
	accounts.On("Portfolio", mock.Anything, injAddress).
		Return(domain.AccountPortfolio{}, errors.Wrap(domain.ErrNotFound, "account portfolio"))
	accounts.On("SubaccountBalancesWithPrices", mock.Anything, "0xsub").
		Return(nil, errors.Wrap(domain.ErrNotConfigured, "accounts source"))

	srv := newAccountsServer(t, accounts)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "not an injective address", path: "/accounts/0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed/balances", status: http.StatusBadRequest},
		{name: "unknown portfolio", path: "/accounts/" + injAddress + "/portfolio", status: http.StatusNotFound},
		{name: "source not configured", path: "/subaccounts/0xsub/balances", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestServer_AccountRoutesNeedAccounts(t *testing.T) {
	srv := newTestServer(t, events.NewSummaryBroadcaster(1))

	resp, err := http.Get(srv.URL + "/accounts/" + injAddress + "/balances")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
