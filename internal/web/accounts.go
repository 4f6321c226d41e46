package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

const injectiveAddressPrefix = "inj1"

type accountReader interface {
	BankBalances(ctx context.Context, address string) (bank, ibc domain.BankBalances, err error)
	BankBalancesWithTokenMeta(ctx context.Context, balances domain.BankBalances) ([]domain.BankBalanceWithToken, error)
	SubaccountBalancesWithPrices(ctx context.Context, subaccountID string) ([]domain.SubaccountBalanceWithToken, error)
	Balance(ctx context.Context, address, denom string) (decimal.Decimal, error)
	Portfolio(ctx context.Context, address string) (domain.AccountPortfolio, error)
}

type accountBalances struct {
	Bank []domain.BankBalanceWithToken `json:"bank"`
	Ibc  []domain.BankBalanceWithToken `json:"ibc"`
}

type denomBalance struct {
	Denom   string          `json:"denom"`
	Balance decimal.Decimal `json:"balance"`
}

func injectiveAddress(r *http.Request) (string, error) {
	address := r.PathValue("address")
	if !strings.HasPrefix(address, injectiveAddressPrefix) {
		return "", errors.Wrapf(domain.ErrInvalidAddress, "injective address %q", address)
	}

	return address, nil
}

func (s *Server) handleAccountBalances(w http.ResponseWriter, r *http.Request) {
	address, err := injectiveAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	bank, ibc, err := s.accounts.BankBalances(r.Context(), address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var out accountBalances
	if out.Bank, err = s.accounts.BankBalancesWithTokenMeta(r.Context(), bank); err != nil {
		s.writeError(w, r, err)
		return
	}
	if out.Ibc, err = s.accounts.BankBalancesWithTokenMeta(r.Context(), ibc); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, out)
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	address, err := injectiveAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	denom := r.PathValue("denom")
	if denom == "" {
		http.Error(w, "denom is required", http.StatusBadRequest)
		return
	}

	balance, err := s.accounts.Balance(r.Context(), address, denom)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, denomBalance{Denom: denom, Balance: balance})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	address, err := injectiveAddress(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	portfolio, err := s.accounts.Portfolio(r.Context(), address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, portfolio)
}

func (s *Server) handleSubaccountBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.accounts.SubaccountBalancesWithPrices(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if balances == nil {
		balances = []domain.SubaccountBalanceWithToken{}
	}

	s.writeJSON(w, balances)
}
