package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/unlimitedExchange/injective-dex/internal/services/session"
	"github.com/unlimitedExchange/injective-dex/internal/store"
)

const maxBodyBytes = 1 << 16

type sessionRunner interface {
	ConnectWallet(ctx context.Context, c session.Connection) error
	Logout(ctx context.Context) error
	AcceptHighPriceDeviations(ctx context.Context) error
	MarkAuctionViewed(ctx context.Context, round uint64) error
	FetchSubaccountsBalances(ctx context.Context) error
	Deposit(ctx context.Context, denom string, amount decimal.Decimal) (string, error)
	Withdraw(ctx context.Context, denom string, amount decimal.Decimal) (string, error)
	InitGasRebate(ctx context.Context) error
	RedeemGasRebate(ctx context.Context) (string, error)
}

type auctionViewedRequest struct {
	Round uint64 `json:"round"`
}

type transferRequest struct {
	Denom  string          `json:"denom"`
	Amount decimal.Decimal `json:"amount"`
}

type txResponse struct {
	TxHash string `json:"txHash"`
}

// decodeBody reads a JSON body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

// writeState answers with the state after a write, like GET /state.
func (s *Server) writeState(w http.ResponseWriter) {
	state := s.state.State()
	s.writeJSON(w, struct {
		App       store.AppState       `json:"app"`
		Persisted store.PersistedState `json:"persisted"`
	}{
		App:       state.App,
		Persisted: state.Persisted(),
	})
}

func (s *Server) handleConnectWallet(w http.ResponseWriter, r *http.Request) {
	var c session.Connection
	if !decodeBody(w, r, &c) {
		return
	}

	if err := s.session.ConnectWallet(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeState(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Logout(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeState(w)
}

func (s *Server) handleAuctionViewed(w http.ResponseWriter, r *http.Request) {
	var req auctionViewedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.session.MarkAuctionViewed(r.Context(), req.Round); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeState(w)
}

func (s *Server) handleAcceptHighPriceDeviations(w http.ResponseWriter, r *http.Request) {
	if err := s.session.AcceptHighPriceDeviations(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeState(w)
}

func (s *Server) handleRefreshBalances(w http.ResponseWriter, r *http.Request) {
	if err := s.session.FetchSubaccountsBalances(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, s.state.State().Account)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, s.session.Deposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, s.session.Withdraw)
}

func (s *Server) handleTransfer(
	w http.ResponseWriter,
	r *http.Request,
	submit func(ctx context.Context, denom string, amount decimal.Decimal) (string, error),
) {
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Denom == "" {
		http.Error(w, "denom is required", http.StatusBadRequest)
		return
	}

	hash, err := submit(r.Context(), req.Denom, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, txResponse{TxHash: hash})
}

func (s *Server) handleGasRebate(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.state.State().GasRebate)
}

func (s *Server) handleGasRebateRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.session.InitGasRebate(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, s.state.State().GasRebate)
}

// handleGasRebateRedeem answers an empty hash when no wallet is connected.
func (s *Server) handleGasRebateRedeem(w http.ResponseWriter, r *http.Request) {
	hash, err := s.session.RedeemGasRebate(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, txResponse{TxHash: hash})
}
