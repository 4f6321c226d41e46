package jsonsource

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

// accountsDocument is the layout of the accounts location:
//
//	{
//	  "accounts":    {"inj1...": {"bank": [...], "subaccountIds": [...], "portfolio": {...}}},
//	  "subaccounts": {"0x...": {"balances": [...], "trades": [...]}},
//	  "deposits":    {"0x...": [...]}
//	}
//
// Accounts are keyed by injective address, deposits by ethereum address.
type accountsDocument struct {
	Accounts    map[string]accountEntry         `json:"accounts"`
	Subaccounts map[string]subaccountEntry      `json:"subaccounts"`
	Deposits    map[string][]domain.UserDeposit `json:"deposits"`
}

type accountEntry struct {
	Bank          []domain.Coin            `json:"bank"`
	SubaccountIDs []string                 `json:"subaccountIds"`
	Portfolio     *domain.AccountPortfolio `json:"portfolio"`
}

type subaccountEntry struct {
	Balances []domain.SubaccountBalance `json:"balances"`
	Trades   []domain.Trade             `json:"trades"`
}

func (s *Source) accounts(ctx context.Context) (accountsDocument, error) {
	if s.loc.Accounts == "" {
		return accountsDocument{}, errors.Wrap(domain.ErrNotConfigured, "accounts source")
	}

	var doc accountsDocument
	if err := s.load(ctx, s.loc.Accounts, &doc); err != nil {
		return accountsDocument{}, errors.Wrap(err, "load accounts")
	}

	return doc, nil
}

func (d accountsDocument) account(address string) (accountEntry, bool) {
	for k, v := range d.Accounts {
		if strings.EqualFold(k, address) {
			return v, true
		}
	}

	return accountEntry{}, false
}

// Balances returns the bank balances of an injective address. Unknown
// addresses hold nothing.
func (s *Source) Balances(ctx context.Context, address string) ([]domain.Coin, error) {
	doc, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}

	entry, _ := doc.account(address)

	return entry.Bank, nil
}

// Balance returns the bank balance of denom or domain.ErrNotFound.
func (s *Source) Balance(ctx context.Context, address, denom string) (domain.Coin, error) {
	coins, err := s.Balances(ctx, address)
	if err != nil {
		return domain.Coin{}, err
	}

	for _, c := range coins {
		if c.Denom == denom {
			return c, nil
		}
	}

	return domain.Coin{}, errors.Wrapf(domain.ErrNotFound, "balance of %s", denom)
}

// Portfolio returns the portfolio of an injective address or domain.ErrNotFound.
func (s *Source) Portfolio(ctx context.Context, address string) (domain.AccountPortfolio, error) {
	doc, err := s.accounts(ctx)
	if err != nil {
		return domain.AccountPortfolio{}, err
	}

	entry, ok := doc.account(address)
	if !ok || entry.Portfolio == nil {
		return domain.AccountPortfolio{}, domain.ErrNotFound
	}

	return *entry.Portfolio, nil
}

// SubaccountIDs returns the subaccounts owned by an injective address.
func (s *Source) SubaccountIDs(ctx context.Context, address string) ([]string, error) {
	doc, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}

	entry, _ := doc.account(address)
	if entry.SubaccountIDs == nil {
		return []string{}, nil
	}

	return entry.SubaccountIDs, nil
}

// SubaccountBalances returns the balances held by a subaccount.
func (s *Source) SubaccountBalances(ctx context.Context, subaccountID string) ([]domain.SubaccountBalance, error) {
	doc, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}

	return doc.Subaccounts[subaccountID].Balances, nil
}

// SubaccountTrades returns the trade history of a subaccount.
func (s *Source) SubaccountTrades(ctx context.Context, subaccountID string) ([]domain.Trade, error) {
	doc, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}

	trades := doc.Subaccounts[subaccountID].Trades
	if trades == nil {
		return []domain.Trade{}, nil
	}

	return trades, nil
}

// UserDeposits returns the bridge deposits made from an ethereum address.
func (s *Source) UserDeposits(ctx context.Context, address string) ([]domain.UserDeposit, error) {
	doc, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}

	for k, v := range doc.Deposits {
		if strings.EqualFold(k, address) {
			return v, nil
		}
	}

	return []domain.UserDeposit{}, nil
}
