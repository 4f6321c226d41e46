// Package account joins bank and subaccount balances with token metadata and
// USD prices.
package account

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/internal/services/metrics"
)

const ibcDenomPrefix = "ibc"

// BankConsumer reads bank balances of an injective address.
type BankConsumer interface {
	Balances(ctx context.Context, address string) ([]domain.Coin, error)
	// Balance returns domain.ErrNotFound when the address holds no denom.
	Balance(ctx context.Context, address, denom string) (domain.Coin, error)
}

// SubaccountConsumer reads subaccount balances.
type SubaccountConsumer interface {
	SubaccountBalances(ctx context.Context, subaccountID string) ([]domain.SubaccountBalance, error)
}

// PortfolioConsumer reads the aggregated portfolio of an account.
type PortfolioConsumer interface {
	// Portfolio returns domain.ErrNotFound for unknown addresses.
	Portfolio(ctx context.Context, address string) (domain.AccountPortfolio, error)
}

// TokenResolver resolves a denom into token metadata.
type TokenResolver interface {
	ResolveWithIbcTrace(ctx context.Context, denom string) (domain.Token, error)
}

// PriceFeed returns USD prices keyed by CoinGecko id.
type PriceFeed interface {
	FetchUsdPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
}

// Service reads account balances and joins them with token metadata and prices.
type Service struct {
	l           *zap.Logger
	bank        BankConsumer
	subaccounts SubaccountConsumer
	portfolios  PortfolioConsumer
	tokens      TokenResolver
	prices      PriceFeed
	recorder    *metrics.Recorder
}

// NewService creates service. recorder may be nil.
func NewService(
	l *zap.Logger,
	bank BankConsumer,
	subaccounts SubaccountConsumer,
	portfolios PortfolioConsumer,
	tokens TokenResolver,
	prices PriceFeed,
	recorder *metrics.Recorder,
) *Service {
	return &Service{
		l:           l,
		bank:        bank,
		subaccounts: subaccounts,
		portfolios:  portfolios,
		tokens:      tokens,
		prices:      prices,
		recorder:    recorder,
	}
}

// BankBalances returns the balances of address split into native and IBC denoms.
func (s *Service) BankBalances(ctx context.Context, address string) (bank, ibc domain.BankBalances, err error) {
	coins, err := metrics.SendAndRecord(ctx, s.recorder, "bank.balances", func(ctx context.Context) ([]domain.Coin, error) {
		return s.bank.Balances(ctx, address)
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "bank balances of %s", address)
	}

	bank = make(domain.BankBalances)
	ibc = make(domain.BankBalances)
	for _, c := range coins {
		if strings.HasPrefix(c.Denom, ibcDenomPrefix) {
			ibc[c.Denom] = c.Amount
			continue
		}
		bank[c.Denom] = c.Amount
	}

	return bank, ibc, nil
}

// BankBalancesWithTokenMeta joins balances with token metadata, dropping denoms
// without known metadata. The result is ordered by denom.
func (s *Service) BankBalancesWithTokenMeta(ctx context.Context, balances domain.BankBalances) ([]domain.BankBalanceWithToken, error) {
	denoms := make([]string, 0, len(balances))
	for denom := range balances {
		denoms = append(denoms, denom)
	}
	sort.Strings(denoms)

	tokens, err := s.resolveAll(ctx, denoms)
	if err != nil {
		return nil, err
	}

	out := make([]domain.BankBalanceWithToken, 0, len(denoms))
	for i, denom := range denoms {
		if tokens[i] == nil {
			continue
		}
		out = append(out, domain.BankBalanceWithToken{
			Denom:   denom,
			Balance: balances[denom],
			Token:   *tokens[i],
		})
	}

	return out, nil
}

// SubaccountBalancesWithPrices returns subaccount balances with token metadata
// and USD price. Unresolved denoms are dropped, missing prices are zero.
func (s *Service) SubaccountBalancesWithPrices(ctx context.Context, subaccountID string) ([]domain.SubaccountBalanceWithToken, error) {
	balances, err := metrics.SendAndRecord(ctx, s.recorder, "subaccount.balances", func(ctx context.Context) ([]domain.SubaccountBalance, error) {
		return s.subaccounts.SubaccountBalances(ctx, subaccountID)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "subaccount balances of %s", subaccountID)
	}

	denoms := make([]string, len(balances))
	for i, b := range balances {
		denoms[i] = b.Denom
	}

	tokens, err := s.resolveAll(ctx, denoms)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SubaccountBalanceWithToken, 0, len(balances))
	ids := make([]string, 0, len(balances))
	for i, b := range balances {
		if tokens[i] == nil {
			continue
		}
		out = append(out, domain.SubaccountBalanceWithToken{
			SubaccountBalance: b,
			Token:             *tokens[i],
			PriceInUSD:        decimal.Zero,
		})
		if id := tokens[i].CoinGeckoID; id != "" {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return out, nil
	}

	prices, err := s.prices.FetchUsdPrices(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "usd prices")
	}

	for i := range out {
		if price, ok := prices[out[i].Token.CoinGeckoID]; ok {
			out[i].PriceInUSD = price
		}
	}

	return out, nil
}

// Balance returns the bank balance of denom, zero when the address holds none.
func (s *Service) Balance(ctx context.Context, address, denom string) (decimal.Decimal, error) {
	coin, err := metrics.SendAndRecord(ctx, s.recorder, "bank.balance", func(ctx context.Context) (domain.Coin, error) {
		return s.bank.Balance(ctx, address, denom)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, errors.Wrapf(err, "balance of %s in %s", address, denom)
	}

	return coin.Amount, nil
}

// Portfolio returns the portfolio of address.
func (s *Service) Portfolio(ctx context.Context, address string) (domain.AccountPortfolio, error) {
	p, err := metrics.SendAndRecord(ctx, s.recorder, "account.portfolio", func(ctx context.Context) (domain.AccountPortfolio, error) {
		return s.portfolios.Portfolio(ctx, address)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AccountPortfolio{}, errors.Wrapf(domain.ErrNotFound, "account portfolio for %s", address)
		}
		return domain.AccountPortfolio{}, errors.Wrapf(err, "account portfolio for %s", address)
	}

	return p, nil
}

// resolveAll resolves denoms concurrently. Entries of unknown denoms are nil.
// The first resolver fault cancels the rest.
func (s *Service) resolveAll(ctx context.Context, denoms []string) ([]*domain.Token, error) {
	out := make([]*domain.Token, len(denoms))

	g, ctx := errgroup.WithContext(ctx)
	for i, denom := range denoms {
		g.Go(func() error {
			t, err := s.tokens.ResolveWithIbcTrace(ctx, denom)
			if err != nil {
				if errors.Is(err, domain.ErrTokenNotFound) {
					s.l.Debug("dropping balance with unknown denom", zap.String("denom", denom))
					return nil
				}
				return errors.Wrapf(err, "resolve %s", denom)
			}

			out[i] = &t

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
