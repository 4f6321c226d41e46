package pricer

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

const maxConcurrentQuotes = 8

// SymbolLookup maps a CoinGecko id to a ticker symbol.
type SymbolLookup interface {
	SymbolByCoinGeckoID(id string) (string, bool)
}

// UsdFeed resolves USD prices keyed by CoinGecko id through an exchange pricer.
type UsdFeed struct {
	l       *zap.Logger
	pricer  Pricer
	symbols SymbolLookup
	quote   string
	stables map[string]struct{}
}

// NewUsdFeed creates feed. quote is the USD-pegged quote asset used on the
// exchange (USDT when empty); symbols equal to it or to USDC are priced at 1.
func NewUsdFeed(l *zap.Logger, pricer Pricer, symbols SymbolLookup, quote string) *UsdFeed {
	if quote == "" {
		quote = "USDT"
	}
	quote = strings.ToUpper(quote)

	return &UsdFeed{
		l:       l,
		pricer:  pricer,
		symbols: symbols,
		quote:   quote,
		stables: map[string]struct{}{quote: {}, "USDT": {}, "USDC": {}},
	}
}

// FetchUsdPrices returns prices for ids. Ids without a known symbol or price
// are absent from the result.
func (f *UsdFeed) FetchUsdPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	var (
		mu     sync.Mutex
		prices = make(map[string]decimal.Decimal, len(ids))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuotes)

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		symbol, ok := f.symbols.SymbolByCoinGeckoID(id)
		if !ok {
			f.l.Debug("no symbol for coingecko id", zap.String("id", id))
			continue
		}
		symbol = strings.ToUpper(symbol)

		g.Go(func() error {
			price, err := f.price(ctx, symbol)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				f.l.Warn("failed to fetch usd price", zap.String("id", id), zap.String("symbol", symbol), zap.Error(err))
				return nil
			}

			mu.Lock()
			prices[id] = price
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "fetch usd prices")
	}

	return prices, nil
}

func (f *UsdFeed) price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if _, ok := f.stables[symbol]; ok {
		return decimal.NewFromInt(1), nil
	}

	return f.pricer.GetPrice(ctx, domain.Pair{From: symbol, To: f.quote})
}
