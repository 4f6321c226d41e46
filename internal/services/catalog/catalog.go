// Package catalog assembles the UI market catalog from raw exchange markets.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/pkg/decimals"
)

type tokenResolver interface {
	Resolve(ctx context.Context, denomOrSymbol string) (domain.Token, error)
	ResolveWithIbcTrace(ctx context.Context, denom string) (domain.Token, error)
	CoinGeckoID(symbol string) string
}

// Config selects and orders the markets of a catalog.
type Config struct {
	// Included lists the slugs shown by the UI, in display order. Markets not listed are dropped.
	Included []string
	// Excluded lists slugs never shown, even when also included.
	Excluded []string
	// Type and SubType are the tags attached to every market of the catalog.
	Type    domain.MarketType
	SubType domain.MarketType
}

// Assembler joins raw markets with token metadata and orders them by Config.Included.
type Assembler struct {
	l        *zap.Logger
	resolver tokenResolver
	conf     Config
	priority map[string]int
	excluded map[string]struct{}
}

// NewAssembler creates an Assembler for a single catalog.
func NewAssembler(l *zap.Logger, resolver tokenResolver, conf Config) *Assembler {
	priority := make(map[string]int, len(conf.Included))
	for i, slug := range conf.Included {
		if _, ok := priority[slug]; !ok {
			priority[slug] = i
		}
	}

	excluded := make(map[string]struct{}, len(conf.Excluded))
	for _, slug := range conf.Excluded {
		excluded[slug] = struct{}{}
	}

	return &Assembler{
		l:        l,
		resolver: resolver,
		conf:     conf,
		priority: priority,
		excluded: excluded,
	}
}

// Slug normalizes a ticker: "BTC/USDT PERP" -> "btc-usdt-perp".
func Slug(ticker string) string {
	slug := strings.Replace(ticker, "/", "-", 1)
	slug = strings.ReplaceAll(slug, " ", "-")

	return strings.ToLower(slug)
}

type resolvedMarket struct {
	market     domain.RawMarket
	slug       string
	baseToken  *domain.Token
	quoteToken *domain.Token
}

// Assemble resolves token metadata for all markets concurrently and returns the
// catalog. Markets whose tokens are unknown are dropped; any other resolver error
// aborts the whole assembly.
func (a *Assembler) Assemble(ctx context.Context, markets []domain.RawMarket) ([]domain.UiMarket, error) {
	resolved := make([]resolvedMarket, len(markets))

	g, gctx := errgroup.WithContext(ctx)
	for i, market := range markets {
		g.Go(func() error {
			rm, err := a.resolve(gctx, market)
			if err != nil {
				return errors.Wrapf(err, "resolve tokens for market %s", market.Ticker)
			}

			resolved[i] = rm

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	catalog := make([]domain.UiMarket, 0, len(resolved))
	for _, rm := range resolved {
		if rm.baseToken == nil || rm.quoteToken == nil {
			a.l.Debug("dropping market without token metadata", zap.String("ticker", rm.market.Ticker))
			continue
		}
		if _, ok := a.priority[rm.slug]; !ok {
			continue
		}
		if _, ok := a.excluded[rm.slug]; ok {
			continue
		}

		catalog = append(catalog, a.toUiMarket(rm))
	}

	sort.SliceStable(catalog, func(i, j int) bool {
		return a.priority[catalog[i].Slug] < a.priority[catalog[j].Slug]
	})

	a.l.Debug("assembled market catalog",
		zap.String("type", a.conf.Type.String()),
		zap.Int("raw", len(markets)),
		zap.Int("catalog", len(catalog)),
	)

	return catalog, nil
}

func (a *Assembler) resolve(ctx context.Context, market domain.RawMarket) (resolvedMarket, error) {
	rm := resolvedMarket{market: market, slug: Slug(market.Ticker)}
	if rm.slug == "" {
		return rm, nil
	}

	baseSymbol, _, _ := strings.Cut(rm.slug, "-")

	base, err := a.resolver.Resolve(ctx, baseSymbol)
	switch {
	case err == nil:
		rm.baseToken = &base
	case !errors.Is(err, domain.ErrTokenNotFound):
		return rm, err
	}

	var quote domain.Token
	if market.QuoteToken != nil {
		quote = market.QuoteToken.WithDenom(market.QuoteDenom)
	} else {
		quote, err = a.resolver.ResolveWithIbcTrace(ctx, market.QuoteDenom)
		if err != nil {
			if errors.Is(err, domain.ErrTokenNotFound) {
				return rm, nil
			}

			return rm, err
		}
	}

	if quote.CoinGeckoID == "" {
		quote.CoinGeckoID = a.resolver.CoinGeckoID(quote.Symbol)
	}
	rm.quoteToken = &quote

	return rm, nil
}

func (a *Assembler) toUiMarket(rm resolvedMarket) domain.UiMarket {
	m := domain.UiMarket{
		RawMarket:        rm.market,
		Slug:             rm.slug,
		BaseToken:        *rm.baseToken,
		QuoteToken:       *rm.quoteToken,
		PriceDecimals:    decimals.Price(rm.market.MinPriceTickSize, rm.quoteToken.Decimals),
		QuantityDecimals: decimals.Quantity(rm.market.MinQuantityTickSize),
		Type:             a.conf.Type,
		SubType:          a.conf.SubType,
	}

	if a.conf.Type == domain.MarketTypeSpot {
		m.PriceDecimals = decimals.SpotPrice(rm.market.MinPriceTickSize, rm.baseToken.Decimals, rm.quoteToken.Decimals)
		m.QuantityDecimals = decimals.SpotQuantity(rm.market.MinQuantityTickSize, rm.baseToken.Decimals)
	}

	return m
}
