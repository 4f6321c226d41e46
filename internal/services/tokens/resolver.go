// Package tokens resolves denoms and symbols into token metadata.
package tokens

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

const (
	ibcDenomPrefix   = "ibc/"
	peggyDenomPrefix = "peggy"
)

// DenomTracer looks up the IBC denom trace of a hashed ibc/ denom.
type DenomTracer interface {
	DenomTrace(ctx context.Context, hash string) (domain.DenomTrace, error)
}

// Resolver resolves token metadata from a static token list, following IBC
// traces for ibc/ denoms.
type Resolver struct {
	l      *zap.Logger
	tracer DenomTracer

	mu        sync.RWMutex
	bySymbol  map[string]domain.Token
	byDenom   map[string]domain.Token
	byAddress map[string]domain.Token

	// byCoinGeckoID keeps the first symbol registered for an id.
	byCoinGeckoID map[string]string
}

// NewResolver indexes tokens by symbol, denom and ERC20 address.
func NewResolver(l *zap.Logger, tokens []domain.Token, tracer DenomTracer) *Resolver {
	r := &Resolver{
		l:         l,
		tracer:    tracer,
		bySymbol:  make(map[string]domain.Token, len(tokens)),
		byDenom:   make(map[string]domain.Token, len(tokens)),
		byAddress: make(map[string]domain.Token, len(tokens)),

		byCoinGeckoID: make(map[string]string, len(tokens)),
	}

	for _, t := range tokens {
		r.add(t)
	}

	return r
}

// Add registers or replaces a token.
func (r *Resolver) Add(t domain.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.add(t)
}

func (r *Resolver) add(t domain.Token) {
	if t.Symbol != "" {
		r.bySymbol[strings.ToLower(t.Symbol)] = t
	}
	if t.Denom != "" {
		r.byDenom[t.Denom] = t
	}
	if t.Address != "" {
		r.byAddress[strings.ToLower(t.Address)] = t
	}
	if t.CoinGeckoID != "" && t.Symbol != "" {
		if _, ok := r.byCoinGeckoID[t.CoinGeckoID]; !ok {
			r.byCoinGeckoID[t.CoinGeckoID] = t.Symbol
		}
	}
}

// Resolve returns the token registered for denomOrSymbol or domain.ErrTokenNotFound.
func (r *Resolver) Resolve(_ context.Context, denomOrSymbol string) (domain.Token, error) {
	if denomOrSymbol == "" {
		return domain.Token{}, domain.ErrTokenNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.byDenom[denomOrSymbol]; ok {
		return t, nil
	}

	if strings.HasPrefix(denomOrSymbol, peggyDenomPrefix) {
		if t, ok := r.byAddress[strings.ToLower(strings.TrimPrefix(denomOrSymbol, peggyDenomPrefix))]; ok {
			return t.WithDenom(denomOrSymbol), nil
		}
	}

	if t, ok := r.bySymbol[strings.ToLower(denomOrSymbol)]; ok {
		return t, nil
	}

	return domain.Token{}, domain.ErrTokenNotFound
}

// ResolveWithIbcTrace resolves denom, following the IBC trace for ibc/ denoms.
// A trace the tracer does not know is reported as domain.ErrTokenNotFound, any
// other tracer failure is returned as is.
func (r *Resolver) ResolveWithIbcTrace(ctx context.Context, denom string) (domain.Token, error) {
	if !strings.HasPrefix(denom, ibcDenomPrefix) {
		t, err := r.Resolve(ctx, denom)
		if err != nil {
			return domain.Token{}, err
		}

		return t.WithDenom(denom), nil
	}

	if t, err := r.Resolve(ctx, denom); err == nil {
		return t, nil
	}

	if r.tracer == nil {
		return domain.Token{}, domain.ErrTokenNotFound
	}

	trace, err := r.tracer.DenomTrace(ctx, strings.TrimPrefix(denom, ibcDenomPrefix))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Token{}, domain.ErrTokenNotFound
		}

		return domain.Token{}, errors.Wrapf(err, "fetch denom trace for %s", denom)
	}

	r.l.Debug("resolved ibc denom", zap.String("denom", denom), zap.String("base_denom", trace.BaseDenom), zap.String("path", trace.Path))

	t, err := r.Resolve(ctx, trace.BaseDenom)
	if err != nil {
		return domain.Token{}, err
	}

	return t.WithDenom(denom), nil
}

// CoinGeckoID returns the CoinGecko id registered for symbol, or "".
func (r *Resolver) CoinGeckoID(symbol string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.bySymbol[strings.ToLower(symbol)].CoinGeckoID
}

// Tokens returns every registered token keyed by lowercase symbol.
func (r *Resolver) Tokens() map[string]domain.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Token, len(r.bySymbol))
	for k, v := range r.bySymbol {
		out[k] = v
	}

	return out
}

// SymbolByCoinGeckoID returns the symbol of the first token registered with
// the CoinGecko id.
func (r *Resolver) SymbolByCoinGeckoID(id string) (string, bool) {
	if id == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	symbol, ok := r.byCoinGeckoID[id]

	return symbol, ok
}
