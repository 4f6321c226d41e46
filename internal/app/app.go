// Package app wires the market catalog, summary refresh, session store and
// HTTP surface into a running application.
package app

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/config"
	"github.com/unlimitedExchange/injective-dex/internal/clients/gateway"
	"github.com/unlimitedExchange/injective-dex/internal/clients/jsonsource"
	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/internal/events"
	"github.com/unlimitedExchange/injective-dex/internal/services/account"
	"github.com/unlimitedExchange/injective-dex/internal/services/catalog"
	"github.com/unlimitedExchange/injective-dex/internal/services/metrics"
	"github.com/unlimitedExchange/injective-dex/internal/services/pricer"
	"github.com/unlimitedExchange/injective-dex/internal/services/session"
	"github.com/unlimitedExchange/injective-dex/internal/services/stream"
	"github.com/unlimitedExchange/injective-dex/internal/services/summary"
	"github.com/unlimitedExchange/injective-dex/internal/services/tokens"
	"github.com/unlimitedExchange/injective-dex/internal/store"
	"github.com/unlimitedExchange/injective-dex/internal/web"
	"github.com/unlimitedExchange/injective-dex/pkg/retrier"
)

const (
	streamHTTP      = "http"
	streamSummaries = "summaries"
	streamPrices    = "prices"
)

type marketSource interface {
	Markets(ctx context.Context) ([]domain.RawMarket, error)
	Summaries(ctx context.Context) ([]domain.MarketSummary, error)
	HasSpot() bool
	SpotMarkets(ctx context.Context) ([]domain.RawMarket, error)
	SpotSummaries(ctx context.Context) ([]domain.MarketSummary, error)
}

type accountSource interface {
	account.BankConsumer
	account.PortfolioConsumer
	session.AccountConsumer
	session.HistoryConsumer
	session.DepositConsumer
}

// book is the catalog and summary refresh of one market kind.
type book struct {
	kind           domain.MarketType
	assembler      *catalog.Assembler
	cache          *summary.Cache
	fetchMarkets   func(ctx context.Context) ([]domain.RawMarket, error)
	fetchSummaries func(ctx context.Context) ([]domain.MarketSummary, error)
	setMarkets     string
	setSummaries   string
	markets        func(s store.State) []domain.UiMarket
}

// App is a running application instance.
type App struct {
	l   *zap.Logger
	cfg config.Config

	kv          domain.KeyValueStore
	books       []*book
	broadcaster *events.SummaryBroadcaster
	store       *store.Store
	feed        *pricer.UsdFeed
	accounts    *account.Service
	session     *session.Service
	recorder    *metrics.Recorder
	retrier     *retrier.Retrier
	streams     *stream.Registry
	server      *web.Server

	pricesMu sync.RWMutex
	prices   map[string]decimal.Decimal
}

// New creates application from config.
func New(ctx context.Context, l *zap.Logger, cfg config.Config) (*App, error) {
	kv, err := openKV(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	client, err := newPriceClient(cfg.PriceFeed)
	if err != nil {
		_ = kv.Close()
		return nil, errors.Wrap(err, "failed to create price client")
	}

	p, err := newPricer(client)
	if err != nil {
		_ = kv.Close()
		return nil, errors.Wrap(err, "failed to create pricer")
	}

	source := jsonsource.New(l.Named("source"), jsonsource.Locations{
		Markets:       cfg.MarketsFile,
		Summaries:     cfg.SummariesFile,
		SpotMarkets:   cfg.SpotMarketsFile,
		SpotSummaries: cfg.SpotSummariesFile,
		Accounts:      cfg.AccountsFile,
	})

	var tx session.Transactor
	if cfg.TxGatewayURL != "" {
		tx = gateway.New(l.Named("gateway"), cfg.TxGatewayURL)
	}

	a, err := newApp(l, cfg, source, source, tx, kv, p)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	return a, nil
}

func newApp(
	l *zap.Logger,
	cfg config.Config,
	source marketSource,
	accounts accountSource,
	tx session.Transactor,
	kv domain.KeyValueStore,
	p pricer.Pricer,
) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	recorder, err := metrics.NewRecorder(l.Named("metrics"), reg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create metrics recorder")
	}

	resolver := tokens.NewResolver(l.Named("tokens"), cfg.Tokens, tokens.StaticTracer(cfg.IbcTraces))

	st := store.New(l.Named("store"), store.DefaultState(), store.Reduce)
	plugin := store.NewPersistencePlugin(l.Named("persistence"), kv, cfg.PersistMutations(), cfg.BusyActions())
	if err := plugin.Install(st); err != nil {
		return nil, errors.Wrap(err, "failed to restore session state")
	}

	broadcaster := events.NewSummaryBroadcaster(16)
	feed := pricer.NewUsdFeed(l.Named("prices"), p, resolver, cfg.PriceFeed.Quote)

	a := &App{
		l:           l,
		cfg:         cfg,
		kv:          kv,
		broadcaster: broadcaster,
		store:       st,
		feed:        feed,
		accounts:    account.NewService(l.Named("account"), accounts, accounts, accounts, resolver, feed, recorder),
		session:     session.NewService(l.Named("session"), st, accounts, accounts, accounts, tx),
		recorder:    recorder,
		streams:     stream.NewRegistry(l.Named("streams")),
		prices:      map[string]decimal.Decimal{},
	}

	a.books = append(a.books, &book{
		kind: domain.MarketTypeDerivative,
		assembler: catalog.NewAssembler(l.Named("catalog"), resolver, catalog.Config{
			Included: cfg.Catalog.Derivatives.Included,
			Excluded: cfg.Catalog.Derivatives.Excluded,
			Type:     domain.MarketTypeDerivative,
			SubType:  domain.MarketTypePerpetual,
		}),
		cache:          summary.NewCache(broadcaster, domain.MarketTypeDerivative),
		fetchMarkets:   source.Markets,
		fetchSummaries: source.Summaries,
		setMarkets:     store.MutationSetDerivativeMarkets,
		setSummaries:   store.MutationSetDerivativeMarketSummary,
		markets:        func(s store.State) []domain.UiMarket { return s.Derivatives.Markets },
	})

	if source.HasSpot() {
		a.books = append(a.books, &book{
			kind: domain.MarketTypeSpot,
			assembler: catalog.NewAssembler(l.Named("catalog.spot"), resolver, catalog.Config{
				Included: cfg.Catalog.Spot.Included,
				Excluded: cfg.Catalog.Spot.Excluded,
				Type:     domain.MarketTypeSpot,
				SubType:  domain.MarketTypeSpot,
			}),
			cache:          summary.NewCache(broadcaster, domain.MarketTypeSpot),
			fetchMarkets:   source.SpotMarkets,
			fetchSummaries: source.SpotSummaries,
			setMarkets:     store.MutationSetSpotMarkets,
			setSummaries:   store.MutationSetSpotMarketSummary,
			markets:        func(s store.State) []domain.UiMarket { return s.Spot.Markets },
		})
	}

	a.retrier = retrier.New(
		retrier.WithMaxRetries(3),
		retrier.WithRetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			l.Warn("catalog assembly failed, retrying", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		}),
	)
	a.server = web.NewServer(cfg.HTTPAddr, l.Named("web"), st, broadcaster,
		web.WithPrices(a),
		web.WithMetrics(reg),
		web.WithAccounts(a.accounts),
		web.WithSession(a.session),
		web.WithAutoTLS(cfg.HTTPTLS.Domains, cfg.HTTPTLS.CacheDir),
	)

	return a, nil
}

// Store returns the session store.
func (a *App) Store() *store.Store { return a.store }

// Session returns the service running user actions on the store.
func (a *App) Session() *session.Service { return a.session }

// Accounts returns the account balance service.
func (a *App) Accounts() *account.Service { return a.accounts }

// Run assembles the catalog, then serves HTTP and refreshes summaries and USD
// prices until ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.kv.Close()

	if err := a.RefreshCatalog(ctx); err != nil {
		return err
	}

	if err := a.RefreshSummaries(ctx); err != nil {
		a.l.Warn("initial summaries refresh failed", zap.Error(err))
	}
	if err := a.RefreshPrices(ctx); err != nil {
		a.l.Warn("initial usd prices refresh failed", zap.Error(err))
	}

	a.streams.Subscribe(ctx, streamHTTP, a.server.Start)
	a.streams.Subscribe(ctx, streamSummaries, a.poll(streamSummaries, a.RefreshSummaries))
	a.streams.Subscribe(ctx, streamPrices, a.poll(streamPrices, a.RefreshPrices))

	state := a.store.State()
	a.l.Info("started",
		zap.String("network", a.cfg.Network),
		zap.Int("markets", len(state.Derivatives.Markets)),
		zap.Int("spot_markets", len(state.Spot.Markets)),
		zap.Duration("refresh_interval", a.cfg.RefreshInterval))

	<-ctx.Done()
	a.l.Info("context done, stopping")
	a.streams.CancelAll()

	return ctx.Err()
}

// RefreshCatalog assembles every configured catalog and commits it to the
// store. The whole assembly of a catalog is retried on failure.
func (a *App) RefreshCatalog(ctx context.Context) error {
	for _, b := range a.books {
		if err := a.refreshCatalog(ctx, b); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) refreshCatalog(ctx context.Context, b *book) error {
	markets, err := retrier.DoWithData(a.retrier, ctx, func(ctx context.Context) ([]domain.UiMarket, error) {
		raw, err := metrics.SendAndRecord(ctx, a.recorder, b.kind.String()+".markets", b.fetchMarkets)
		if err != nil {
			return nil, err
		}

		return b.assembler.Assemble(ctx, raw)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to assemble %s market catalog", b.kind)
	}

	return a.store.Commit(store.Mutation{Type: b.setMarkets, Payload: markets})
}

// RefreshSummaries fetches summaries of the catalog markets, reconciles them
// with the held ones and commits the result. A failing catalog does not stop
// the others from refreshing.
func (a *App) RefreshSummaries(ctx context.Context) error {
	var errs []error
	for _, b := range a.books {
		if err := a.refreshSummaries(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}

	return stderrors.Join(errs...)
}

func (a *App) refreshSummaries(ctx context.Context, b *book) error {
	next, err := metrics.SendAndRecord(ctx, a.recorder, b.kind.String()+".summaries", b.fetchSummaries)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %s market summaries", b.kind)
	}

	tracked := make(map[string]struct{})
	for _, m := range b.markets(a.store.State()) {
		tracked[m.MarketID] = struct{}{}
	}

	filtered := make([]domain.MarketSummary, 0, len(next))
	for _, s := range next {
		if _, ok := tracked[s.MarketID]; ok {
			filtered = append(filtered, s)
		}
	}

	merged := b.cache.Apply(filtered)

	return a.store.Commit(store.Mutation{Type: b.setSummaries, Payload: merged})
}

// RefreshPrices fetches USD prices of the catalog tokens.
func (a *App) RefreshPrices(ctx context.Context) error {
	state := a.store.State()

	seen := make(map[string]struct{})
	var ids []string
	for _, b := range a.books {
		for _, m := range b.markets(state) {
			for _, id := range []string{m.BaseToken.CoinGeckoID, m.QuoteToken.CoinGeckoID} {
				if _, ok := seen[id]; id == "" || ok {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	if len(ids) == 0 {
		return nil
	}

	prices, err := a.feed.FetchUsdPrices(ctx, ids)
	if err != nil {
		return err
	}

	a.pricesMu.Lock()
	for id, price := range prices {
		a.prices[id] = price
	}
	a.pricesMu.Unlock()

	return nil
}

// UsdPrices returns the last known USD prices keyed by CoinGecko id.
func (a *App) UsdPrices() map[string]decimal.Decimal {
	a.pricesMu.RLock()
	defer a.pricesMu.RUnlock()

	out := make(map[string]decimal.Decimal, len(a.prices))
	for k, v := range a.prices {
		out[k] = v
	}

	return out
}

func (a *App) poll(name string, fn func(ctx context.Context) error) stream.Func {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(a.cfg.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				a.l.Debug("refresh tick", zap.String("stream", name))
				if err := fn(ctx); err != nil {
					a.l.Error("refresh failed", zap.String("stream", name), zap.Error(err))
				}
			}
		}
	}
}
