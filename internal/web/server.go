package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/internal/events"
	"github.com/unlimitedExchange/injective-dex/internal/store"
)

const (
	heartbeatInterval  = 30 * time.Second
	defaultTLSCacheDir = "cert-cache"
)

type stateReader interface {
	State() store.State
}

type priceReader interface {
	UsdPrices() map[string]decimal.Decimal
}

type summarySubscriber interface {
	Subscribe() chan events.SummaryUpdate
	Unsubscribe(ch chan events.SummaryUpdate)
}

// Server exposes the market catalog, summaries, accounts and session state
// over HTTP.
type Server struct {
	Addr        string
	l           *zap.Logger
	state       stateReader
	summaries   summarySubscriber
	prices      priceReader
	accounts    accountReader
	session     sessionRunner
	gatherer    prometheus.Gatherer
	heartbeat   time.Duration
	tlsDomains  []string
	tlsCacheDir string
}

// Option configures optional parts of Server.
type Option func(*Server)

// WithPrices serves /prices from p.
func WithPrices(p priceReader) Option {
	return func(s *Server) { s.prices = p }
}

// WithMetrics serves /metrics from g.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithAccounts serves the account and subaccount balance routes.
func WithAccounts(a accountReader) Option {
	return func(s *Server) { s.accounts = a }
}

// WithSession serves the wallet and transaction routes.
func WithSession(r sessionRunner) Option {
	return func(s *Server) { s.session = r }
}

// WithAutoTLS makes Start serve HTTPS with ACME certificates for domains.
// An empty domain list keeps plain HTTP.
func WithAutoTLS(domains []string, cacheDir string) Option {
	return func(s *Server) {
		s.tlsDomains = domains
		s.tlsCacheDir = cacheDir
	}
}

// NewServer creates a new web server instance.
func NewServer(addr string, l *zap.Logger, state stateReader, summaries summarySubscriber, opts ...Option) *Server {
	s := &Server{
		Addr:      addr,
		l:         l,
		state:     state,
		summaries: summaries,
		heartbeat: heartbeatInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("GET /markets", s.handleMarkets)
	mux.HandleFunc("GET /summaries", s.handleSummaries)
	mux.HandleFunc("GET /summaries/stream", s.handleSummaryStream)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /prices", s.handlePrices)
	mux.HandleFunc("GET /gas-rebate", s.handleGasRebate)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.accounts != nil {
		mux.HandleFunc("GET /accounts/{address}/balances", s.handleAccountBalances)
		mux.HandleFunc("GET /accounts/{address}/balances/{denom...}", s.handleAccountBalance)
		mux.HandleFunc("GET /accounts/{address}/portfolio", s.handlePortfolio)
		mux.HandleFunc("GET /subaccounts/{id}/balances", s.handleSubaccountBalances)
	}
	if s.session != nil {
		mux.HandleFunc("POST /wallet", s.handleConnectWallet)
		mux.HandleFunc("DELETE /wallet", s.handleLogout)
		mux.HandleFunc("POST /auctions/viewed", s.handleAuctionViewed)
		mux.HandleFunc("POST /app/accept-high-price-deviations", s.handleAcceptHighPriceDeviations)
		mux.HandleFunc("POST /account/balances/refresh", s.handleRefreshBalances)
		mux.HandleFunc("POST /account/deposit", s.handleDeposit)
		mux.HandleFunc("POST /account/withdraw", s.handleWithdraw)
		mux.HandleFunc("POST /gas-rebate/refresh", s.handleGasRebateRefresh)
		mux.HandleFunc("POST /gas-rebate/redeem", s.handleGasRebateRedeem)
	}

	return mux
}

// Start runs the server (blocking) and shuts it down when ctx is cancelled.
// With TLS domains configured it serves HTTPS and answers ACME challenges on :80.
func (s *Server) Start(ctx context.Context) error {
	if len(s.tlsDomains) > 0 {
		return s.startWithAutoTLS(ctx)
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.l.Info("http server started", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func tlsManager(domains []string, cacheDir string) (*autocert.Manager, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = defaultTLSCacheDir
	}

	return &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}, nil
}

func (s *Server) startWithAutoTLS(ctx context.Context) error {
	manager, err := tlsManager(s.tlsDomains, s.tlsCacheDir)
	if err != nil {
		return err
	}

	// port 80 answers HTTP-01 challenges and redirects everything else to https
	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 5 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			s.l.Warn("acme http server shutdown", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil {
			s.l.Warn("https server shutdown", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Error("acme http server failed", zap.Error(err))
		}
	}()

	s.l.Info("https server started", zap.String("addr", s.Addr), zap.Strings("domains", s.tlsDomains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// marketsOf picks the catalog named by ?type=, derivatives by default.
func marketsOf(state store.State, r *http.Request) (store.MarketsState, bool) {
	switch domain.MarketType(r.URL.Query().Get("type")) {
	case "", domain.MarketTypeDerivative:
		return state.Derivatives, true
	case domain.MarketTypeSpot:
		return state.Spot, true
	default:
		return store.MarketsState{}, false
	}
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	catalog, ok := marketsOf(s.state.State(), r)
	if !ok {
		http.Error(w, "unknown market type", http.StatusBadRequest)
		return
	}

	markets := catalog.Markets
	if markets == nil {
		markets = []domain.UiMarket{}
	}
	s.writeJSON(w, markets)
}

// handleSummaries serves markets joined with their summaries. ?slug= narrows
// the response to one market.
func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	catalog, ok := marketsOf(s.state.State(), r)
	if !ok {
		http.Error(w, "unknown market type", http.StatusBadRequest)
		return
	}

	byID := make(map[string]domain.MarketSummary, len(catalog.Summaries))
	for _, summary := range catalog.Summaries {
		byID[summary.MarketID] = summary
	}

	slug := r.URL.Query().Get("slug")
	out := make([]domain.MarketAndSummary, 0, len(catalog.Markets))
	for _, m := range catalog.Markets {
		if slug != "" && m.Slug != slug {
			continue
		}
		summary, ok := byID[m.MarketID]
		if !ok {
			continue
		}
		out = append(out, domain.MarketAndSummary{Market: m, Summary: summary})
	}

	if slug != "" && len(out) == 0 {
		http.Error(w, "market not found", http.StatusNotFound)
		return
	}

	s.writeJSON(w, out)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeState(w)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		s.writeJSON(w, map[string]decimal.Decimal{})
		return
	}
	s.writeJSON(w, s.prices.UsdPrices())
}

func (s *Server) handleSummaryStream(w http.ResponseWriter, r *http.Request) {
	if s.summaries == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "summary stream not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.summaries.Subscribe()
	defer s.summaries.Unsubscribe(ch)

	// send the current summaries first so clients do not wait for a refresh
	state := s.state.State()
	initial := []events.SummaryUpdate{
		{Timestamp: time.Now().UTC(), Market: domain.MarketTypeDerivative, Summaries: state.Derivatives.Summaries},
		{Timestamp: time.Now().UTC(), Market: domain.MarketTypeSpot, Summaries: state.Spot.Summaries},
	}
	for _, update := range initial {
		if len(update.Summaries) == 0 {
			continue
		}
		if err := writeEvent(w, update); err != nil {
			s.l.Warn("summary stream initial write", zap.Error(err))
			return
		}
		flusher.Flush()
	}

	// comment heartbeat keeps proxies from closing the connection
	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case update, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, update); err != nil {
				s.l.Warn("summary stream write", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, update events.SummaryUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "event: summaries\n")
	fmt.Fprintf(w, "data: %s\n\n", payload)

	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.l.Warn("failed to write response", zap.Error(err))
	}
}

// writeError maps domain errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidAddress), errors.Is(err, domain.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTokenNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrWalletNotConnected):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.l.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}

	http.Error(w, err.Error(), status)
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Injective DEX markets</title>
  <link href="https://fonts.googleapis.com/css2?family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root { --bg:#ffffff; --ink:#111111; --ink-soft:#9c9c9c; --panel:#f6f6f6; --up:#1f9d55; --down:#cc1f1a; }
    * { box-sizing:border-box; }
    body { margin:0; padding:2rem; background:var(--bg); color:var(--ink); font-family:'Space Mono',monospace; }
    #app { width:min(1100px, 96vw); margin:0 auto; background:var(--panel); border:3px solid var(--ink); padding:2rem; box-shadow:12px 12px 0 rgba(0,0,0,.15); }
    table { width:100%; border-collapse:collapse; }
    th, td { text-align:right; padding:.4rem .6rem; border-bottom:1px solid rgba(0,0,0,.1); }
    th:first-child, td:first-child { text-align:left; }
    .increase { color:var(--up); }
    .decrease { color:var(--down); }
    #status { color:var(--ink-soft); font-size:.8rem; }
  </style>
</head>
<body>
<div id="app">
  <h1>Derivatives</h1>
  <div id="status">connecting...</div>
  <table>
    <thead><tr><th>Market</th><th>Price</th><th>24h change</th><th>High</th><th>Low</th><th>Volume</th></tr></thead>
    <tbody id="rows"></tbody>
  </table>
</div>
<script>
const markets = new Map();

function fmt(value, decimals){
  const n = Number(value);
  return Number.isFinite(n) ? n.toFixed(decimals) : '-';
}

function render(summaries){
  const byId = new Map(summaries.map(s => [s.marketId, s]));
  const rows = [];
  for (const m of markets.values()) {
    const s = byId.get(m.marketId);
    if (!s) continue;
    rows.push('<tr><td>' + m.ticker + '</td>' +
      '<td class="' + (s.lastPriceChange || '') + '">' + fmt(s.price, m.priceDecimals) + '</td>' +
      '<td>' + fmt(s.change, 2) + '%</td>' +
      '<td>' + fmt(s.high, m.priceDecimals) + '</td>' +
      '<td>' + fmt(s.low, m.priceDecimals) + '</td>' +
      '<td>' + fmt(s.volume, 2) + '</td></tr>');
  }
  document.getElementById('rows').innerHTML = rows.join('');
}

function connectSSE(){
  const es = new EventSource('/summaries/stream');
  es.addEventListener('summaries', ev => {
    const update = JSON.parse(ev.data);
    if (update.market === 'spot') return;
    document.getElementById('status').textContent = 'updated ' + new Date(update.ts).toLocaleTimeString();
    render(update.summaries || []);
  });
  es.onerror = () => {
    document.getElementById('status').textContent = 'reconnecting...';
    es.close();
    setTimeout(connectSSE, 3000);
  };
}

fetch('/markets').then(r => r.json()).then(list => {
  list.forEach(m => markets.set(m.marketId, m));
  connectSSE();
});
</script>
</body>
</html>
`
