package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/internal/store"
)

const (
	BackendWAL   = "wal"
	BackendFile  = "file"
	BackendRedis = "redis"

	PlatformBinance     = "binance"
	PlatformBybit       = "bybit"
	PlatformHyperliquid = "hyperliquid"
)

const (
	defaultNetwork         = "mainnet"
	defaultHTTPAddr        = ":8080"
	defaultRefreshInterval = 10 * time.Second
	defaultStorageDir      = "./data"
	defaultQuote           = "USDT"
	defaultHyperliquidURL  = "https://api.hyperliquid.xyz"
	defaultTLSCacheDir     = "cert-cache"
)

type Config struct {
	Network           string
	HTTPAddr          string
	RefreshInterval   time.Duration
	MarketsFile       string
	SummariesFile     string
	// SpotMarketsFile and SpotSummariesFile are optional, spot catalogs are off when both are empty.
	SpotMarketsFile   string
	SpotSummariesFile string
	AccountsFile      string
	TxGatewayURL      string
	HTTPTLS           TLSConfig
	Log               LogConfig
	Storage           StorageConfig
	PriceFeed         PriceFeedConfig
	Catalog           CatalogConfig
	Tokens            []domain.Token
	IbcTraces         map[string]domain.DenomTrace
	Persist           PersistConfig
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"`
	Dir           string `yaml:"dir,omitempty"`
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty"`
}

type PriceFeedConfig struct {
	Platform       string `yaml:"platform"`
	Quote          string `yaml:"quote,omitempty"`
	HyperliquidURL string `yaml:"hyperliquid_url,omitempty"`
}

// MarketFilter lists the slugs shown to the user, in display order, and slugs hidden from them.
type MarketFilter struct {
	Included []string `yaml:"included"`
	Excluded []string `yaml:"excluded,omitempty"`
}

type CatalogConfig struct {
	Derivatives MarketFilter `yaml:"derivatives"`
	Spot        MarketFilter `yaml:"spot,omitempty"`
}

// TLSConfig enables automatic certificates for Domains when it lists any.
type TLSConfig struct {
	Domains  []string `yaml:"domains,omitempty"`
	CacheDir string   `yaml:"cache_dir,omitempty"`
}

// PersistConfig holds the whitelists of the persistence plugin. Nil lists mean defaults.
type PersistConfig struct {
	Mutations   []string `yaml:"mutations,omitempty"`
	BusyActions []string `yaml:"busy_actions,omitempty"`
}

// ConfigTmp is the yaml representation of Config.
type ConfigTmp struct {
	Network         string                       `yaml:"network"`
	HTTPAddr        string                       `yaml:"http_addr"`
	RefreshInterval string                       `yaml:"refresh_interval"`
	MarketsFile     string                       `yaml:"markets_file"`
	SummariesFile   string                       `yaml:"summaries_file"`
	SpotMarkets     string                       `yaml:"spot_markets_file,omitempty"`
	SpotSummaries   string                       `yaml:"spot_summaries_file,omitempty"`
	AccountsFile    string                       `yaml:"accounts_file,omitempty"`
	TxGatewayURL    string                       `yaml:"tx_gateway_url,omitempty"`
	HTTPTLS         TLSConfig                    `yaml:"http_tls,omitempty"`
	Log             LogConfig                    `yaml:"log"`
	Storage         StorageConfig                `yaml:"storage"`
	PriceFeed       PriceFeedConfig              `yaml:"price_feed"`
	Catalog         CatalogConfig                `yaml:"catalog"`
	Tokens          []domain.Token               `yaml:"tokens"`
	IbcTraces       map[string]domain.DenomTrace `yaml:"ibc_traces,omitempty"`
	Persist         PersistConfig                `yaml:"persist,omitempty"`
}

// Get parses command line arguments of the process.
func Get() (Config, bool, error) {
	return Parse(os.Args[1:])
}

// Parse reads config from --config yaml or from flags. The bool result reports
// whether the setup wizard was requested.
func Parse(args []string) (Config, bool, error) {
	fs := flag.NewFlagSet("injective-dex", flag.ContinueOnError)

	configPath := fs.String("config", "", "path to yaml config")
	setup := fs.Bool("setup", false, "run interactive config wizard")
	network := fs.String("network", defaultNetwork, "network name, example: mainnet")
	httpAddr := fs.String("http-addr", defaultHTTPAddr, "http listen address")
	refresh := fs.Duration("refresh-interval", defaultRefreshInterval, "market summaries refresh interval")
	marketsFile := fs.String("markets-file", "", "path or url of raw markets json")
	summariesFile := fs.String("summaries-file", "", "path or url of market summaries json")
	tokensFile := fs.String("tokens-file", "", "path to yaml token list")
	included := fs.String("included", "", "comma separated derivative market slugs, in display order")
	excluded := fs.String("excluded", "", "comma separated derivative market slugs to hide")
	spotMarketsFile := fs.String("spot-markets-file", "", "path or url of raw spot markets json")
	spotSummariesFile := fs.String("spot-summaries-file", "", "path or url of spot market summaries json")
	spotIncluded := fs.String("spot-included", "", "comma separated spot market slugs, in display order")
	spotExcluded := fs.String("spot-excluded", "", "comma separated spot market slugs to hide")
	accountsFile := fs.String("accounts-file", "", "path or url of account balances json")
	txGateway := fs.String("tx-gateway-url", "", "base url of the transaction gateway")
	tlsDomains := fs.String("tls-domains", "", "comma separated domains served over https with automatic certificates")
	tlsCacheDir := fs.String("tls-cache-dir", defaultTLSCacheDir, "certificate cache directory")
	backend := fs.String("storage-backend", BackendWAL, "state storage backend: wal, file or redis")
	storageDir := fs.String("storage-dir", defaultStorageDir, "state storage directory")
	redisAddr := fs.String("redis-addr", "", "redis address for the redis backend")
	platform := fs.String("price-platform", PlatformBinance, "usd price source: binance, bybit or hyperliquid")
	quote := fs.String("price-quote", defaultQuote, "usd pegged quote asset on the price source")
	logLevel := fs.String("log-level", "info", "log level")
	logFile := fs.String("log-file", "", "rotated log file, stdout only when empty")

	if err := fs.Parse(args); err != nil {
		return Config{}, false, err
	}

	if *setup {
		return Config{}, true, nil
	}

	if *configPath != "" {
		cfg, err := getYaml(*configPath)
		return cfg, false, err
	}

	var tokens []domain.Token
	if *tokensFile != "" {
		data, err := os.ReadFile(*tokensFile)
		if err != nil {
			return Config{}, false, errors.Wrap(err, "read tokens file")
		}
		if err := yaml.Unmarshal(data, &tokens); err != nil {
			return Config{}, false, errors.Wrap(err, "parse tokens file")
		}
	}

	cfg := Config{
		Network:           *network,
		HTTPAddr:          *httpAddr,
		RefreshInterval:   *refresh,
		MarketsFile:       *marketsFile,
		SummariesFile:     *summariesFile,
		SpotMarketsFile:   *spotMarketsFile,
		SpotSummariesFile: *spotSummariesFile,
		AccountsFile:      *accountsFile,
		TxGatewayURL:      *txGateway,
		HTTPTLS:           TLSConfig{Domains: splitList(*tlsDomains), CacheDir: *tlsCacheDir},
		Log:               LogConfig{Level: *logLevel, File: *logFile},
		Storage:           StorageConfig{Backend: *backend, Dir: *storageDir, RedisAddr: *redisAddr},
		PriceFeed:         PriceFeedConfig{Platform: *platform, Quote: *quote, HyperliquidURL: defaultHyperliquidURL},
		Catalog: CatalogConfig{
			Derivatives: MarketFilter{Included: splitList(*included), Excluded: splitList(*excluded)},
			Spot:        MarketFilter{Included: splitList(*spotIncluded), Excluded: splitList(*spotExcluded)},
		},
		Tokens: tokens,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, false, err
	}

	return cfg, false, nil
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "parse yaml config %s", path)
	}

	return FromTmp(tmp)
}

// FromTmp converts the yaml representation, applying defaults.
func FromTmp(tmp ConfigTmp) (Config, error) {
	cfg := Config{
		Network:           orDefault(tmp.Network, defaultNetwork),
		HTTPAddr:          orDefault(tmp.HTTPAddr, defaultHTTPAddr),
		RefreshInterval:   defaultRefreshInterval,
		MarketsFile:       tmp.MarketsFile,
		SummariesFile:     tmp.SummariesFile,
		SpotMarketsFile:   tmp.SpotMarkets,
		SpotSummariesFile: tmp.SpotSummaries,
		AccountsFile:      tmp.AccountsFile,
		TxGatewayURL:      tmp.TxGatewayURL,
		HTTPTLS:           tmp.HTTPTLS,
		Log:               tmp.Log,
		Storage:           tmp.Storage,
		PriceFeed:         tmp.PriceFeed,
		Catalog:           tmp.Catalog,
		Tokens:            tmp.Tokens,
		IbcTraces:         tmp.IbcTraces,
		Persist:           tmp.Persist,
	}

	if tmp.RefreshInterval != "" {
		d, err := time.ParseDuration(tmp.RefreshInterval)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'refresh_interval' param in yaml config (correct format is 10s), error: %w", err)
		}
		cfg.RefreshInterval = d
	}

	cfg.Log.Level = orDefault(cfg.Log.Level, "info")
	cfg.Storage.Backend = orDefault(cfg.Storage.Backend, BackendWAL)
	cfg.Storage.Dir = orDefault(cfg.Storage.Dir, defaultStorageDir)
	cfg.PriceFeed.Platform = orDefault(cfg.PriceFeed.Platform, PlatformBinance)
	cfg.PriceFeed.Quote = orDefault(cfg.PriceFeed.Quote, defaultQuote)
	cfg.PriceFeed.HyperliquidURL = orDefault(cfg.PriceFeed.HyperliquidURL, defaultHyperliquidURL)
	cfg.HTTPTLS.CacheDir = orDefault(cfg.HTTPTLS.CacheDir, defaultTLSCacheDir)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ToTmp converts cfg into its yaml representation.
func ToTmp(cfg Config) ConfigTmp {
	return ConfigTmp{
		Network:         cfg.Network,
		HTTPAddr:        cfg.HTTPAddr,
		RefreshInterval: cfg.RefreshInterval.String(),
		MarketsFile:     cfg.MarketsFile,
		SummariesFile:   cfg.SummariesFile,
		SpotMarkets:     cfg.SpotMarketsFile,
		SpotSummaries:   cfg.SpotSummariesFile,
		AccountsFile:    cfg.AccountsFile,
		TxGatewayURL:    cfg.TxGatewayURL,
		HTTPTLS:         cfg.HTTPTLS,
		Log:             cfg.Log,
		Storage:         cfg.Storage,
		PriceFeed:       cfg.PriceFeed,
		Catalog:         cfg.Catalog,
		Tokens:          cfg.Tokens,
		IbcTraces:       cfg.IbcTraces,
		Persist:         cfg.Persist,
	}
}

// PersistMutations returns the configured mutation whitelist or the default one.
func (c Config) PersistMutations() []string {
	if c.Persist.Mutations != nil {
		return c.Persist.Mutations
	}
	return store.DefaultPersistMutations
}

// BusyActions returns the configured busy action whitelist or the default one.
func (c Config) BusyActions() []string {
	if c.Persist.BusyActions != nil {
		return c.Persist.BusyActions
	}
	return store.DefaultBusyActions
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case BackendWAL, BackendFile:
		if c.Storage.Dir == "" {
			return errors.Errorf("storage backend %s requires a directory", c.Storage.Backend)
		}
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage backend redis requires redis_addr")
		}
	default:
		return errors.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	switch c.PriceFeed.Platform {
	case PlatformBinance, PlatformBybit, PlatformHyperliquid:
	default:
		return errors.Errorf("unsupported price platform %q", c.PriceFeed.Platform)
	}

	if c.RefreshInterval <= 0 {
		return errors.Errorf("invalid refresh interval %s", c.RefreshInterval)
	}

	if c.MarketsFile == "" || c.SummariesFile == "" {
		return errors.New("markets and summaries sources must be set")
	}

	if (c.SpotMarketsFile == "") != (c.SpotSummariesFile == "") {
		return errors.New("spot markets and spot summaries sources must be set together")
	}

	for _, slugs := range [][]string{c.Catalog.Derivatives.Included, c.Catalog.Spot.Included} {
		for _, slug := range slugs {
			if slug != strings.ToLower(slug) {
				return errors.Errorf("market slug %q must be lowercase", slug)
			}
		}
	}

	if c.TxGatewayURL != "" && !strings.HasPrefix(c.TxGatewayURL, "http://") && !strings.HasPrefix(c.TxGatewayURL, "https://") {
		return errors.Errorf("tx gateway url %q must be http or https", c.TxGatewayURL)
	}

	return nil
}

// HasSpot reports whether spot catalogs are configured.
func (c Config) HasSpot() bool {
	return c.SpotMarketsFile != "" && c.SpotSummariesFile != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
