package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/unlimitedExchange/injective-dex/internal/store"
)

const sampleYaml = `
network: testnet
http_addr: ":9090"
refresh_interval: 30s
markets_file: ./markets.json
summaries_file: https://example.org/summaries.json
spot_markets_file: ./spot-markets.json
spot_summaries_file: ./spot-summaries.json
accounts_file: ./accounts.json
tx_gateway_url: http://localhost:9100
http_tls:
  domains: [dex.example.org]
log:
  level: debug
  file: /tmp/injective-dex.log
storage:
  backend: redis
  redis_addr: localhost:6379
price_feed:
  platform: bybit
catalog:
  derivatives:
    included: [btc-usdt-perp, eth-usdt-perp, inj-usdt-perp]
    excluded: [eth-usdt-perp]
  spot:
    included: [inj-usdt, atom-usdt]
tokens:
  - symbol: INJ
    denom: inj
    decimals: 18
    coingecko_id: injective-protocol
  - symbol: USDT
    denom: peggy0xdAC17F958D2ee523a2206206994597C13D831ec7
    decimals: 6
    coingecko_id: tether
    address: "0xdAC17F958D2ee523a2206206994597C13D831ec7"
ibc_traces:
  C4CFF46FD6DE35CA4CF4CE031E643C8FDC9BA4B99AE598E9B0ED98FE3A2319F9:
    path: transfer/channel-1
    base_denom: uatom
persist:
  busy_actions: [derivatives/submitLimitOrder]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_Yaml(t *testing.T) {
	cfg, setup, err := Parse([]string{"--config", writeConfig(t, sampleYaml)})
	require.NoError(t, err)
	assert.False(t, setup)

	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, PlatformBybit, cfg.PriceFeed.Platform)
	assert.Equal(t, defaultQuote, cfg.PriceFeed.Quote)
	assert.Equal(t, []string{"btc-usdt-perp", "eth-usdt-perp", "inj-usdt-perp"}, cfg.Catalog.Derivatives.Included)
	assert.Equal(t, []string{"eth-usdt-perp"}, cfg.Catalog.Derivatives.Excluded)
	assert.Equal(t, []string{"inj-usdt", "atom-usdt"}, cfg.Catalog.Spot.Included)
	assert.True(t, cfg.HasSpot())
	assert.Equal(t, "./accounts.json", cfg.AccountsFile)
	assert.Equal(t, "http://localhost:9100", cfg.TxGatewayURL)
	assert.Equal(t, []string{"dex.example.org"}, cfg.HTTPTLS.Domains)
	assert.Equal(t, defaultTLSCacheDir, cfg.HTTPTLS.CacheDir)

	require.Len(t, cfg.Tokens, 2)
	assert.Equal(t, int32(18), cfg.Tokens[0].Decimals)
	assert.Equal(t, "injective-protocol", cfg.Tokens[0].CoinGeckoID)
	assert.Equal(t, "uatom", cfg.IbcTraces["C4CFF46FD6DE35CA4CF4CE031E643C8FDC9BA4B99AE598E9B0ED98FE3A2319F9"].BaseDenom)

	assert.Equal(t, store.DefaultPersistMutations, cfg.PersistMutations())
	assert.Equal(t, []string{"derivatives/submitLimitOrder"}, cfg.BusyActions())
}

func TestParse_YamlErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad interval",
			content: "refresh_interval: soon\nmarkets_file: m\nsummaries_file: s\n",
			wantErr: "refresh_interval",
		},
		{
			name:    "unknown backend",
			content: "storage:\n  backend: s3\nmarkets_file: m\nsummaries_file: s\n",
			wantErr: "unsupported storage backend",
		},
		{
			name:    "redis without address",
			content: "storage:\n  backend: redis\nmarkets_file: m\nsummaries_file: s\n",
			wantErr: "redis_addr",
		},
		{
			name:    "unknown price platform",
			content: "price_feed:\n  platform: kraken\nmarkets_file: m\nsummaries_file: s\n",
			wantErr: "unsupported price platform",
		},
		{
			name:    "missing sources",
			content: "network: mainnet\n",
			wantErr: "sources must be set",
		},
		{
			name:    "uppercase slug",
			content: "markets_file: m\nsummaries_file: s\ncatalog:\n  derivatives:\n    included: [BTC-USDT-PERP]\n",
			wantErr: "lowercase",
		},
		{
			name:    "uppercase spot slug",
			content: "markets_file: m\nsummaries_file: s\ncatalog:\n  spot:\n    included: [INJ-USDT]\n",
			wantErr: "lowercase",
		},
		{
			name:    "spot markets without summaries",
			content: "markets_file: m\nsummaries_file: s\nspot_markets_file: sm\n",
			wantErr: "set together",
		},
		{
			name:    "gateway without scheme",
			content: "markets_file: m\nsummaries_file: s\ntx_gateway_url: localhost:9100\n",
			wantErr: "http or https",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]string{"--config", writeConfig(t, tt.content)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_Flags(t *testing.T) {
	cfg, setup, err := Parse([]string{
		"--markets-file", "markets.json",
		"--summaries-file", "summaries.json",
		"--included", "btc-usdt-perp, eth-usdt-perp,",
		"--excluded", "eth-usdt-perp",
		"--storage-backend", "file",
		"--refresh-interval", "1m",
		"--spot-markets-file", "spot-markets.json",
		"--spot-summaries-file", "spot-summaries.json",
		"--spot-included", "inj-usdt",
		"--tls-domains", "dex.example.org,www.dex.example.org",
	})
	require.NoError(t, err)
	assert.False(t, setup)

	assert.Equal(t, defaultNetwork, cfg.Network)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, defaultStorageDir, cfg.Storage.Dir)
	assert.Equal(t, []string{"btc-usdt-perp", "eth-usdt-perp"}, cfg.Catalog.Derivatives.Included)
	assert.Equal(t, []string{"eth-usdt-perp"}, cfg.Catalog.Derivatives.Excluded)
	assert.Equal(t, store.DefaultBusyActions, cfg.BusyActions())
	assert.True(t, cfg.HasSpot())
	assert.Equal(t, []string{"inj-usdt"}, cfg.Catalog.Spot.Included)
	assert.Equal(t, []string{"dex.example.org", "www.dex.example.org"}, cfg.HTTPTLS.Domains)
	assert.Empty(t, cfg.TxGatewayURL)
}

func TestParse_TokensFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- symbol: ATOM\n  denom: uatom\n  decimals: 6\n"), 0o600))

	cfg, _, err := Parse([]string{"--markets-file", "m", "--summaries-file", "s", "--tokens-file", path})
	require.NoError(t, err)
	require.Len(t, cfg.Tokens, 1)
	assert.Equal(t, "ATOM", cfg.Tokens[0].Symbol)
}

func TestParse_Setup(t *testing.T) {
	_, setup, err := Parse([]string{"--setup"})
	require.NoError(t, err)
	assert.True(t, setup)
}

func TestToTmp_RoundTrip(t *testing.T) {
	cfg, _, err := Parse([]string{"--config", writeConfig(t, sampleYaml)})
	require.NoError(t, err)

	data, err := yaml.Marshal(ToTmp(cfg))
	require.NoError(t, err)

	var tmp ConfigTmp
	require.NoError(t, yaml.Unmarshal(data, &tmp))
	restored, err := FromTmp(tmp)
	require.NoError(t, err)

	assert.Equal(t, cfg, restored)
}
