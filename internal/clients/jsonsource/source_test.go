package jsonsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const marketsJSON = `[{
	"marketId": "0x4ca0f92fc28be0c9761326016b5a1a2177dd6375558365116b5bdda9abc229ce",
	"ticker": "BTC/USDT PERP",
	"quoteDenom": "peggy0xdAC17F958D2ee523a2206206994597C13D831ec7",
	"makerFeeRate": "-0.0001",
	"takerFeeRate": "0.001",
	"minPriceTickSize": "100000",
	"minQuantityTickSize": "0.0001",
	"isPerpetual": true
}]`

const summariesJSON = `[{
	"marketId": "0x4ca0f92fc28be0c9761326016b5a1a2177dd6375558365116b5bdda9abc229ce",
	"price": "64000.5",
	"open": "63000",
	"high": "65000",
	"low": "62000",
	"volume": "1200",
	"change": "1.58"
}]`

func TestSource_Files(t *testing.T) {
	dir := t.TempDir()
	markets := filepath.Join(dir, "markets.json")
	summaries := filepath.Join(dir, "summaries.json")
	require.NoError(t, os.WriteFile(markets, []byte(marketsJSON), 0o600))
	require.NoError(t, os.WriteFile(summaries, []byte(summariesJSON), 0o600))

	src := New(zap.NewNop(), Locations{Markets: markets, Summaries: summaries})

	got, err := src.Markets(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BTC/USDT PERP", got[0].Ticker)
	assert.True(t, got[0].MinPriceTickSize.Equal(decimal.NewFromInt(100000)))
	assert.True(t, got[0].IsPerpetual)
	assert.Nil(t, got[0].QuoteToken)

	sums, err := src.Summaries(context.Background())
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.True(t, sums[0].Price.Equal(decimal.RequireFromString("64000.5")))
	assert.False(t, sums[0].LastPrice.Valid)
}

func TestSource_MissingFile(t *testing.T) {
	src := New(zap.NewNop(), Locations{Markets: filepath.Join(t.TempDir(), "nope.json")})

	_, err := src.Markets(context.Background())
	assert.Error(t, err)

	_, err = src.Summaries(context.Background())
	assert.Error(t, err)
}

func TestSource_HTTPRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(summariesJSON))
	}))
	defer srv.Close()

	src := New(zap.NewNop(), Locations{Summaries: srv.URL})
	src.retryDelay = time.Millisecond

	sums, err := src.Summaries(context.Background())
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSource_HTTPGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := New(zap.NewNop(), Locations{Markets: srv.URL})
	src.retryDelay = time.Millisecond

	_, err := src.Markets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}
