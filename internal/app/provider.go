package app

import (
	"context"
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"

	"github.com/unlimitedExchange/injective-dex/config"
	"github.com/unlimitedExchange/injective-dex/internal/clients"
	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/internal/services/pricer"
	"github.com/unlimitedExchange/injective-dex/internal/storage/filekv"
	"github.com/unlimitedExchange/injective-dex/internal/storage/rediskv"
	"github.com/unlimitedExchange/injective-dex/internal/storage/walkv"
)

// newPriceClient creates the public market data client of the configured platform.
func newPriceClient(cfg config.PriceFeedConfig) (any, error) {
	switch cfg.Platform {
	case config.PlatformBinance:
		return clients.NewBinanceClient(), nil
	case config.PlatformBybit:
		return clients.NewBybitClient(), nil
	case config.PlatformHyperliquid:
		return clients.NewHyperliquidClient(cfg.HyperliquidURL)
	default:
		return nil, fmt.Errorf("unsupported price platform: %s", cfg.Platform)
	}
}

// newPricer is the single point of dispatch to platform-specific pricers.
func newPricer(client any) (pricer.Pricer, error) {
	switch c := client.(type) {
	case *binance.Client:
		return pricer.NewBinancePricer(c), nil
	case *bybit.Client:
		return pricer.NewBybitPricer(c), nil
	case *clients.HyperliquidClient:
		return pricer.NewHyperliquidPricer(c.Info()), nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

// openKV opens the key-value store backing the persisted session state.
func openKV(ctx context.Context, cfg config.StorageConfig) (domain.KeyValueStore, error) {
	switch cfg.Backend {
	case config.BackendWAL:
		s, err := walkv.New(cfg.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "open wal store")
		}
		return s, nil
	case config.BackendFile:
		s, err := filekv.New(cfg.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "open file store")
		}
		return s, nil
	case config.BackendRedis:
		s, err := rediskv.New(ctx, rediskv.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, errors.Wrap(err, "open redis store")
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
