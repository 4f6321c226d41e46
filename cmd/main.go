// Command injective-dex serves the Injective derivatives market catalog with
// live reconciled summaries, USD prices and the persisted session state.
//
// Usage:
//
//	injective-dex --config config.yaml
//	injective-dex --setup (interactive wizard, then starts with the generated config)
//	injective-dex --markets-file markets.json --summaries-file summaries.json --included btc-usdt-perp
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/config"
	"github.com/unlimitedExchange/injective-dex/internal/app"
	"github.com/unlimitedExchange/injective-dex/internal/logging"
	"github.com/unlimitedExchange/injective-dex/internal/setup"
)

func main() {
	cfg, runSetup, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if runSetup {
		path, err := setup.RunTUI()
		if err != nil {
			log.Fatal(err)
		}

		cfg, _, err = config.Parse([]string{"--config", path})
		if err != nil {
			log.Fatal(err)
		}
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("failed to create app", zap.Error(err))
	}

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("app stopped", zap.Error(err))
		os.Exit(1)
	}
}
