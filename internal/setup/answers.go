// Package setup implements the interactive configuration wizard.
package setup

import (
	"strings"

	"github.com/unlimitedExchange/injective-dex/config"
)

// Answers holds the raw values collected by the wizard.
type Answers struct {
	Network         string
	MarketsFile     string
	SummariesFile   string
	Included        string
	RefreshInterval string
	PricePlatform   string
	StorageBackend  string
	StorageDir      string
	RedisAddr       string
}

// DefaultAnswers returns the values the wizard starts from.
func DefaultAnswers() Answers {
	return Answers{
		Network:         "mainnet",
		MarketsFile:     "markets.json",
		SummariesFile:   "summaries.json",
		RefreshInterval: "10s",
		PricePlatform:   config.PlatformBinance,
		StorageBackend:  config.BackendWAL,
		StorageDir:      "./data",
	}
}

// Build validates answers and converts them into the yaml config representation.
func (a Answers) Build() (config.ConfigTmp, error) {
	var included []string
	for _, slug := range strings.Split(a.Included, ",") {
		if slug = strings.ToLower(strings.TrimSpace(slug)); slug != "" {
			included = append(included, slug)
		}
	}

	tmp := config.ConfigTmp{
		Network:         a.Network,
		RefreshInterval: a.RefreshInterval,
		MarketsFile:     a.MarketsFile,
		SummariesFile:   a.SummariesFile,
		Log:             config.LogConfig{Level: "info"},
		Storage:         config.StorageConfig{Backend: a.StorageBackend},
		PriceFeed:       config.PriceFeedConfig{Platform: a.PricePlatform},
		Catalog: config.CatalogConfig{
			Derivatives: config.MarketFilter{Included: included},
		},
	}

	if a.StorageBackend == config.BackendRedis {
		tmp.Storage.RedisAddr = a.RedisAddr
	} else {
		tmp.Storage.Dir = a.StorageDir
	}

	// reject what config loading would reject
	if _, err := config.FromTmp(tmp); err != nil {
		return config.ConfigTmp{}, err
	}

	return tmp, nil
}
