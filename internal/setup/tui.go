package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/unlimitedExchange/injective-dex/config"
)

// DefaultConfigFile is the file the wizard writes to.
const DefaultConfigFile = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and returns the path of
// the written config.
func RunTUI() (string, error) {
	a := DefaultAnswers()
	var confirm bool

	step := func(title string) {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("INJECTIVE DEX CONFIG WIZARD"))
		fmt.Println(stepStyle.Render(title))
	}

	step("STEP 1: NETWORK")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Markets, summaries and where to keep the session state.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Network").
				Options(
					huh.NewOption("Mainnet", "mainnet"),
					huh.NewOption("Testnet", "testnet"),
					huh.NewOption("Devnet", "devnet"),
				).
				Value(&a.Network),
		),
	).Run()
	if err != nil {
		return "", err
	}

	step("STEP 2: MARKET DATA")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Markets source").
				Description("File path or http(s) url of raw markets json").
				Value(&a.MarketsFile).
				Validate(notEmpty("markets source")),
			huh.NewInput().
				Title("Summaries source").
				Description("File path or http(s) url of market summaries json").
				Value(&a.SummariesFile).
				Validate(notEmpty("summaries source")),
			huh.NewInput().
				Title("Derivative markets").
				Description("Comma separated slugs in display order (e.g. btc-usdt-perp,eth-usdt-perp)").
				Value(&a.Included),
			huh.NewInput().
				Title("Refresh interval").
				Description("Duration string (e.g. 10s, 1m)").
				Value(&a.RefreshInterval).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return "", err
	}

	step("STEP 3: USD PRICES")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("USD price source").
				Options(
					huh.NewOption("Binance", config.PlatformBinance),
					huh.NewOption("Bybit", config.PlatformBybit),
					huh.NewOption("Hyperliquid", config.PlatformHyperliquid),
				).
				Value(&a.PricePlatform),
		),
	).Run()
	if err != nil {
		return "", err
	}

	step("STEP 4: STATE STORAGE")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Storage backend").
				Options(
					huh.NewOption("Write-ahead log", config.BackendWAL),
					huh.NewOption("JSON files", config.BackendFile),
					huh.NewOption("Redis", config.BackendRedis),
				).
				Value(&a.StorageBackend),
		),
	).Run()
	if err != nil {
		return "", err
	}

	storageField := huh.NewInput().
		Title("Storage directory").
		Value(&a.StorageDir)
	if a.StorageBackend == config.BackendRedis {
		storageField = huh.NewInput().
			Title("Redis address").
			Description("host:port").
			Value(&a.RedisAddr).
			Validate(notEmpty("redis address"))
	}
	if err := huh.NewForm(huh.NewGroup(storageField)).Run(); err != nil {
		return "", err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Network: %s\nMarkets: %s\nSummaries: %s\nPrices: %s\nStorage: %s\nInterval: %s\n",
		a.Network, a.MarketsFile, a.SummariesFile, a.PricePlatform, a.StorageBackend, a.RefreshInterval,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}

	if !confirm {
		return "", errors.New("setup cancelled by user")
	}

	tmp, err := a.Build()
	if err != nil {
		return "", err
	}

	if err := WriteConfig(DefaultConfigFile, tmp); err != nil {
		return "", err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting...", DefaultConfigFile)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message

	return DefaultConfigFile, nil
}

// WriteConfig writes tmp as yaml to path.
func WriteConfig(path string, tmp config.ConfigTmp) error {
	data, err := yaml.Marshal(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to generate yaml")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}

	return nil
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}
