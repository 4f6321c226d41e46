// Package jsonsource loads raw markets, market summaries and account data from
// JSON documents on disk or behind an HTTP endpoint.
package jsonsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// Locations tells where each document is read from. Locations starting with
// http:// or https:// are fetched, anything else is read as a file path.
// Spot and account locations are optional.
type Locations struct {
	Markets       string
	Summaries     string
	SpotMarkets   string
	SpotSummaries string
	Accounts      string
}

// Source reads the documents named by Locations.
type Source struct {
	l          *zap.Logger
	loc        Locations
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// New creates source reading from loc.
func New(l *zap.Logger, loc Locations) *Source {
	return &Source{
		l:   l,
		loc: loc,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// Markets returns raw derivative markets.
func (s *Source) Markets(ctx context.Context) ([]domain.RawMarket, error) {
	return s.markets(ctx, s.loc.Markets, "markets")
}

// Summaries returns the latest derivative market summaries.
func (s *Source) Summaries(ctx context.Context) ([]domain.MarketSummary, error) {
	return s.summaries(ctx, s.loc.Summaries, "summaries")
}

// HasSpot reports whether spot locations are configured.
func (s *Source) HasSpot() bool {
	return s.loc.SpotMarkets != "" && s.loc.SpotSummaries != ""
}

// SpotMarkets returns raw spot markets.
func (s *Source) SpotMarkets(ctx context.Context) ([]domain.RawMarket, error) {
	if s.loc.SpotMarkets == "" {
		return nil, errors.Wrap(domain.ErrNotConfigured, "spot markets source")
	}

	return s.markets(ctx, s.loc.SpotMarkets, "spot markets")
}

// SpotSummaries returns the latest spot market summaries.
func (s *Source) SpotSummaries(ctx context.Context) ([]domain.MarketSummary, error) {
	if s.loc.SpotSummaries == "" {
		return nil, errors.Wrap(domain.ErrNotConfigured, "spot summaries source")
	}

	return s.summaries(ctx, s.loc.SpotSummaries, "spot summaries")
}

func (s *Source) markets(ctx context.Context, location, what string) ([]domain.RawMarket, error) {
	var markets []domain.RawMarket
	if err := s.load(ctx, location, &markets); err != nil {
		return nil, errors.Wrapf(err, "load %s", what)
	}

	return markets, nil
}

func (s *Source) summaries(ctx context.Context, location, what string) ([]domain.MarketSummary, error) {
	var summaries []domain.MarketSummary
	if err := s.load(ctx, location, &summaries); err != nil {
		return nil, errors.Wrapf(err, "load %s", what)
	}

	return summaries, nil
}

func (s *Source) load(ctx context.Context, location string, dst any) error {
	if location == "" {
		return errors.New("location is empty")
	}

	var (
		body []byte
		err  error
	)
	if isURL(location) {
		body, err = s.fetch(ctx, location)
	} else {
		body, err = os.ReadFile(location)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Wrapf(err, "failed to unmarshal %s", location)
	}

	return nil
}

func (s *Source) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		body, err := s.get(ctx, url)
		if err != nil {
			s.l.Debug("fetch failed", zap.String("url", url), zap.Int("attempt", attempt+1), zap.Error(err))
			lastErr = err
			continue
		}

		return body, nil
	}

	return nil, errors.Wrapf(lastErr, "failed after %d retries", s.maxRetries)
}

func (s *Source) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
