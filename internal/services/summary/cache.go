package summary

import (
	"sync"
	"time"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
	"github.com/unlimitedExchange/injective-dex/internal/events"
)

type publisher interface {
	Publish(u events.SummaryUpdate)
}

// Cache holds the reconciled summaries of the tracked markets. Refresh loops may
// call Apply concurrently; updates are serialized by the cache mutex.
type Cache struct {
	mu        sync.RWMutex
	summaries []domain.MarketSummary
	pub       publisher
	market    domain.MarketType
	now       func() time.Time
}

// NewCache creates an empty cache of market summaries publishing updates to
// pub (may be nil).
func NewCache(pub publisher, market domain.MarketType) *Cache {
	return &Cache{pub: pub, market: market, now: time.Now}
}

// Market returns the market kind held by the cache.
func (c *Cache) Market() domain.MarketType {
	return c.market
}

// Seed replaces the tracked set with summaries, without reconciliation.
func (c *Cache) Seed(summaries []domain.MarketSummary) {
	c.mu.Lock()
	c.summaries = append([]domain.MarketSummary(nil), summaries...)
	snapshot := c.snapshot()
	c.mu.Unlock()

	c.publish(snapshot)
}

// Apply reconciles next against the held summaries and returns the merged list.
// An empty cache is seeded with next.
func (c *Cache) Apply(next []domain.MarketSummary) []domain.MarketSummary {
	c.mu.Lock()
	if len(c.summaries) == 0 {
		c.summaries = ReconcileAll(next, next)
	} else {
		c.summaries = ReconcileAll(c.summaries, next)
	}
	snapshot := c.snapshot()
	c.mu.Unlock()

	c.publish(snapshot)

	return snapshot
}

// Get returns the summary held for marketID.
func (c *Cache) Get(marketID string) (domain.MarketSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range c.summaries {
		if s.MarketID == marketID {
			return s, true
		}
	}

	return domain.MarketSummary{}, false
}

// All returns a copy of every held summary.
func (c *Cache) All() []domain.MarketSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshot()
}

func (c *Cache) snapshot() []domain.MarketSummary {
	return append([]domain.MarketSummary(nil), c.summaries...)
}

func (c *Cache) publish(summaries []domain.MarketSummary) {
	if c.pub == nil {
		return
	}

	c.pub.Publish(events.SummaryUpdate{Timestamp: c.now(), Market: c.market, Summaries: summaries})
}
