package events

import (
	"sync"
	"time"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

// SummaryUpdate is published after every reconciliation of the summary cache.
// Market tells derivative and spot updates apart.
type SummaryUpdate struct {
	Timestamp time.Time              `json:"ts"`
	Market    domain.MarketType      `json:"market,omitempty"`
	Summaries []domain.MarketSummary `json:"summaries"`
}

// SummaryBroadcaster fans out summary updates to all subscribers via buffered channels.
type SummaryBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan SummaryUpdate]struct{}
	buffer int
}

// NewSummaryBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewSummaryBroadcaster(buffer int) *SummaryBroadcaster {
	if buffer < 1 {
		buffer = 16
	}
	return &SummaryBroadcaster{
		subs:   make(map[chan SummaryUpdate]struct{}),
		buffer: buffer,
	}
}

// Publish sends the update to all subscribers, dropping it for slow readers.
func (b *SummaryBroadcaster) Publish(u SummaryUpdate) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- u:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives updates until Unsubscribe is called.
func (b *SummaryBroadcaster) Subscribe() chan SummaryUpdate {
	ch := make(chan SummaryUpdate, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *SummaryBroadcaster) Unsubscribe(ch chan SummaryUpdate) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the number of active subscribers.
func (b *SummaryBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
