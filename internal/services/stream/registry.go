// Package stream keeps long running subscriptions addressable by key.
package stream

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Func is the body of a stream. It must return once ctx is done.
type Func func(ctx context.Context) error

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry runs streams keyed by name. Subscribing an existing key replaces
// the running stream.
type Registry struct {
	l *zap.Logger

	mu      sync.Mutex
	streams map[string]*handle
}

func NewRegistry(l *zap.Logger) *Registry {
	return &Registry{
		l:       l,
		streams: make(map[string]*handle),
	}
}

// Subscribe starts fn under key, stopping any stream already running under it.
func (r *Registry) Subscribe(ctx context.Context, key string, fn Func) {
	streamCtx, cancel := context.WithCancel(ctx)
	h := &handle{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	prev := r.streams[key]
	r.streams[key] = h
	r.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	go func() {
		defer close(h.done)
		defer r.release(key, h)

		err := fn(streamCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.l.Error("stream stopped", zap.String("key", key), zap.Error(err))
			return
		}
		r.l.Debug("stream finished", zap.String("key", key))
	}()
}

// Cancel stops the stream running under key and waits for it to return.
// It reports whether such a stream existed.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	h, ok := r.streams[key]
	delete(r.streams, key)
	r.mu.Unlock()

	if !ok {
		return false
	}

	h.cancel()
	<-h.done

	return true
}

// CancelAll stops every stream.
func (r *Registry) CancelAll() {
	for _, key := range r.Keys() {
		r.Cancel(key)
	}
}

// Keys returns the keys of running streams in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.streams))
	for k := range r.streams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

func (r *Registry) release(key string, h *handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.streams[key] == h {
		delete(r.streams, key)
	}
}
