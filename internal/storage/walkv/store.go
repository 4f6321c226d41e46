// Package walkv implements a key-value store on top of a write-ahead log.
package walkv

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

const (
	DefaultDir   = "./wal/state"
	segmentLimit = 100
	maxSegments  = 10
)

// Store persists values in a WAL and serves reads from the replayed latest value per key.
//
// gowal evicts the oldest segment once MaxSegments is exceeded. Every
// segmentLimit writes the store appends the current value of every other
// live key again, so each key always has a copy in the newest segments and
// survives eviction.
type Store struct {
	wal    *gowal.Wal
	mu     sync.RWMutex
	values map[string][]byte

	rewriteEvery int
	sinceRewrite int
}

// New opens (or creates) the WAL under dir and replays it.
func New(dir string) (*Store, error) {
	return newStore(dir, segmentLimit, maxSegments)
}

func newStore(dir string, segmentThreshold, segments int) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "kv_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      segments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init state WAL")
	}

	values := make(map[string][]byte)
	for msg := range wal.Iterator() {
		values[msg.Key] = append([]byte(nil), msg.Value...)
	}

	return &Store{wal: wal, values: values, rewriteEvery: segmentThreshold}, nil
}

// Get returns the latest value written for key.
func (s *Store) Get(key string) ([]byte, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("state store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}

	return append([]byte(nil), v...), nil
}

// Set appends value for key to the WAL.
func (s *Store) Set(key string, value []byte) error {
	if s == nil || s.wal == nil {
		return errors.New("state store is not initialized")
	}
	if key == "" {
		return errors.New("state key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.append(key, value); err != nil {
		return err
	}
	s.values[key] = append([]byte(nil), value...)

	s.sinceRewrite++
	if s.sinceRewrite < s.rewriteEvery {
		return nil
	}
	s.sinceRewrite = 0

	return s.rewriteLive(key)
}

func (s *Store) append(key string, value []byte) error {
	if err := s.wal.Write(s.wal.CurrentIndex()+1, key, value); err != nil {
		return errors.Wrapf(err, "write %s to WAL", key)
	}

	return nil
}

// rewriteLive appends every live key except skip, in key order.
func (s *Store) rewriteLive(skip string) error {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		if k != skip {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := s.append(k, s.values[k]); err != nil {
			return errors.Wrap(err, "rewrite live keys")
		}
	}

	return nil
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("state store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
