// Package rediskv implements the key-value store on Redis.
package rediskv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

const (
	defaultPrefix  = "injective-dex:"
	defaultTimeout = 3 * time.Second
)

// Config holds connection parameters for the Redis store.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Timeout  time.Duration
}

// Store keeps every key as a plain Redis string under Config.Prefix.
type Store struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

// New connects to Redis and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}

	return NewWithClient(rdb, cfg.Prefix, cfg.Timeout), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, prefix string, timeout time.Duration) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Store{rdb: rdb, prefix: prefix, timeout: timeout}
}

// Get returns the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	v, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrKeyNotFound
		}

		return nil, errors.Wrapf(err, "redis get %s", key)
	}

	return v, nil
}

// Set overwrites key without expiry.
func (s *Store) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}

	return nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
