package domain

// KeyValueStore is durable key-value storage.
type KeyValueStore interface {
	// Get returns ErrKeyNotFound when the key was never written.
	Get(key string) ([]byte, error)
	// Set overwrites the value stored under key.
	Set(key string, value []byte) error
	Close() error
}
