// Package filekv stores each key as a JSON document on the local filesystem.
package filekv

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/unlimitedExchange/injective-dex/internal/domain"
)

const defaultStateDir = "./state"

// Store writes one file per key, replacing it atomically via a temp file.
type Store struct {
	dir string
}

// New creates the state directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = defaultStateDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create state dir")
	}

	return &Store{dir: dir}, nil
}

// Get reads the file stored for key.
func (s *Store) Get(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrKeyNotFound
		}

		return nil, errors.Wrapf(err, "read %s", key)
	}

	return payload, nil
}

// Set writes value for key atomically.
func (s *Store) Set(key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return errors.Wrapf(err, "write %s temp file", key)
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "persist %s", key)
	}

	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(key string) (string, error) {
	name := sanitizeKey(key)
	if name == "" {
		return "", errors.Errorf("invalid state key %q", key)
	}

	return filepath.Join(s.dir, name+".json"), nil
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}

	var b strings.Builder

	prevUnderscore := false

	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)

			prevUnderscore = false

			continue
		}

		if !prevUnderscore {
			b.WriteByte('_')

			prevUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
