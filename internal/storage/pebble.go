package storage

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleContext is a Context backed by a Pebble database directory.
type PebbleContext struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a Pebble database at the given path.
func OpenPebble(path string) (*PebbleContext, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &PebbleContext{db: db}, nil
}

// Get returns the value stored under key, or (nil, nil) when absent. The
// returned slice is a copy; pebble reclaims its buffer on closer release.
func (c *PebbleContext) Get(key string) ([]byte, error) {
	value, closer, err := c.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	out := make([]byte, len(value))
	copy(out, value)
	if err := closer.Close(); err != nil {
		return nil, fmt.Errorf("release %q: %w", key, err)
	}
	return out, nil
}

// Set stores value under key with a synced write.
func (c *PebbleContext) Set(key string, value []byte) error {
	if err := c.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (c *PebbleContext) Close() error {
	return c.db.Close()
}
