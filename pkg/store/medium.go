package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Medium.Read when the key has never been written
// or was removed.
var ErrNotFound = errors.New("store: key not found")

// Medium is a durable key-value store. Implementations make no promise of
// atomicity across keys.
type Medium interface {
	Read(key string) ([]byte, error)
	Write(key string, val []byte) error
	Remove(key string) error
	// Keys lists keys starting with prefix. An empty prefix lists everything.
	Keys(ctx context.Context, prefix string) []string
}

// Batcher is implemented by media able to write several keys in a single
// transaction.
type Batcher interface {
	WriteBatch(vals map[string][]byte) error
}

// Watcher is implemented by media that can report changes made to the
// underlying storage, including those made by other processes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// WriteAll writes vals through m, using a single transaction when m supports
// it. Without transactions every key is attempted and the first error is
// returned.
func WriteAll(m Medium, vals map[string][]byte) error {
	if b, ok := m.(Batcher); ok {
		return b.WriteBatch(vals)
	}
	var first error
	for key, val := range vals {
		if err := m.Write(key, val); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// validKey reports whether key is usable as a relative storage path: one or
// more "/" separated segments of letters, digits, '-', '_' or '.'.
func validKey(key string) error {
	if key == "" {
		return errors.New("store: empty key")
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("store: invalid key %q", key)
		}
		for _, r := range seg {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case r == '-', r == '_', r == '.':
			default:
				return fmt.Errorf("store: invalid key %q", key)
			}
		}
	}
	return nil
}
