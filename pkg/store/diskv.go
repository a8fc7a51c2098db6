package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// DiskvMedium stores each key as a file below a base directory. Keys
// containing "/" are laid out as nested directories.
type DiskvMedium struct {
	d        *diskv.Diskv
	basePath string
}

// OpenDiskv creates a diskv backed medium rooted at basePath.
func OpenDiskv(basePath string) (*DiskvMedium, error) {
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &DiskvMedium{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		TempDir:           strings.TrimRight(basePath, string(os.PathSeparator)) + ".tmp",
		CacheSizeMax:      4 * 1024 * 1024, // 4MB, icons are small
	}), basePath: basePath}, nil
}

// BasePath returns the directory holding the medium's files.
func (m *DiskvMedium) BasePath() string {
	return m.basePath
}

func (m *DiskvMedium) Read(key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	val, err := m.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

func (m *DiskvMedium) Write(key string, val []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	return m.d.Write(key, val)
}

func (m *DiskvMedium) Remove(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := m.d.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (m *DiskvMedium) Keys(ctx context.Context, prefix string) []string {
	var keys []string
	for key := range m.d.KeysPrefix(prefix, ctx.Done()) {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s/%s", strings.Join(pathKey.Path, "/"), pathKey.FileName)
}
