// Package folders keeps the user's quick-access folder list.
package folders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/store"
)

// Key is where the folder list is stored.
const Key = "folders"

var (
	// ErrExists is returned when adding a path that is already listed.
	ErrExists = errors.New("folders: already listed")
	// ErrNotFound is returned when no listed folder matches.
	ErrNotFound = errors.New("folders: not listed")
)

// Folder is one quick-access entry.
type Folder struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Icon apps.Icon `json:"icon,omitempty"`
}

// HasIcon reports whether the user gave the folder an icon.
func (f Folder) HasIcon() bool {
	return len(f.Icon) > 0
}

// Store owns the folder list. Until something is added or removed the list
// is the defaults; the first change persists it.
type Store struct {
	medium   store.Medium
	opener   apps.PathOpener
	defaults []Folder
	log      *log.Entry

	mu      sync.Mutex
	folders []Folder
	loaded  bool
}

// Option configures a Store.
type Option func(*Store)

// WithDefaults sets the list shown before the user changes anything.
func WithDefaults(f []Folder) Option {
	return func(s *Store) { s.defaults = f }
}

// WithOpener sets how folders are shown to the user.
func WithOpener(o apps.PathOpener) Option {
	return func(s *Store) { s.opener = o }
}

// New returns a store over medium.
func New(medium store.Medium, opts ...Option) *Store {
	s := &Store{medium: medium, log: log.WithField("component", "folders")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserDirs lists the usual home subdirectories that exist on this machine.
func UserDirs() []Folder {
	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	var out []Folder
	for _, name := range []string{"Documents", "Downloads", "Pictures", "Music", "Videos"} {
		path := filepath.Join(home, name)
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			out = append(out, Folder{Name: name, Path: path})
		}
	}
	return out
}

func clone(in []Folder) []Folder {
	out := make([]Folder, len(in))
	for i, f := range in {
		f.Icon = append(apps.Icon(nil), f.Icon...)
		out[i] = f
	}
	return out
}

// load reads the list once. A read failure is returned and retried on the
// next call so the stored list is never replaced by one that was not read.
func (s *Store) load() error {
	if s.loaded {
		return nil
	}
	raw, err := s.medium.Read(Key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.folders = clone(s.defaults)
	case err != nil:
		return &apps.StorageError{Op: "read", Key: Key, Err: err}
	default:
		var list []Folder
		if err := json.Unmarshal(raw, &list); err != nil {
			s.log.WithError(err).Warn("folders: stored list is corrupt, using defaults")
			list = clone(s.defaults)
		}
		s.folders = list
	}
	s.loaded = true
	return nil
}

func (s *Store) save() error {
	raw, err := json.Marshal(s.folders)
	if err != nil {
		return fmt.Errorf("folders: encode: %w", err)
	}
	if err := s.medium.Write(Key, raw); err != nil {
		return &apps.StorageError{Op: "write", Key: Key, Err: err}
	}
	return nil
}

// List returns the folders in the order they were added.
func (s *Store) List() ([]Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return clone(s.folders), nil
}

// Add lists path under name, or under its last element when name is empty.
func (s *Store) Add(path, name string) (Folder, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Folder{}, errors.New("folders: path required")
	}
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	path = filepath.Clean(path)
	name = strings.TrimSpace(name)
	if name == "" {
		name = filepath.Base(path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Folder{}, err
	}
	for _, f := range s.folders {
		if f.Path == path {
			return f, fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	f := Folder{Name: name, Path: path}
	s.folders = append(s.folders, f)
	return f, s.save()
}

// find resolves query to an index. Callers hold mu.
func (s *Store) find(query string) (int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return -1, errors.New("folders: no folder named")
	}
	for i, f := range s.folders {
		if f.Path == query {
			return i, nil
		}
	}
	match := -1
	for i, f := range s.folders {
		if strings.EqualFold(f.Name, query) {
			if match >= 0 {
				return -1, fmt.Errorf("folders: %q is ambiguous, use the path", query)
			}
			match = i
		}
	}
	if match < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotFound, query)
	}
	return match, nil
}

// Find returns the folder whose path or name matches query.
func (s *Store) Find(query string) (Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Folder{}, err
	}
	i, err := s.find(query)
	if err != nil {
		return Folder{}, err
	}
	return clone(s.folders[i : i+1])[0], nil
}

// Remove drops the folder matching query from the list.
func (s *Store) Remove(query string) (Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Folder{}, err
	}
	i, err := s.find(query)
	if err != nil {
		return Folder{}, err
	}
	removed := s.folders[i]
	s.folders = append(s.folders[:i:i], s.folders[i+1:]...)
	return removed, s.save()
}

// SetIcon gives the folder matching query a custom icon, or removes it when
// icon is empty.
func (s *Store) SetIcon(query string, icon apps.Icon) (Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Folder{}, err
	}
	i, err := s.find(query)
	if err != nil {
		return Folder{}, err
	}
	if len(icon) == 0 {
		s.folders[i].Icon = nil
	} else {
		s.folders[i].Icon = append(apps.Icon(nil), icon...)
	}
	return clone(s.folders[i : i+1])[0], s.save()
}

// Open shows the folder matching query in the file manager.
func (s *Store) Open(ctx context.Context, query string) (Folder, error) {
	f, err := s.Find(query)
	if err != nil {
		return f, err
	}
	if s.opener == nil {
		return f, fmt.Errorf("%w: no file manager configured", apps.ErrPlatform)
	}
	if err := s.opener.OpenPath(ctx, f.Path); err != nil {
		return f, err
	}
	return f, nil
}
