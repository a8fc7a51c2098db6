package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// EventType describes the nature of a storage change notification.
type EventType int

const (
	// EventKeyChanged indicates the value stored under Key was written or
	// removed.
	EventKeyChanged EventType = iota

	// EventInvalidated signals a change that could not be attributed to a
	// single key; callers should reload everything they care about.
	EventInvalidated
)

// Event is emitted by Watch when the underlying storage changes.
type Event struct {
	Type EventType
	Key  string
}

// Watch streams change events for the diskv directory until ctx is
// cancelled. Callers should drain the returned channel; events are dropped
// rather than block the watcher.
func (m *DiskvMedium) Watch(ctx context.Context) (<-chan Event, error) {
	return watchDir(ctx, m.basePath, m.keyForPath)
}

// Watch reports every change to the database file as EventInvalidated.
func (m *SQLiteMedium) Watch(ctx context.Context) (<-chan Event, error) {
	dir := filepath.Dir(m.path)
	base := filepath.Base(m.path)
	return watchDir(ctx, dir, func(path string) (string, bool) {
		name := filepath.Base(path)
		if strings.HasPrefix(name, base) {
			return "", true
		}
		return "", false
	})
}

// keyForPath derives the key for a file below the base path. The boolean is
// false for paths that are not part of the store.
func (m *DiskvMedium) keyForPath(path string) (string, bool) {
	rel, err := filepath.Rel(m.basePath, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	key := filepath.ToSlash(rel)
	if validKey(key) != nil {
		return "", false
	}
	return key, true
}

func watchDir(ctx context.Context, base string, keyFor func(string) (string, bool)) (<-chan Event, error) {
	if base == "" {
		return nil, errors.New("store: watch path unknown")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("store: watcher close")
			}
		})
	}

	dirs, err := collectDirs(base)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: enumerate directories: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("store: watch %s: %w", dir, err)
		}
	}

	events := make(chan Event, 64)

	go func() {
		defer close(events)
		defer closeWatcher()

		watched := make(map[string]struct{}, len(dirs))
		for _, dir := range dirs {
			watched[dir] = struct{}{}
		}

		send := func(ev Event) {
			select {
			case events <- ev:
			default:
			}
		}

		throttle := newEventThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Debug("store: watcher error")
				throttle.Enqueue(Event{Type: EventInvalidated}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}

				if evt.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						absDir := filepath.Clean(evt.Name)
						if _, found := watched[absDir]; !found {
							if err := watcher.Add(absDir); err != nil {
								log.WithError(err).WithField("dir", absDir).Warn("store: watch directory")
							} else {
								watched[absDir] = struct{}{}
							}
						}
						continue
					}
				}

				key, ok := keyFor(evt.Name)
				if !ok {
					continue
				}
				if key == "" {
					throttle.Enqueue(Event{Type: EventInvalidated}, send)
					continue
				}
				throttle.Enqueue(Event{Type: EventKeyChanged, Key: key}, send)
			}
		}
	}()

	return events, nil
}

// collectDirs walks base and returns all directories that should be watched.
func collectDirs(base string) ([]string, error) {
	dirs := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != base {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// eventThrottle coalesces bursts of writes (diskv writes through a temp
// file and rename) into one event per key.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[EventType]map[string]struct{}
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[EventType]map[string]struct{}),
	}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	if t.pending[ev.Type] == nil {
		t.pending[ev.Type] = make(map[string]struct{})
	}
	t.pending[ev.Type][ev.Key] = struct{}{}

	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[EventType]map[string]struct{})
	t.timer = nil
	t.mu.Unlock()

	if _, all := pending[EventInvalidated]; all {
		send(Event{Type: EventInvalidated})
		return
	}
	for eventType, keys := range pending {
		for key := range keys {
			send(Event{Type: eventType, Key: key})
		}
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
