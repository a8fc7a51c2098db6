// Package reconcile merges the enumerated application list with the user's
// persisted overrides into the canonical collection shown by the launcher.
//
// The Engine is the single writer of both the collection and the override
// maps. It mirrors an informer cache: state lives in memory, readers get
// cloned snapshots, and every change is announced on subscriber channels.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/overrides"
	"tableflip.dev/apphub/pkg/store"
)

// DefaultRecentLimit bounds the recency list.
const DefaultRecentLimit = 20

// Status describes the availability of the canonical collection.
type Status string

const (
	// StatusEmpty means Reconcile has not run yet.
	StatusEmpty Status = "empty"
	// StatusReady means the last enumeration succeeded.
	StatusReady Status = "ready"
	// StatusUnavailable means the last enumeration failed and the collection
	// is empty.
	StatusUnavailable Status = "unavailable"
)

// Engine owns the canonical application collection.
type Engine struct {
	medium      store.Medium
	enumerator  apps.Enumerator
	log         *log.Entry
	now         func() time.Time
	recentLimit int

	mu         sync.RWMutex
	records    []apps.Record
	index      map[string]int
	system     map[string]apps.Category
	ov         *overrides.Maps
	loaded     bool
	generation uint64
	status     Status
	lastErr    error

	// persistMu is taken while mu is still held so persists happen in the
	// same order as the mutations that produced them.
	persistMu sync.Mutex

	events *broadcaster
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *log.Entry) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRecentLimit bounds the recency list; non-positive keeps the default.
func WithRecentLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.recentLimit = n
		}
	}
}

// New creates an engine that persists overrides on medium and lists
// applications through enumerator.
func New(medium store.Medium, enumerator apps.Enumerator, opts ...Option) *Engine {
	e := &Engine{
		medium:      medium,
		enumerator:  enumerator,
		now:         time.Now,
		recentLimit: DefaultRecentLimit,
		index:       make(map[string]int),
		ov:          overrides.New(),
		status:      StatusEmpty,
		events:      newBroadcaster(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = log.WithField("component", "reconcile")
	}
	return e
}

// Reconcile rebuilds the canonical collection. Overrides are read from the
// medium the first time; afterwards the in-memory maps are authoritative.
// An enumeration failure produces an empty collection and an error wrapping
// apps.ErrEnumeration; the collection is still replaced.
func (e *Engine) Reconcile(ctx context.Context) ([]apps.Record, uint64, error) {
	if err := e.ensureLoaded(); err != nil {
		e.log.WithError(err).Warn("reconcile: overrides unreadable, retrying on next access")
	}

	descs, enumErr := e.enumerator.Enumerate(ctx)
	if enumErr != nil {
		e.log.WithError(enumErr).Warn("reconcile: enumeration failed, apps unavailable")
		descs = nil
		if !errors.Is(enumErr, apps.ErrEnumeration) {
			enumErr = fmt.Errorf("%w: %v", apps.ErrEnumeration, enumErr)
		}
	}

	e.mu.Lock()
	records := build(descs, e.ov)
	e.records = records
	e.index = indexRecords(records)
	e.system = systemCategories(descs)
	e.generation++
	gen := e.generation
	e.lastErr = enumErr
	if enumErr != nil {
		e.status = StatusUnavailable
	} else {
		e.status = StatusReady
	}
	out := apps.CloneRecords(records)
	e.mu.Unlock()

	e.log.WithFields(log.Fields{"generation": gen, "apps": len(out)}).Debug("reconcile: collection replaced")
	e.events.emit(Event{Type: EventReconciled, Generation: gen, Err: enumErr})
	return out, gen, enumErr
}

// ReloadOverrides replaces the in-memory override maps with what is on the
// medium, e.g. after another process edited them, and reports whether
// anything differed. The collection is not rebuilt; call Reconcile
// afterwards. On a read error the in-memory maps are kept.
func (e *Engine) ReloadOverrides() (bool, error) {
	ov, err := overrides.Load(e.medium)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	changed := !e.loaded || !reflect.DeepEqual(e.ov, ov)
	e.ov = ov
	e.loaded = true
	return changed, nil
}

// ensureLoaded reads the override maps once. A failed read leaves the engine
// unloaded so the next call retries; until then the in-memory maps are a
// scratch copy that must never be written over the stored ones.
func (e *Engine) ensureLoaded() error {
	e.mu.RLock()
	loaded := e.loaded
	e.mu.RUnlock()
	if loaded {
		return nil
	}
	ov, err := overrides.Load(e.medium)
	if err != nil {
		return &apps.StorageError{Op: "read", Key: overrides.Key, Err: err}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		e.ov = ov
		e.loaded = true
	}
	return nil
}

// systemCategories maps original paths to the category the OS reported.
func systemCategories(descs []apps.Descriptor) map[string]apps.Category {
	out := make(map[string]apps.Category, len(descs))
	for _, d := range descs {
		c := d.Category
		if c == "" {
			c = apps.CategoryOther
		}
		out[strings.TrimSpace(d.Path)] = c
	}
	return out
}

// build applies overrides to the enumerated descriptors. Descriptors that
// resolve to an already seen current path are dropped.
func build(descs []apps.Descriptor, ov *overrides.Maps) []apps.Record {
	records := make([]apps.Record, 0, len(descs))
	seen := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		original := strings.TrimSpace(d.Path)
		if original == "" {
			continue
		}
		current := original
		if moved := ov.MovedTo[original]; moved != "" {
			current = moved
		}
		if _, dup := seen[current]; dup {
			continue
		}
		seen[current] = struct{}{}

		category := d.Category
		if c := ov.Categories[original]; c != "" {
			category = c
		}
		if category == "" {
			category = apps.CategoryOther
		}

		rec := apps.Record{
			Name:         d.Name,
			Path:         current,
			OriginalPath: original,
			Exec:         d.Exec,
			Category:     category,
			Pinned:       ov.IsPinned(current),
		}
		if at, ok := ov.LastAccessed[original]; ok {
			at := at
			rec.LastAccessed = &at
		} else if at, ok := ov.LastAccessed[current]; ok {
			at := at
			rec.LastAccessed = &at
		}
		if icon, ok := ov.CustomIcons[current]; ok && len(icon) > 0 {
			rec.Icon = append(apps.Icon(nil), icon...)
			rec.IconSource = apps.IconCustom
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		li, lj := strings.ToLower(records[i].Name), strings.ToLower(records[j].Name)
		if li == lj {
			return records[i].Path < records[j].Path
		}
		return li < lj
	})
	return records
}

func indexRecords(records []apps.Record) map[string]int {
	idx := make(map[string]int, len(records))
	for i, rec := range records {
		idx[rec.Path] = i
	}
	return idx
}

// Snapshot returns a copy of the canonical collection.
func (e *Engine) Snapshot() []apps.Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return apps.CloneRecords(e.records)
}

// Get returns the record whose current path is path.
func (e *Engine) Get(path string) (apps.Record, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.index[path]
	if !ok {
		return apps.Record{}, false
	}
	return e.records[i].Clone(), true
}

// Generation identifies the current collection. It increases on every
// Reconcile.
func (e *Engine) Generation() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}

// Status reports whether the last enumeration succeeded, and its error.
func (e *Engine) Status() (Status, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status, e.lastErr
}

// Overrides returns a copy of the override maps.
func (e *Engine) Overrides() *overrides.Maps {
	if err := e.ensureLoaded(); err != nil {
		e.log.WithError(err).Debug("reconcile: overrides unavailable")
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ov.Clone()
}

// CustomIcon returns the user supplied icon for the current path.
func (e *Engine) CustomIcon(path string) (apps.Icon, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.ov == nil {
		return nil, false
	}
	icon, ok := e.ov.CustomIcons[path]
	if !ok || len(icon) == 0 {
		return nil, false
	}
	return append(apps.Icon(nil), icon...), true
}

// ApplyIcons records icons produced for generation. Updates for another
// generation, unknown paths, or records that already have an icon are
// ignored. The records that changed are returned and published together.
func (e *Engine) ApplyIcons(generation uint64, updates []apps.IconUpdate) []apps.Record {
	e.mu.Lock()
	if generation != e.generation {
		e.mu.Unlock()
		e.log.WithFields(log.Fields{"stale": generation, "current": e.generation}).Debug("reconcile: dropping stale icons")
		return nil
	}
	changed := make([]apps.Record, 0, len(updates))
	for _, u := range updates {
		if len(u.Icon) == 0 {
			continue
		}
		i, ok := e.index[u.Path]
		if !ok || e.records[i].HasIcon() {
			continue
		}
		e.records[i].Icon = append(apps.Icon(nil), u.Icon...)
		e.records[i].IconSource = u.Source
		changed = append(changed, e.records[i].Clone())
	}
	e.mu.Unlock()

	if len(changed) > 0 {
		e.events.emit(Event{Type: EventIconsResolved, Generation: generation, Records: apps.CloneRecords(changed)})
	}
	return changed
}

// Subscribe returns a channel receiving engine events until ctx is done.
// Slow subscribers miss events rather than block the engine; Snapshot is
// always current.
func (e *Engine) Subscribe(ctx context.Context) <-chan Event {
	return e.events.subscribe(ctx)
}
