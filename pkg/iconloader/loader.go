// Package iconloader resolves application icons in the background and hands
// them to the reconciliation engine one batch at a time.
//
// Each record is resolved through a priority chain: the user's custom icon,
// then the icon cache, then the platform extractor. The worker yields between
// batches so foreground callers are never starved, and every pass is tagged
// with the engine generation it was started for; a newer generation discards
// whatever is still queued.
package iconloader

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/ttlcache"
)

const (
	// DefaultBatchSize is the number of records resolved per batch.
	DefaultBatchSize = 4
	// DefaultYield is the pause between batches.
	DefaultYield = 16 * time.Millisecond
)

// Target receives resolved icons. It is implemented by *reconcile.Engine.
type Target interface {
	CustomIcon(path string) (apps.Icon, bool)
	ApplyIcons(generation uint64, updates []apps.IconUpdate) []apps.Record
}

// Stats counts what the loader has done since it was created.
type Stats struct {
	Queued    int
	Custom    int
	Cached    int
	Extracted int
	Failed    int
	Batches   int
	Stale     int
}

// Loader is a long-lived worker. Start it once with Run and feed it with
// Load after every reconciliation.
type Loader struct {
	target    Target
	cache     *ttlcache.Cache[apps.Icon]
	extractor apps.IconExtractor
	log       *log.Entry
	batchSize int
	yield     time.Duration

	mu         sync.Mutex
	generation uint64
	queue      []string
	queued     map[string]struct{}
	stats      Stats
	idle       chan struct{}

	wake    chan struct{}
	flights singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize sets how many records are resolved per batch.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithYield sets the pause between batches. Zero only yields the processor.
func WithYield(d time.Duration) Option {
	return func(l *Loader) {
		if d >= 0 {
			l.yield = d
		}
	}
}

// WithLogger sets the loader logger.
func WithLogger(entry *log.Entry) Option {
	return func(l *Loader) { l.log = entry }
}

// New creates a loader. cache and extractor may be nil; a nil extractor
// leaves records without a cached or custom icon unresolved.
func New(target Target, cache *ttlcache.Cache[apps.Icon], extractor apps.IconExtractor, opts ...Option) *Loader {
	l := &Loader{
		target:    target,
		cache:     cache,
		extractor: extractor,
		batchSize: DefaultBatchSize,
		yield:     DefaultYield,
		queued:    make(map[string]struct{}),
		wake:      make(chan struct{}, 1),
	}
	l.idle = closedChan()
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = log.WithField("component", "iconloader")
	}
	return l
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Load queues every record that has no icon yet. A generation newer than
// the current one discards the existing queue; an older one is ignored.
// Records already queued or already resolved are skipped, so calling Load
// again with the same records does no extra work.
func (l *Loader) Load(generation uint64, records []apps.Record) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case generation < l.generation:
		l.log.WithField("generation", generation).Debug("iconloader: ignoring stale load")
		return 0
	case generation > l.generation:
		if dropped := len(l.queue); dropped > 0 {
			l.log.WithFields(log.Fields{"dropped": dropped, "generation": generation}).Debug("iconloader: discarding previous pass")
		}
		l.generation = generation
		l.queue = nil
		l.queued = make(map[string]struct{})
	}

	added := 0
	for _, rec := range records {
		if rec.HasIcon() || rec.Path == "" {
			continue
		}
		if _, ok := l.queued[rec.Path]; ok {
			continue
		}
		l.queued[rec.Path] = struct{}{}
		l.queue = append(l.queue, rec.Path)
		added++
	}
	l.stats.Queued += added
	if added > 0 {
		l.markBusyLocked()
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	return added
}

func (l *Loader) markBusyLocked() {
	select {
	case <-l.idle:
		l.idle = make(chan struct{})
	default:
	}
}

// Run processes the queue until ctx is done.
func (l *Loader) Run(ctx context.Context) error {
	for {
		gen, batch := l.next()
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.wake:
				continue
			}
		}

		updates, failed := l.resolve(ctx, batch)
		applied := l.target.ApplyIcons(gen, updates)
		l.finish(gen, batch, updates, applied, failed)

		if err := l.pause(ctx); err != nil {
			return err
		}
	}
}

// Start runs the loader on a new goroutine.
func (l *Loader) Start(ctx context.Context) {
	go func() {
		if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.log.WithError(err).Warn("iconloader: stopped")
		}
	}()
}

func (l *Loader) next() (uint64, []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		select {
		case <-l.idle:
		default:
			close(l.idle)
		}
		return l.generation, nil
	}
	n := l.batchSize
	if n > len(l.queue) {
		n = len(l.queue)
	}
	batch := append([]string(nil), l.queue[:n]...)
	l.queue = l.queue[n:]
	return l.generation, batch
}

func (l *Loader) finish(gen uint64, batch []string, updates []apps.IconUpdate, applied []apps.Record, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.Batches++
	l.stats.Failed += failed
	if gen == l.generation {
		for _, path := range batch {
			delete(l.queued, path)
		}
	}
	if len(applied) < len(updates) {
		l.stats.Stale += len(updates) - len(applied)
	}
	for _, rec := range applied {
		switch rec.IconSource {
		case apps.IconCustom:
			l.stats.Custom++
		case apps.IconCached:
			l.stats.Cached++
		case apps.IconExtracted:
			l.stats.Extracted++
		}
	}
}

func (l *Loader) pause(ctx context.Context) error {
	runtime.Gosched()
	if l.yield <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(l.yield)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// resolve runs the priority chain for every path in batch concurrently.
func (l *Loader) resolve(ctx context.Context, batch []string) ([]apps.IconUpdate, int) {
	results := make([]apps.IconUpdate, len(batch))
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed int
	)
	for i, path := range batch {
		i, path := i, path
		g.Go(func() error {
			icon, source, err := l.resolveOne(ctx, path)
			if err != nil {
				l.log.WithError(err).WithField("path", path).Debug("iconloader: no icon")
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i] = apps.IconUpdate{Path: path, Icon: icon, Source: source}
			return nil
		})
	}
	_ = g.Wait()

	updates := results[:0]
	for _, u := range results {
		if len(u.Icon) > 0 {
			updates = append(updates, u)
		}
	}
	return updates, failed
}

func (l *Loader) resolveOne(ctx context.Context, path string) (apps.Icon, apps.IconSource, error) {
	if icon, ok := l.target.CustomIcon(path); ok {
		return icon, apps.IconCustom, nil
	}
	key := ttlcache.IconKey(path)
	if icon, ok := l.cache.Get(key); ok && len(icon) > 0 {
		return icon, apps.IconCached, nil
	}
	if l.extractor == nil {
		return nil, apps.IconNone, fmt.Errorf("%w: no extractor", apps.ErrIconExtraction)
	}

	v, err, _ := l.flights.Do(path, func() (interface{}, error) {
		icon, err := l.extractor.ExtractIcon(ctx, path)
		if err != nil {
			return nil, err
		}
		if len(icon) == 0 {
			return nil, errors.New("empty image")
		}
		l.cache.Put(key, icon)
		return icon, nil
	})
	if err != nil {
		if !errors.Is(err, apps.ErrIconExtraction) {
			err = fmt.Errorf("%w: %v", apps.ErrIconExtraction, err)
		}
		return nil, apps.IconNone, err
	}
	icon := v.(apps.Icon)
	return append(apps.Icon(nil), icon...), apps.IconExtracted, nil
}

// Wait blocks until the queue is drained or ctx is done.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued records.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stats returns counters since the loader was created.
func (l *Loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
