package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/folders"
	"tableflip.dev/apphub/pkg/iconloader"
	"tableflip.dev/apphub/pkg/overrides"
	"tableflip.dev/apphub/pkg/reconcile"
	"tableflip.dev/apphub/pkg/settings"
	"tableflip.dev/apphub/pkg/store"
	"tableflip.dev/apphub/pkg/ttlcache"
)

// Collaborators are the platform integrations the service depends on. Any
// of them may be nil except Enumerator. DefaultFolders seed the folder list
// until the user edits it.
type Collaborators struct {
	Enumerator     apps.Enumerator
	Extractor      apps.IconExtractor
	Accent         apps.AccentSource
	Startup        apps.StartupRegistrar
	Launcher       apps.Launcher
	Opener         apps.PathOpener
	DefaultFolders []folders.Folder
}

// Service provides high-level operations over the application collection
// and the settings. It owns the engine, the icon loader and the resolver so
// UIs and CLIs can share logic.
type Service struct {
	Medium   store.Medium
	Engine   *reconcile.Engine
	Loader   *iconloader.Loader
	Settings *settings.Resolver
	Icons    *ttlcache.Cache[apps.Icon]
	Folders  *folders.Store

	launcher apps.Launcher
	log      *log.Entry
	now      func() time.Time
}

// ErrNoEnumerator is returned by New when no enumerator is provided.
var ErrNoEnumerator = errors.New("app: no enumerator configured")

// New wires the core components over medium using cfg for tunables. A nil
// cfg uses the built-in defaults.
func New(cfg *store.Config, medium store.Medium, c Collaborators) (*Service, error) {
	if medium == nil {
		return nil, errors.New("app: no persistence configured")
	}
	if c.Enumerator == nil {
		return nil, ErrNoEnumerator
	}
	if cfg == nil {
		cfg = &store.Config{
			IconBatchSize: iconloader.DefaultBatchSize,
			IconYield:     iconloader.DefaultYield,
			AccentTTL:     settings.DefaultAccentTTL,
			RecentLimit:   reconcile.DefaultRecentLimit,
		}
	}

	logger := log.WithField("component", "app")
	engine := reconcile.New(medium, c.Enumerator, reconcile.WithRecentLimit(cfg.RecentLimit))
	icons := ttlcache.New[apps.Icon](medium, ttlcache.WithPrefix("icons"), ttlcache.WithTTL(cfg.IconTTL))
	loader := iconloader.New(engine, icons, c.Extractor,
		iconloader.WithBatchSize(cfg.IconBatchSize),
		iconloader.WithYield(cfg.IconYield),
	)

	opts := []settings.Option{
		settings.WithAccentCache(ttlcache.New[string](medium, ttlcache.WithTTL(cfg.AccentTTL))),
		settings.WithStartupRegistrar(c.Startup),
	}
	if cfg.AccentColor != "" {
		opts = append(opts, settings.WithDefaultAccent(cfg.AccentColor))
	}
	resolver := settings.New(medium, c.Accent, opts...)

	return &Service{
		Medium:   medium,
		Engine:   engine,
		Loader:   loader,
		Settings: resolver,
		Icons:    icons,
		Folders:  folders.New(medium, folders.WithOpener(c.Opener), folders.WithDefaults(c.DefaultFolders)),
		launcher: c.Launcher,
		log:      logger,
		now:      time.Now,
	}, nil
}

// Start initializes settings and the collection concurrently and starts the
// icon loader. The collection is usable as soon as Start returns; icons
// arrive in the background until ctx is done. Enumeration and accent
// failures are logged, not returned.
func (s *Service) Start(ctx context.Context) error {
	s.Loader.Start(ctx)

	var g errgroup.Group
	g.Go(func() error {
		if _, err := s.Settings.Initialize(ctx); err != nil {
			s.log.WithError(err).Warn("settings initialized with fallbacks")
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, apps.ErrEnumeration) {
			return err
		}
		return nil
	})
	return g.Wait()
}

// Refresh rebuilds the collection and queues icon resolution for it. Any
// pass still loading icons for the previous collection is abandoned.
func (s *Service) Refresh(ctx context.Context) ([]apps.Record, error) {
	records, gen, err := s.Engine.Reconcile(ctx)
	if err != nil {
		s.log.WithError(err).Warn("apps unavailable")
	}
	queued := s.Loader.Load(gen, records)
	s.log.WithFields(log.Fields{"apps": len(records), "queued": queued, "generation": gen}).Debug("refreshed")
	return records, err
}

// WaitForIcons blocks until the loader has nothing queued.
func (s *Service) WaitForIcons(ctx context.Context) error {
	return s.Loader.Wait(ctx)
}

// Apps returns the current collection in display order.
func (s *Service) Apps() []apps.Record {
	list := s.Engine.Snapshot()
	apps.SortForDisplay(list)
	return list
}

// Subscribe streams collection changes.
func (s *Service) Subscribe(ctx context.Context) <-chan reconcile.Event {
	return s.Engine.Subscribe(ctx)
}

// Find resolves query to a single application: an exact current or
// original path first, then a case-insensitive name, then a unique name
// prefix.
func (s *Service) Find(query string) (apps.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return apps.Record{}, fmt.Errorf("%w: empty name", apps.ErrNotFound)
	}
	list := s.Engine.Snapshot()
	for _, rec := range list {
		if rec.Path == query || rec.OriginalPath == query {
			return rec, nil
		}
	}
	var matches []apps.Record
	for _, rec := range list {
		if strings.EqualFold(rec.Name, query) {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		lower := strings.ToLower(query)
		for _, rec := range list {
			if strings.HasPrefix(strings.ToLower(rec.Name), lower) {
				matches = append(matches, rec)
			}
		}
	}
	switch len(matches) {
	case 0:
		return apps.Record{}, fmt.Errorf("%w: %q", apps.ErrNotFound, query)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Name+" ("+m.Path+")")
		}
		return apps.Record{}, fmt.Errorf("app: %q is ambiguous: %s", query, strings.Join(names, ", "))
	}
}

// Pin toggles pinning for the application matching query.
func (s *Service) Pin(query string) (apps.Record, bool, error) {
	rec, err := s.Find(query)
	if err != nil {
		return rec, false, err
	}
	pinned, err := s.Engine.Pin(rec.Path)
	rec.Pinned = pinned
	return rec, pinned, err
}

// SetPinned pins or unpins the application matching query.
func (s *Service) SetPinned(query string, pinned bool) (apps.Record, error) {
	rec, err := s.Find(query)
	if err != nil {
		return rec, err
	}
	rec.Pinned = pinned
	return rec, s.Engine.SetPinned(rec.Path, pinned)
}

// SetCategory recategorizes the application matching query. An empty
// category restores the one the system reported.
func (s *Service) SetCategory(query string, category apps.Category) (apps.Record, error) {
	rec, err := s.Find(query)
	if err != nil {
		return rec, err
	}
	err = s.Engine.SetCategory(rec.Path, category)
	if updated, ok := s.Engine.Get(rec.Path); ok {
		rec = updated
	}
	return rec, err
}

// Relocate points the application matching query at newPath. An app still
// waiting for its icon is queued again under the new path; work queued
// under the old one is discarded by the engine as stale.
func (s *Service) Relocate(query, newPath string) (apps.Record, error) {
	rec, err := s.Find(query)
	if err != nil {
		return rec, err
	}
	err = s.Engine.Relocate(rec.Path, newPath)
	var se *apps.StorageError
	if err != nil && !errors.As(err, &se) {
		return rec, err
	}
	updated, ok := s.Engine.Get(strings.TrimSpace(newPath))
	if !ok {
		return rec, err
	}
	if !updated.HasIcon() {
		s.Loader.Load(s.Engine.Generation(), []apps.Record{updated})
	}
	return updated, err
}

// SetCustomIconFile uses the image at file as the icon of the application
// matching query.
func (s *Service) SetCustomIconFile(query, file string) (apps.Record, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return apps.Record{}, fmt.Errorf("app: read icon: %w", err)
	}
	if len(data) == 0 {
		return apps.Record{}, fmt.Errorf("app: icon file %s is empty", file)
	}
	return s.SetCustomIcon(query, apps.Icon(data))
}

// SetCustomIcon sets the custom icon of the application matching query, or
// clears it when icon is empty. A cleared icon is resolved again through
// the cache and extractor.
func (s *Service) SetCustomIcon(query string, icon apps.Icon) (apps.Record, error) {
	rec, err := s.Find(query)
	if err != nil {
		return rec, err
	}
	err = s.Engine.SetCustomIcon(rec.Path, icon)
	var se *apps.StorageError
	if err != nil && !errors.As(err, &se) {
		return rec, err
	}
	updated, ok := s.Engine.Get(rec.Path)
	if !ok {
		return rec, err
	}
	if !updated.HasIcon() {
		s.Loader.Load(s.Engine.Generation(), []apps.Record{updated})
	}
	return updated, err
}

// Launch starts the application matching query and records the access.
func (s *Service) Launch(ctx context.Context, query string) (apps.Record, error) {
	rec, err := s.Find(query)
	if err != nil {
		return rec, err
	}
	if s.launcher == nil {
		return rec, fmt.Errorf("%w: no launcher configured", apps.ErrPlatform)
	}
	if err := s.launcher.Launch(ctx, rec); err != nil {
		return rec, err
	}
	at := s.now()
	rec.LastAccessed = &at
	if err := s.Engine.RecordAccess(rec.Path, at); err != nil {
		s.log.WithError(err).Warn("access not persisted")
	}
	return rec, nil
}

// Recent returns the recently launched applications that are still
// present, most recent first.
func (s *Service) Recent() []apps.Record {
	var out []apps.Record
	for _, path := range s.Engine.Recent() {
		if rec, ok := s.Engine.Get(path); ok {
			out = append(out, rec)
		}
	}
	return out
}

// WatchStore follows changes made to the medium by other processes until
// ctx is done: edited overrides trigger a refresh and edited settings are
// resolved again. Media that cannot be watched return an error.
func (s *Service) WatchStore(ctx context.Context) error {
	w, ok := s.Medium.(store.Watcher)
	if !ok {
		return errors.New("app: storage does not support watching")
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for ev := range events {
			s.handleStoreEvent(ctx, ev)
		}
	}()
	return nil
}

func (s *Service) handleStoreEvent(ctx context.Context, ev store.Event) {
	reloadOverrides := ev.Type == store.EventInvalidated || ev.Key == overrides.Key
	reloadSettings := ev.Type == store.EventInvalidated || isSettingsKey(ev.Key)

	if reloadOverrides {
		changed, err := s.Engine.ReloadOverrides()
		if err != nil {
			s.log.WithError(err).Warn("reload overrides")
		} else if changed {
			if _, err := s.Refresh(ctx); err != nil {
				s.log.WithError(err).Debug("refresh after external edit")
			}
		}
	}
	if reloadSettings {
		if _, err := s.Settings.Initialize(ctx); err != nil {
			s.log.WithError(err).Debug("settings reloaded with fallbacks")
		}
	}
}

func isSettingsKey(key string) bool {
	switch key {
	case settings.Key, settings.BackupThemeKey, settings.BackupAccentCustomKey, settings.BackupAccentColorKey:
		return true
	}
	return false
}
