// Package settings resolves the theme and accent color from the structured
// settings blob, its flat backup keys and the system accent color.
//
// Theme precedence: backup key (when present and valid), then the blob, then
// system. Accent precedence: a custom color recorded in the backup keys, then
// a custom color recorded in the blob, then the system accent through the
// accent cache. Backup keys exist so a torn or corrupt blob never loses the
// user's theme or custom accent; writes to them are best effort.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/store"
	"tableflip.dev/apphub/pkg/ttlcache"
)

const (
	// Key holds the structured settings blob.
	Key = "settings"

	BackupThemeKey        = "backup-theme-mode"
	BackupAccentCustomKey = "backup-accent-custom"
	BackupAccentColorKey  = "backup-accent-color"

	// DefaultAccent is used when no accent has ever been resolved.
	DefaultAccent = "#0078d4"
	// DefaultAccentTTL bounds how long a resolved system accent is reused.
	DefaultAccentTTL = time.Hour
)

// blob is the persisted form of State.
type blob struct {
	ThemeMode       ThemeMode `json:"themeMode,omitempty"`
	AccentColor     string    `json:"accentColor,omitempty"`
	IsCustomAccent  bool      `json:"isCustomAccentColor"`
	LaunchAtStartup bool      `json:"launchAtStartup"`
	MinimizeToTray  bool      `json:"minimizeToTray"`
}

// Resolver owns the settings state.
type Resolver struct {
	medium  store.Medium
	accent  apps.AccentSource
	startup apps.StartupRegistrar
	cache   *ttlcache.Cache[string]
	log     *log.Entry

	defaultAccent string
	systemDark    func() bool

	mu    sync.RWMutex
	state State

	flights singleflight.Group

	subMu sync.Mutex
	subs  map[chan State]struct{}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAccentCache replaces the accent cache. By default the cache shares
// the settings medium with a one hour TTL.
func WithAccentCache(c *ttlcache.Cache[string]) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithStartupRegistrar sets the launch-at-startup collaborator.
func WithStartupRegistrar(s apps.StartupRegistrar) Option {
	return func(r *Resolver) { r.startup = s }
}

// WithDefaultAccent sets the accent used when nothing else resolves.
func WithDefaultAccent(color string) Option {
	return func(r *Resolver) {
		if c, err := NormalizeColor(color); err == nil {
			r.defaultAccent = c
		}
	}
}

// WithSystemDark overrides detection of a dark desktop for ThemeSystem.
func WithSystemDark(fn func() bool) Option {
	return func(r *Resolver) { r.systemDark = fn }
}

// WithLogger sets the resolver logger.
func WithLogger(l *log.Entry) Option {
	return func(r *Resolver) { r.log = l }
}

// New creates a resolver. accent may be nil, in which case the system accent
// is whatever the cache or the default provides.
func New(medium store.Medium, accent apps.AccentSource, opts ...Option) *Resolver {
	r := &Resolver{
		medium:        medium,
		accent:        accent,
		defaultAccent: DefaultAccent,
		systemDark:    termenv.HasDarkBackground,
		subs:          make(map[chan State]struct{}),
	}
	r.state = r.defaults()
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = log.WithField("component", "settings")
	}
	if r.cache == nil {
		r.cache = ttlcache.New[string](medium, ttlcache.WithTTL(DefaultAccentTTL), ttlcache.WithLogger(r.log))
	}
	r.state.Accent.Color = r.defaultAccent
	return r
}

func (r *Resolver) defaults() State {
	return State{
		Theme:          ThemeState{Mode: ThemeSystem},
		Accent:         AccentColorState{Color: r.defaultAccent},
		MinimizeToTray: true,
	}
}

// Initialize resolves the full state from storage. The returned state is
// always usable; a non-nil error reports that the system accent could not
// be queried and a fallback color is in use.
func (r *Resolver) Initialize(ctx context.Context) (State, error) {
	b, haveBlob, readErr := r.readBlob()
	st := r.defaults()
	if haveBlob {
		st.LaunchAtStartup = b.LaunchAtStartup
		st.MinimizeToTray = b.MinimizeToTray
	}

	st.Theme.Mode = r.resolveTheme(b)

	var accentErr error
	if color, ok := r.backupCustomAccent(); ok {
		st.Accent = AccentColorState{IsCustom: true, Color: color}
	} else if color, err := NormalizeColor(b.AccentColor); b.IsCustomAccent && err == nil {
		st.Accent = AccentColorState{IsCustom: true, Color: color}
	} else {
		fallback := r.defaultAccent
		if color, err := NormalizeColor(b.AccentColor); err == nil {
			fallback = color
		}
		var sys string
		sys, accentErr = r.systemAccent(ctx, fallback)
		st.Accent = AccentColorState{Color: sys}
	}

	r.mu.Lock()
	r.state = st
	r.mu.Unlock()

	// Keep the blob in step with what was resolved so it can serve as the
	// fallback next time. A blob that could not be read is left alone.
	if readErr != nil {
		r.log.WithError(readErr).Debug("settings: leaving unreadable settings untouched")
	} else if !haveBlob || b.ThemeMode != st.Theme.Mode || b.AccentColor != st.Accent.Color || b.IsCustomAccent != st.Accent.IsCustom {
		if err := r.writeBlob(st); err != nil {
			r.log.WithError(err).Warn("settings: could not persist resolved settings")
		}
	}
	r.publish(st)
	return st, accentErr
}

// readBlob reports whether a usable blob was found. A missing or corrupt
// blob yields false and a nil error; any other read failure is returned so
// the caller does not replace a blob it never saw.
func (r *Resolver) readBlob() (blob, bool, error) {
	var b blob
	raw, err := r.medium.Read(Key)
	if errors.Is(err, store.ErrNotFound) {
		return b, false, nil
	}
	if err != nil {
		r.log.WithError(err).Warn("settings: read failed, using defaults")
		return b, false, &apps.StorageError{Op: "read", Key: Key, Err: err}
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		r.log.WithError(err).Warn("settings: stored settings are corrupt, using backups")
		return blob{}, false, nil
	}
	return b, true, nil
}

func (r *Resolver) resolveTheme(b blob) ThemeMode {
	if raw, err := r.medium.Read(BackupThemeKey); err == nil {
		if mode, err := ParseThemeMode(string(raw)); err == nil {
			return mode
		}
		r.log.WithField("value", string(raw)).Debug("settings: ignoring unreadable theme backup")
	}
	if mode, err := ParseThemeMode(string(b.ThemeMode)); err == nil {
		return mode
	}
	return ThemeSystem
}

func (r *Resolver) backupCustomAccent() (string, bool) {
	raw, err := r.medium.Read(BackupAccentCustomKey)
	if err != nil {
		return "", false
	}
	custom, err := strconv.ParseBool(strings.TrimSpace(string(raw)))
	if err != nil || !custom {
		return "", false
	}
	raw, err = r.medium.Read(BackupAccentColorKey)
	if err != nil {
		return "", false
	}
	color, err := NormalizeColor(string(raw))
	if err != nil {
		return "", false
	}
	return color, true
}

// systemAccent returns the cached system accent, querying the collaborator
// on a miss. On failure the last cached value, however old, or fallback is
// returned together with an error wrapping apps.ErrAccentQuery.
func (r *Resolver) systemAccent(ctx context.Context, fallback string) (string, error) {
	if color, ok := r.cache.Get(ttlcache.AccentKey); ok {
		if c, err := NormalizeColor(color); err == nil {
			return c, nil
		}
	}

	v, err, _ := r.flights.Do("accent", func() (interface{}, error) {
		if r.accent == nil {
			return "", errors.New("no accent source")
		}
		raw, err := r.accent.SystemAccentColor(ctx)
		if err != nil {
			return "", err
		}
		color, err := NormalizeColor(raw)
		if err != nil {
			return "", err
		}
		r.cache.Put(ttlcache.AccentKey, color)
		return color, nil
	})
	if err == nil {
		return v.(string), nil
	}

	if !errors.Is(err, apps.ErrAccentQuery) {
		err = fmt.Errorf("%w: %v", apps.ErrAccentQuery, err)
	}
	r.log.WithError(err).Warn("settings: using fallback accent color")
	if e, ok := r.cache.Peek(ttlcache.AccentKey); ok {
		if c, nerr := NormalizeColor(e.Value); nerr == nil {
			return c, err
		}
	}
	return fallback, err
}

// State returns the current settings.
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// IsDark reports whether the effective theme is dark.
func (r *Resolver) IsDark() bool {
	switch r.State().Theme.Mode {
	case ThemeDark, ThemeBlack:
		return true
	case ThemeLight:
		return false
	default:
		return r.systemDark != nil && r.systemDark()
	}
}

// SetThemeMode persists mode to the blob and the theme backup key.
func (r *Resolver) SetThemeMode(mode ThemeMode) error {
	if _, err := ParseThemeMode(string(mode)); err != nil {
		return err
	}
	return r.update(func(st *State) {
		st.Theme.Mode = mode
	}, map[string][]byte{BackupThemeKey: []byte(mode)}, nil)
}

// SetAccentColor makes color the custom accent. The accent cache is not
// touched; custom colors never go through it.
func (r *Resolver) SetAccentColor(color string) error {
	normalized, err := NormalizeColor(color)
	if err != nil {
		return err
	}
	return r.update(func(st *State) {
		st.Accent = AccentColorState{IsCustom: true, Color: normalized}
	}, map[string][]byte{
		BackupAccentCustomKey: []byte("true"),
		BackupAccentColorKey:  []byte(normalized),
	}, nil)
}

// ResetToSystemAccentColor drops the custom accent and resolves the system
// accent again through the cache. The custom flag backup is overwritten in
// the same write as the blob and then removed along with the color backup.
func (r *Resolver) ResetToSystemAccentColor(ctx context.Context) error {
	r.mu.RLock()
	fallback := r.state.Accent.Color
	r.mu.RUnlock()
	if e, ok := r.cache.Peek(ttlcache.AccentKey); ok {
		if c, err := NormalizeColor(e.Value); err == nil {
			fallback = c
		}
	}

	color, accentErr := r.systemAccent(ctx, fallback)
	err := r.update(func(st *State) {
		st.Accent = AccentColorState{Color: color}
	}, map[string][]byte{
		BackupAccentCustomKey: []byte("false"),
	}, []string{BackupAccentCustomKey, BackupAccentColorKey})
	if err != nil {
		return err
	}
	if _, still := r.backupCustomAccent(); still {
		// Initialize would bring the custom color back.
		return &apps.StorageError{Op: "write", Key: BackupAccentCustomKey, Err: errors.New("custom accent backup could not be cleared")}
	}
	return accentErr
}

// SetLaunchAtStartup registers or unregisters the hub with the session. The
// setting only changes when the platform call succeeds.
func (r *Resolver) SetLaunchAtStartup(ctx context.Context, enable bool) error {
	if r.startup == nil {
		return fmt.Errorf("%w: launch at startup is not supported", apps.ErrPlatform)
	}
	if err := r.startup.SetLaunchAtStartup(ctx, enable); err != nil {
		if !errors.Is(err, apps.ErrPlatform) {
			err = fmt.Errorf("%w: %v", apps.ErrPlatform, err)
		}
		return err
	}
	return r.update(func(st *State) { st.LaunchAtStartup = enable }, nil, nil)
}

// SetMinimizeToTray persists the minimize-to-tray preference.
func (r *Resolver) SetMinimizeToTray(v bool) error {
	return r.update(func(st *State) { st.MinimizeToTray = v }, nil, nil)
}

// update applies fn in memory, then writes the blob together with backups.
// The in-memory state stands even if the blob write fails. Backup writes and
// removals never produce an error.
func (r *Resolver) update(fn func(st *State), backups map[string][]byte, remove []string) error {
	r.mu.Lock()
	fn(&r.state)
	st := r.state
	r.mu.Unlock()
	r.publish(st)

	raw, err := encodeBlob(st)
	if err != nil {
		return err
	}

	if _, ok := r.medium.(store.Batcher); ok && len(backups) > 0 {
		vals := map[string][]byte{Key: raw}
		for k, v := range backups {
			vals[k] = v
		}
		err := store.WriteAll(r.medium, vals)
		if err == nil {
			r.removeBackups(remove)
			return nil
		}
		r.log.WithError(err).Debug("settings: batch write failed, writing keys separately")
	}

	var blobErr error
	if err := r.medium.Write(Key, raw); err != nil {
		blobErr = &apps.StorageError{Op: "write", Key: Key, Err: err}
		r.log.WithError(err).Warn("settings: settings not persisted")
	}
	if len(backups) > 0 {
		if err := store.WriteAll(r.medium, backups); err != nil {
			r.log.WithError(err).Warn("settings: backup write failed")
		}
	}
	r.removeBackups(remove)
	return blobErr
}

func (r *Resolver) removeBackups(keys []string) {
	for _, k := range keys {
		if err := r.medium.Remove(k); err != nil {
			r.log.WithError(err).WithField("key", k).Warn("settings: backup removal failed")
		}
	}
}

func (r *Resolver) writeBlob(st State) error {
	raw, err := encodeBlob(st)
	if err != nil {
		return err
	}
	if err := r.medium.Write(Key, raw); err != nil {
		return &apps.StorageError{Op: "write", Key: Key, Err: err}
	}
	return nil
}

func encodeBlob(st State) ([]byte, error) {
	raw, err := json.Marshal(blob{
		ThemeMode:       st.Theme.Mode,
		AccentColor:     st.Accent.Color,
		IsCustomAccent:  st.Accent.IsCustom,
		LaunchAtStartup: st.LaunchAtStartup,
		MinimizeToTray:  st.MinimizeToTray,
	})
	if err != nil {
		return nil, fmt.Errorf("settings: encode: %w", err)
	}
	return raw, nil
}

// Subscribe returns a channel receiving the state after every change until
// ctx is done. Slow receivers miss intermediate states.
func (r *Resolver) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 8)
	r.subMu.Lock()
	r.subs[ch] = struct{}{}
	r.subMu.Unlock()
	go func() {
		<-ctx.Done()
		r.subMu.Lock()
		delete(r.subs, ch)
		close(ch)
		r.subMu.Unlock()
	}()
	return ch
}

func (r *Resolver) publish(st State) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subs {
		select {
		case ch <- st:
		default:
		}
	}
}
