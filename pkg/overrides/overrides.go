// Package overrides persists the user's edits to the enumerated application
// list: relocations, categories, pins, custom icons and recency.
package overrides

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/store"
)

const (
	// Key is where the override maps are stored.
	Key = "app-settings"
	// corruptKey receives an undecodable blob before it is replaced.
	corruptKey = "app-settings.corrupt"
)

// Maps holds every persisted override. MovedTo, Categories and LastAccessed
// are keyed by the path the enumerator reported. Pinned, Recent and
// CustomIcons are keyed by the application's current path. Entries for
// applications that are no longer installed are kept.
type Maps struct {
	MovedTo      map[string]string        `json:"moved_apps"`
	Categories   map[string]apps.Category `json:"categories"`
	CustomIcons  map[string]apps.Icon     `json:"custom_icons"`
	LastAccessed map[string]time.Time     `json:"last_accessed"`
	Pinned       []string                 `json:"pinned_apps"`
	Recent       []string                 `json:"recent_apps"`
	GridView     bool                     `json:"is_grid_view"`
}

// New returns empty maps.
func New() *Maps {
	m := &Maps{GridView: true}
	m.ensure()
	return m
}

func (m *Maps) ensure() {
	if m.MovedTo == nil {
		m.MovedTo = make(map[string]string)
	}
	if m.Categories == nil {
		m.Categories = make(map[string]apps.Category)
	}
	if m.CustomIcons == nil {
		m.CustomIcons = make(map[string]apps.Icon)
	}
	if m.LastAccessed == nil {
		m.LastAccessed = make(map[string]time.Time)
	}
}

// Load reads the maps from medium. A missing blob yields empty maps. An
// undecodable blob is copied aside, logged and also yields empty maps.
func Load(medium store.Medium) (*Maps, error) {
	raw, err := medium.Read(Key)
	if errors.Is(err, store.ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return New(), fmt.Errorf("overrides: read: %w", err)
	}
	m := &Maps{GridView: true}
	if err := json.Unmarshal(raw, m); err != nil {
		log.WithError(err).Warn("overrides: stored settings are corrupt, starting empty")
		if werr := medium.Write(corruptKey, raw); werr != nil {
			log.WithError(werr).Warn("overrides: could not keep a copy of corrupt settings")
		}
		return New(), nil
	}
	m.ensure()
	return m, nil
}

// Save writes the maps to medium.
func (m *Maps) Save(medium store.Medium) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("overrides: encode: %w", err)
	}
	if err := medium.Write(Key, raw); err != nil {
		return &apps.StorageError{Op: "write", Key: Key, Err: err}
	}
	return nil
}

// Clone returns a deep copy.
func (m *Maps) Clone() *Maps {
	out := &Maps{
		MovedTo:      make(map[string]string, len(m.MovedTo)),
		Categories:   make(map[string]apps.Category, len(m.Categories)),
		CustomIcons:  make(map[string]apps.Icon, len(m.CustomIcons)),
		LastAccessed: make(map[string]time.Time, len(m.LastAccessed)),
		Pinned:       append([]string(nil), m.Pinned...),
		Recent:       append([]string(nil), m.Recent...),
		GridView:     m.GridView,
	}
	for k, v := range m.MovedTo {
		out.MovedTo[k] = v
	}
	for k, v := range m.Categories {
		out.Categories[k] = v
	}
	for k, v := range m.CustomIcons {
		out.CustomIcons[k] = append(apps.Icon(nil), v...)
	}
	for k, v := range m.LastAccessed {
		out.LastAccessed[k] = v
	}
	return out
}

// IsPinned reports whether path is in the pinned set.
func (m *Maps) IsPinned(path string) bool {
	return indexOf(m.Pinned, path) >= 0
}

// SetPinned adds or removes path from the pinned set, preserving order.
func (m *Maps) SetPinned(path string, pinned bool) {
	idx := indexOf(m.Pinned, path)
	switch {
	case pinned && idx < 0:
		m.Pinned = append(m.Pinned, path)
	case !pinned && idx >= 0:
		m.Pinned = append(m.Pinned[:idx], m.Pinned[idx+1:]...)
	}
}

// Touch moves path to the front of the recency list, keeping at most limit
// entries. A non-positive limit keeps everything.
func (m *Maps) Touch(path string, limit int) {
	recent := make([]string, 0, len(m.Recent)+1)
	recent = append(recent, path)
	for _, p := range m.Recent {
		if p != path {
			recent = append(recent, p)
		}
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	m.Recent = recent
}

// Rename rewrites every entry keyed by a current path from oldPath to
// newPath: pins, recency and custom icons. A LastAccessed entry is only moved
// when it is keyed by oldPath and oldPath is not the original path, since
// entries keyed by the original path stay reachable after the move.
func (m *Maps) Rename(original, oldPath, newPath string) {
	if oldPath == newPath {
		return
	}
	if idx := indexOf(m.Pinned, oldPath); idx >= 0 {
		m.Pinned = append(m.Pinned[:idx], m.Pinned[idx+1:]...)
		if indexOf(m.Pinned, newPath) < 0 {
			m.Pinned = append(m.Pinned, newPath)
		}
	}
	if idx := indexOf(m.Recent, oldPath); idx >= 0 {
		if dup := indexOf(m.Recent, newPath); dup >= 0 {
			m.Recent = append(m.Recent[:dup], m.Recent[dup+1:]...)
			idx = indexOf(m.Recent, oldPath)
		}
		m.Recent[idx] = newPath
	}
	if icon, ok := m.CustomIcons[oldPath]; ok {
		delete(m.CustomIcons, oldPath)
		m.CustomIcons[newPath] = icon
	}
	if at, ok := m.LastAccessed[oldPath]; ok && oldPath != original {
		delete(m.LastAccessed, oldPath)
		m.LastAccessed[newPath] = at
	}
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
