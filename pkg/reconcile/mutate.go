package reconcile

import (
	"errors"
	"strings"
	"time"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/overrides"
)

// mutate runs fn under the write lock, then persists the resulting override
// maps. A storage failure is logged and returned; the in-memory change
// stands either way. While the stored maps cannot be read nothing is saved,
// so an unreadable medium is never overwritten with partial maps.
func (e *Engine) mutate(op string, fn func(ov *overrides.Maps) ([]apps.Record, error)) error {
	loadErr := e.ensureLoaded()
	if loadErr != nil {
		e.log.WithError(loadErr).WithField("op", op).Warn("reconcile: overrides unreadable, change kept in memory only")
	}

	e.mu.Lock()
	changed, err := fn(e.ov)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	snapshot := e.ov.Clone()
	gen := e.generation
	e.persistMu.Lock()
	e.mu.Unlock()
	defer e.persistMu.Unlock()

	if len(changed) > 0 {
		e.events.emit(Event{Type: EventRecordChanged, Generation: gen, Records: changed, Op: op})
	}

	if loadErr != nil {
		return loadErr
	}
	if err := snapshot.Save(e.medium); err != nil {
		e.log.WithError(err).WithField("op", op).Warn("reconcile: overrides not persisted")
		return err
	}
	return nil
}

// updateRecord applies fn to the record at path, if present, and returns
// the changed record for publication.
func (e *Engine) updateRecord(path string, fn func(r *apps.Record)) []apps.Record {
	i, ok := e.index[path]
	if !ok {
		return nil
	}
	fn(&e.records[i])
	return []apps.Record{e.records[i].Clone()}
}

// originalFor resolves the enumerated path of the application currently at
// path. Callers hold mu.
func (e *Engine) originalFor(path string, ov *overrides.Maps) string {
	if i, ok := e.index[path]; ok {
		return e.records[i].OriginalPath
	}
	for original, moved := range ov.MovedTo {
		if moved == path {
			return original
		}
	}
	return path
}

// Pin toggles whether the application at path is pinned.
func (e *Engine) Pin(path string) (bool, error) {
	var pinned bool
	err := e.mutate("pin", func(ov *overrides.Maps) ([]apps.Record, error) {
		pinned = !ov.IsPinned(path)
		ov.SetPinned(path, pinned)
		return e.updateRecord(path, func(r *apps.Record) { r.Pinned = pinned }), nil
	})
	return pinned, err
}

// SetPinned pins or unpins the application at path.
func (e *Engine) SetPinned(path string, pinned bool) error {
	return e.mutate("pin", func(ov *overrides.Maps) ([]apps.Record, error) {
		ov.SetPinned(path, pinned)
		return e.updateRecord(path, func(r *apps.Record) { r.Pinned = pinned }), nil
	})
}

// SetCategory overrides the category of the application at path. An empty
// category removes the override and the record immediately falls back to
// the category last reported by the enumerator.
func (e *Engine) SetCategory(path string, category apps.Category) error {
	category = apps.Category(strings.TrimSpace(string(category)))
	return e.mutate("category", func(ov *overrides.Maps) ([]apps.Record, error) {
		original := e.originalFor(path, ov)
		if category == "" {
			delete(ov.Categories, original)
			system, ok := e.system[original]
			if !ok {
				return nil, nil
			}
			return e.updateRecord(path, func(r *apps.Record) { r.Category = system }), nil
		}
		ov.Categories[original] = category
		return e.updateRecord(path, func(r *apps.Record) { r.Category = category }), nil
	})
}

// Relocate moves the application currently at oldPath to newPath. Pins,
// custom icons, recency and access times keyed by oldPath follow it.
func (e *Engine) Relocate(oldPath, newPath string) error {
	newPath = strings.TrimSpace(newPath)
	if newPath == "" {
		return errors.New("reconcile: new path required")
	}
	if oldPath == newPath {
		return nil
	}
	return e.mutate("relocate", func(ov *overrides.Maps) ([]apps.Record, error) {
		if i, taken := e.index[newPath]; taken && e.records[i].Path != oldPath {
			return nil, errors.New("reconcile: another application already uses " + newPath)
		}
		original := e.originalFor(oldPath, ov)
		if newPath == original {
			delete(ov.MovedTo, original)
		} else {
			ov.MovedTo[original] = newPath
		}
		ov.Rename(original, oldPath, newPath)

		i, ok := e.index[oldPath]
		if !ok {
			return nil, nil
		}
		delete(e.index, oldPath)
		e.records[i].Path = newPath
		e.index[newPath] = i
		return []apps.Record{e.records[i].Clone()}, nil
	})
}

// RecordAccess stamps the application at path as launched at t and moves it
// to the front of the bounded recency list.
func (e *Engine) RecordAccess(path string, at time.Time) error {
	if at.IsZero() {
		at = e.now()
	}
	return e.mutate("access", func(ov *overrides.Maps) ([]apps.Record, error) {
		original := e.originalFor(path, ov)
		ov.LastAccessed[original] = at
		if original != path {
			delete(ov.LastAccessed, path)
		}
		ov.Touch(path, e.recentLimit)
		return e.updateRecord(path, func(r *apps.Record) {
			t := at
			r.LastAccessed = &t
		}), nil
	})
}

// SetCustomIcon stores a user supplied icon for path, or removes it when
// icon is empty. Removing the icon leaves the record without one so the
// loader can resolve it again.
func (e *Engine) SetCustomIcon(path string, icon apps.Icon) error {
	return e.mutate("icon", func(ov *overrides.Maps) ([]apps.Record, error) {
		if len(icon) == 0 {
			delete(ov.CustomIcons, path)
			return e.updateRecord(path, func(r *apps.Record) {
				r.Icon = nil
				r.IconSource = apps.IconNone
			}), nil
		}
		data := append(apps.Icon(nil), icon...)
		ov.CustomIcons[path] = data
		return e.updateRecord(path, func(r *apps.Record) {
			r.Icon = append(apps.Icon(nil), data...)
			r.IconSource = apps.IconCustom
		}), nil
	})
}

// SetGridView persists the preferred layout of the launcher.
func (e *Engine) SetGridView(grid bool) error {
	return e.mutate("view", func(ov *overrides.Maps) ([]apps.Record, error) {
		ov.GridView = grid
		return nil, nil
	})
}

// Recent returns the recency list, most recent first.
func (e *Engine) Recent() []string {
	ov := e.Overrides()
	return ov.Recent
}
