package app

import (
	"sort"
	"time"
)

// OrphanKind names the override map an orphaned entry lives in.
type OrphanKind string

const (
	OrphanMove     OrphanKind = "moved"
	OrphanCategory OrphanKind = "category"
	OrphanIcon     OrphanKind = "icon"
	OrphanAccess   OrphanKind = "accessed"
	OrphanPin      OrphanKind = "pinned"
)

// Orphan is an override that refers to an application the last enumeration
// did not report. Orphans are kept so edits survive an application being
// temporarily absent; they are listed for information only.
type Orphan struct {
	Kind OrphanKind `json:"kind" yaml:"kind"`
	Path string     `json:"path" yaml:"path"`
	// LastTouched is the access time recorded for the path, if any.
	LastTouched time.Time `json:"lastTouched,omitempty" yaml:"lastTouched,omitempty"`
}

// Orphans lists overrides that do not match any application in the
// current collection, most recently used first.
func (s *Service) Orphans() []Orphan {
	ov := s.Engine.Overrides()
	current := make(map[string]struct{})
	original := make(map[string]struct{})
	for _, rec := range s.Engine.Snapshot() {
		current[rec.Path] = struct{}{}
		original[rec.OriginalPath] = struct{}{}
	}

	var out []Orphan
	add := func(kind OrphanKind, path string, known map[string]struct{}) {
		if _, ok := known[path]; ok {
			return
		}
		out = append(out, Orphan{Kind: kind, Path: path, LastTouched: ov.LastAccessed[path]})
	}
	for path := range ov.MovedTo {
		add(OrphanMove, path, original)
	}
	for path := range ov.Categories {
		add(OrphanCategory, path, original)
	}
	for path := range ov.LastAccessed {
		if _, ok := current[path]; ok {
			continue
		}
		add(OrphanAccess, path, original)
	}
	for path := range ov.CustomIcons {
		add(OrphanIcon, path, current)
	}
	for _, path := range ov.Pinned {
		add(OrphanPin, path, current)
	}

	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].LastTouched, out[j].LastTouched
		if li.Equal(lj) {
			if out[i].Kind == out[j].Kind {
				return out[i].Path < out[j].Path
			}
			return out[i].Kind < out[j].Kind
		}
		return li.After(lj)
	})
	return out
}
