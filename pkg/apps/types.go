// Package apps defines the application records shared by the launcher core
// and the collaborator contracts it consumes.
package apps

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Category groups applications in the launcher. Any non-empty string outside
// the built-in set is a user-defined category.
type Category string

const (
	// CategoryGames holds games and game stores.
	CategoryGames Category = "Games"
	// CategoryUtilities holds system tools and accessories.
	CategoryUtilities Category = "Utilities"
	// CategoryMedia holds audio, video and graphics software.
	CategoryMedia Category = "Media"
	// CategoryDevelopment holds editors, IDEs and developer tooling.
	CategoryDevelopment Category = "Development"
	// CategoryOther is the fallback when nothing more specific applies.
	CategoryOther Category = "Other"
)

// BuiltinCategories returns the categories the launcher knows about out of
// the box, in display order.
func BuiltinCategories() []Category {
	return []Category{
		CategoryGames,
		CategoryUtilities,
		CategoryMedia,
		CategoryDevelopment,
		CategoryOther,
	}
}

// ParseCategory normalizes raw input. Built-in categories match case
// insensitively; anything else is kept verbatim as a custom category.
func ParseCategory(raw string) (Category, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("apps: empty category")
	}
	for _, c := range BuiltinCategories() {
		if strings.EqualFold(string(c), trimmed) {
			return c, nil
		}
	}
	return Category(trimmed), nil
}

// IsBuiltin reports whether c is one of the built-in categories.
func (c Category) IsBuiltin() bool {
	for _, b := range BuiltinCategories() {
		if b == c {
			return true
		}
	}
	return false
}

// Icon is raw image data for an application icon. A nil Icon is absent.
type Icon []byte

// IconSource records which tier produced a record's icon.
type IconSource string

const (
	IconNone      IconSource = ""
	IconCustom    IconSource = "custom"
	IconCached    IconSource = "cached"
	IconExtracted IconSource = "extracted"
)

// Descriptor is a single application as reported by the OS enumerator.
type Descriptor struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Category Category `json:"category"`
	// Exec is the command used to start the application, when the platform
	// reports one.
	Exec string `json:"exec,omitempty"`
}

// Record is an application after user overrides have been applied.
type Record struct {
	Name         string     `json:"name" yaml:"name"`
	Path         string     `json:"path" yaml:"path"`
	OriginalPath string     `json:"originalPath" yaml:"originalPath"`
	Exec         string     `json:"exec,omitempty" yaml:"exec,omitempty"`
	Category     Category   `json:"category" yaml:"category"`
	Pinned       bool       `json:"isPinned" yaml:"isPinned"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty" yaml:"lastAccessed,omitempty"`
	Icon         Icon       `json:"-" yaml:"-"`
	IconSource   IconSource `json:"iconSource,omitempty" yaml:"iconSource,omitempty"`
}

// HasIcon reports whether the record has a resolved icon.
func (r Record) HasIcon() bool {
	return len(r.Icon) > 0
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Icon != nil {
		out.Icon = append(Icon(nil), r.Icon...)
	}
	if r.LastAccessed != nil {
		t := *r.LastAccessed
		out.LastAccessed = &t
	}
	return out
}

// CloneRecords deep copies a record list.
func CloneRecords(list []Record) []Record {
	if list == nil {
		return nil
	}
	out := make([]Record, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}

// Enumerator lists installed applications.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]Descriptor, error)
}

// IconExtractor produces icon image data for an application path.
type IconExtractor interface {
	ExtractIcon(ctx context.Context, path string) (Icon, error)
}

// AccentSource reports the operating system accent color as "#RRGGBB".
type AccentSource interface {
	SystemAccentColor(ctx context.Context) (string, error)
}

// StartupRegistrar toggles launching the hub when the user session starts.
type StartupRegistrar interface {
	SetLaunchAtStartup(ctx context.Context, enable bool) error
}

// Launcher starts an application.
type Launcher interface {
	Launch(ctx context.Context, rec Record) error
}

// PathOpener shows a folder in the desktop's file manager.
type PathOpener interface {
	OpenPath(ctx context.Context, path string) error
}

// EnumeratorFunc adapts a function to Enumerator.
type EnumeratorFunc func(ctx context.Context) ([]Descriptor, error)

// Enumerate implements Enumerator.
func (f EnumeratorFunc) Enumerate(ctx context.Context) ([]Descriptor, error) {
	return f(ctx)
}

// IconExtractorFunc adapts a function to IconExtractor.
type IconExtractorFunc func(ctx context.Context, path string) (Icon, error)

// ExtractIcon implements IconExtractor.
func (f IconExtractorFunc) ExtractIcon(ctx context.Context, path string) (Icon, error) {
	return f(ctx, path)
}

// AccentSourceFunc adapts a function to AccentSource.
type AccentSourceFunc func(ctx context.Context) (string, error)

// SystemAccentColor implements AccentSource.
func (f AccentSourceFunc) SystemAccentColor(ctx context.Context) (string, error) {
	return f(ctx)
}

// IconUpdate is a resolved icon produced by the background loader.
type IconUpdate struct {
	Path   string
	Icon   Icon
	Source IconSource
}
