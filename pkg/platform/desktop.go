// Package platform implements the launcher's collaborators for freedesktop
// desktops: application enumeration from .desktop entries, icon lookup in
// icon themes, the GNOME accent color, session autostart and launching.
package platform

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/ini.v1"

	"tableflip.dev/apphub/pkg/apps"
)

const desktopSection = "Desktop Entry"

// DesktopEntry is the subset of a .desktop file the launcher uses.
type DesktopEntry struct {
	Path       string
	ID         string
	Type       string
	Name       string
	Exec       string
	Icon       string
	Categories []string
	NoDisplay  bool
	Hidden     bool
}

// ParseDesktopEntry reads the [Desktop Entry] group of the file at path.
func ParseDesktopEntry(path string) (*DesktopEntry, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		IgnoreContinuation:  true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	sec, err := cfg.GetSection(desktopSection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &DesktopEntry{
		Path:       path,
		Type:       sec.Key("Type").MustString("Application"),
		Name:       strings.TrimSpace(sec.Key("Name").String()),
		Exec:       strings.TrimSpace(sec.Key("Exec").String()),
		Icon:       strings.TrimSpace(sec.Key("Icon").String()),
		Categories: splitList(sec.Key("Categories").String()),
		NoDisplay:  sec.Key("NoDisplay").MustBool(false),
		Hidden:     sec.Key("Hidden").MustBool(false),
	}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ApplicationDirs returns the XDG application directories in precedence
// order: $XDG_DATA_HOME/applications then each of $XDG_DATA_DIRS.
func ApplicationDirs() []string {
	return subdirs(DataDirs(), "applications")
}

// DataDirs returns $XDG_DATA_HOME followed by $XDG_DATA_DIRS, with the
// XDG base directory defaults when unset.
func DataDirs() []string {
	var dirs []string
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		dirs = append(dirs, home)
	} else if home, err := homedir.Dir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share"))
	}
	system := os.Getenv("XDG_DATA_DIRS")
	if system == "" {
		system = "/usr/local/share:/usr/share"
	}
	for _, d := range filepath.SplitList(system) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func subdirs(base []string, name string) []string {
	out := make([]string, 0, len(base))
	for _, b := range base {
		out = append(out, filepath.Join(b, name))
	}
	return out
}

// DesktopEnumerator lists applications from .desktop files.
type DesktopEnumerator struct {
	Dirs []string
	Log  *log.Entry
}

// NewDesktopEnumerator enumerates dirs, or the XDG application directories
// when none are given.
func NewDesktopEnumerator(dirs ...string) *DesktopEnumerator {
	if len(dirs) == 0 {
		dirs = ApplicationDirs()
	}
	expanded := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if e, err := homedir.Expand(d); err == nil {
			d = e
		}
		expanded = append(expanded, d)
	}
	return &DesktopEnumerator{Dirs: expanded, Log: log.WithField("component", "platform")}
}

// Enumerate implements apps.Enumerator. Entries are identified by their
// desktop file ID; an ID found in an earlier directory hides the same ID
// in later ones. It fails only when none of the directories can be read.
func (d *DesktopEnumerator) Enumerate(ctx context.Context) ([]apps.Descriptor, error) {
	perDir := make([][]*DesktopEntry, len(d.Dirs))
	readable := make([]bool, len(d.Dirs))

	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range d.Dirs {
		i, dir := i, dir
		g.Go(func() error {
			entries, err := d.scan(gctx, dir)
			if err != nil {
				d.Log.WithError(err).WithField("dir", dir).Debug("platform: skipping application dir")
				return nil
			}
			perDir[i] = entries
			readable[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", apps.ErrEnumeration, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apps.ErrEnumeration, err)
	}

	anyReadable := false
	for _, ok := range readable {
		anyReadable = anyReadable || ok
	}
	if !anyReadable {
		return nil, fmt.Errorf("%w: no readable application directory in %v", apps.ErrEnumeration, d.Dirs)
	}

	seen := make(map[string]struct{})
	var out []apps.Descriptor
	for _, entries := range perDir {
		for _, e := range entries {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			if e.Type != "Application" || e.NoDisplay || e.Hidden || e.Name == "" {
				continue
			}
			out = append(out, apps.Descriptor{
				Name:     e.Name,
				Path:     e.Path,
				Category: CategoryFor(e.Categories, e.Path),
				Exec:     e.Exec,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (d *DesktopEnumerator) scan(ctx context.Context, dir string) ([]*DesktopEntry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var entries []*DesktopEntry
	err = filepath.WalkDir(dir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".desktop") {
			return nil
		}
		entry, err := ParseDesktopEntry(path)
		if err != nil {
			d.Log.WithError(err).Debug("platform: unreadable desktop entry")
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		entry.ID = strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}
