package platform

import (
	"path/filepath"
	"strings"

	"tableflip.dev/apphub/pkg/apps"
)

// xdgCategories maps freedesktop.org main and additional categories to the
// launcher's built-in categories, in priority order.
var xdgCategories = []struct {
	category apps.Category
	names    []string
}{
	{apps.CategoryGames, []string{"Game", "ArcadeGame", "BoardGame", "CardGame", "Emulator"}},
	{apps.CategoryDevelopment, []string{"Development", "IDE", "TextEditor", "Debugger", "RevisionControl"}},
	{apps.CategoryMedia, []string{"AudioVideo", "Audio", "Video", "Graphics", "Photography", "Player", "Music"}},
	{apps.CategoryUtilities, []string{"Utility", "System", "Settings", "Accessories", "FileManager", "TerminalEmulator", "Monitor"}},
}

// pathHints are checked against the lowercased path when the desktop entry
// declares no recognised category.
var pathHints = []struct {
	category apps.Category
	parts    []string
}{
	{apps.CategoryGames, []string{"/games/", "/steam/", "/epic games/", "/riot games/", "/lutris/", "/heroic/"}},
	{apps.CategoryDevelopment, []string{"/development/", "/visual studio/", "/jetbrains/", "/git/", "/code/"}},
	{apps.CategoryMedia, []string{"/media/", "/adobe/", "/music/", "/video/"}},
	{apps.CategoryUtilities, []string{"/utilities/", "/system tools/", "/accessories/"}},
}

// CategoryFor infers a category from a desktop entry's Categories list,
// falling back to well known path segments, then to Other.
func CategoryFor(declared []string, path string) apps.Category {
	set := make(map[string]struct{}, len(declared))
	for _, c := range declared {
		if c = strings.TrimSpace(c); c != "" {
			set[c] = struct{}{}
		}
	}
	for _, rule := range xdgCategories {
		for _, name := range rule.names {
			if _, ok := set[name]; ok {
				return rule.category
			}
		}
	}

	lower := strings.ToLower(filepath.ToSlash(path))
	lower = strings.ReplaceAll(lower, `\`, "/")
	for _, rule := range pathHints {
		for _, part := range rule.parts {
			if strings.Contains(lower, part) {
				return rule.category
			}
		}
	}
	return apps.CategoryOther
}
