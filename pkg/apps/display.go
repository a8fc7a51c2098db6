package apps

import (
	"sort"
	"strings"
)

// SortForDisplay orders records pinned first, then by most recent access,
// then by name. The input is sorted in place and returned.
func SortForDisplay(list []Record) []Record {
	sort.SliceStable(list, func(i, j int) bool {
		left, right := list[i], list[j]
		if left.Pinned != right.Pinned {
			return left.Pinned
		}
		switch {
		case left.LastAccessed != nil && right.LastAccessed != nil:
			if !left.LastAccessed.Equal(*right.LastAccessed) {
				return left.LastAccessed.After(*right.LastAccessed)
			}
		case left.LastAccessed != nil:
			return true
		case right.LastAccessed != nil:
			return false
		}
		ln, rn := strings.ToLower(left.Name), strings.ToLower(right.Name)
		if ln == rn {
			return left.Path < right.Path
		}
		return ln < rn
	})
	return list
}

// Filter returns the records matching a case-insensitive search term against
// name and path, restricted to category when it is non-empty.
func Filter(list []Record, term string, category Category) []Record {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Record, 0, len(list))
	for _, rec := range list {
		if category != "" && !strings.EqualFold(string(rec.Category), string(category)) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(rec.Name), term) &&
			!strings.Contains(strings.ToLower(rec.Path), term) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Categories returns the distinct categories present in list, built-ins
// first in their canonical order and custom ones alphabetically.
func Categories(list []Record) []Category {
	seen := make(map[Category]struct{}, len(list))
	for _, rec := range list {
		if rec.Category != "" {
			seen[rec.Category] = struct{}{}
		}
	}
	out := make([]Category, 0, len(seen))
	for _, c := range BuiltinCategories() {
		if _, ok := seen[c]; ok {
			out = append(out, c)
			delete(seen, c)
		}
	}
	custom := make([]string, 0, len(seen))
	for c := range seen {
		custom = append(custom, string(c))
	}
	sort.Strings(custom)
	for _, c := range custom {
		out = append(out, Category(c))
	}
	return out
}
