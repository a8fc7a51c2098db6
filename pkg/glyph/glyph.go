// Package glyph holds the symbols used to mark applications in lists.
package glyph

import "tableflip.dev/apphub/pkg/apps"

type Glyph struct {
	Symbol  string
	Meaning string
	// Icon is set for the glyphs that describe where an icon came from.
	Icon bool
}

func (g Glyph) String() string {
	return g.Symbol
}

var (
	Pinned    = Glyph{Symbol: "★", Meaning: "pinned to the top"}
	Unpinned  = Glyph{Symbol: " ", Meaning: "not pinned"}
	Custom    = Glyph{Symbol: "◆", Meaning: "custom icon", Icon: true}
	Cached    = Glyph{Symbol: "●", Meaning: "icon from the cache", Icon: true}
	Extracted = Glyph{Symbol: "◉", Meaning: "icon extracted this session", Icon: true}
	NoIcon    = Glyph{Symbol: "○", Meaning: "icon not loaded yet", Icon: true}
)

// DefaultGlyphs lists every glyph in legend order.
func DefaultGlyphs() []Glyph {
	return []Glyph{Pinned, Custom, Cached, Extracted, NoIcon}
}

// ForPin returns the pin marker of a record.
func ForPin(rec apps.Record) Glyph {
	if rec.Pinned {
		return Pinned
	}
	return Unpinned
}

// ForIcon returns the marker for the tier that produced rec's icon.
func ForIcon(rec apps.Record) Glyph {
	if !rec.HasIcon() {
		return NoIcon
	}
	switch rec.IconSource {
	case apps.IconCustom:
		return Custom
	case apps.IconCached:
		return Cached
	default:
		return Extracted
	}
}
