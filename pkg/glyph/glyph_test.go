package glyph

import (
	"testing"

	"tableflip.dev/apphub/pkg/apps"
)

func TestForIcon(t *testing.T) {
	tests := map[string]struct {
		rec  apps.Record
		want Glyph
	}{
		"none":      {rec: apps.Record{}, want: NoIcon},
		"custom":    {rec: apps.Record{Icon: apps.Icon("x"), IconSource: apps.IconCustom}, want: Custom},
		"cached":    {rec: apps.Record{Icon: apps.Icon("x"), IconSource: apps.IconCached}, want: Cached},
		"extracted": {rec: apps.Record{Icon: apps.Icon("x"), IconSource: apps.IconExtracted}, want: Extracted},
		"no bytes":  {rec: apps.Record{IconSource: apps.IconCustom}, want: NoIcon},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ForIcon(tc.rec); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestForPin(t *testing.T) {
	if ForPin(apps.Record{Pinned: true}) != Pinned {
		t.Fatal("expected the pinned glyph")
	}
	if ForPin(apps.Record{}).String() != " " {
		t.Fatal("expected a blank for unpinned records")
	}
}
