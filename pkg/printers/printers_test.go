package printers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/apphub/pkg/apps"
)

func TestFormatSet(t *testing.T) {
	var f Format
	if f.String() != "table" {
		t.Fatalf("expected the zero format to print as table, got %s", f)
	}
	if err := f.Set(" JSON "); err != nil || f != FormatJSON {
		t.Fatalf("got %s, %v", f, err)
	}
	if !f.Structured() {
		t.Fatal("expected json to be structured")
	}
	if err := f.Set("xml"); err == nil {
		t.Fatal("expected xml to be rejected")
	}
}

func TestEncodeLeavesOutIconBytes(t *testing.T) {
	rec := apps.Record{Name: "Editor", Path: "/apps/editor.desktop", Icon: apps.Icon("PNGDATA"), IconSource: apps.IconCustom}
	for _, f := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		if err := Encode(&buf, f, rec); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		out := buf.String()
		if !strings.Contains(out, "Editor") || !strings.Contains(out, "custom") {
			t.Errorf("%s: missing fields:\n%s", f, out)
		}
		if strings.Contains(out, "PNGDATA") || strings.Contains(out, "UE5HREFUQQ") {
			t.Errorf("%s: icon bytes leaked:\n%s", f, out)
		}
	}
	if err := Encode(&bytes.Buffer{}, FormatTable, rec); err == nil {
		t.Fatal("expected table to be refused")
	}
}

func TestPrettyPrintApps(t *testing.T) {
	color.NoColor = true
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	used := now.Add(-2 * time.Hour)

	var buf bytes.Buffer
	pp := PrettyPrint{Out: &buf, ShowPath: true, PathWidth: 12, Now: func() time.Time { return now }}
	pp.Apps(
		apps.Record{Name: "Editor", Path: "/usr/share/applications/editor.desktop", Category: apps.CategoryDevelopment, Pinned: true, LastAccessed: &used},
		apps.Record{Name: "Chess", Path: "/a/chess.desktop", Category: apps.CategoryGames, Icon: apps.Icon("x"), IconSource: apps.IconCached},
	)
	out := buf.String()
	for _, want := range []string{"Editor", "Development", "★", "Chess", "never", "● cached", "…"} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "/usr/share/applications/editor.desktop") {
		t.Errorf("expected the long path to be truncated:\n%s", out)
	}

	buf.Reset()
	pp.Apps()
	if !strings.Contains(buf.String(), "none") {
		t.Fatalf("expected the empty marker, got %q", buf.String())
	}
}
