package key

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestKey(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	k := Key{Out: &buf}
	if err := k.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Pins", "pinned to the top", "Icons", "custom icon", "icon not loaded yet"} {
		if !strings.Contains(out, want) {
			t.Errorf("legend is missing %q:\n%s", want, out)
		}
	}
}
