// Package key prints the legend for the markers in application lists.
package key

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/apphub/pkg/glyph"
)

// Key prints the glyph legend.
type Key struct {
	Out io.Writer
}

func (k *Key) Do(ctx context.Context) error {
	out := k.Out
	if out == nil {
		out = color.Output
	}
	_, _ = fmt.Fprintln(out, "")
	k.Key(ctx, out, glyph.DefaultGlyphs(), false)
	_, _ = fmt.Fprintln(out, "")
	k.Key(ctx, out, glyph.DefaultGlyphs(), true)
	_, _ = fmt.Fprintln(out, "")
	return nil
}

// Key renders a glyph table; when icons is true, the icon markers are shown.
func (k *Key) Key(_ context.Context, out io.Writer, glyfs []glyph.Glyph, icons bool) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	if icons {
		tbl.AddRow(bold.Sprint("Icons"), bold.Sprint("Meaning"))
	} else {
		tbl.AddRow(bold.Sprint("Pins"), bold.Sprint("Meaning"))
	}
	for _, v := range glyfs {
		if icons == v.Icon {
			tbl.AddRow(v.Symbol, v.Meaning)
		}
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(out, tbl)
}
