package info

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/printers"
	"tableflip.dev/apphub/pkg/store"
	"tableflip.dev/apphub/pkg/timeutil"
)

// Info describes the configuration, the storage and the state of the
// collection.
type Info struct {
	Config  *store.Config
	Service *app.Service
	Out     io.Writer
}

func (n *Info) Do(ctx context.Context) error {
	out := n.Out
	if out == nil {
		out = color.Output
	}

	if override := os.Getenv("APPHUB_CONFIG_PATH"); override != "" {
		_, _ = fmt.Fprintln(out, "APPHUB_CONFIG_PATH found on env, using", override)
	} else {
		_, _ = fmt.Fprintln(out, "APPHUB_CONFIG_PATH env var not set")
	}

	if n.Config == nil {
		var err error
		n.Config, err = store.LoadConfig()
		if err != nil {
			return err
		}
	}
	if n.Service == nil {
		return errors.New("failed to create the service")
	}

	if _, err := n.Service.Refresh(ctx); err != nil {
		_, _ = fmt.Fprintln(out, color.YellowString("warning: %v", err))
	}
	status, _ := n.Service.Engine.Status()
	records := n.Service.Apps()

	pinned, moved := 0, 0
	for _, rec := range records {
		if rec.Pinned {
			pinned++
		}
		if rec.Path != rec.OriginalPath {
			moved++
		}
	}

	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Storage"), fmt.Sprintf("%s (%s)", n.Config.BasePath(), n.Config.Backend))
	tbl.AddRow(bold.Sprint("Icon cache TTL"), timeutil.FormatTTL(n.Config.IconTTL))
	tbl.AddRow(bold.Sprint("Accent cache TTL"), timeutil.FormatTTL(n.Config.AccentTTL))
	tbl.AddRow(bold.Sprint("Cached icons"), fmt.Sprint(len(n.Service.Medium.Keys(ctx, "icons/"))))
	tbl.AddRow(bold.Sprint("Collection"), string(status))
	tbl.AddRow(bold.Sprint("Applications"), fmt.Sprintf("%d (%d pinned, %d moved)", len(records), pinned, moved))
	tbl.AddRow(bold.Sprint("Recent"), fmt.Sprint(len(n.Service.Recent())))
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(out, tbl)

	pp := printers.PrettyPrint{Out: out, PathWidth: 64}
	pp.NewLine()
	pp.Title("Orphaned overrides")
	pp.Orphans(n.Service.Orphans())
	return nil
}
