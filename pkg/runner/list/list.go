package list

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/printers"
	"tableflip.dev/apphub/pkg/reconcile"
)

// List prints the application collection.
type List struct {
	Service  *app.Service
	Category apps.Category
	Search   string
	Pinned   bool
	Recent   bool
	ShowPath bool
	// Wait is how long the icon loader is given to finish before printing.
	Wait   time.Duration
	Output printers.Format
	Out    io.Writer
}

func (n *List) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not list, no service")
	}
	if err := n.Service.Start(ctx); err != nil {
		return err
	}
	if status, err := n.Service.Engine.Status(); status == reconcile.StatusUnavailable {
		log.WithError(err).Warn("installed applications could not be listed")
	}
	if n.Wait > 0 {
		wctx, cancel := context.WithTimeout(ctx, n.Wait)
		defer cancel()
		if err := n.Service.WaitForIcons(wctx); err != nil {
			log.WithField("pending", n.Service.Loader.Pending()).Debug("printing before all icons resolved")
		}
	}

	records, title := n.Service.Apps(), "Applications"
	if n.Recent {
		records, title = n.Service.Recent(), "Recent"
	}
	records = n.filtered(records)

	out := n.Out
	if out == nil {
		out = color.Output
	}
	if n.Output.Structured() {
		return printers.Encode(out, n.Output, records)
	}

	pp := printers.PrettyPrint{ShowPath: n.ShowPath, PathWidth: 64, Out: out}
	if n.Category != "" {
		title = string(n.Category)
	}
	pp.TitleWithCount(title, len(records))
	pp.Apps(records...)
	return nil
}

func (n *List) filtered(all []apps.Record) []apps.Record {
	all = apps.Filter(all, n.Search, n.Category)
	if !n.Pinned {
		return all
	}
	c := make([]apps.Record, 0, len(all))
	for _, a := range all {
		if a.Pinned {
			c = append(c, a)
		}
	}
	return c
}
