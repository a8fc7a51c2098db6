package open

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/apps"
)

// Open launches an application and records the launch.
type Open struct {
	Service *app.Service
	Query   string
	// Pick chooses the application when Query is empty.
	Pick func(records []apps.Record) (apps.Record, error)
	Out  io.Writer
}

func (n *Open) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not open, no service")
	}
	if _, err := n.Service.Refresh(ctx); err != nil && len(n.Service.Apps()) == 0 {
		return err
	}
	if n.Query == "" {
		if n.Pick == nil {
			return errors.New("no application named")
		}
		picked, err := n.Pick(n.Service.Apps())
		if err != nil {
			return err
		}
		n.Query = picked.Path
	}
	rec, err := n.Service.Launch(ctx, n.Query)
	if err != nil {
		return err
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}
	_, _ = fmt.Fprintf(out, "Launched %s\n", color.New(color.Bold).Sprint(rec.Name))
	return nil
}
