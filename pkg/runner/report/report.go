package report

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/printers"
	"tableflip.dev/apphub/pkg/timeutil"
)

// DefaultWindow is the report window used when none is given.
const DefaultWindow = "7d"

// Report prints the applications launched within a trailing window.
type Report struct {
	Service *app.Service
	// Last is the window, for example "1d" or "2w".
	Last   string
	Now    func() time.Time
	Output printers.Format
	Out    io.Writer
}

func (n *Report) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not report, no service")
	}
	label := n.Last
	if label == "" {
		label = DefaultWindow
	}
	window, err := timeutil.ParseTTL(label)
	if err != nil {
		return err
	}
	if window <= 0 {
		return errors.New("report window must be a positive duration")
	}
	if _, err := n.Service.Refresh(ctx); err != nil && len(n.Service.Apps()) == 0 {
		return err
	}

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	until := now()
	result := n.Service.Report(until.Add(-window), until)

	out := n.Out
	if out == nil {
		out = color.Output
	}
	if n.Output.Structured() {
		return printers.Encode(out, n.Output, result)
	}
	pp := printers.PrettyPrint{Out: out}
	pp.Report(result, label)
	return nil
}
