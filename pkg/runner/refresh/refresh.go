package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/iconloader"
	"tableflip.dev/apphub/pkg/printers"
)

// Refresh enumerates installed applications again and resolves their icons,
// reporting progress while it waits.
type Refresh struct {
	Service *app.Service
	// Timeout bounds the wait for icons; zero waits until they are done.
	Timeout time.Duration
	// Interval is how often progress is redrawn.
	Interval time.Duration
	Output   printers.Format
	Out      io.Writer
}

// Summary is the structured result of a refresh.
type Summary struct {
	Apps      int `json:"apps" yaml:"apps"`
	Pending   int `json:"pending" yaml:"pending"`
	Custom    int `json:"custom" yaml:"custom"`
	Cached    int `json:"cached" yaml:"cached"`
	Extracted int `json:"extracted" yaml:"extracted"`
	Failed    int `json:"failed" yaml:"failed"`
	Batches   int `json:"batches" yaml:"batches"`
}

func (n *Refresh) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not refresh, no service")
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}
	interval := n.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	n.Service.Loader.Start(ctx)
	records, err := n.Service.Refresh(ctx)
	if err != nil {
		return err
	}

	wctx := ctx
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	live := !n.Output.Structured() && isTerminal(out)
	done := make(chan error, 1)
	go func() { done <- n.Service.WaitForIcons(wctx) }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var waitErr error
wait:
	for {
		select {
		case waitErr = <-done:
			break wait
		case <-ticker.C:
			if live {
				_, _ = fmt.Fprintf(out, "\r%s", progress(len(records), n.Service.Loader.Pending(), n.Service.Loader.Stats()))
			}
		}
	}
	if live {
		_, _ = fmt.Fprint(out, "\r\033[K")
	}

	stats := n.Service.Loader.Stats()
	summary := Summary{
		Apps:      len(records),
		Pending:   n.Service.Loader.Pending(),
		Custom:    stats.Custom,
		Cached:    stats.Cached,
		Extracted: stats.Extracted,
		Failed:    stats.Failed,
		Batches:   stats.Batches,
	}
	if n.Output.Structured() {
		return printers.Encode(out, n.Output, summary)
	}
	_, _ = fmt.Fprintf(out, "Found %d applications.\n", summary.Apps)
	_, _ = fmt.Fprintf(out, "Icons: %d custom, %d cached, %d extracted, %d failed in %d batches.\n",
		summary.Custom, summary.Cached, summary.Extracted, summary.Failed, summary.Batches)
	if waitErr != nil {
		_, _ = fmt.Fprintf(out, "Stopped waiting with %d icons pending.\n", summary.Pending)
	}
	return nil
}

func progress(total, pending int, s iconloader.Stats) string {
	done := total - pending
	if done < 0 {
		done = 0
	}
	return fmt.Sprintf("Resolving icons %d/%d (%d cached, %d extracted, %d failed)", done, total, s.Cached, s.Extracted, s.Failed)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return color.Output == w && !color.NoColor
	}
	return isatty.IsTerminal(f.Fd())
}
