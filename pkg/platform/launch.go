package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/apps"
)

// ExecLauncher starts applications from their desktop Exec line, or hands
// the path to xdg-open when there is none.
type ExecLauncher struct {
	// Start starts the command without waiting for it. Tests replace it.
	Start func(name string, args ...string) error
	Log   *log.Entry
}

// NewExecLauncher returns a launcher that detaches from started processes.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{Start: startDetached, Log: log.WithField("component", "platform")}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Launch implements apps.Launcher.
func (l *ExecLauncher) Launch(ctx context.Context, rec apps.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	argv := ExecArgs(rec.Exec)
	if len(argv) == 0 {
		argv = []string{"xdg-open", rec.Path}
	}
	start := l.Start
	if start == nil {
		start = startDetached
	}
	if l.Log != nil {
		l.Log.WithField("app", rec.Name).WithField("argv", argv).Debug("platform: launching")
	}
	if err := start(argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("%w: launch %s: %v", apps.ErrPlatform, rec.Name, err)
	}
	return nil
}

// OpenPath implements apps.PathOpener by handing path to xdg-open.
func (l *ExecLauncher) OpenPath(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := l.Start
	if start == nil {
		start = startDetached
	}
	if l.Log != nil {
		l.Log.WithField("path", path).Debug("platform: opening folder")
	}
	if err := start("xdg-open", path); err != nil {
		return fmt.Errorf("%w: open %s: %v", apps.ErrPlatform, path, err)
	}
	return nil
}

// ExecArgs splits a desktop entry Exec value into argv, honouring double
// quotes and dropping field codes such as %f and %U.
func ExecArgs(line string) []string {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		escaped bool
		started bool
	)
	flush := func() {
		if started {
			args = append(args, cur.String())
		}
		cur.Reset()
		started = false
	}
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			started = true
		case r == '"':
			quoted = !quoted
			started = true
		case (r == ' ' || r == '\t') && !quoted:
			flush()
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	flush()

	out := args[:0]
	for _, a := range args {
		switch a {
		case "%f", "%F", "%u", "%U", "%i", "%c", "%k", "%d", "%D", "%n", "%N", "%v", "%m":
			continue
		}
		out = append(out, strings.ReplaceAll(a, "%%", "%"))
	}
	return out
}
