// Package prefs runs the commands that read and change the hub's settings.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/printers"
	"tableflip.dev/apphub/pkg/settings"
)

// Settings prints the resolved settings, optionally after changing them.
type Settings struct {
	Service *app.Service
	Output  printers.Format
	Out     io.Writer
}

func (n *Settings) init(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not read settings, no service")
	}
	if _, err := n.Service.Settings.Initialize(ctx); err != nil {
		log.WithError(err).Debug("settings resolved with fallbacks")
	}
	return nil
}

func (n *Settings) print() error {
	out := n.Out
	if out == nil {
		out = color.Output
	}
	st := n.Service.Settings.State()
	if n.Output.Structured() {
		return printers.Encode(out, n.Output, st)
	}
	pp := printers.PrettyPrint{Out: out}
	pp.Settings(st)
	return nil
}

func (n *Settings) Do(ctx context.Context) error {
	if err := n.init(ctx); err != nil {
		return err
	}
	return n.print()
}

// Theme sets the theme mode. A nil Mode only prints.
type Theme struct {
	Settings
	Mode *settings.ThemeMode
}

func (n *Theme) Do(ctx context.Context) error {
	if err := n.init(ctx); err != nil {
		return err
	}
	if n.Mode != nil {
		if err := saved(n.Service.Settings.SetThemeMode(*n.Mode)); err != nil {
			return err
		}
	}
	return n.print()
}

// Accent sets a custom accent color, or returns to the system accent.
type Accent struct {
	Settings
	Color string
	Reset bool
}

func (n *Accent) Do(ctx context.Context) error {
	if err := n.init(ctx); err != nil {
		return err
	}
	switch {
	case n.Reset:
		if err := saved(n.Service.Settings.ResetToSystemAccentColor(ctx)); err != nil {
			return err
		}
	case n.Color != "":
		if err := saved(n.Service.Settings.SetAccentColor(n.Color)); err != nil {
			return err
		}
	}
	return n.print()
}

// Toggle names a boolean setting.
type Toggle int

const (
	ToggleStartup Toggle = iota
	ToggleTray
)

// Switch turns a boolean setting on or off. A nil Enable only prints.
type Switch struct {
	Settings
	Toggle Toggle
	Enable *bool
}

func (n *Switch) Do(ctx context.Context) error {
	if err := n.init(ctx); err != nil {
		return err
	}
	if n.Enable != nil {
		var err error
		switch n.Toggle {
		case ToggleStartup:
			err = n.Service.Settings.SetLaunchAtStartup(ctx, *n.Enable)
		case ToggleTray:
			err = n.Service.Settings.SetMinimizeToTray(*n.Enable)
		}
		if err := saved(err); err != nil {
			return err
		}
	}
	return n.print()
}

func saved(err error) error {
	var se *apps.StorageError
	if errors.As(err, &se) {
		_, _ = fmt.Fprintf(color.Error, "warning: %v\n", err)
		return nil
	}
	return err
}
