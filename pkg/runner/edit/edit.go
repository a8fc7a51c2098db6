// Package edit runs the commands that change how one application is shown:
// pinning, categorizing, moving and custom icons.
package edit

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/printers"
)

// PinMode selects how Pin changes the pinned flag.
type PinMode int

const (
	PinToggle PinMode = iota
	PinOn
	PinOff
)

// Target names the application being edited.
type Target struct {
	Service *app.Service
	// Query is a path, a name or a unique name prefix.
	Query string
	// Pick chooses the application when Query is empty.
	Pick   func(records []apps.Record) (apps.Record, error)
	Output printers.Format
	Out    io.Writer
}

func (t *Target) prepare(ctx context.Context) error {
	if t.Service == nil {
		return errors.New("can not edit, no service")
	}
	if _, err := t.Service.Refresh(ctx); err != nil && len(t.Service.Apps()) == 0 {
		return err
	}
	return t.resolve()
}

func (t *Target) resolve() error {
	if t.Query != "" {
		return nil
	}
	if t.Pick == nil {
		return errors.New("no application named")
	}
	rec, err := t.Pick(t.Service.Apps())
	if err != nil {
		return err
	}
	t.Query = rec.Path
	return nil
}

func (t *Target) print(rec apps.Record, msg string) error {
	out := t.Out
	if out == nil {
		out = color.Output
	}
	if t.Output.Structured() {
		return printers.Encode(out, t.Output, rec)
	}
	_, _ = fmt.Fprintln(out, msg)
	pp := printers.PrettyPrint{Out: out}
	pp.Record(rec)
	return nil
}

// Pin changes whether an application is pinned.
type Pin struct {
	Target
	Mode PinMode
}

func (n *Pin) Do(ctx context.Context) error {
	if err := n.prepare(ctx); err != nil {
		return err
	}
	var (
		rec apps.Record
		err error
	)
	switch n.Mode {
	case PinOn:
		rec, err = n.Service.SetPinned(n.Query, true)
	case PinOff:
		rec, err = n.Service.SetPinned(n.Query, false)
	default:
		rec, _, err = n.Service.Pin(n.Query)
	}
	if err = persisted(err); err != nil {
		return err
	}
	if rec.Pinned {
		return n.print(rec, "Pinned "+rec.Name)
	}
	return n.print(rec, "Unpinned "+rec.Name)
}

// Categorize moves an application into a category. An empty category
// restores the one reported by the system.
type Categorize struct {
	Target
	Category apps.Category
}

func (n *Categorize) Do(ctx context.Context) error {
	if err := n.prepare(ctx); err != nil {
		return err
	}
	rec, err := n.Service.SetCategory(n.Query, n.Category)
	if err = persisted(err); err != nil {
		return err
	}
	return n.print(rec, fmt.Sprintf("%s is now in %s", rec.Name, rec.Category))
}

// Move records that an application now lives at NewPath. Pins, icons and
// history follow it.
type Move struct {
	Target
	NewPath string
}

func (n *Move) Do(ctx context.Context) error {
	if err := n.prepare(ctx); err != nil {
		return err
	}
	rec, err := n.Service.Relocate(n.Query, n.NewPath)
	if err = persisted(err); err != nil {
		return err
	}
	return n.print(rec, fmt.Sprintf("Moved %s to %s", rec.Name, rec.Path))
}

// Icon sets or clears an application's custom icon.
type Icon struct {
	Target
	// File is the image to use; empty clears the custom icon.
	File string
}

func (n *Icon) Do(ctx context.Context) error {
	if err := n.prepare(ctx); err != nil {
		return err
	}
	if n.File == "" {
		rec, err := n.Service.SetCustomIcon(n.Query, nil)
		if err = persisted(err); err != nil {
			return err
		}
		return n.print(rec, "Cleared the custom icon of "+rec.Name)
	}
	rec, err := n.Service.SetCustomIconFile(n.Query, n.File)
	if err = persisted(err); err != nil {
		return err
	}
	return n.print(rec, fmt.Sprintf("Set the icon of %s from %s", rec.Name, n.File))
}

// persisted drops storage errors: the change is applied and will be written
// with the next successful save.
func persisted(err error) error {
	var se *apps.StorageError
	if errors.As(err, &se) {
		_, _ = fmt.Fprintf(color.Error, "warning: %v\n", err)
		return nil
	}
	return err
}
