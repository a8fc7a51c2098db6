// Package folder runs the quick-access folder commands.
package folder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/folders"
	"tableflip.dev/apphub/pkg/printers"
)

// Common is shared by every folder command.
type Common struct {
	Store  *folders.Store
	Output printers.Format
	Out    io.Writer
}

func (c *Common) out() io.Writer {
	if c.Out == nil {
		return color.Output
	}
	return c.Out
}

func (c *Common) check() error {
	if c.Store == nil {
		return errors.New("no folder store")
	}
	return nil
}

func (c *Common) print(msg string, list ...folders.Folder) error {
	if c.Output.Structured() {
		views := printers.FolderViews(list...)
		if msg != "" && len(views) == 1 {
			return printers.Encode(c.out(), c.Output, views[0])
		}
		return printers.Encode(c.out(), c.Output, views)
	}
	if msg != "" {
		_, _ = fmt.Fprintln(c.out(), msg)
	}
	pp := printers.PrettyPrint{Out: c.out(), PathWidth: 60}
	pp.Folders(list...)
	return nil
}

// saved downgrades a failed write to a warning; the change is in effect
// for this process.
func saved(err error) error {
	var se *apps.StorageError
	if errors.As(err, &se) && se.Op == "write" {
		_, _ = fmt.Fprintf(color.Error, "warning: %v\n", err)
		return nil
	}
	return err
}

// List prints the folders.
type List struct {
	Common
}

func (n *List) Do(context.Context) error {
	if err := n.check(); err != nil {
		return err
	}
	list, err := n.Store.List()
	if err != nil {
		return err
	}
	if !n.Output.Structured() {
		pp := printers.PrettyPrint{Out: n.out()}
		pp.Title("Folders")
	}
	return n.print("", list...)
}

// Add lists a folder.
type Add struct {
	Common
	Path string
	Name string
}

func (n *Add) Do(context.Context) error {
	if err := n.check(); err != nil {
		return err
	}
	fi, err := os.Stat(n.Path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a folder", n.Path)
	}
	f, err := n.Store.Add(n.Path, n.Name)
	if err = saved(err); err != nil {
		return err
	}
	return n.print("Added "+f.Name, f)
}

// Remove drops a folder from the list. The folder itself is not touched.
type Remove struct {
	Common
	Query string
}

func (n *Remove) Do(context.Context) error {
	if err := n.check(); err != nil {
		return err
	}
	f, err := n.Store.Remove(n.Query)
	if err = saved(err); err != nil {
		return err
	}
	return n.print("Removed "+f.Name, f)
}

// Open shows a folder in the file manager.
type Open struct {
	Common
	Query string
}

func (n *Open) Do(ctx context.Context) error {
	if err := n.check(); err != nil {
		return err
	}
	f, err := n.Store.Open(ctx, n.Query)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(n.out(), "Opened %s\n", color.New(color.Bold).Sprint(f.Name))
	return nil
}

// Icon sets or clears the custom icon of a folder.
type Icon struct {
	Common
	Query string
	// File is the image to use; empty clears the icon.
	File string
}

func (n *Icon) Do(context.Context) error {
	if err := n.check(); err != nil {
		return err
	}
	var icon apps.Icon
	if n.File != "" {
		data, err := os.ReadFile(n.File)
		if err != nil {
			return fmt.Errorf("read icon: %w", err)
		}
		if len(data) == 0 {
			return fmt.Errorf("icon file %s is empty", n.File)
		}
		icon = data
	}
	f, err := n.Store.SetIcon(n.Query, icon)
	if err = saved(err); err != nil {
		return err
	}
	if f.HasIcon() {
		return n.print("Set the icon of "+f.Name, f)
	}
	return n.print("Cleared the icon of "+f.Name, f)
}
