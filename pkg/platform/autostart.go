package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/ini.v1"

	"tableflip.dev/apphub/pkg/apps"
)

// AutostartRegistrar manages an XDG autostart entry for the hub.
type AutostartRegistrar struct {
	// Dir is the autostart directory, usually ~/.config/autostart.
	Dir string
	// Name is the entry's file name without the .desktop suffix.
	Name string
	// Exec is the command the session runs at login.
	Exec string
}

// NewAutostartRegistrar registers exec under $XDG_CONFIG_HOME/autostart.
func NewAutostartRegistrar(exec string) (*AutostartRegistrar, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apps.ErrPlatform, err)
		}
		dir = filepath.Join(home, ".config")
	}
	return &AutostartRegistrar{
		Dir:  filepath.Join(dir, "autostart"),
		Name: "apphub",
		Exec: exec,
	}, nil
}

// Path is the autostart entry's location.
func (a *AutostartRegistrar) Path() string {
	return filepath.Join(a.Dir, a.Name+".desktop")
}

// Enabled reports whether the autostart entry exists and is not hidden.
func (a *AutostartRegistrar) Enabled() bool {
	entry, err := ParseDesktopEntry(a.Path())
	return err == nil && !entry.Hidden
}

// SetLaunchAtStartup implements apps.StartupRegistrar.
func (a *AutostartRegistrar) SetLaunchAtStartup(ctx context.Context, enable bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !enable {
		if err := os.Remove(a.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %v", apps.ErrPlatform, err)
		}
		return nil
	}
	if a.Exec == "" {
		return fmt.Errorf("%w: no command to register", apps.ErrPlatform)
	}

	cfg := ini.Empty()
	sec, err := cfg.NewSection(desktopSection)
	if err != nil {
		return fmt.Errorf("%w: %v", apps.ErrPlatform, err)
	}
	for _, kv := range [][2]string{
		{"Type", "Application"},
		{"Name", "App Hub"},
		{"Exec", a.Exec},
		{"Terminal", "false"},
		{"X-GNOME-Autostart-enabled", "true"},
	} {
		if _, err := sec.NewKey(kv[0], kv[1]); err != nil {
			return fmt.Errorf("%w: %v", apps.ErrPlatform, err)
		}
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", apps.ErrPlatform, err)
	}
	if err := cfg.SaveTo(a.Path()); err != nil {
		return fmt.Errorf("%w: %v", apps.ErrPlatform, err)
	}
	return nil
}
