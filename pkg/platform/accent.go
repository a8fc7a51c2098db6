package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/settings"
)

// gnomeAccents maps the named accents of org.gnome.desktop.interface to the
// colors libadwaita renders them with.
var gnomeAccents = map[string]string{
	"blue":   "#3584e4",
	"teal":   "#2190a4",
	"green":  "#3a944a",
	"yellow": "#c88800",
	"orange": "#ed5b00",
	"red":    "#e62d42",
	"pink":   "#d56199",
	"purple": "#9141ac",
	"slate":  "#6f8396",
}

// CommandRunner runs a command and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// GSettingsAccent reads the GNOME accent color through gsettings.
type GSettingsAccent struct {
	Run CommandRunner
}

// NewGSettingsAccent returns an accent source that shells out to gsettings.
func NewGSettingsAccent() *GSettingsAccent {
	return &GSettingsAccent{Run: ExecRunner}
}

// SystemAccentColor implements apps.AccentSource.
func (g *GSettingsAccent) SystemAccentColor(ctx context.Context) (string, error) {
	run := g.Run
	if run == nil {
		run = ExecRunner
	}
	out, err := run(ctx, "gsettings", "get", "org.gnome.desktop.interface", "accent-color")
	if err != nil {
		return "", fmt.Errorf("%w: gsettings: %v", apps.ErrAccentQuery, err)
	}
	name := strings.Trim(strings.TrimSpace(string(out)), `'"`)
	if hex, ok := gnomeAccents[strings.ToLower(name)]; ok {
		return hex, nil
	}
	if hex, err := settings.NormalizeColor(name); err == nil {
		return hex, nil
	}
	return "", fmt.Errorf("%w: unknown accent %q", apps.ErrAccentQuery, name)
}

// StaticAccent is an accent source that always reports the same color.
type StaticAccent string

// SystemAccentColor implements apps.AccentSource.
func (s StaticAccent) SystemAccentColor(context.Context) (string, error) {
	hex, err := settings.NormalizeColor(string(s))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apps.ErrAccentQuery, err)
	}
	return hex, nil
}
