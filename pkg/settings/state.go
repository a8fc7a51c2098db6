package settings

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ThemeMode selects the launcher's color scheme.
type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeBlack  ThemeMode = "black"
	ThemeSystem ThemeMode = "system"
)

// ThemeModes lists the accepted modes.
func ThemeModes() []ThemeMode {
	return []ThemeMode{ThemeLight, ThemeDark, ThemeBlack, ThemeSystem}
}

// ParseThemeMode accepts any of ThemeModes, case insensitively.
func ParseThemeMode(raw string) (ThemeMode, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, m := range ThemeModes() {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", fmt.Errorf("settings: unknown theme mode %q", raw)
}

func (m ThemeMode) String() string { return string(m) }

// Set implements pflag.Value.
func (m *ThemeMode) Set(raw string) error {
	parsed, err := ParseThemeMode(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *ThemeMode) Type() string { return "mode" }

// ThemeState is the persisted theme choice.
type ThemeState struct {
	Mode ThemeMode `json:"mode" yaml:"mode"`
}

// AccentColorState is the effective accent color. When IsCustom is false,
// Color is the most recently resolved system accent.
type AccentColorState struct {
	IsCustom bool   `json:"isCustom" yaml:"isCustom"`
	Color    string `json:"color" yaml:"color"`
}

// State is everything the resolver manages.
type State struct {
	Theme           ThemeState       `json:"theme" yaml:"theme"`
	Accent          AccentColorState `json:"accent" yaml:"accent"`
	LaunchAtStartup bool             `json:"launchAtStartup" yaml:"launchAtStartup"`
	MinimizeToTray  bool             `json:"minimizeToTray" yaml:"minimizeToTray"`
}

// NormalizeColor parses a CSS style hex color ("#abc" or "#aabbcc", with or
// without the leading '#') and returns it as lowercase "#rrggbb".
func NormalizeColor(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("settings: empty color")
	}
	if !strings.HasPrefix(raw, "#") {
		raw = "#" + raw
	}
	c, err := colorful.Hex(raw)
	if err != nil {
		return "", fmt.Errorf("settings: invalid color %q: %w", raw, err)
	}
	return c.Hex(), nil
}
