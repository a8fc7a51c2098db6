package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/commands/options"
	"tableflip.dev/apphub/pkg/runner/prefs"
	"tableflip.dev/apphub/pkg/settings"
	"tableflip.dev/apphub/pkg/snake"
)

func addSettings(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"prefs"},
		Short:   "Show the theme, accent color and startup preferences.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			s := prefs.Settings{Service: svc, Output: oo.Format}
			return oo.HandleError(s.Do(ctx))
		},
	}

	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addTheme(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	interactive := &options.InteractiveOptions{}

	cmd := &cobra.Command{
		Use:   "theme [light|dark|black|system]",
		Short: "Show or change the theme mode.",
		Example: `
apphub theme
apphub theme dark
apphub theme -i
`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: themeModeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mode *settings.ThemeMode
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			raw, err := interactive.Resolve(raw, func(label string) (string, error) {
				return snake.PickString(cmd, label, themeModeNames(), false)
			})
			if err != nil {
				return err
			}
			if raw != "" {
				m, err := settings.ParseThemeMode(raw)
				if err != nil {
					return err
				}
				mode = &m
			}

			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			t := prefs.Theme{
				Settings: prefs.Settings{Service: svc, Output: oo.Format},
				Mode:     mode,
			}
			return oo.HandleError(t.Do(ctx))
		},
	}

	options.InteractiveArgs(cmd, interactive, "Theme")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func themeModeNames() []string {
	var out []string
	for _, m := range settings.ThemeModes() {
		out = append(out, m.String())
	}
	return out
}

func addAccent(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	reset := false

	cmd := &cobra.Command{
		Use:   "accent [color]",
		Short: "Show or change the accent color.",
		Long: `Show or change the accent color. A color is given as #rrggbb or rrggbb.
Use --reset to follow the desktop's accent color again.`,
		Example: `
apphub accent
apphub accent "#e01b24"
apphub accent --reset
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			a := prefs.Accent{
				Settings: prefs.Settings{Service: svc, Output: oo.Format},
				Reset:    reset,
			}
			if len(args) == 1 {
				a.Color = args[0]
			}
			return oo.HandleError(a.Do(ctx))
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Use the system accent color.")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addSwitches(topLevel *cobra.Command) {
	addSwitch(topLevel, "startup [on|off]", "Show or change whether the hub launches when you log in.", prefs.ToggleStartup)
	addSwitch(topLevel, "tray [on|off]", "Show or change whether closing the hub minimizes it to the tray.", prefs.ToggleTray)
}

func addSwitch(topLevel *cobra.Command, use, short string, toggle prefs.Toggle) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:       use,
		Short:     short,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enable *bool
			if len(args) == 1 {
				v, err := snake.ParseBool(args[0])
				if err != nil {
					return err
				}
				enable = &v
			}
			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			s := prefs.Switch{
				Settings: prefs.Settings{Service: svc, Output: oo.Format},
				Toggle:   toggle,
				Enable:   enable,
			}
			return oo.HandleError(s.Do(ctx))
		},
	}

	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
