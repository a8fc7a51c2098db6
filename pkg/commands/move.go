package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/commands/options"
	"tableflip.dev/apphub/pkg/runner/edit"
)

func addMove(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:     "move <app> <new-path>",
		Aliases: []string{"mv", "relocate"},
		Short:   "Point an application at a new location, keeping its history.",
		Long: `Point an application at a new location. The pin, category, custom icon and
launch history follow the application to its new path.`,
		Example: `
apphub move editor ~/.local/share/applications/editor.desktop
`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeApps,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			m := edit.Move{
				Target: edit.Target{
					Service: svc,
					Query:   args[0],
					Output:  oo.Format,
				},
				NewPath: args[1],
			}
			return oo.HandleError(m.Do(ctx))
		},
	}

	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
