package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/commands/options"
	"tableflip.dev/apphub/pkg/runner/edit"
)

func addIcon(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	clearIcon := false

	cmd := &cobra.Command{
		Use:   "icon <app> [image]",
		Short: "Use an image as an application's icon.",
		Example: `
apphub icon steam ~/Pictures/steam.png
apphub icon steam --clear
`,
		Args: cobra.RangeArgs(1, 2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 1 {
				return []string{"png", "svg", "xpm", "ico"}, cobra.ShellCompDirectiveFilterFileExt
			}
			return completeApps(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearIcon && len(args) != 2 {
				return cmd.Usage()
			}
			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			i := edit.Icon{
				Target: edit.Target{
					Service: svc,
					Query:   args[0],
					Output:  oo.Format,
				},
			}
			if !clearIcon {
				i.File = args[1]
			}
			return oo.HandleError(i.Do(ctx))
		},
	}

	cmd.Flags().BoolVar(&clearIcon, "clear", false, "Remove the custom icon and use the extracted one.")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
