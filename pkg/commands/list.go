package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/commands/options"
	"tableflip.dev/apphub/pkg/runner/list"
)

func addList(topLevel *cobra.Command) {
	lo := &options.ListOptions{}
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "get"},
		Short:   "List installed applications, pinned and recently used first.",
		Example: `
apphub list
apphub list --category games
apphub list --search code --paths
apphub list --recent -o json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			l := list.List{
				Service:  svc,
				Category: lo.Category.Category,
				Search:   lo.Search,
				Pinned:   lo.Pinned,
				Recent:   lo.Recent,
				ShowPath: lo.ShowPath,
				Wait:     lo.Wait,
				Output:   oo.Format,
			}
			return oo.HandleError(l.Do(ctx))
		},
	}

	options.AddListArgs(cmd, lo)
	options.AddOutputArg(cmd, oo)
	_ = cmd.RegisterFlagCompletionFunc("category", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return categoryNames(), cobra.ShellCompDirectiveNoFileComp
	})

	topLevel.AddCommand(cmd)
}
