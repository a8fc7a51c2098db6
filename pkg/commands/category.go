package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/commands/options"
	"tableflip.dev/apphub/pkg/runner/edit"
	"tableflip.dev/apphub/pkg/snake"
)

func addCategory(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	interactive := &options.InteractiveOptions{}
	reset := false

	cmd := &cobra.Command{
		Use:   "category <app> [category]",
		Short: "Move an application into a category.",
		Long: `Move an application into one of the built-in categories (Games, Utilities,
Media, Development, Other) or into a category of your own. Use --reset to
return to the category the system reports.`,
		Example: `
apphub category steam games
apphub category "My Tool" "Side Projects"
apphub category steam --reset
apphub category steam -i
`,
		Args: cobra.RangeArgs(1, 2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 1 {
				return categoryNames(), cobra.ShellCompDirectiveNoFileComp
			}
			return completeApps(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var category apps.Category
			switch {
			case reset:
			case interactive.Interactive || len(args) == 2:
				given := ""
				if len(args) == 2 {
					given = args[1]
				}
				raw, err := interactive.Resolve(given, func(label string) (string, error) {
					return snake.PickString(cmd, label, categoryNames(), true)
				})
				if err != nil {
					return err
				}
				if category, err = apps.ParseCategory(raw); err != nil {
					return err
				}
			default:
				return errors.New("name a category, or use --reset or --interactive")
			}

			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			c := edit.Categorize{
				Target: edit.Target{
					Service: svc,
					Query:   args[0],
					Output:  oo.Format,
				},
				Category: category,
			}
			return oo.HandleError(c.Do(ctx))
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Use the category reported by the system.")
	options.InteractiveArgs(cmd, interactive, "Category")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func categoryNames() []string {
	out := make([]string, 0, len(apps.BuiltinCategories()))
	for _, c := range apps.BuiltinCategories() {
		out = append(out, string(c))
	}
	return out
}
