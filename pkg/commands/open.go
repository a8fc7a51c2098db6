package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/runner/open"
)

func addOpen(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "open [app]",
		Aliases: []string{"launch", "run"},
		Short:   "Launch an application and remember it as recently used.",
		Example: `
apphub open firefox
apphub open "Visual Studio Code"
apphub open
`,
		ValidArgsFunction: completeApps,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			o := open.Open{
				Service: svc,
				Query:   queryFrom(args),
				Pick:    picker(cmd, "Open"),
			}
			return o.Do(ctx)
		},
	}

	topLevel.AddCommand(cmd)
}
