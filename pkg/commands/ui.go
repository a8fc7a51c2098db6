package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/runner/ui"
)

func addUI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the text-based launcher",
		Example: `
apphub ui
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			u := ui.UI{Service: svc}
			return u.Do(ctx)
		},
	}

	topLevel.AddCommand(cmd)
}
