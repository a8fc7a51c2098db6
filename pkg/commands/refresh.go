package commands

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/commands/options"
	"tableflip.dev/apphub/pkg/runner/refresh"
)

func addRefresh(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	timeout := 2 * time.Minute

	cmd := &cobra.Command{
		Use:     "refresh",
		Aliases: []string{"sync", "scan"},
		Short:   "Rescan installed applications and load their icons.",
		Example: `
apphub refresh
apphub refresh --timeout 30s -o json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			r := refresh.Refresh{
				Service: svc,
				Timeout: timeout,
				Output:  oo.Format,
			}
			return oo.HandleError(r.Do(ctx))
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "Give up waiting for icons after this long.")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
