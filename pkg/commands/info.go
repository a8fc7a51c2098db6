package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/runner/info"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about the hub's storage, caches and applications.",
		Example: `
apphub info
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			i := info.Info{
				Config:  config,
				Service: svc,
			}
			return i.Do(ctx)
		},
	}

	topLevel.AddCommand(cmd)
}
