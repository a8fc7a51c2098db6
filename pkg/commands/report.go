package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/commands/options"
	"tableflip.dev/apphub/pkg/runner/report"
)

func addReport(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	last := report.DefaultWindow

	cmd := &cobra.Command{
		Use:     "report",
		Aliases: []string{"review"},
		Short:   "Applications launched recently, and those never launched.",
		Example: `
apphub report
apphub report --last 30d
apphub report --last 12h -o yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			r := report.Report{
				Service: svc,
				Last:    last,
				Output:  oo.Format,
			}
			return oo.HandleError(r.Do(ctx))
		},
	}

	cmd.Flags().StringVar(&last, "last", last, "How far back to look, like 12h, 7d or 2w.")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
