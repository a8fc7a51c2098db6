package options

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/printers"
)

// OutputOptions
type OutputOptions struct {
	Format printers.Format
}

func AddOutputArg(cmd *cobra.Command, o *OutputOptions) {
	o.Format = printers.FormatTable
	cmd.Flags().VarP(&o.Format, "output", "o",
		"Output format. One of 'table', 'json' or 'yaml'.")
	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// HandleError prints err as a JSON object when structured output was
// requested, so scripts always receive parseable output.
func (o *OutputOptions) HandleError(err error) error {
	if o.Format.Structured() && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}
