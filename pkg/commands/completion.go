package commands

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/apps"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(apphub completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(apphub completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

// appCompletions lists application names starting with toComplete, quoting
// the ones that contain spaces.
func appCompletions(toComplete string) []string {
	svc, err := openService()
	if err != nil {
		return nil
	}
	ctx, cancel := commandContext()
	defer cancel()
	if _, err := svc.Refresh(ctx); err != nil {
		return nil
	}
	var out []string
	for _, rec := range apps.SortForDisplay(svc.Apps()) {
		if !strings.HasPrefix(strings.ToLower(rec.Name), strings.ToLower(toComplete)) {
			continue
		}
		name := rec.Name
		if strings.ContainsAny(name, " \t'\"") {
			name = strconv.Quote(name)
		}
		out = append(out, name)
	}
	return out
}
