package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/snake"
)

// queryFrom joins args into an application query.
func queryFrom(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// picker prompts for an application when no query was given.
func picker(cmd *cobra.Command, label string) func([]apps.Record) (apps.Record, error) {
	return func(records []apps.Record) (apps.Record, error) {
		return snake.PickApp(cmd, label, apps.SortForDisplay(records))
	}
}

func completeApps(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return appCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
}
