package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/commands/options"
	"tableflip.dev/apphub/pkg/runner/edit"
)

func addPin(topLevel *cobra.Command) {
	addPinMode(topLevel, "pin [app]", "Pin an application to the top of the list.", edit.PinOn)
	addPinMode(topLevel, "unpin [app]", "Unpin an application.", edit.PinOff)
	addPinMode(topLevel, "toggle-pin [app]", "Pin an unpinned application or unpin a pinned one.", edit.PinToggle)
}

func addPinMode(topLevel *cobra.Command, use, short string, mode edit.PinMode) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:               use,
		Short:             short,
		ValidArgsFunction: completeApps,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService()
			if err != nil {
				return oo.HandleError(err)
			}
			ctx, cancel := commandContext()
			defer cancel()
			p := edit.Pin{
				Target: edit.Target{
					Service: svc,
					Query:   queryFrom(args),
					Pick:    picker(cmd, "Application"),
					Output:  oo.Format,
				},
				Mode: mode,
			}
			return oo.HandleError(p.Do(ctx))
		},
	}

	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
