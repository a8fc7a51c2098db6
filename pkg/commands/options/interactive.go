package options

import (
	"strings"

	"github.com/spf13/cobra"
)

// InteractiveOptions lets a command prompt for a value that is otherwise
// given as a positional argument.
type InteractiveOptions struct {
	Interactive bool
	// Label titles the prompt.
	Label string
}

// InteractiveArgs adds -i/--interactive to cmd. label titles the prompt.
func InteractiveArgs(cmd *cobra.Command, o *InteractiveOptions, label string) {
	o.Label = label
	cmd.Flags().BoolVarP(&o.Interactive, "interactive", "i", false,
		`Choose the `+strings.ToLower(label)+` from a list.`)
}

// Resolve returns given unless --interactive was set, in which case pick is
// asked for the value instead.
func (o *InteractiveOptions) Resolve(given string, pick func(label string) (string, error)) (string, error) {
	if !o.Interactive {
		return given, nil
	}
	return pick(o.Label)
}
