package options

import (
	"time"

	"github.com/spf13/cobra"
)

// ListOptions filter the application collection.
type ListOptions struct {
	Category CategoryValue
	Search   string
	Pinned   bool
	Recent   bool
	ShowPath bool
	Wait     time.Duration
}

func AddListArgs(cmd *cobra.Command, o *ListOptions) {
	cmd.Flags().VarP(&o.Category, "category", "c",
		"Only show applications in this category.")
	cmd.Flags().StringVarP(&o.Search, "search", "s", "",
		"Only show applications whose name or path contains this text.")
	cmd.Flags().BoolVar(&o.Pinned, "pinned", false,
		"Only show pinned applications.")
	cmd.Flags().BoolVar(&o.Recent, "recent", false,
		"Show recently launched applications, most recent first.")
	cmd.Flags().BoolVar(&o.ShowPath, "paths", false,
		"Show application paths.")
	cmd.Flags().DurationVar(&o.Wait, "wait-icons", 0,
		"Wait up to this long for icons to resolve before printing.")
}
