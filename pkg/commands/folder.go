package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/commands/options"
	"tableflip.dev/apphub/pkg/runner/folder"
)

type folderRunner interface {
	Do(ctx context.Context) error
}

// runFolder opens the service and runs the runner built by mk.
func runFolder(oo *options.OutputOptions, mk func(c folder.Common) folderRunner) error {
	svc, err := openService()
	if err != nil {
		return oo.HandleError(err)
	}
	ctx, cancel := commandContext()
	defer cancel()
	r := mk(folder.Common{Store: svc.Folders, Output: oo.Format})
	return oo.HandleError(r.Do(ctx))
}

func addFolder(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:     "folder",
		Aliases: []string{"folders"},
		Short:   "List, add, open and remove quick-access folders.",
		Example: `
apphub folder
apphub folder add ~/Projects
apphub folder open projects
apphub folder rm Music
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFolder(oo, func(c folder.Common) folderRunner {
				return &folder.List{Common: c}
			})
		},
	}
	options.AddOutputArg(cmd, oo)

	addFolderAdd(cmd)
	addFolderRemove(cmd)
	addFolderOpen(cmd)
	addFolderIcon(cmd)
	topLevel.AddCommand(cmd)
}

func addFolderAdd(parent *cobra.Command) {
	oo := &options.OutputOptions{}
	name := ""

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add a folder to the list.",
		Example: `
apphub folder add ~/Projects
apphub folder add /mnt/share --name Share
`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFolder(oo, func(c folder.Common) folderRunner {
				return &folder.Add{Common: c, Path: args[0], Name: name}
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name shown in the list. Defaults to the last path element.")
	options.AddOutputArg(cmd, oo)
	parent.AddCommand(cmd)
}

func addFolderRemove(parent *cobra.Command) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:               "rm <folder>",
		Aliases:           []string{"remove"},
		Short:             "Remove a folder from the list. Nothing on disk changes.",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeFolders,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFolder(oo, func(c folder.Common) folderRunner {
				return &folder.Remove{Common: c, Query: queryFrom(args)}
			})
		},
	}
	options.AddOutputArg(cmd, oo)
	parent.AddCommand(cmd)
}

func addFolderOpen(parent *cobra.Command) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:               "open <folder>",
		Short:             "Show a folder in the file manager.",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeFolders,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFolder(oo, func(c folder.Common) folderRunner {
				return &folder.Open{Common: c, Query: queryFrom(args)}
			})
		},
	}
	parent.AddCommand(cmd)
}

func addFolderIcon(parent *cobra.Command) {
	oo := &options.OutputOptions{}
	clearIcon := false

	cmd := &cobra.Command{
		Use:   "icon <folder> [image]",
		Short: "Use an image as a folder's icon.",
		Example: `
apphub folder icon Music ~/Pictures/music.png
apphub folder icon Music --clear
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearIcon && len(args) != 2 {
				return cmd.Usage()
			}
			return runFolder(oo, func(c folder.Common) folderRunner {
				i := &folder.Icon{Common: c, Query: args[0]}
				if !clearIcon {
					i.File = args[1]
				}
				return i
			})
		},
	}
	cmd.Flags().BoolVar(&clearIcon, "clear", false, "Remove the custom icon.")
	options.AddOutputArg(cmd, oo)
	parent.AddCommand(cmd)
}

func completeFolders(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	svc, err := openService()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	list, err := svc.Folders.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, f := range list {
		if strings.HasPrefix(strings.ToLower(f.Name), strings.ToLower(toComplete)) {
			out = append(out, f.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
