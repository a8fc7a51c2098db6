package commands

import (
	"fmt"
	"os"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tableflip.dev/apphub/pkg/store"
)

var (
	logLevel string
	config   *store.Config
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "apphub",
		Short: base.Wrap80("A launcher for your installed applications: pin, categorize and open them from the terminal."),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (trace, debug, info, warn, error). Defaults to log.level from the config.")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addList(topLevel)
	addOpen(topLevel)
	addPin(topLevel)
	addCategory(topLevel)
	addMove(topLevel)
	addIcon(topLevel)
	addFolder(topLevel)
	addRefresh(topLevel)
	addTheme(topLevel)
	addAccent(topLevel)
	addSettings(topLevel)
	addSwitches(topLevel)
	addReport(topLevel)
	addKey(topLevel)
	addInfo(topLevel)
	addMCP(topLevel)
	addUI(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}

// setup loads the configuration once and applies the log level.
func setup(cmd *cobra.Command) error {
	log.SetOutput(os.Stderr)
	if config == nil {
		cfg, err := store.LoadConfig()
		if err != nil {
			return err
		}
		config = cfg
	}
	level := config.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	if level == "" {
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	return nil
}
