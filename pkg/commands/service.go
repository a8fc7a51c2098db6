package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/apps"
	"tableflip.dev/apphub/pkg/folders"
	"tableflip.dev/apphub/pkg/platform"
	"tableflip.dev/apphub/pkg/store"
)

// commandContext is cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openService wires the service over the configured medium and the
// freedesktop collaborators.
func openService() (*app.Service, error) {
	if config == nil {
		cfg, err := store.LoadConfig()
		if err != nil {
			return nil, err
		}
		config = cfg
	}
	medium, err := store.Open(config)
	if err != nil {
		return nil, err
	}

	var accent apps.AccentSource = platform.NewGSettingsAccent()
	if config.AccentColor != "" {
		accent = platform.StaticAccent(config.AccentColor)
	}
	launcher := platform.NewExecLauncher()
	c := app.Collaborators{
		Enumerator:     platform.NewDesktopEnumerator(config.ApplicationDirs...),
		Extractor:      platform.NewIconThemeExtractor(nil),
		Accent:         accent,
		Launcher:       launcher,
		Opener:         launcher,
		DefaultFolders: folders.UserDirs(),
	}
	if registrar, err := platform.NewAutostartRegistrar(selfCommand()); err == nil {
		c.Startup = registrar
	} else {
		log.WithError(err).Debug("launch at startup unavailable")
	}
	return app.New(config, medium, c)
}

// selfCommand is the command line the session autostart runs.
func selfCommand() string {
	exe, err := os.Executable()
	if err != nil {
		return "apphub ui"
	}
	if strings.ContainsAny(exe, " \t") {
		exe = `"` + exe + `"`
	}
	return exe + " ui"
}
