package ui

import (
	"context"
	"errors"

	"tableflip.dev/apphub/pkg/app"
	"tableflip.dev/apphub/pkg/snake"
	"tableflip.dev/apphub/pkg/tui/launcher"
)

// UI opens the terminal launcher.
type UI struct {
	Service *app.Service
}

func (d *UI) Do(ctx context.Context) error {
	if d.Service == nil {
		return errors.New("can not open the launcher, no service")
	}
	if !snake.CanPrompt() {
		return errors.New("the launcher needs an interactive terminal")
	}
	return launcher.Run(ctx, d.Service)
}
