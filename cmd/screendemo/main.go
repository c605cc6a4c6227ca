package main

import (
	"flag"
	"fmt"
	"os"

	"screenkit/internal/app"
	"screenkit/internal/config"
	"screenkit/internal/ui"
	"screenkit/pkg/input"
	"screenkit/pkg/platform/ebitenwin"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sqweek/dialog"
)

func keyBindings() map[input.Key]ui.Action {
	return map[input.Key]ui.Action{
		input.Key(ebiten.KeyDigit1): ui.ActionStretch,
		input.Key(ebiten.KeyDigit2): ui.ActionKeepAspectRatio,
		input.Key(ebiten.KeyDigit3): ui.ActionKeepSize,
		input.Key(ebiten.KeyDigit4): ui.ActionDoNothing,
		input.Key(ebiten.KeyF11):    ui.ActionToggleFullScreen,
		input.Key(ebiten.KeyC):      ui.ActionCopyFrame,
		input.Key(ebiten.KeyG):      ui.ActionCopyGeometry,
		input.Key(ebiten.KeyS):      ui.ActionSaveFrame,
		input.Key(ebiten.KeyEscape): ui.ActionClose,
	}
}

func main() {
	configPath := flag.String("config", "screendemo.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	logger := cfg.Logger(os.Stderr)

	application := app.New(cfg, logger, ebitenwin.New(), keyBindings(), desktop())
	if err := application.Run(); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "screendemo failed: %v\n", err)
	dialog.Message("%v", err).Title("screendemo").Error()
	os.Exit(1)
}
