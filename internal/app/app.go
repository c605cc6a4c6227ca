package app

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"screenkit/internal/config"
	"screenkit/internal/ui"
	"screenkit/pkg/input"
	"screenkit/pkg/platform"
	"screenkit/pkg/render"
	"screenkit/pkg/screen"
)

var (
	errNoFrame     = errors.New("no frame presented yet")
	errUnavailable = errors.New("not available on this desktop")
)

// Loop is implemented by backends that own the main goroutine, such as
// ebitenwin. Run blocks in it after the screen is shown.
type Loop interface {
	Run() error
}

// Desktop holds the integrations outside the window. A nil field makes the
// matching action fail with a message in the status bar.
type Desktop struct {
	WriteText  func(text string) error
	WriteImage func(data []byte) error
	// PickSavePath returns "" when the user cancels.
	PickSavePath func() (string, error)
}

type App struct {
	cfg      config.Config
	logger   *slog.Logger
	platform platform.Platform
	keys     map[input.Key]ui.Action
	desktop  Desktop
	screen   *screen.Screen
	ctrl     *ui.Controller
	done     chan struct{}
}

func New(cfg config.Config, logger *slog.Logger, p platform.Platform, keys map[input.Key]ui.Action, desktop Desktop) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:      cfg,
		logger:   logger,
		platform: p,
		keys:     keys,
		desktop:  desktop,
	}
}

// Open creates the screen, registers the demo scene and shows it.
func (a *App) Open() error {
	s, err := screen.New(a.platform, a.cfg.ScreenOptions(a.logger))
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	a.screen = s

	ctrl := ui.NewController(s, ui.DefaultTheme(), a.keys, a.logger)
	ctrl.Bind(ui.ActionCopyFrame, a.copyFrame)
	ctrl.Bind(ui.ActionCopyGeometry, a.copyGeometry)
	ctrl.Bind(ui.ActionSaveFrame, a.saveFrame)
	s.AddDrawable(ctrl)
	s.AddPointerListener(ctrl)
	s.AddKeyListener(ctrl)
	a.ctrl = ctrl

	a.done = make(chan struct{})
	s.AddCloseListener(func() { close(a.done) })

	if err := s.Show(); err != nil {
		s.Close()
		return fmt.Errorf("show screen: %w", err)
	}
	return nil
}

// Run opens the screen and redraws it until it closes. With a backend that
// implements Loop it must be called on the main goroutine.
func (a *App) Run() error {
	if err := a.Open(); err != nil {
		return err
	}
	go a.redrawLoop(a.done)

	a.logger.Info("screen open",
		"backend", a.platform.Name(),
		"size", fmt.Sprintf("%dx%d", a.cfg.Window.Width, a.cfg.Window.Height),
		"resize", a.cfg.Window.Resize,
		"fps", a.cfg.Render.FPS)
	if loop, ok := a.platform.(Loop); ok {
		return loop.Run()
	}
	<-a.done
	return nil
}

func (a *App) Screen() *screen.Screen { return a.screen }

func (a *App) Controller() *ui.Controller { return a.ctrl }

func (a *App) redrawLoop(done <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(a.cfg.Render.FPS))
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			err := a.screen.Redraw()
			switch {
			case errors.Is(err, render.ErrFrameDropped):
				a.logger.Debug("frame dropped", "err", err)
			case err != nil:
				a.logger.Warn("redraw", "err", err)
			}
		}
	}
}

func (a *App) framePNG() ([]byte, error) {
	frame := a.screen.LastFrame()
	if frame == nil {
		return nil, errNoFrame
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.RGBA()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (a *App) copyFrame() error {
	if a.desktop.WriteImage == nil {
		return fmt.Errorf("image clipboard: %w", errUnavailable)
	}
	data, err := a.framePNG()
	if err != nil {
		return err
	}
	if err := a.desktop.WriteImage(data); err != nil {
		return fmt.Errorf("copy frame: %w", err)
	}
	return nil
}

func (a *App) copyGeometry() error {
	if a.desktop.WriteText == nil {
		return fmt.Errorf("text clipboard: %w", errUnavailable)
	}
	if err := a.desktop.WriteText(ui.FormatGeometry(a.screen.Geometry())); err != nil {
		return fmt.Errorf("copy geometry: %w", err)
	}
	return nil
}

// withPNGExt appends ".png" unless path already ends in it, in any case.
func withPNGExt(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return path
	}
	return path + ".png"
}

func (a *App) saveFrame() error {
	if a.desktop.PickSavePath == nil {
		return fmt.Errorf("save dialog: %w", errUnavailable)
	}
	data, err := a.framePNG()
	if err != nil {
		return err
	}
	path, err := a.desktop.PickSavePath()
	if err != nil {
		return fmt.Errorf("save dialog: %w", err)
	}
	if path == "" {
		return nil
	}
	path = withPNGExt(path)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	a.logger.Info("frame saved", "path", path)
	return nil
}
