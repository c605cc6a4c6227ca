package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"screenkit/pkg/render"
	"screenkit/pkg/screen"
	"screenkit/pkg/viewport"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Window WindowConfig `toml:"window"`
	Render RenderConfig `toml:"render"`
	Log    LogConfig    `toml:"log"`
}

type WindowConfig struct {
	Title      string            `toml:"title"`
	Width      int               `toml:"width"`
	Height     int               `toml:"height"`
	Resizable  bool              `toml:"resizable"`
	FullScreen bool              `toml:"fullscreen"`
	HideCursor bool              `toml:"hide_cursor"`
	Resize     viewport.Behavior `toml:"resize"`
	Background Color             `toml:"background"`
}

type RenderConfig struct {
	FPS         int           `toml:"fps"`
	Filter      render.Filter `toml:"filter"`
	MaxAttempts int           `toml:"max_attempts"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

// Color decodes "#rrggbb" or "#rrggbbaa".
type Color color.RGBA

func (c Color) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimSpace(string(text)), "#")
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid colour %q", string(text))
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid colour %q: %w", string(text), err)
	}
	*c = Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return nil
}

func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:      "screendemo",
			Width:      640,
			Height:     360,
			Resizable:  true,
			Resize:     viewport.KeepAspectRatio,
			Background: Color{0x1B, 0x1E, 0x24, 0xFF},
		},
		Render: RenderConfig{
			FPS:         60,
			Filter:      render.Nearest,
			MaxAttempts: render.DefaultMaxAttempts,
		},
		Log: LogConfig{Level: slog.LevelInfo},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := decode(f, &cfg); err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return fmt.Errorf("decode toml: %w", err)
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Render.FPS <= 0 || c.Render.FPS > 1000 {
		return fmt.Errorf("render.fps out of range: %d", c.Render.FPS)
	}
	if c.Render.MaxAttempts <= 0 {
		return fmt.Errorf("render.max_attempts must be positive, got %d", c.Render.MaxAttempts)
	}
	return nil
}

func (c Config) ScreenOptions(logger *slog.Logger) screen.Options {
	return screen.Options{
		Title:             c.Window.Title,
		Width:             c.Window.Width,
		Height:            c.Window.Height,
		Resizable:         c.Window.Resizable,
		FullScreen:        c.Window.FullScreen,
		HideCursor:        c.Window.HideCursor,
		ResizeBehavior:    c.Window.Resize,
		Background:        color.RGBA(c.Window.Background),
		Filter:            c.Render.Filter,
		MaxRenderAttempts: c.Render.MaxAttempts,
		Logger:            logger,
	}
}

func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Log.Level}))
}
