package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// ErrFrameDropped is returned when a surface kept losing its contents for
// the whole retry budget. The next frame starts from scratch.
var ErrFrameDropped = errors.New("render: frame dropped after repeated contents loss")

const DefaultMaxAttempts = 8

// Filter selects the interpolation used to scale the offscreen surface onto
// the presentation buffer.
type Filter int

const (
	Nearest Filter = iota
	ApproxBiLinear
	BiLinear
	CatmullRom
)

var filterNames = [...]string{"nearest", "approx_bilinear", "bilinear", "catmull_rom"}

func (f Filter) String() string {
	if f < 0 || int(f) >= len(filterNames) {
		return fmt.Sprintf("Filter(%d)", int(f))
	}
	return filterNames[f]
}

func (f Filter) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(filterNames) {
		return nil, fmt.Errorf("invalid filter %d", int(f))
	}
	return []byte(filterNames[f]), nil
}

func (f *Filter) UnmarshalText(text []byte) error {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(text))), "-", "_")
	for i, name := range filterNames {
		if s == name {
			*f = Filter(i)
			return nil
		}
	}
	return fmt.Errorf("unknown filter %q", string(text))
}

func (f Filter) scaler() xdraw.Scaler {
	switch f {
	case ApproxBiLinear:
		return xdraw.ApproxBiLinear
	case BiLinear:
		return xdraw.BiLinear
	case CatmullRom:
		return xdraw.CatmullRom
	}
	return xdraw.NearestNeighbor
}

type TargetOptions struct {
	Background  color.RGBA
	Filter      Filter
	MaxAttempts int
	Logger      *slog.Logger
}

// Target owns the offscreen surface a frame is painted into before it is
// composited onto the presentation buffer.
type Target struct {
	dev  Device
	w, h int
	opts TargetOptions

	surface Surface
}

func NewTarget(dev Device, w, h int, opts TargetOptions) (*Target, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s, err := dev.NewSurface(w, h)
	if err != nil {
		return nil, fmt.Errorf("create offscreen surface %dx%d: %w", w, h, err)
	}
	return &Target{dev: dev, w: w, h: h, opts: opts, surface: s}, nil
}

func (t *Target) Surface() Surface { return t.surface }

func (t *Target) SetBackground(c color.RGBA) { t.opts.Background = c }

// Paint runs validate, recreate if incompatible, paint, and repeats while the
// surface reports its contents lost.
func (t *Target) Paint(paint func(fb *FrameBuffer)) error {
	for attempt := 0; attempt < t.opts.MaxAttempts; attempt++ {
		switch t.surface.Validate(t.dev.DisplayConfig()) {
		case Incompatible:
			if err := t.recreate(); err != nil {
				return err
			}
		case Restored:
			t.opts.Logger.Debug("offscreen surface restored")
		}

		fb := t.surface.Buffer()
		fb.Clear(t.opts.Background)
		paint(fb)

		if !t.surface.ContentsLost() {
			return nil
		}
	}
	t.opts.Logger.Warn("offscreen surface kept losing contents", "attempts", t.opts.MaxAttempts)
	return ErrFrameDropped
}

func (t *Target) recreate() error {
	t.surface.Dispose()
	s, err := t.dev.NewSurface(t.w, t.h)
	if err != nil {
		return fmt.Errorf("recreate offscreen surface %dx%d: %w", t.w, t.h, err)
	}
	t.surface = s
	t.opts.Logger.Debug("offscreen surface recreated", "w", t.w, "h", t.h)
	return nil
}

// Present clears the back buffer, scales the offscreen surface into dst and
// flips the chain. Only this step is repeated if the back buffer is lost.
func (t *Target) Present(chain BufferChain, dst image.Rectangle) error {
	src := t.surface.Buffer()
	scaler := t.opts.Filter.scaler()
	for attempt := 0; attempt < t.opts.MaxAttempts; attempt++ {
		ds, err := chain.Back()
		if err != nil {
			return fmt.Errorf("acquire presentation buffer: %w", err)
		}
		back := ds.Buffer()
		back.Clear(t.opts.Background)
		if !dst.Empty() {
			scaler.Scale(back.RGBA(), dst, src.RGBA(), src.Bounds(), xdraw.Src, nil)
		}
		ds.Dispose()

		if !chain.ContentsLost() {
			if err := chain.Show(); err != nil {
				return fmt.Errorf("swap presentation buffers: %w", err)
			}
			return nil
		}
	}
	t.opts.Logger.Warn("presentation buffer kept losing contents", "attempts", t.opts.MaxAttempts)
	return ErrFrameDropped
}

// RenderFrame paints and presents one frame.
func (t *Target) RenderFrame(chain BufferChain, dst image.Rectangle, paint func(fb *FrameBuffer)) error {
	if err := t.Paint(paint); err != nil {
		return err
	}
	return t.Present(chain, dst)
}

func (t *Target) Dispose() {
	if t.surface != nil {
		t.surface.Dispose()
	}
}
