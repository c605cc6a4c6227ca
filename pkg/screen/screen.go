// Package screen owns a window, paints registered Drawables into a fixed-size
// offscreen surface every frame, and presents it scaled to the canvas
// according to a resize behaviour. Pointer input is mapped back into the same
// content space.
//
// Show, Hide, Close, Redraw and the setters may be called from any goroutine.
// Redraw and Show must not be called from inside a Drawable.
package screen

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"screenkit/pkg/input"
	"screenkit/pkg/listener"
	"screenkit/pkg/platform"
	"screenkit/pkg/render"
	"screenkit/pkg/viewport"
)

const bufferCount = 2

// Drawable paints itself into the content surface. fb is sized to the
// initial content size.
type Drawable interface {
	Draw(fb *render.FrameBuffer)
}

type DrawFunc func(fb *render.FrameBuffer)

func (f DrawFunc) Draw(fb *render.FrameBuffer) { f(fb) }

type Options struct {
	Title string
	// Width and Height are the content size, fixed for the life of the
	// Screen. The canvas starts at the same size.
	Width  int
	Height int

	Resizable      bool
	FullScreen     bool
	HideCursor     bool
	Icons          []image.Image
	ResizeBehavior viewport.Behavior
	Background     color.RGBA
	Filter         render.Filter
	// MaxRenderAttempts bounds the retries on surface loss per frame.
	MaxRenderAttempts int
	Logger            *slog.Logger
}

type state int

const (
	stateHidden state = iota
	stateVisible
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateHidden:
		return "hidden"
	case stateVisible:
		return "visible"
	}
	return "closed"
}

type Screen struct {
	opts   Options
	logger *slog.Logger
	window platform.Window

	viewport  *viewport.Viewport
	pointer   *input.Pointer
	keyboard  *input.Keyboard
	drawables *listener.Registry[Drawable]
	closers   *listener.Registry[func()]

	// frameMu serialises Show and Redraw. Close never takes it.
	frameMu sync.Mutex

	mu             sync.Mutex
	state          state
	rendering      bool
	releasePending bool
	target         *render.Target
	chain          render.BufferChain
	title          string
	resizable      bool
	background     color.RGBA
}

// New creates the window, hidden. Call Show to start presenting.
func New(p platform.Platform, opts Options) (*Screen, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid content size %dx%d", opts.Width, opts.Height)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "screen")

	window, err := p.CreateWindow(platform.WindowConfig{
		Title:         opts.Title,
		WidthPx:       opts.Width,
		HeightPx:      opts.Height,
		Resizable:     opts.Resizable,
		CursorVisible: !opts.HideCursor,
		Icons:         opts.Icons,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s window: %w", p.Name(), err)
	}

	vp := viewport.New(opts.Width, opts.Height, opts.ResizeBehavior)
	s := &Screen{
		opts:       opts,
		logger:     logger,
		window:     window,
		viewport:   vp,
		pointer:    input.NewPointer(vp, logger),
		keyboard:   input.NewKeyboard(logger),
		drawables:  listener.New[Drawable]("drawable", logger),
		closers:    listener.New[func()]("close", logger),
		title:      opts.Title,
		resizable:  opts.Resizable,
		background: opts.Background,
	}
	window.SetEventHandler(s.handleEvent)
	if opts.FullScreen {
		s.SetFullScreen(true)
	}
	return s, nil
}

// Show makes the window visible, creates the offscreen surface and the
// presentation buffers, and presents a first frame. It does nothing if the
// screen is already visible or closed. Errors come only from acquiring the
// window or its buffers; a dropped first frame is logged and the screen stays
// visible.
func (s *Screen) Show() error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	s.mu.Lock()
	if s.state != stateHidden {
		s.mu.Unlock()
		return nil
	}
	if err := s.window.Show(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("show window: %w", err)
	}
	target, err := render.NewTarget(s.window, s.opts.Width, s.opts.Height, render.TargetOptions{
		Background:  s.background,
		Filter:      s.opts.Filter,
		MaxAttempts: s.opts.MaxRenderAttempts,
		Logger:      s.logger,
	})
	if err != nil {
		s.window.Hide()
		s.mu.Unlock()
		return fmt.Errorf("show: %w", err)
	}
	chain, err := s.window.NewBufferChain(bufferCount)
	if err != nil {
		target.Dispose()
		s.window.Hide()
		s.mu.Unlock()
		return fmt.Errorf("show: create presentation buffers: %w", err)
	}
	s.disposeRenderLocked()
	s.target, s.chain = target, chain
	s.state = stateVisible
	s.mu.Unlock()

	s.viewport.Resize(s.window.SizePx())
	s.logger.Debug("screen shown", "geometry", s.viewport.Geometry())
	if err := s.redraw(); err != nil {
		if errors.Is(err, render.ErrFrameDropped) {
			s.logger.Warn("first frame dropped", "err", err)
			return nil
		}
		return err
	}
	return nil
}

// Hide hides the window. Input and Redraw are ignored until the next Show.
func (s *Screen) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateVisible {
		return
	}
	s.window.Hide()
	s.state = stateHidden
	s.logger.Debug("screen hidden")
}

// Close leaves full screen, destroys the window and releases the render
// resources. It is idempotent, and a closed Screen cannot be shown again.
// Close may be called from a Drawable or listener; resources in use by an
// in-flight frame are released when that frame finishes.
func (s *Screen) Close() {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	s.state = stateClosed
	if s.rendering {
		s.releasePending = true
	} else {
		s.disposeRenderLocked()
	}
	s.mu.Unlock()

	if err := s.window.SetFullScreen(false); err != nil && !errors.Is(err, platform.ErrUnsupported) {
		s.logger.Warn("leave full screen on close", "err", err)
	}
	s.window.Destroy()
	s.logger.Debug("screen closed")
	s.closers.Notify(func(f func()) { f() })
}

func (s *Screen) disposeRenderLocked() {
	if s.target != nil {
		s.target.Dispose()
		s.target = nil
	}
	if s.chain != nil {
		s.chain.Dispose()
		s.chain = nil
	}
}

// Redraw paints every Drawable in registration order and presents the
// result. It does nothing unless the screen is visible. The only error is a
// dropped frame or a failure to recreate a lost surface.
func (s *Screen) Redraw() error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.redraw()
}

func (s *Screen) redraw() error {
	s.mu.Lock()
	if s.state != stateVisible {
		s.mu.Unlock()
		return nil
	}
	target, chain := s.target, s.chain
	target.SetBackground(s.background)
	s.rendering = true
	s.mu.Unlock()

	g := s.viewport.Geometry()
	dst := image.Rect(g.RenderX, g.RenderY, g.RenderX+g.RenderW, g.RenderY+g.RenderH)
	err := target.RenderFrame(chain, dst, s.paint)

	s.mu.Lock()
	s.rendering = false
	if s.releasePending {
		s.releasePending = false
		s.disposeRenderLocked()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, render.ErrFrameDropped) {
			return err
		}
		return fmt.Errorf("redraw: %w", err)
	}
	return nil
}

func (s *Screen) paint(fb *render.FrameBuffer) {
	s.drawables.Notify(func(d Drawable) { d.Draw(fb) })
}

// handleEvent runs on the backend's event goroutine.
func (s *Screen) handleEvent(ev platform.Event) {
	switch ev.Type {
	case platform.EventClose:
		s.Close()
		return
	case platform.EventResize:
		if s.IsOpen() {
			g := s.viewport.Resize(ev.Width, ev.Height)
			s.logger.Debug("canvas resized", "geometry", g)
		}
		return
	}

	if !s.IsVisible() {
		return
	}
	switch ev.Type {
	case platform.EventMouseDown:
		s.pointer.OnButton(ev.X, ev.Y, ev.Button, true)
	case platform.EventMouseUp:
		s.pointer.OnButton(ev.X, ev.Y, ev.Button, false)
	case platform.EventMouseMove:
		s.pointer.OnMove(ev.X, ev.Y, ev.Held, ev.Held != input.ButtonNone)
	case platform.EventMouseWheel:
		s.pointer.OnWheel(ev.X, ev.Y, ev.DeltaY)
	case platform.EventKeyDown:
		s.keyboard.OnKey(ev.Key, true)
	case platform.EventKeyUp:
		s.keyboard.OnKey(ev.Key, false)
	}
}
