// Package headless is an in-memory platform backend. Frames are presented into
// memory, events are injected by the caller, and device loss can be simulated.
package headless

import (
	"image"
	"sync"

	"screenkit/pkg/platform"
	"screenkit/pkg/render"
)

const Format = "rgba8"

type Backend struct {
	// FullScreenSupported controls whether SetFullScreen succeeds.
	FullScreenSupported bool
	// CreateErr, if set, is returned by CreateWindow.
	CreateErr error

	mu      sync.Mutex
	windows []*Window
}

func New() *Backend { return &Backend{FullScreenSupported: true} }

func (b *Backend) Name() string { return "headless" }

func (b *Backend) CreateWindow(cfg platform.WindowConfig) (platform.Window, error) {
	if b.CreateErr != nil {
		return nil, b.CreateErr
	}
	w := &Window{
		title:               cfg.Title,
		w:                   cfg.WidthPx,
		h:                   cfg.HeightPx,
		resizable:           cfg.Resizable,
		cursorVisible:       cfg.CursorVisible,
		icons:               cfg.Icons,
		fullScreenSupported: b.FullScreenSupported,
		cfg:                 render.DisplayConfig{Format: Format, Scale: 1},
	}
	b.mu.Lock()
	b.windows = append(b.windows, w)
	b.mu.Unlock()
	return w, nil
}

// Window returns the most recently created window, or nil.
func (b *Backend) Window() *Window {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.windows) == 0 {
		return nil
	}
	return b.windows[len(b.windows)-1]
}

type Window struct {
	// SurfaceErr and ChainErr, if set, make the matching constructor fail.
	SurfaceErr error
	ChainErr   error

	mu                  sync.Mutex
	title               string
	w, h                int
	resizable           bool
	cursorVisible       bool
	icons               []image.Image
	visible             bool
	destroyed           bool
	fullScreen          bool
	fullScreenSupported bool
	focused             bool
	cfg                 render.DisplayConfig
	handler             func(platform.Event)
	surfaces            int
	presented           uint64
	front               *render.FrameBuffer
}

func (w *Window) DisplayConfig() render.DisplayConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

func (w *Window) NewSurface(width, height int) (render.Surface, error) {
	if w.SurfaceErr != nil {
		return nil, w.SurfaceErr
	}
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return nil, platform.ErrWindowClosed
	}
	w.surfaces++
	w.mu.Unlock()
	return render.NewSoftSurface(width, height, w), nil
}

func (w *Window) NewBufferChain(count int) (render.BufferChain, error) {
	if w.ChainErr != nil {
		return nil, w.ChainErr
	}
	return render.NewSwapChain(count, w, w.SizePx, w.present)
}

func (w *Window) present(front *render.FrameBuffer) {
	w.mu.Lock()
	w.presented++
	w.front = front.Clone()
	w.mu.Unlock()
}

func (w *Window) SetEventHandler(h func(platform.Event)) {
	w.mu.Lock()
	w.handler = h
	w.mu.Unlock()
}

func (w *Window) Show() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return platform.ErrWindowClosed
	}
	w.visible = true
	w.focused = true
	return nil
}

func (w *Window) Hide() {
	w.mu.Lock()
	w.visible = false
	w.focused = false
	w.mu.Unlock()
}

func (w *Window) Destroy() {
	w.mu.Lock()
	w.visible = false
	w.focused = false
	w.destroyed = true
	w.mu.Unlock()
}

func (w *Window) SizePx() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w, w.h
}

// SetSizePx changes the canvas size and delivers the resize event
// synchronously, as Resize does.
func (w *Window) SetSizePx(width, height int) { w.Resize(width, height) }

func (w *Window) SetTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
}

func (w *Window) SetIcons(icons []image.Image) {
	w.mu.Lock()
	w.icons = icons
	w.mu.Unlock()
}

func (w *Window) SetResizable(resizable bool) {
	w.mu.Lock()
	w.resizable = resizable
	w.mu.Unlock()
}

func (w *Window) SetCursorVisible(visible bool) {
	w.mu.Lock()
	w.cursorVisible = visible
	w.mu.Unlock()
}

func (w *Window) SetFullScreen(fullScreen bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fullScreen && !w.fullScreenSupported {
		return platform.ErrUnsupported
	}
	if w.fullScreen != fullScreen {
		w.fullScreen = fullScreen
		w.cfg.Generation++
	}
	return nil
}

func (w *Window) FullScreen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullScreen
}

func (w *Window) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

// Emit delivers ev to the handler on the calling goroutine, which plays the
// role of the windowing event thread.
func (w *Window) Emit(ev platform.Event) {
	w.mu.Lock()
	h := w.handler
	w.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	w.w, w.h = width, height
	w.mu.Unlock()
	w.Emit(platform.Event{Type: platform.EventResize, Width: width, Height: height})
}

// RequestClose simulates the user closing the window.
func (w *Window) RequestClose() { w.Emit(platform.Event{Type: platform.EventClose}) }

// LoseContents simulates device loss: every surface and buffer reports its
// contents lost and validates as restored.
func (w *Window) LoseContents() {
	w.mu.Lock()
	w.cfg.Generation++
	w.mu.Unlock()
}

// ChangeFormat makes every existing surface incompatible.
func (w *Window) ChangeFormat(format string) {
	w.mu.Lock()
	w.cfg.Format = format
	w.cfg.Generation++
	w.mu.Unlock()
}

func (w *Window) SetFocused(focused bool) {
	w.mu.Lock()
	w.focused = focused
	w.mu.Unlock()
}

func (w *Window) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *Window) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

func (w *Window) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *Window) Icons() []image.Image {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.icons
}

func (w *Window) Resizable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resizable
}

func (w *Window) CursorVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursorVisible
}

// Surfaces is the number of offscreen surfaces created so far.
func (w *Window) Surfaces() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.surfaces
}

// Presented is the number of buffer swaps so far.
func (w *Window) Presented() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.presented
}

// LastFrame returns a copy of the most recently presented frame, or nil.
func (w *Window) LastFrame() *render.FrameBuffer {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.front == nil {
		return nil
	}
	return w.front.Clone()
}
