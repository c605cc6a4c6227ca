// Package ebitenwin is the desktop backend, built on ebiten. Ebiten's update
// goroutine is the event thread: input is polled there and delivered to the
// window's handler. Presented frames are uploaded to the screen in Draw.
package ebitenwin

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"screenkit/pkg/input"
	"screenkit/pkg/platform"
	"screenkit/pkg/render"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const Format = "rgba8"

var errNoWindow = errors.New("ebitenwin: no window created")

type Backend struct {
	mu     sync.Mutex
	window *window
}

func New() *Backend { return &Backend{} }

func (b *Backend) Name() string { return "ebiten" }

// CreateWindow configures the single ebiten window. Ebiten drives one window
// per process, so a second call fails.
func (b *Backend) CreateWindow(cfg platform.WindowConfig) (platform.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.window != nil {
		return nil, errors.New("ebitenwin: only one window per process")
	}
	if cfg.WidthPx <= 0 || cfg.HeightPx <= 0 {
		return nil, fmt.Errorf("ebitenwin: invalid window size %dx%d", cfg.WidthPx, cfg.HeightPx)
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.WidthPx, cfg.HeightPx)
	ebiten.SetWindowClosingHandled(true)
	if len(cfg.Icons) > 0 {
		ebiten.SetWindowIcon(cfg.Icons)
	}

	w := &window{
		w:   cfg.WidthPx,
		h:   cfg.HeightPx,
		cfg: render.DisplayConfig{Format: Format, Scale: 1},
	}
	w.SetResizable(cfg.Resizable)
	w.SetCursorVisible(cfg.CursorVisible)
	b.window = w
	return w, nil
}

// Run enters ebiten's game loop on the calling goroutine, which must be the
// main goroutine. It returns once the window is destroyed.
func (b *Backend) Run() error {
	b.mu.Lock()
	w := b.window
	b.mu.Unlock()
	if w == nil {
		return errNoWindow
	}
	if err := ebiten.RunGame(w); err != nil {
		return fmt.Errorf("run game loop: %w", err)
	}
	return nil
}

type window struct {
	mu        sync.Mutex
	w, h      int
	resized   bool
	visible   bool
	destroyed bool
	cfg       render.DisplayConfig
	handler   func(platform.Event)

	pixels []uint8
	pixW   int
	pixH   int
	dirty  bool
	front  *ebiten.Image

	cursorX, cursorY int
	keys             []ebiten.Key
}

func (w *window) DisplayConfig() render.DisplayConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

func (w *window) NewSurface(width, height int) (render.Surface, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return nil, platform.ErrWindowClosed
	}
	return render.NewSoftSurface(width, height, w), nil
}

func (w *window) NewBufferChain(count int) (render.BufferChain, error) {
	return render.NewSwapChain(count, w, w.SizePx, w.present)
}

func (w *window) present(front *render.FrameBuffer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pixels) != len(front.Pixels) {
		w.pixels = make([]uint8, len(front.Pixels))
	}
	copy(w.pixels, front.Pixels)
	w.pixW, w.pixH = front.W, front.H
	w.dirty = true
}

func (w *window) SetEventHandler(h func(platform.Event)) {
	w.mu.Lock()
	w.handler = h
	w.mu.Unlock()
}

func (w *window) Show() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return platform.ErrWindowClosed
	}
	w.visible = true
	if ebiten.IsWindowMinimized() {
		ebiten.RestoreWindow()
	}
	return nil
}

func (w *window) Hide() {
	w.mu.Lock()
	w.visible = false
	w.mu.Unlock()
	ebiten.MinimizeWindow()
}

func (w *window) Destroy() {
	w.mu.Lock()
	w.visible = false
	w.destroyed = true
	w.mu.Unlock()
}

func (w *window) SizePx() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w, w.h
}

func (w *window) SetSizePx(width, height int) { ebiten.SetWindowSize(width, height) }

func (w *window) SetTitle(title string) { ebiten.SetWindowTitle(title) }

func (w *window) SetIcons(icons []image.Image) { ebiten.SetWindowIcon(icons) }

func (w *window) SetResizable(resizable bool) {
	if resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
		return
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
}

func (w *window) SetCursorVisible(visible bool) {
	if visible {
		ebiten.SetCursorMode(ebiten.CursorModeVisible)
		return
	}
	ebiten.SetCursorMode(ebiten.CursorModeHidden)
}

func (w *window) SetFullScreen(fullScreen bool) error {
	if ebiten.IsFullscreen() == fullScreen {
		return nil
	}
	ebiten.SetFullscreen(fullScreen)
	w.mu.Lock()
	w.cfg.Generation++
	w.mu.Unlock()
	return nil
}

func (w *window) FullScreen() bool { return ebiten.IsFullscreen() }

func (w *window) Focused() bool { return ebiten.IsFocused() }

func (w *window) emit(ev platform.Event) {
	w.mu.Lock()
	h := w.handler
	w.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

var mouseButtons = [...]struct {
	ebiten ebiten.MouseButton
	button input.Button
}{
	{ebiten.MouseButtonLeft, input.ButtonLeft},
	{ebiten.MouseButtonMiddle, input.ButtonMiddle},
	{ebiten.MouseButtonRight, input.ButtonRight},
}

// Update runs on ebiten's update goroutine and turns polled input into
// events.
func (w *window) Update() error {
	w.mu.Lock()
	destroyed := w.destroyed
	resized := w.resized
	width, height := w.w, w.h
	w.resized = false
	if m := ebiten.Monitor(); m != nil {
		if scale := m.DeviceScaleFactor(); scale != w.cfg.Scale {
			w.cfg.Scale = scale
			w.cfg.Generation++
		}
	}
	w.mu.Unlock()

	if destroyed {
		return ebiten.Termination
	}
	if ebiten.IsWindowBeingClosed() {
		w.emit(platform.Event{Type: platform.EventClose})
		return nil
	}
	if resized {
		w.emit(platform.Event{Type: platform.EventResize, Width: width, Height: height})
	}

	x, y := ebiten.CursorPosition()
	held := input.ButtonNone
	for _, mb := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(mb.ebiten) {
			w.emit(platform.Event{Type: platform.EventMouseDown, X: x, Y: y, Button: mb.button})
		}
		if inpututil.IsMouseButtonJustReleased(mb.ebiten) {
			w.emit(platform.Event{Type: platform.EventMouseUp, X: x, Y: y, Button: mb.button})
		}
		if held == input.ButtonNone && ebiten.IsMouseButtonPressed(mb.ebiten) {
			held = mb.button
		}
	}
	if x != w.cursorX || y != w.cursorY {
		w.cursorX, w.cursorY = x, y
		w.emit(platform.Event{Type: platform.EventMouseMove, X: x, Y: y, Held: held})
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		// ebiten reports positive dy when scrolling away from the user.
		steps := -int(math.Round(dy))
		if steps == 0 {
			steps = -int(math.Copysign(1, dy))
		}
		w.emit(platform.Event{Type: platform.EventMouseWheel, X: x, Y: y, DeltaY: steps})
	}

	w.keys = inpututil.AppendJustPressedKeys(w.keys[:0])
	for _, k := range w.keys {
		w.emit(platform.Event{Type: platform.EventKeyDown, Key: input.Key(k)})
	}
	w.keys = inpututil.AppendJustReleasedKeys(w.keys[:0])
	for _, k := range w.keys {
		w.emit(platform.Event{Type: platform.EventKeyUp, Key: input.Key(k)})
	}
	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pixW == 0 || w.pixH == 0 {
		return
	}
	if w.front == nil || w.front.Bounds().Dx() != w.pixW || w.front.Bounds().Dy() != w.pixH {
		w.front = ebiten.NewImage(w.pixW, w.pixH)
		w.dirty = true
	}
	if w.dirty {
		w.front.WritePixels(w.pixels)
		w.dirty = false
	}
	screen.Clear()
	screen.DrawImage(w.front, nil)
}

// Layout keeps one logical pixel per window pixel and records size changes
// for the next Update.
func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if outsideWidth != w.w || outsideHeight != w.h {
		w.w, w.h = outsideWidth, outsideHeight
		w.resized = true
	}
	return outsideWidth, outsideHeight
}
