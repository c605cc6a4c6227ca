// Package platform describes the windowing capability a Screen is built on.
package platform

import (
	"errors"
	"image"

	"screenkit/pkg/input"
	"screenkit/pkg/render"
)

var (
	// ErrUnsupported is returned by optional window operations the backend
	// or display cannot perform.
	ErrUnsupported = errors.New("platform: operation not supported")
	// ErrWindowClosed is returned once the window has been destroyed.
	ErrWindowClosed = errors.New("platform: window closed")
)

type WindowConfig struct {
	Title         string
	WidthPx       int
	HeightPx      int
	Resizable     bool
	CursorVisible bool
	Icons         []image.Image
}

type EventType int

const (
	EventUnknown EventType = iota
	EventClose
	EventResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event is a raw window event. Coordinates are canvas pixels; Width and
// Height carry the new canvas size for EventResize.
type Event struct {
	Type   EventType
	Width  int
	Height int
	X      int
	Y      int
	Button input.Button
	// Held is the pressed button during EventMouseMove, ButtonNone if none.
	Held   input.Button
	DeltaY int
	Key    input.Key
}

type Platform interface {
	Name() string
	CreateWindow(cfg WindowConfig) (Window, error)
}

// Window is a single top-level window with a drawable canvas. Events from the
// window frame and the canvas are merged into one stream and delivered to the
// handler on the backend's event goroutine.
type Window interface {
	render.Device

	SetEventHandler(h func(Event))
	Show() error
	Hide()
	Destroy()

	SizePx() (int, int)
	SetSizePx(w, h int)
	SetTitle(title string)
	SetIcons(icons []image.Image)
	SetResizable(resizable bool)
	SetCursorVisible(visible bool)
	// SetFullScreen returns ErrUnsupported when exclusive mode is not
	// available.
	SetFullScreen(fullScreen bool) error
	FullScreen() bool
	Focused() bool

	NewBufferChain(count int) (render.BufferChain, error)
}
