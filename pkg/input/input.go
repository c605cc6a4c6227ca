// Package input turns raw window events into content-space pointer and key
// events and fans them out to registered listeners.
package input

import (
	"log/slog"

	"screenkit/pkg/listener"
)

type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonNone:
		return "none"
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	}
	return "button"
}

// Key is a backend key code. The ebiten backend reports ebiten.Key values.
type Key int

// PointerListener receives pointer events in content coordinates.
type PointerListener interface {
	OnButton(x, y int, button Button, pressed bool)
	// OnMove reports the held button, or ButtonNone, and whether any button
	// is down.
	OnMove(x, y int, button Button, dragging bool)
	// OnWheel reports wheel rotation; positive steps scroll towards the user.
	OnWheel(x, y, steps int)
}

type KeyListener interface {
	OnKey(code Key, pressed bool)
}

// PointerFuncs adapts plain functions to PointerListener. Nil fields are
// ignored.
type PointerFuncs struct {
	Button func(x, y int, button Button, pressed bool)
	Move   func(x, y int, button Button, dragging bool)
	Wheel  func(x, y, steps int)
}

func (f PointerFuncs) OnButton(x, y int, button Button, pressed bool) {
	if f.Button != nil {
		f.Button(x, y, button, pressed)
	}
}

func (f PointerFuncs) OnMove(x, y int, button Button, dragging bool) {
	if f.Move != nil {
		f.Move(x, y, button, dragging)
	}
}

func (f PointerFuncs) OnWheel(x, y, steps int) {
	if f.Wheel != nil {
		f.Wheel(x, y, steps)
	}
}

type KeyFunc func(code Key, pressed bool)

func (f KeyFunc) OnKey(code Key, pressed bool) { f(code, pressed) }

// Mapper converts window coordinates into content coordinates.
// *viewport.Viewport implements it.
type Mapper interface {
	ToContent(x, y int) (int, int)
}

// Pointer routes raw pointer events. It holds no scale of its own; every
// event is mapped through the Mapper at the moment it is delivered.
type Pointer struct {
	mapper    Mapper
	listeners *listener.Registry[PointerListener]
}

func NewPointer(m Mapper, logger *slog.Logger) *Pointer {
	return &Pointer{
		mapper:    m,
		listeners: listener.New[PointerListener]("pointer", logger),
	}
}

func (p *Pointer) Listeners() *listener.Registry[PointerListener] { return p.listeners }

func (p *Pointer) OnButton(rawX, rawY int, button Button, pressed bool) {
	x, y := p.mapper.ToContent(rawX, rawY)
	p.listeners.Notify(func(l PointerListener) { l.OnButton(x, y, button, pressed) })
}

func (p *Pointer) OnMove(rawX, rawY int, held Button, dragging bool) {
	x, y := p.mapper.ToContent(rawX, rawY)
	p.listeners.Notify(func(l PointerListener) { l.OnMove(x, y, held, dragging) })
}

func (p *Pointer) OnWheel(rawX, rawY, steps int) {
	x, y := p.mapper.ToContent(rawX, rawY)
	p.listeners.Notify(func(l PointerListener) { l.OnWheel(x, y, steps) })
}

// Keyboard routes key events unchanged.
type Keyboard struct {
	listeners *listener.Registry[KeyListener]
}

func NewKeyboard(logger *slog.Logger) *Keyboard {
	return &Keyboard{listeners: listener.New[KeyListener]("keyboard", logger)}
}

func (k *Keyboard) Listeners() *listener.Registry[KeyListener] { return k.listeners }

func (k *Keyboard) OnKey(code Key, pressed bool) {
	k.listeners.Notify(func(l KeyListener) { l.OnKey(code, pressed) })
}
