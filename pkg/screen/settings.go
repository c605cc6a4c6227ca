package screen

import (
	"errors"
	"image"
	"image/color"

	"screenkit/pkg/input"
	"screenkit/pkg/listener"
	"screenkit/pkg/platform"
	"screenkit/pkg/render"
	"screenkit/pkg/viewport"
)

func (s *Screen) AddDrawable(d Drawable) listener.Handle { return s.drawables.Add(d) }

func (s *Screen) RemoveDrawable(h listener.Handle) bool { return s.drawables.Remove(h) }

func (s *Screen) RemoveAllDrawables() { s.drawables.Clear() }

func (s *Screen) AddPointerListener(l input.PointerListener) listener.Handle {
	return s.pointer.Listeners().Add(l)
}

func (s *Screen) RemovePointerListener(h listener.Handle) bool {
	return s.pointer.Listeners().Remove(h)
}

func (s *Screen) RemoveAllPointerListeners() { s.pointer.Listeners().Clear() }

func (s *Screen) AddKeyListener(l input.KeyListener) listener.Handle {
	return s.keyboard.Listeners().Add(l)
}

func (s *Screen) RemoveKeyListener(h listener.Handle) bool {
	return s.keyboard.Listeners().Remove(h)
}

func (s *Screen) RemoveAllKeyListeners() { s.keyboard.Listeners().Clear() }

// AddCloseListener registers f to run once when the screen closes, whether
// through Close or because the user closed the window.
func (s *Screen) AddCloseListener(f func()) listener.Handle { return s.closers.Add(f) }

func (s *Screen) RemoveCloseListener(h listener.Handle) bool { return s.closers.Remove(h) }

// SetResizeBehavior switches the policy and recomputes the viewport against
// the current canvas.
func (s *Screen) SetResizeBehavior(b viewport.Behavior) {
	g := s.viewport.SetBehavior(b)
	s.logger.Debug("resize behavior changed", "geometry", g)
}

func (s *Screen) ResizeBehavior() viewport.Behavior { return s.viewport.Behavior() }

// SetFullScreen enters or leaves exclusive full screen mode. If the display
// does not support it the call has no effect.
func (s *Screen) SetFullScreen(fullScreen bool) {
	if !s.IsOpen() {
		return
	}
	err := s.window.SetFullScreen(fullScreen)
	switch {
	case errors.Is(err, platform.ErrUnsupported):
		s.logger.Debug("full screen not supported", "requested", fullScreen)
	case err != nil:
		s.logger.Warn("set full screen", "requested", fullScreen, "err", err)
	}
}

func (s *Screen) IsFullScreen() bool {
	return s.IsOpen() && s.window.FullScreen()
}

func (s *Screen) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	s.title = title
	s.window.SetTitle(title)
}

func (s *Screen) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Screen) SetResizable(resizable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	s.resizable = resizable
	s.window.SetResizable(resizable)
}

func (s *Screen) IsResizable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resizable
}

func (s *Screen) SetIcons(icons ...image.Image) {
	if s.IsOpen() {
		s.window.SetIcons(icons)
	}
}

func (s *Screen) SetCursorVisible(visible bool) {
	if s.IsOpen() {
		s.window.SetCursorVisible(visible)
	}
}

// SetBackground sets the colour the content surface is cleared to and the
// bars around it are filled with. It applies from the next frame.
func (s *Screen) SetBackground(c color.RGBA) {
	s.mu.Lock()
	s.background = c
	s.mu.Unlock()
}

// SetSize resizes the canvas. A visible screen is hidden, resized and shown
// again, which recreates its surfaces.
func (s *Screen) SetSize(width, height int) error {
	if !s.IsOpen() {
		return nil
	}
	visible := s.IsVisible()
	s.Hide()
	s.window.SetSizePx(width, height)
	if visible {
		return s.Show()
	}
	return nil
}

func (s *Screen) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != stateClosed
}

func (s *Screen) IsVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateVisible
}

func (s *Screen) IsFocused() bool {
	return s.IsOpen() && s.window.Focused()
}

// InitialSize is the content size. It never changes.
func (s *Screen) InitialSize() (int, int) { return s.opts.Width, s.opts.Height }

// Size is the current canvas size.
func (s *Screen) Size() (int, int) {
	g := s.viewport.Geometry()
	return g.CanvasW, g.CanvasH
}

// RenderSize is the size the content is drawn at inside the canvas.
func (s *Screen) RenderSize() (int, int) {
	g := s.viewport.Geometry()
	return g.RenderW, g.RenderH
}

func (s *Screen) Geometry() viewport.Geometry { return s.viewport.Geometry() }

// LastFrame returns a copy of the front presentation buffer, or nil when no
// frame has been presented yet, the screen is closed, or the backend does not
// expose it.
func (s *Screen) LastFrame() *render.FrameBuffer {
	s.mu.Lock()
	chain := s.chain
	s.mu.Unlock()
	front, ok := chain.(interface{ Front() *render.FrameBuffer })
	if !ok {
		return nil
	}
	return front.Front()
}
