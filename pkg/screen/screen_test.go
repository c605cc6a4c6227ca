package screen

import (
	"errors"
	"image/color"
	"sync"
	"testing"

	"screenkit/pkg/input"
	"screenkit/pkg/platform"
	"screenkit/pkg/platform/headless"
	"screenkit/pkg/render"
	"screenkit/pkg/viewport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bg    = color.RGBA{0x10, 0x10, 0x10, 0xFF}
	green = color.RGBA{0, 0xFF, 0, 0xFF}
)

func newScreen(t *testing.T, opts Options) (*Screen, *headless.Window) {
	t.Helper()
	if opts.Width == 0 {
		opts.Width, opts.Height = 500, 500
	}
	backend := headless.New()
	s, err := New(backend, opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, backend.Window()
}

func TestStretchResize(t *testing.T) {
	s, w := newScreen(t, Options{})
	require.NoError(t, s.Show())
	s.SetResizeBehavior(viewport.Stretch)
	w.Resize(1000, 400)

	g := s.Geometry()
	assert.Equal(t, 1000, g.RenderW)
	assert.Equal(t, 400, g.RenderH)
	assert.Equal(t, 0, g.RenderX)
	assert.Equal(t, 0, g.RenderY)
	assert.InDelta(t, 2.0, g.ScaleX, 1e-9)
	assert.InDelta(t, 0.8, g.ScaleY, 1e-9)
}

func TestKeepAspectRatioPointerMapping(t *testing.T) {
	s, w := newScreen(t, Options{ResizeBehavior: viewport.KeepAspectRatio})
	require.NoError(t, s.Show())
	w.Resize(1000, 400)

	rw, rh := s.RenderSize()
	assert.Equal(t, 400, rw)
	assert.Equal(t, 400, rh)
	assert.Equal(t, 300, s.Geometry().RenderX)

	var gotX, gotY int
	var gotButton input.Button
	s.AddPointerListener(input.PointerFuncs{Button: func(x, y int, b input.Button, pressed bool) {
		gotX, gotY, gotButton = x, y, b
	}})
	w.Emit(platform.Event{Type: platform.EventMouseDown, X: 320, Y: 0, Button: input.ButtonLeft})
	assert.Equal(t, 25, gotX)
	assert.Equal(t, 0, gotY)
	assert.Equal(t, input.ButtonLeft, gotButton)
}

func TestLetterboxIsFilledWithBackground(t *testing.T) {
	s, w := newScreen(t, Options{ResizeBehavior: viewport.KeepAspectRatio, Background: bg})
	s.AddDrawable(DrawFunc(func(fb *render.FrameBuffer) { fb.Clear(green) }))
	require.NoError(t, s.Show())
	w.Resize(1000, 400)
	require.NoError(t, s.Redraw())

	frame := w.LastFrame()
	require.NotNil(t, frame)
	assert.Equal(t, 1000, frame.W)
	assert.Equal(t, color.Color(bg), frame.At(299, 200))
	assert.Equal(t, color.Color(green), frame.At(300, 200))
	assert.Equal(t, color.Color(green), frame.At(699, 200))
	assert.Equal(t, color.Color(bg), frame.At(700, 200))
	assert.Equal(t, frame.Pixels, s.LastFrame().Pixels)
}

func TestHideSuppressesRedraw(t *testing.T) {
	s, w := newScreen(t, Options{})
	draws := 0
	s.AddDrawable(DrawFunc(func(*render.FrameBuffer) { draws++ }))

	require.NoError(t, s.Show())
	require.Equal(t, uint64(1), w.Presented())
	require.Equal(t, 1, draws)

	s.Hide()
	assert.False(t, s.IsVisible())
	assert.False(t, w.Visible())
	require.NoError(t, s.Redraw())
	assert.Equal(t, uint64(1), w.Presented())
	assert.Equal(t, 1, draws)

	require.NoError(t, s.Show())
	assert.Equal(t, uint64(2), w.Presented())
	assert.Equal(t, 2, draws)
}

func TestShowIsIdempotent(t *testing.T) {
	s, w := newScreen(t, Options{})
	require.NoError(t, s.Show())
	require.NoError(t, s.Show())

	assert.True(t, s.IsVisible())
	assert.Equal(t, uint64(1), w.Presented())
	assert.Equal(t, 1, w.Surfaces())
}

func TestCloseIsTerminal(t *testing.T) {
	s, w := newScreen(t, Options{})
	closes := 0
	s.AddCloseListener(func() { closes++ })
	require.NoError(t, s.Show())

	s.Close()
	s.Close()
	assert.Equal(t, 1, closes)
	assert.False(t, s.IsOpen())
	assert.False(t, s.IsVisible())
	assert.True(t, w.Destroyed())
	assert.Nil(t, s.LastFrame())

	require.NoError(t, s.Show())
	require.NoError(t, s.Redraw())
	assert.False(t, s.IsVisible())
	assert.Equal(t, uint64(1), w.Presented())
}

func TestDrawableRegistration(t *testing.T) {
	s, _ := newScreen(t, Options{})
	var order []string
	named := func(name string) Drawable {
		return DrawFunc(func(*render.FrameBuffer) { order = append(order, name) })
	}
	a := named("a")
	s.AddDrawable(a)
	removed := s.AddDrawable(named("gone"))
	s.AddDrawable(named("b"))
	s.AddDrawable(a)
	require.True(t, s.RemoveDrawable(removed))

	require.NoError(t, s.Show())
	assert.Equal(t, []string{"a", "b", "a"}, order)

	s.RemoveAllDrawables()
	order = nil
	require.NoError(t, s.Redraw())
	assert.Empty(t, order)
}

func TestDrawableSeesContentSizedSurface(t *testing.T) {
	s, w := newScreen(t, Options{Width: 320, Height: 200})
	w.Resize(1280, 720)
	var sizes [][2]int
	s.AddDrawable(DrawFunc(func(fb *render.FrameBuffer) { sizes = append(sizes, [2]int{fb.W, fb.H}) }))
	require.NoError(t, s.Show())
	assert.Equal(t, [][2]int{{320, 200}}, sizes)
}

func TestContentsLostRepaints(t *testing.T) {
	s, w := newScreen(t, Options{})
	require.NoError(t, s.Show())

	draws := 0
	s.AddDrawable(DrawFunc(func(*render.FrameBuffer) {
		draws++
		if draws == 1 {
			w.LoseContents()
		}
	}))
	require.NoError(t, s.Redraw())
	assert.Equal(t, 2, draws)
	assert.Equal(t, uint64(2), w.Presented())
}

func TestIncompatibleSurfaceRecreated(t *testing.T) {
	s, w := newScreen(t, Options{})
	require.NoError(t, s.Show())
	require.Equal(t, 1, w.Surfaces())

	w.ChangeFormat("bgra8")
	require.NoError(t, s.Redraw())
	assert.Equal(t, 2, w.Surfaces())
	assert.Equal(t, uint64(2), w.Presented())
}

func TestPersistentLossDropsFrame(t *testing.T) {
	s, w := newScreen(t, Options{MaxRenderAttempts: 3})
	require.NoError(t, s.Show())
	draws := 0
	s.AddDrawable(DrawFunc(func(*render.FrameBuffer) {
		draws++
		w.LoseContents()
	}))

	err := s.Redraw()
	assert.ErrorIs(t, err, render.ErrFrameDropped)
	assert.Equal(t, 3, draws)
	assert.Equal(t, uint64(1), w.Presented())
}

func TestShowToleratesDroppedFirstFrame(t *testing.T) {
	s, w := newScreen(t, Options{MaxRenderAttempts: 2})
	s.AddDrawable(DrawFunc(func(*render.FrameBuffer) { w.LoseContents() }))

	require.NoError(t, s.Show())
	assert.True(t, s.IsVisible())
	assert.True(t, w.Visible())
	assert.Zero(t, w.Presented())
	assert.Nil(t, s.LastFrame())

	s.RemoveAllDrawables()
	require.NoError(t, s.Redraw())
	assert.Equal(t, uint64(1), w.Presented())
	assert.NotNil(t, s.LastFrame())
}

func TestFullScreenUnsupportedIsSilent(t *testing.T) {
	backend := headless.New()
	backend.FullScreenSupported = false
	s, err := New(backend, Options{Width: 10, Height: 10, FullScreen: true})
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.IsFullScreen())
	s.SetFullScreen(true)
	assert.False(t, s.IsFullScreen())
}

func TestFullScreenToggle(t *testing.T) {
	s, w := newScreen(t, Options{})
	s.SetFullScreen(true)
	assert.True(t, s.IsFullScreen())
	s.Close()
	assert.False(t, w.FullScreen())
}

func TestConstructionFailurePropagates(t *testing.T) {
	backend := headless.New()
	backend.CreateErr = errors.New("no display")
	s, err := New(backend, Options{Width: 10, Height: 10})
	assert.ErrorIs(t, err, backend.CreateErr)
	assert.Nil(t, s)

	_, err = New(headless.New(), Options{})
	assert.Error(t, err)
}

func TestShowFailureLeavesScreenHidden(t *testing.T) {
	s, w := newScreen(t, Options{})
	w.SurfaceErr = errors.New("out of memory")
	assert.ErrorIs(t, s.Show(), w.SurfaceErr)
	assert.False(t, s.IsVisible())
	assert.False(t, w.Visible())

	w.SurfaceErr = nil
	w.ChainErr = errors.New("no buffers")
	assert.ErrorIs(t, s.Show(), w.ChainErr)
	assert.False(t, s.IsVisible())

	w.ChainErr = nil
	require.NoError(t, s.Show())
	assert.True(t, s.IsVisible())
}

func TestCloseFromDrawable(t *testing.T) {
	s, w := newScreen(t, Options{})
	require.NoError(t, s.Show())
	s.AddDrawable(DrawFunc(func(*render.FrameBuffer) { s.Close() }))

	require.NoError(t, s.Redraw())
	assert.False(t, s.IsOpen())
	assert.True(t, w.Destroyed())
	assert.Nil(t, s.LastFrame())
}

func TestWindowCloseEvent(t *testing.T) {
	s, w := newScreen(t, Options{})
	closed := make(chan struct{})
	s.AddCloseListener(func() { close(closed) })
	require.NoError(t, s.Show())

	w.RequestClose()
	<-closed
	assert.False(t, s.IsOpen())
}

func TestInputIgnoredWhileHidden(t *testing.T) {
	s, w := newScreen(t, Options{})
	var keys []input.Key
	s.AddKeyListener(input.KeyFunc(func(k input.Key, pressed bool) {
		if pressed {
			keys = append(keys, k)
		}
	}))
	moves := 0
	s.AddPointerListener(input.PointerFuncs{Move: func(_, _ int, held input.Button, dragging bool) {
		moves++
		assert.Equal(t, input.ButtonRight, held)
		assert.True(t, dragging)
	}})

	w.Emit(platform.Event{Type: platform.EventKeyDown, Key: 1})
	require.NoError(t, s.Show())
	w.Emit(platform.Event{Type: platform.EventKeyDown, Key: 2})
	w.Emit(platform.Event{Type: platform.EventKeyUp, Key: 2})
	w.Emit(platform.Event{Type: platform.EventMouseMove, X: 5, Y: 5, Held: input.ButtonRight})
	s.Hide()
	w.Emit(platform.Event{Type: platform.EventKeyDown, Key: 3})
	w.Emit(platform.Event{Type: platform.EventMouseMove, X: 6, Y: 6})

	assert.Equal(t, []input.Key{2}, keys)
	assert.Equal(t, 1, moves)
}

func TestResizeWhileHiddenAppliesOnShow(t *testing.T) {
	s, w := newScreen(t, Options{ResizeBehavior: viewport.KeepSize})
	w.Resize(700, 900)
	require.NoError(t, s.Show())

	g := s.Geometry()
	assert.Equal(t, 100, g.RenderX)
	assert.Equal(t, 200, g.RenderY)
	cw, ch := s.Size()
	assert.Equal(t, 700, cw)
	assert.Equal(t, 900, ch)
}

func TestSetSizeReshows(t *testing.T) {
	s, w := newScreen(t, Options{})
	require.NoError(t, s.Show())
	require.NoError(t, s.SetSize(800, 600))

	assert.True(t, s.IsVisible())
	assert.Equal(t, 2, w.Surfaces())
	cw, ch := s.Size()
	assert.Equal(t, 800, cw)
	assert.Equal(t, 600, ch)
	assert.Equal(t, 800, w.LastFrame().W)
}

func TestSettersForwardToWindow(t *testing.T) {
	s, w := newScreen(t, Options{Title: "first", HideCursor: true})
	assert.False(t, w.CursorVisible())
	assert.Equal(t, "first", s.Title())

	s.SetTitle("second")
	s.SetResizable(true)
	s.SetCursorVisible(true)
	s.SetIcons(render.NewFrameBuffer(16, 16))

	assert.Equal(t, "second", w.Title())
	assert.Equal(t, "second", s.Title())
	assert.True(t, w.Resizable())
	assert.True(t, s.IsResizable())
	assert.True(t, w.CursorVisible())
	assert.Len(t, w.Icons(), 1)

	iw, ih := s.InitialSize()
	assert.Equal(t, 500, iw)
	assert.Equal(t, 500, ih)
	assert.Equal(t, viewport.Stretch, s.ResizeBehavior())

	assert.False(t, s.IsFocused())
	require.NoError(t, s.Show())
	assert.True(t, s.IsFocused())

	s.Close()
	s.SetTitle("ignored")
	assert.Equal(t, "second", s.Title())
}

func TestConcurrentInputAndRedraw(t *testing.T) {
	s, w := newScreen(t, Options{ResizeBehavior: viewport.KeepAspectRatio})
	require.NoError(t, s.Show())

	var mu sync.Mutex
	var outOfRange int
	s.AddPointerListener(input.PointerFuncs{Move: func(x, y int, _ input.Button, _ bool) {
		// the render origin always maps to the content origin
		if x != 0 || y != 0 {
			mu.Lock()
			outOfRange++
			mu.Unlock()
		}
	}})
	s.AddDrawable(DrawFunc(func(fb *render.FrameBuffer) { fb.FillRect(0, 0, 10, 10, green) }))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			w.Resize(600+i, 400+i%50)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			assert.NoError(t, s.Redraw())
			if i%10 == 0 {
				handle := s.AddDrawable(DrawFunc(func(*render.FrameBuffer) {}))
				s.RemoveDrawable(handle)
			}
		}
	}()
	wg.Wait()

	g := s.Geometry()
	w.Emit(platform.Event{Type: platform.EventMouseMove, X: g.RenderX, Y: g.RenderY})
	assert.Zero(t, outOfRange)

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	<-done
	assert.NoError(t, s.Redraw())
}
