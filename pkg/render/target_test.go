package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	cfg     DisplayConfig
	created int
	fail    error
}

func (d *fakeDevice) DisplayConfig() DisplayConfig { return d.cfg }

func (d *fakeDevice) NewSurface(w, h int) (Surface, error) {
	if d.fail != nil {
		return nil, d.fail
	}
	d.created++
	return NewSoftSurface(w, h, d), nil
}

var (
	red   = color.RGBA{0xFF, 0, 0, 0xFF}
	black = color.RGBA{0, 0, 0, 0xFF}
)

func newTestTarget(t *testing.T, dev *fakeDevice, w, h int) *Target {
	t.Helper()
	target, err := NewTarget(dev, w, h, TargetOptions{Background: black, MaxAttempts: 4})
	require.NoError(t, err)
	return target
}

func TestPaintRetriesWhileContentsLost(t *testing.T) {
	dev := &fakeDevice{cfg: DisplayConfig{Format: "rgba"}}
	target := newTestTarget(t, dev, 2, 2)

	calls := 0
	err := target.Paint(func(fb *FrameBuffer) {
		calls++
		if calls < 3 {
			dev.cfg.Generation++
		}
		fb.Clear(red)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, dev.created)
	assert.Equal(t, Valid, target.Surface().Validate(dev.cfg))
}

func TestPaintRecreatesIncompatibleSurface(t *testing.T) {
	dev := &fakeDevice{cfg: DisplayConfig{Format: "rgba"}}
	target := newTestTarget(t, dev, 2, 2)
	old := target.Surface()

	dev.cfg.Format = "bgra"
	calls := 0
	require.NoError(t, target.Paint(func(*FrameBuffer) { calls++ }))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, dev.created)
	assert.NotSame(t, old, target.Surface())
	assert.Equal(t, Incompatible, old.Validate(dev.cfg))
}

func TestPaintIsBounded(t *testing.T) {
	dev := &fakeDevice{cfg: DisplayConfig{Format: "rgba"}}
	target := newTestTarget(t, dev, 2, 2)

	calls := 0
	err := target.Paint(func(*FrameBuffer) {
		calls++
		dev.cfg.Generation++
	})
	assert.ErrorIs(t, err, ErrFrameDropped)
	assert.Equal(t, 4, calls)
}

func TestRecreateFailurePropagates(t *testing.T) {
	dev := &fakeDevice{cfg: DisplayConfig{Format: "rgba"}}
	target := newTestTarget(t, dev, 2, 2)
	dev.cfg.Format = "other"
	dev.fail = errors.New("out of video memory")

	err := target.Paint(func(*FrameBuffer) {})
	assert.ErrorIs(t, err, dev.fail)
}

func TestPresentScalesIntoRenderRect(t *testing.T) {
	dev := &fakeDevice{cfg: DisplayConfig{Format: "rgba"}}
	target := newTestTarget(t, dev, 2, 2)
	chain, err := NewSwapChain(2, dev, func() (int, int) { return 6, 2 }, nil)
	require.NoError(t, err)

	err = target.RenderFrame(chain, image.Rect(1, 0, 5, 2), func(fb *FrameBuffer) { fb.Clear(red) })
	require.NoError(t, err)
	assert.Equal(t, uint64(1), chain.Swaps())

	front := chain.Front()
	require.Equal(t, 6, front.W)
	for x := 0; x < 6; x++ {
		want := color.Color(black)
		if x >= 1 && x < 5 {
			want = red
		}
		assert.Equal(t, want, front.At(x, 1), "x=%d", x)
	}
}

type lossyChain struct {
	*SwapChain
	lose  int
	backs int
}

func (c *lossyChain) Back() (DrawSurface, error) {
	c.backs++
	return c.SwapChain.Back()
}

func (c *lossyChain) ContentsLost() bool {
	if c.lose > 0 {
		c.lose--
		return true
	}
	return c.SwapChain.ContentsLost()
}

func TestPresentRetriesOnlyPresentation(t *testing.T) {
	dev := &fakeDevice{cfg: DisplayConfig{Format: "rgba"}}
	target := newTestTarget(t, dev, 2, 2)
	sc, err := NewSwapChain(2, dev, func() (int, int) { return 2, 2 }, nil)
	require.NoError(t, err)
	chain := &lossyChain{SwapChain: sc, lose: 2}

	paints := 0
	err = target.RenderFrame(chain, image.Rect(0, 0, 2, 2), func(*FrameBuffer) { paints++ })
	require.NoError(t, err)
	assert.Equal(t, 1, paints)
	assert.Equal(t, 3, chain.backs)
	assert.Equal(t, uint64(1), sc.Swaps())
}

func TestPresentIsBounded(t *testing.T) {
	dev := &fakeDevice{cfg: DisplayConfig{Format: "rgba"}}
	target := newTestTarget(t, dev, 2, 2)
	sc, err := NewSwapChain(2, dev, func() (int, int) { return 2, 2 }, nil)
	require.NoError(t, err)
	chain := &lossyChain{SwapChain: sc, lose: 100}

	err = target.Present(chain, image.Rect(0, 0, 2, 2))
	assert.ErrorIs(t, err, ErrFrameDropped)
	assert.Equal(t, 4, chain.backs)
	assert.Zero(t, sc.Swaps())
}

func TestSwapChainFollowsCanvasSize(t *testing.T) {
	dev := &fakeDevice{}
	w, h := 4, 4
	var presented []*FrameBuffer
	chain, err := NewSwapChain(2, dev, func() (int, int) { return w, h }, func(fb *FrameBuffer) {
		presented = append(presented, fb)
	})
	require.NoError(t, err)

	ds, err := chain.Back()
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Buffer().W)
	assert.Nil(t, chain.Front(), "nothing shown yet")

	w, h = 8, 3
	ds, err = chain.Back()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 3), ds.Buffer().Bounds())
	require.NoError(t, chain.Show())
	require.Len(t, presented, 1)
	assert.Same(t, ds.Buffer(), presented[0])

	chain.Dispose()
	_, err = chain.Back()
	assert.ErrorIs(t, err, ErrDisposed)
	assert.ErrorIs(t, chain.Show(), ErrDisposed)
}

func TestSwapChainRejectsSingleBuffer(t *testing.T) {
	_, err := NewSwapChain(1, &fakeDevice{}, func() (int, int) { return 1, 1 }, nil)
	assert.Error(t, err)
}

func TestFilterText(t *testing.T) {
	var f Filter
	require.NoError(t, f.UnmarshalText([]byte("Catmull-Rom")))
	assert.Equal(t, CatmullRom, f)
	assert.Error(t, f.UnmarshalText([]byte("lanczos")))
	assert.Equal(t, "nearest", Nearest.String())
}

func TestFrameBufferDrawImage(t *testing.T) {
	fb := NewFrameBuffer(3, 2)
	fb.Set(2, 1, red)
	fb.Set(5, 5, red)
	assert.Equal(t, color.Color(red), fb.At(2, 1))
	assert.Equal(t, color.Color(color.RGBA{}), fb.At(-1, 0))
	assert.Equal(t, fb.Pixels, fb.RGBA().Pix)

	clone := fb.Clone()
	clone.Clear(black)
	assert.Equal(t, color.Color(red), fb.At(2, 1))
}
