package render

import (
	"errors"
	"fmt"
	"sync"
)

var ErrDisposed = errors.New("render: surface disposed")

// Validity is the outcome of probing a surface against the current display
// configuration.
type Validity int

const (
	// Valid means the surface and its contents are usable.
	Valid Validity = iota
	// Restored means the surface is usable but its previous contents are
	// undefined and must be repainted.
	Restored
	// Incompatible means the surface cannot be used with the current display
	// and has to be recreated.
	Incompatible
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Restored:
		return "restored"
	case Incompatible:
		return "incompatible"
	}
	return fmt.Sprintf("Validity(%d)", int(v))
}

// DisplayConfig describes the display a surface was created for. Generation
// moves whenever device memory may have been lost (mode switch, monitor
// change); a Format change makes existing surfaces incompatible.
type DisplayConfig struct {
	Generation uint64
	Format     string
	Scale      float64
}

type Display interface {
	DisplayConfig() DisplayConfig
}

// Surface is an offscreen drawing surface.
type Surface interface {
	Buffer() *FrameBuffer
	Validate(cfg DisplayConfig) Validity
	// ContentsLost reports whether the contents were lost since the last
	// Validate.
	ContentsLost() bool
	Dispose()
}

// Device creates surfaces for a display.
type Device interface {
	Display
	NewSurface(w, h int) (Surface, error)
}

// SoftSurface is a Surface backed by a FrameBuffer. Loss is tracked through
// the display generation, so backends signal device loss by bumping it.
type SoftSurface struct {
	fb      *FrameBuffer
	display Display

	mu       sync.Mutex
	cfg      DisplayConfig
	disposed bool
}

func NewSoftSurface(w, h int, display Display) *SoftSurface {
	return &SoftSurface{fb: NewFrameBuffer(w, h), display: display, cfg: display.DisplayConfig()}
}

func (s *SoftSurface) Buffer() *FrameBuffer { return s.fb }

func (s *SoftSurface) Validate(cfg DisplayConfig) Validity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || cfg.Format != s.cfg.Format {
		return Incompatible
	}
	if cfg.Generation != s.cfg.Generation {
		s.cfg = cfg
		return Restored
	}
	return Valid
}

func (s *SoftSurface) ContentsLost() bool {
	cfg := s.display.DisplayConfig()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed || cfg.Generation != s.cfg.Generation || cfg.Format != s.cfg.Format
}

func (s *SoftSurface) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
}

// DrawSurface is a presentation buffer borrowed for one blit.
type DrawSurface interface {
	Buffer() *FrameBuffer
	Dispose()
}

// BufferChain is a flippable set of presentation buffers.
type BufferChain interface {
	Back() (DrawSurface, error)
	// ContentsLost reports whether the back buffer was lost since Back.
	ContentsLost() bool
	Show() error
	Dispose()
}

// SwapChain is a software BufferChain. Buffers track the canvas size reported
// by size; present is called with the new front buffer on every Show.
type SwapChain struct {
	display Display
	size    func() (int, int)
	present func(front *FrameBuffer)

	mu       sync.Mutex
	buffers  []*FrameBuffer
	cfg      DisplayConfig
	swaps    uint64
	disposed bool
}

func NewSwapChain(count int, display Display, size func() (int, int), present func(front *FrameBuffer)) (*SwapChain, error) {
	if count < 2 {
		return nil, fmt.Errorf("swap chain needs at least 2 buffers, got %d", count)
	}
	w, h := size()
	c := &SwapChain{
		display: display,
		size:    size,
		present: present,
		buffers: make([]*FrameBuffer, count),
		cfg:     display.DisplayConfig(),
	}
	for i := range c.buffers {
		c.buffers[i] = NewFrameBuffer(w, h)
	}
	return c, nil
}

type backBuffer struct {
	fb *FrameBuffer
}

func (b backBuffer) Buffer() *FrameBuffer { return b.fb }
func (b backBuffer) Dispose()             {}

func (c *SwapChain) Back() (DrawSurface, error) {
	w, h := c.size()
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return nil, ErrDisposed
	}
	back := c.buffers[len(c.buffers)-1]
	if back.W != w || back.H != h {
		back = NewFrameBuffer(w, h)
		c.buffers[len(c.buffers)-1] = back
	}
	c.cfg = c.display.DisplayConfig()
	return backBuffer{fb: back}, nil
}

func (c *SwapChain) ContentsLost() bool {
	cfg := c.display.DisplayConfig()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed || cfg.Generation != c.cfg.Generation
}

// Show flips the back buffer to the front.
func (c *SwapChain) Show() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	last := len(c.buffers) - 1
	front := c.buffers[last]
	copy(c.buffers[1:], c.buffers[:last])
	c.buffers[0] = front
	c.swaps++
	c.mu.Unlock()

	if c.present != nil {
		c.present(front)
	}
	return nil
}

func (c *SwapChain) Swaps() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.swaps
}

// Front returns a copy of the buffer currently on screen, or nil before the
// first Show.
func (c *SwapChain) Front() *FrameBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.swaps == 0 {
		return nil
	}
	return c.buffers[0].Clone()
}

func (c *SwapChain) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()
}
