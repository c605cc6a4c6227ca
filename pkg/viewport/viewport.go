// Package viewport maps a fixed logical content area onto a resizable canvas.
package viewport

import (
	"fmt"
	"strings"
	"sync"
)

// Behavior selects how the content reacts when the canvas changes size.
type Behavior int

const (
	// Stretch fills the whole canvas, ignoring the aspect ratio.
	Stretch Behavior = iota
	// KeepAspectRatio fills as much of the canvas as possible and centres the
	// content, leaving bars on the long axis.
	KeepAspectRatio
	// KeepSize draws the content at its initial size, centred. When the
	// canvas is smaller than the content on either axis it falls back to the
	// KeepAspectRatio fit rather than drawing at full size with a negative
	// offset, so the render area never leaves the canvas.
	KeepSize
	// DoNothing records the new canvas size and leaves the render geometry and
	// input mapping as they were.
	DoNothing
)

var behaviorNames = [...]string{"stretch", "keep_aspect_ratio", "keep_size", "do_nothing"}

func (b Behavior) String() string {
	if b < 0 || int(b) >= len(behaviorNames) {
		return fmt.Sprintf("Behavior(%d)", int(b))
	}
	return behaviorNames[b]
}

func (b Behavior) MarshalText() ([]byte, error) {
	if b < 0 || int(b) >= len(behaviorNames) {
		return nil, fmt.Errorf("invalid resize behavior %d", int(b))
	}
	return []byte(behaviorNames[b]), nil
}

func (b *Behavior) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	s = strings.ReplaceAll(s, "-", "_")
	for i, name := range behaviorNames {
		if s == name {
			*b = Behavior(i)
			return nil
		}
	}
	return fmt.Errorf("unknown resize behavior %q", string(text))
}

// Geometry is a snapshot of the viewport state.
type Geometry struct {
	InitialW, InitialH int
	CanvasW, CanvasH   int
	RenderX, RenderY   int
	RenderW, RenderH   int
	ScaleX, ScaleY     float64
	Behavior           Behavior
}

// Viewport is the single source of truth for where the content is drawn and
// how window coordinates map back into content coordinates. It is safe for
// concurrent use.
type Viewport struct {
	mu sync.RWMutex
	g  Geometry
}

// New returns a viewport whose canvas matches the content size exactly.
func New(initialW, initialH int, b Behavior) *Viewport {
	if initialW <= 0 {
		initialW = 1
	}
	if initialH <= 0 {
		initialH = 1
	}
	return &Viewport{g: Geometry{
		InitialW: initialW,
		InitialH: initialH,
		CanvasW:  initialW,
		CanvasH:  initialH,
		RenderW:  initialW,
		RenderH:  initialH,
		ScaleX:   1,
		ScaleY:   1,
		Behavior: b,
	}}
}

func (v *Viewport) Geometry() Geometry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.g
}

func (v *Viewport) Behavior() Behavior {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.g.Behavior
}

// SetBehavior switches the resize policy and recomputes against the current
// canvas.
func (v *Viewport) SetBehavior(b Behavior) Geometry {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.g.Behavior = b
	v.g = Compute(v.g, v.g.CanvasW, v.g.CanvasH)
	return v.g
}

// Resize records a new canvas size and recomputes the render geometry.
func (v *Viewport) Resize(canvasW, canvasH int) Geometry {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.g = Compute(v.g, canvasW, canvasH)
	return v.g
}

// ToContent converts a window-space point into content space using the
// current mapping.
func (v *Viewport) ToContent(x, y int) (int, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.g.ToContent(x, y)
}

// ToContent applies contentX = (x - renderX) * initialW / renderW, which is the
// exact form of x/scaleX - renderX/scaleX. Division truncates toward zero.
func (g Geometry) ToContent(x, y int) (int, int) {
	return mapAxis(x, g.RenderX, g.InitialW, g.RenderW), mapAxis(y, g.RenderY, g.InitialH, g.RenderH)
}

func mapAxis(raw, offset, initial, render int) int {
	if render <= 0 {
		return 0
	}
	return (raw - offset) * initial / render
}

// Compute returns g updated for a canvas of canvasW by canvasH. It is a pure
// function of the canvas size, the initial size and the behaviour, except
// under DoNothing where only the canvas size changes.
func Compute(g Geometry, canvasW, canvasH int) Geometry {
	if canvasW < 0 {
		canvasW = 0
	}
	if canvasH < 0 {
		canvasH = 0
	}
	g.CanvasW, g.CanvasH = canvasW, canvasH

	switch g.Behavior {
	case Stretch:
		g.RenderW, g.RenderH = canvasW, canvasH
	case KeepAspectRatio:
		g.RenderW, g.RenderH = fit(g.InitialW, g.InitialH, canvasW, canvasH)
	case KeepSize:
		if canvasW >= g.InitialW && canvasH >= g.InitialH {
			g.RenderW, g.RenderH = g.InitialW, g.InitialH
		} else {
			g.RenderW, g.RenderH = fit(g.InitialW, g.InitialH, canvasW, canvasH)
		}
	default:
		return g
	}

	g.RenderX = (canvasW - g.RenderW) / 2
	g.RenderY = (canvasH - g.RenderH) / 2
	g.ScaleX = float64(g.RenderW) / float64(g.InitialW)
	g.ScaleY = float64(g.RenderH) / float64(g.InitialH)
	return g
}

// fit scales w by h uniformly by the smaller of the two canvas ratios.
// canvasW/w < canvasH/h is compared as canvasW*h < canvasH*w to stay exact.
func fit(w, h, canvasW, canvasH int) (int, int) {
	if canvasW*h < canvasH*w {
		return canvasW, h * canvasW / w
	}
	return w * canvasH / h, canvasH
}
