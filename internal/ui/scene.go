package ui

import (
	"image"

	"screenkit/pkg/render"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Layout splits the content area into the play field and the status bar.
type Layout struct {
	W       int
	H       int
	PlayH   int
	StatusY int
	StatusH int
}

func ComputeLayout(w, h int, theme Theme) Layout {
	statusH := theme.StatusH
	if statusH > h {
		statusH = h
	}
	if statusH < 0 {
		statusH = 0
	}
	return Layout{
		W:       w,
		H:       h,
		PlayH:   h - statusH,
		StatusY: h - statusH,
		StatusH: statusH,
	}
}

// Scene is the demo state, all in content coordinates.
type Scene struct {
	BoxX, BoxY   int
	BoxSize      int
	CursorX      int
	CursorY      int
	CursorInside bool
	Dragging     bool
	Status       string
}

func (s Scene) BoxContains(x, y int) bool {
	return x >= s.BoxX && y >= s.BoxY && x < s.BoxX+s.BoxSize && y < s.BoxY+s.BoxSize
}

const (
	minBox = 8
	maxBox = 256
)

// Clamp keeps the box inside the play field.
func (s *Scene) Clamp(l Layout) {
	if s.BoxSize < minBox {
		s.BoxSize = minBox
	}
	if s.BoxSize > maxBox {
		s.BoxSize = maxBox
	}
	if s.BoxX > l.W-s.BoxSize {
		s.BoxX = l.W - s.BoxSize
	}
	if s.BoxY > l.PlayH-s.BoxSize {
		s.BoxY = l.PlayH - s.BoxSize
	}
	if s.BoxX < 0 {
		s.BoxX = 0
	}
	if s.BoxY < 0 {
		s.BoxY = 0
	}
}

func DrawScene(fb *render.FrameBuffer, scene Scene, theme Theme) Layout {
	layout := ComputeLayout(fb.W, fb.H, theme)

	fb.Clear(theme.Background)

	// Grid
	if step := theme.GridStep; step > 0 {
		for x := step; x < layout.W; x += step {
			fb.FillRect(x, 0, 1, layout.PlayH, theme.Grid)
		}
		for y := step; y < layout.PlayH; y += step {
			fb.FillRect(0, y, layout.W, 1, theme.Grid)
		}
	}
	fb.StrokeRect(0, 0, layout.W, layout.PlayH, 1, theme.Border)

	boxColor := theme.Box
	if scene.Dragging {
		boxColor = theme.BoxActive
	}
	fb.FillRect(scene.BoxX, scene.BoxY, scene.BoxSize, scene.BoxSize, boxColor)
	fb.StrokeRect(scene.BoxX, scene.BoxY, scene.BoxSize, scene.BoxSize, 1, theme.Border)

	if scene.CursorInside {
		arm := theme.CursorArm
		fb.FillRect(scene.CursorX-arm, scene.CursorY, arm*2+1, 1, theme.Cursor)
		fb.FillRect(scene.CursorX, scene.CursorY-arm, 1, arm*2+1, theme.Cursor)
	}

	fb.FillRect(0, layout.StatusY, layout.W, layout.StatusH, theme.StatusBar)
	fb.FillRect(0, layout.StatusY, layout.W, 1, theme.Accent)
	drawText(fb, 6, layout.StatusY+(layout.StatusH+basicfont.Face7x13.Ascent)/2, scene.Status, theme)
	return layout
}

func drawText(fb *render.FrameBuffer, x, baseline int, s string, theme Theme) {
	if s == "" {
		return
	}
	d := font.Drawer{
		Dst:  fb.RGBA(),
		Src:  image.NewUniform(theme.StatusText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}
