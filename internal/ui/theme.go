package ui

import "image/color"

type Theme struct {
	Background color.RGBA
	Grid       color.RGBA
	Border     color.RGBA
	Box        color.RGBA
	BoxActive  color.RGBA
	Cursor     color.RGBA
	StatusBar  color.RGBA
	StatusText color.RGBA
	Accent     color.RGBA
	GridStep   int
	StatusH    int
	CursorArm  int
}

func DefaultTheme() Theme {
	return Theme{
		Background: color.RGBA{0xF3, 0xF5, 0xF8, 0xFF},
		Grid:       color.RGBA{0xE2, 0xE7, 0xEF, 0xFF},
		Border:     color.RGBA{0xB2, 0xBF, 0xD0, 0xFF},
		Box:        color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		BoxActive:  color.RGBA{0xE6, 0x7E, 0x22, 0xFF},
		Cursor:     color.RGBA{0xA3, 0x15, 0x15, 0xFF},
		StatusBar:  color.RGBA{0xEA, 0xEF, 0xF6, 0xFF},
		StatusText: color.RGBA{0x20, 0x20, 0x20, 0xFF},
		Accent:     color.RGBA{0x2B, 0x57, 0x9A, 0xFF},
		GridStep:   32,
		StatusH:    20,
		CursorArm:  6,
	}
}
