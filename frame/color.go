package frame

import (
	"image/color"
	"math"
)

// Color is a linear RGBA color with components in [0, 1].
type Color [4]float32

// DefaultClearColor is the dark blue every frame is cleared to.
var DefaultClearColor = Color{0.0, 0.2, 0.4, 1.0}

// RGBA converts c to 8 bits per channel, the way a UNORM render target
// stores it.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{
		R: unorm8(c[0]),
		G: unorm8(c[1]),
		B: unorm8(c[2]),
		A: unorm8(c[3]),
	}
}

func unorm8(v float32) uint8 {
	if v <= 0 || math.IsNaN(float64(v)) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
