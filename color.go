package guraffic

import (
	"image/color"
	"math"
)

// A Color represents a color, containing R, G, B, and A components, each expected to range from 0 to 1.
type Color struct {
	R, G, B, A float32
}

// NewColor returns a new Color, with the provided R, G, B, and A components expected to range from 0 to 1.
func NewColor(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// White returns opaque white.
func White() Color {
	return Color{1, 1, 1, 1}
}

// Gray returns an opaque gray of the provided brightness.
func Gray(v float32) Color {
	return Color{v, v, v, 1}
}

// Mul multiplies two colors component-wise.
func (c Color) Mul(other Color) Color {
	return Color{c.R * other.R, c.G * other.G, c.B * other.B, c.A * other.A}
}

// Clamped returns the color with each component clamped to the 0 - 1 range.
func (c Color) Clamped() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

// RGBA64 returns the components as float64s.
func (c Color) RGBA64() (float64, float64, float64, float64) {
	return float64(c.R), float64(c.G), float64(c.B), float64(c.A)
}

// ToNRGBA converts the color to an 8-bit image/color value.
func (c Color) ToNRGBA() color.NRGBA {
	cc := c.Clamped()
	return color.NRGBA{
		R: uint8(math.Round(float64(cc.R) * 255)),
		G: uint8(math.Round(float64(cc.G) * 255)),
		B: uint8(math.Round(float64(cc.B) * 255)),
		A: uint8(math.Round(float64(cc.A) * 255)),
	}
}

// ToSRGB converts a linear color to sRGB.
func (c Color) ToSRGB() Color {
	return Color{toSRGB(c.R), toSRGB(c.G), toSRGB(c.B), c.A}
}

func toSRGB(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return float32(1.055*math.Pow(float64(v), 1/2.4) - 0.055)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	} else if v > 1 {
		return 1
	}
	return v
}
