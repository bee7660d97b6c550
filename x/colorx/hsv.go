package colorx

import (
	"image/color"

	"badge-go/x/mathx"
)

// HSV converts hue [0..360), saturation [0..1] and value [0..1] to RGBA.
// Alpha is always 255.
func HSV(h, s, v float32) color.RGBA {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	c := v * s
	x := c * (1 - absf(modf(h/60, 2)-1))
	m := v - c

	var r, g, b float32
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
		A: 255,
	}
}

// Scale multiplies each channel by k in [0..1]. Used for fading tails.
func Scale(c color.RGBA, k float32) color.RGBA {
	t := uint16(mathx.Clamp(k, 0, 1) * 65535)
	return color.RGBA{
		R: uint8(mathx.LerpU16(0, uint16(c.R), t)),
		G: uint8(mathx.LerpU16(0, uint16(c.G), t)),
		B: uint8(mathx.LerpU16(0, uint16(c.B), t)),
		A: c.A,
	}
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// modf is a float32 math.Mod for small non-negative operands.
func modf(x, y float32) float32 {
	for x >= y {
		x -= y
	}
	return x
}
