package main

import (
	"image"
	"image/color"
	"image/draw"
)

// Display geometry the assets are compiled for.
const (
	displayW = 128
	displayH = 64
)

var monoPalette = color.Palette{color.Black, color.White}

// scaleNearest resizes src to w x h with nearest-neighbor sampling. The
// sources are tiny and compiled once on the host, so no resampling library
// is worth the dependency.
func scaleNearest(src image.Image, w, h int) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

// ditherMono converts src to 1-bit with Floyd-Steinberg error diffusion.
func ditherMono(src image.Image) *image.Paletted {
	dst := image.NewPaletted(src.Bounds(), monoPalette)
	draw.FloydSteinberg.Draw(dst, src.Bounds(), src, src.Bounds().Min)
	return dst
}

// thresholdMono converts src to 1-bit without dithering; animation frames
// shimmer badly when each frame is dithered independently.
func thresholdMono(src image.Image) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(b, monoPalette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if gray := color.GrayModel.Convert(src.At(x, y)).(color.Gray); gray.Y >= 128 {
				dst.SetColorIndex(x, y, 1)
			}
		}
	}
	return dst
}

// packHLSB packs a 1-bit image into the display's row-major bitplane, eight
// horizontal pixels per byte, most significant bit leftmost.
func packHLSB(img *image.Paletted) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h/8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.ColorIndexAt(b.Min.X+x, b.Min.Y+y) != 0 {
				out[(y*w+x)/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return out
}
