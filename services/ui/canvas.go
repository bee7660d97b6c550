package ui

import (
	"image/color"
	"strings"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
	"tinygo.org/x/tinyfont/proggy"
)

// The three text sizes the screens use.
var (
	FontSmall  tinyfont.Fonter = &proggy.TinySZ8pt7b
	FontMedium tinyfont.Fonter = &freesans.Regular9pt7b
	FontLarge  tinyfont.Fonter = &freesans.Regular12pt7b
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// MeasureFunc returns the rendered width of a string. Tests substitute a
// fixed-width rule so wrap behavior is deterministic.
type MeasureFunc func(f tinyfont.Fonter, s string) int16

// Canvas wraps the display with text, shapes and word-wrap. Text y
// coordinates are baselines, as the font renderer counts them.
type Canvas struct {
	d       drivers.Displayer
	W, H    int16
	Measure MeasureFunc
}

func NewCanvas(d drivers.Displayer) *Canvas {
	w, h := d.Size()
	return &Canvas{d: d, W: w, H: h, Measure: fontWidth}
}

func fontWidth(f tinyfont.Fonter, s string) int16 {
	_, outbox := tinyfont.LineWidth(f, s)
	return int16(outbox)
}

func (c *Canvas) Clear() {
	if cb, ok := c.d.(interface{ ClearBuffer() }); ok {
		cb.ClearBuffer()
		return
	}
	off := color.RGBA{A: 255}
	for y := int16(0); y < c.H; y++ {
		for x := int16(0); x < c.W; x++ {
			c.d.SetPixel(x, y, off)
		}
	}
}

func (c *Canvas) Flush() error { return c.d.Display() }

func (c *Canvas) Text(f tinyfont.Fonter, x, y int16, s string) {
	tinyfont.WriteLine(c.d, f, x, y, s, white)
}

// TextCentered draws s horizontally centered at baseline y.
func (c *Canvas) TextCentered(f tinyfont.Fonter, y int16, s string) {
	x := (c.W - c.Measure(f, s)) / 2
	if x < 0 {
		x = 0
	}
	c.Text(f, x, y, s)
}

func (c *Canvas) LineHeight(f tinyfont.Fonter) int16 { return int16(f.GetYAdvance()) }

func (c *Canvas) Rect(x, y, w, h int16) {
	tinydraw.Rectangle(c.d, x, y, w, h, white)
}

func (c *Canvas) FillRect(x, y, w, h int16) {
	if w <= 0 || h <= 0 {
		return
	}
	tinydraw.FilledRectangle(c.d, x, y, w, h, white)
}

func (c *Canvas) VLine(x, y, h int16) {
	tinydraw.Line(c.d, x, y, x, y+h-1, white)
}

// Blit copies a full-screen 1-bit image onto the display. The layout is one
// bit per pixel, MSB first, rows of W/8 bytes.
func (c *Canvas) Blit(data []byte) {
	stride := int(c.W) / 8
	for y := int16(0); y < c.H; y++ {
		row := int(y) * stride
		if row+stride > len(data) {
			return
		}
		for x := int16(0); x < c.W; x++ {
			b := data[row+int(x)/8]
			if b&(0x80>>(uint(x)%8)) != 0 {
				c.d.SetPixel(x, y, white)
			}
		}
	}
}

// WrapParagraphs wraps text to the display width, keeping explicit newlines
// and blank lines. Words wider than the display stay on a line of their own.
func (c *Canvas) WrapParagraphs(f tinyfont.Fonter, text string) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		line := ""
		for _, word := range words {
			test := word
			if line != "" {
				test = line + " " + word
			}
			if c.Measure(f, test) <= c.W {
				line = test
			} else {
				lines = append(lines, line)
				line = word
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
		if para == "" {
			lines = append(lines, "")
		}
	}
	return lines
}

// WrapBlock wraps text into at most maxRows lines of at most maxWidth,
// breaking over-long words at glyph level and ellipsizing overflow.
func (c *Canvas) WrapBlock(f tinyfont.Fonter, text string, maxWidth int16, maxRows int) []string {
	var lines []string
	line := ""
	overflow := false

	words := strings.Fields(text)
	for wi, word := range words {
		if len(lines) >= maxRows {
			overflow = true
			break
		}
		// Break a word that cannot fit on any line by itself.
		for c.Measure(f, word) > maxWidth && len(lines) < maxRows {
			cut := len(word)
			for i := 1; i <= len(word); i++ {
				if c.Measure(f, word[:i]) > maxWidth {
					cut = i - 1
					break
				}
			}
			if cut < 1 {
				cut = 1
			}
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		test := word
		if line != "" {
			test = line + " " + word
		}
		if c.Measure(f, test) <= maxWidth {
			line = test
		} else {
			lines = append(lines, line)
			line = word
		}
		if len(lines) >= maxRows && wi < len(words)-1 {
			overflow = true
			break
		}
	}
	if line != "" {
		if len(lines) < maxRows {
			lines = append(lines, line)
		} else {
			overflow = true
		}
	}

	if overflow && len(lines) > 0 {
		last := lines[len(lines)-1]
		if c.Measure(f, last+"...") <= maxWidth {
			lines[len(lines)-1] = last + "..."
		} else if len(last) > 3 {
			lines[len(lines)-1] = last[:len(last)-3] + "..."
		}
	}
	return lines
}
