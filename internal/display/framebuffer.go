package display

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Default panel geometry of a KS0108-class graphics LCD.
const (
	DefaultWidth  = 128
	DefaultHeight = 64
)

// Character cell height in pixels; one text row per 8-pixel page.
const rowHeight = 8

var (
	colorOn  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorOff = color.RGBA{A: 0xff}
)

var _ drivers.Displayer = (*Framebuffer)(nil)

// Framebuffer is a monochrome pixel buffer laid out in 8-pixel pages, like
// the panel it mirrors. Drawing happens on a back buffer owned by the loop
// goroutine; Flush publishes it for concurrent readers such as the HTTP
// server.
type Framebuffer struct {
	width, height int16
	back          []byte

	font      tinyfont.Fonter
	cellWidth int16
	baseline  int16

	mu    sync.Mutex
	front []byte
}

// NewFramebuffer creates a blank buffer of the given size.
// height is rounded up to a whole number of pages.
func NewFramebuffer(width, height int16) *Framebuffer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	pages := (int(height) + 7) / 8
	fb := &Framebuffer{
		width:  width,
		height: int16(pages * 8),
		back:   make([]byte, int(width)*pages),
		front:  make([]byte, int(width)*pages),
		font:   &tinyfont.TomThumb,
	}
	_, outbox := tinyfont.LineWidth(fb.font, "0")
	fb.cellWidth = int16(outbox)
	if fb.cellWidth <= 0 {
		fb.cellWidth = 4
	}
	fb.baseline = rowHeight - 2
	return fb
}

// Size implements drivers.Displayer.
func (f *Framebuffer) Size() (x, y int16) {
	return f.width, f.height
}

// SetPixel implements drivers.Displayer. Any non-black colour lights the pixel.
func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	idx := int(y/8)*int(f.width) + int(x)
	bit := byte(1) << uint(y%8)
	if c.R|c.G|c.B != 0 {
		f.back[idx] |= bit
	} else {
		f.back[idx] &^= bit
	}
}

// Pixel reports whether a pixel is lit in the back buffer.
func (f *Framebuffer) Pixel(x, y int16) bool {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return false
	}
	return f.back[int(y/8)*int(f.width)+int(x)]&(1<<uint(y%8)) != 0
}

// Display implements drivers.Displayer by publishing the back buffer.
func (f *Framebuffer) Display() error {
	f.mu.Lock()
	copy(f.front, f.back)
	f.mu.Unlock()
	return nil
}

// Columns returns how many text cells fit on one row.
func (f *Framebuffer) Columns() int {
	return int(f.width / f.cellWidth)
}

// Rows returns how many text rows fit on the panel.
func (f *Framebuffer) Rows() int {
	return int(f.height / rowHeight)
}

// Clear blanks the back buffer.
func (f *Framebuffer) Clear() error {
	for i := range f.back {
		f.back[i] = 0
	}
	return nil
}

// WriteText draws text at a character cell, erasing the cells it covers.
func (f *Framebuffer) WriteText(col, row int, text string) error {
	if col < 0 || row < 0 || row >= f.Rows() || col >= f.Columns() {
		return nil
	}
	if room := f.Columns() - col; len(text) > room {
		text = text[:room]
	}
	x := int16(col) * f.cellWidth
	y := int16(row) * rowHeight
	f.fill(x, y, int16(len(text))*f.cellWidth, rowHeight, colorOff)
	tinyfont.WriteLine(f, f.font, x, y+f.baseline, text, colorOn)
	return nil
}

// WriteDecimal draws a zero-padded number at a character cell.
func (f *Framebuffer) WriteDecimal(col, row int, value uint32, digits int) error {
	return f.WriteText(col, row, FormatDecimal(value, digits))
}

// Circle draws a circle outline with the midpoint algorithm.
func (f *Framebuffer) Circle(x0, y0, r int16) error {
	if r < 0 {
		return nil
	}
	x, y := r, int16(0)
	e := 1 - r
	for x >= y {
		f.SetPixel(x0+x, y0+y, colorOn)
		f.SetPixel(x0+y, y0+x, colorOn)
		f.SetPixel(x0-y, y0+x, colorOn)
		f.SetPixel(x0-x, y0+y, colorOn)
		f.SetPixel(x0-x, y0-y, colorOn)
		f.SetPixel(x0-y, y0-x, colorOn)
		f.SetPixel(x0+y, y0-x, colorOn)
		f.SetPixel(x0+x, y0-y, colorOn)
		y++
		if e < 0 {
			e += 2*y + 1
		} else {
			x--
			e += 2*(y-x) + 1
		}
	}
	return nil
}

// Flush publishes the back buffer.
func (f *Framebuffer) Flush() error {
	return f.Display()
}

func (f *Framebuffer) fill(x, y, w, h int16, c color.RGBA) {
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			f.SetPixel(px, py, c)
		}
	}
}

// Image returns a copy of the last flushed frame.
func (f *Framebuffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, int(f.width), int(f.height)))
	f.mu.Lock()
	defer f.mu.Unlock()
	for y := 0; y < int(f.height); y++ {
		for x := 0; x < int(f.width); x++ {
			if f.front[(y/8)*int(f.width)+x]&(1<<uint(y%8)) != 0 {
				img.Pix[y*img.Stride+x] = 0xff
			}
		}
	}
	return img
}

// WritePNG encodes the last flushed frame as PNG.
func (f *Framebuffer) WritePNG(w io.Writer) error {
	return png.Encode(w, f.Image())
}
