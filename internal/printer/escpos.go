package printer

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// ESC/POS control bytes
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	LF  byte = 0x0A
)

// DefaultDots is the printable width of an 80mm head at 203 dpi
const DefaultDots = 576

// rasterBand is the most rows sent in one GS v 0 command. Many printers have
// small receive buffers.
const rasterBand = 256

// Encoder builds an ESC/POS byte stream
type Encoder struct {
	buffer bytes.Buffer
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Initialize resets the printer (ESC @).
func (e *Encoder) Initialize() {
	e.buffer.Write([]byte{ESC, '@'})
}

// PrintImage sends img as GS v 0 raster bands. Dark pixels print.
func (e *Encoder) PrintImage(img image.Image) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	bytesPerLine := (width + 7) / 8

	bitmap := imageToBitmap(img)

	for top := 0; top < height; top += rasterBand {
		rows := rasterBand
		if top+rows > height {
			rows = height - top
		}

		// GS v 0 m xL xH yL yH d1...dk
		e.buffer.Write([]byte{
			GS, 'v', '0', 0,
			byte(bytesPerLine & 0xFF), byte(bytesPerLine >> 8),
			byte(rows & 0xFF), byte(rows >> 8),
		})
		e.buffer.Write(bitmap[top*bytesPerLine : (top+rows)*bytesPerLine])
	}
}

// Feed advances the paper by lines (ESC d n).
func (e *Encoder) Feed(lines int) {
	if lines < 0 {
		lines = 0
	}
	if lines > 255 {
		lines = 255
	}
	e.buffer.Write([]byte{ESC, 'd', byte(lines)})
}

// Cut sends a full cut (GS V 0).
func (e *Encoder) Cut() {
	e.buffer.Write([]byte{GS, 'V', 0})
}

// Bytes returns the stream built so far.
func (e *Encoder) Bytes() []byte {
	return e.buffer.Bytes()
}

// imageToBitmap packs img into rows of 1-bit pixels, MSB first. Transparent
// pixels are white.
func imageToBitmap(img image.Image) []byte {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	bytesPerLine := (width + 7) / 8
	bitmap := make([]byte, bytesPerLine*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			white := 0xffff - a

			gray := (r + g + b + 3*white) / 3
			if gray < 0x8000 {
				bitmap[y*bytesPerLine+x/8] |= 1 << (7 - x%8)
			}
		}
	}

	return bitmap
}

// EncodeDocument fits img to dots pixels wide and wraps it with init, feed
// and cut.
func EncodeDocument(img image.Image, dots int) []byte {
	if dots <= 0 {
		dots = DefaultDots
	}
	if img.Bounds().Dx() > dots {
		img = imaging.Resize(img, dots, 0, imaging.Lanczos)
	}

	encoder := NewEncoder()
	encoder.Initialize()
	encoder.PrintImage(img)
	encoder.Feed(3)
	encoder.Cut()
	return encoder.Bytes()
}
