package renderer

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	"github.com/thereceipt/print-agent/pkg/receiptformat"
)

func (c *canvas) renderImage(cmd *receiptformat.Command) error {
	img, err := imaging.Open(cmd.Path)
	if err != nil {
		return err
	}

	// Shrink to fit between the margins, never enlarge
	maxWidth := int(c.contentWidth())
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	if cmd.Threshold > 0 {
		img = convertToBlackWhite(img, uint8(cmd.Threshold))
	}

	h := float64(img.Bounds().Dy())
	c.ensureHeight(h)

	x := (c.width - img.Bounds().Dx()) / 2
	c.ctx.DrawImage(img, x, int(c.y))
	c.y += h

	return nil
}

// convertToBlackWhite thresholds img to pure black and white. Transparent
// pixels count as white.
func convertToBlackWhite(img image.Image, threshold uint8) *image.Gray {
	bounds := img.Bounds()
	bw := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()

			// composite over white before taking luminance
			white := 0xffff - a
			lum := (299*(r+white) + 587*(g+white) + 114*(b+white)) / 1000
			gray := uint8(lum >> 8)

			v := uint8(255)
			if gray < threshold {
				v = 0
			}
			bw.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: v})
		}
	}

	return bw
}
