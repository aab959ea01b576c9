package renderer

import (
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/skip2/go-qrcode"

	"github.com/thereceipt/print-agent/pkg/receiptformat"
)

// Code sizes, in points
const (
	defaultBarcodeHeight = 30
	maxQRSize            = 100
)

func (c *canvas) renderBarcode(cmd *receiptformat.Command) error {
	height := cmd.Height
	if height == 0 {
		height = defaultBarcodeHeight
	}

	var code barcode.Barcode
	var err error

	switch cmd.Format {
	case "CODE39":
		code, err = code39.Encode(cmd.Value, false, true)
	case "EAN13", "EAN8":
		code, err = ean.Encode(cmd.Value)
	default:
		code, err = code128.Encode(cmd.Value)
	}
	if err != nil {
		return err
	}

	// Whole pixels per module keep the bars crisp on the printer
	modules := code.Bounds().Dx()
	width := int(c.contentWidth())
	if modules > 0 && modules < width {
		width = (width / modules) * modules
	}
	code, err = barcode.Scale(code, width, int(float64(height)*c.scale))
	if err != nil {
		return err
	}

	h := float64(code.Bounds().Dy())
	c.ensureHeight(h)

	x := (c.width - code.Bounds().Dx()) / 2
	c.ctx.DrawImage(code, x, int(c.y))
	c.y += h

	return nil
}

func (c *canvas) renderQRCode(cmd *receiptformat.Command) error {
	level := qrcode.Medium
	switch cmd.ErrorCorrection {
	case "L":
		level = qrcode.Low
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	}

	qr, err := qrcode.New(cmd.Value, level)
	if err != nil {
		return err
	}

	size := int(maxQRSize * c.scale)
	if cw := int(c.contentWidth()); size > cw {
		size = cw
	}
	img := qr.Image(size)

	h := float64(img.Bounds().Dy())
	c.ensureHeight(h)

	x := (c.width - img.Bounds().Dx()) / 2
	c.ctx.DrawImage(img, x, int(c.y))
	c.y += h

	return nil
}
