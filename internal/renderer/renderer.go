// Package renderer rasterizes receipt display lists
package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/thereceipt/print-agent/pkg/receiptformat"
)

var (
	black = color.Black
	grey  = color.Gray{Y: 0x66}
)

// Renderer converts display lists to images. It keeps parsed fonts across
// renders and can serve concurrent callers.
type Renderer struct {
	fonts *fontLoader
}

// New creates a renderer that loads faces from fonts, falling back to system
// fonts for any path left empty.
func New(fonts FontSet) *Renderer {
	return &Renderer{fonts: newFontLoader(fonts)}
}

// canvas is the per-render drawing state
type canvas struct {
	ctx    *gg.Context
	width  int // paper width in pixels
	height int // current canvas height
	y      float64
	scale  float64 // pixels per point
	margin float64 // pixels
	line   float64 // pixels
	faces  *faceCache
}

// Render draws a complete receipt and returns the image cropped to its
// content.
func (r *Renderer) Render(receipt *receiptformat.Receipt) (image.Image, error) {
	if err := receiptformat.Validate(receipt); err != nil {
		return nil, err
	}

	c := r.newCanvas(receipt)
	c.y = c.margin
	for i := range receipt.Commands {
		if err := c.renderCommand(&receipt.Commands[i]); err != nil {
			return nil, fmt.Errorf("failed to render command %d (%s): %w", i, receipt.Commands[i].Type, err)
		}
	}
	c.y += c.margin

	return c.cropToContent(), nil
}

func (r *Renderer) newCanvas(receipt *receiptformat.Receipt) *canvas {
	width := paperWidthToPixels(receipt.PaperWidth)
	points, _ := receiptformat.PaperPoints(receipt.PaperWidth)
	scale := float64(width) / points

	lineHeight := receipt.LineHeight
	if lineHeight == 0 {
		lineHeight = 10
	}

	// Start with a reasonable height, grown as needed
	initialHeight := 1000

	ctx := gg.NewContext(width, initialHeight)
	ctx.SetColor(color.White)
	ctx.Clear()
	ctx.SetColor(black)

	return &canvas{
		ctx:    ctx,
		width:  width,
		height: initialHeight,
		scale:  scale,
		margin: receipt.Margin * scale,
		line:   lineHeight * scale,
		faces:  newFaceCache(r.fonts),
	}
}

func (c *canvas) renderCommand(cmd *receiptformat.Command) error {
	switch cmd.Type {
	case receiptformat.TypeText:
		return c.renderText(cmd)
	case receiptformat.TypeFeed:
		return c.renderFeed(cmd)
	case receiptformat.TypeDivider:
		return c.renderDivider(cmd)
	case receiptformat.TypeItem:
		return c.renderItem(cmd)
	case receiptformat.TypeImage:
		return c.renderImage(cmd)
	case receiptformat.TypeBarcode:
		return c.renderBarcode(cmd)
	case receiptformat.TypeQRCode:
		return c.renderQRCode(cmd)
	default:
		return fmt.Errorf("unsupported command type: %s", cmd.Type)
	}
}

// contentWidth is the drawable width between the side margins, in pixels
func (c *canvas) contentWidth() float64 {
	return float64(c.width) - 2*c.margin
}

func (c *canvas) cropToContent() image.Image {
	finalHeight := int(c.y + 0.5)
	if finalHeight > c.height {
		finalHeight = c.height
	}
	if finalHeight < 1 {
		finalHeight = 1
	}

	img := c.ctx.Image()
	return img.(interface {
		SubImage(r image.Rectangle) image.Image
	}).SubImage(image.Rect(0, 0, c.width, finalHeight))
}

func (c *canvas) ensureHeight(needed float64) {
	if int(c.y+needed)+1 <= c.height {
		return
	}

	newHeight := c.height * 2
	if newHeight < int(c.y+needed)+1 {
		newHeight = int(c.y+needed) + 1000
	}

	grown := gg.NewContext(c.width, newHeight)
	grown.SetColor(color.White)
	grown.Clear()
	grown.DrawImage(c.ctx.Image(), 0, 0)
	grown.SetColor(black)

	c.ctx = grown
	c.height = newHeight
}

func paperWidthToPixels(width string) int {
	switch width {
	case "58mm":
		return 384
	case "112mm":
		return 832
	default:
		return 576 // 80mm
	}
}
