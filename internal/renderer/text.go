package renderer

import (
	"image/color"
	"strings"

	"github.com/thereceipt/print-agent/pkg/receiptformat"
)

const defaultTextSize = 8.0 // points

// textMetrics describes one line of text in the current style, in pixels
type textMetrics struct {
	lineHeight float64
	ascent     float64
	fauxBold   bool
}

// applyStyle selects the face and color for style.
func (c *canvas) applyStyle(style receiptformat.Style) textMetrics {
	size := style.Size
	if size == 0 {
		size = defaultTextSize
	}
	px := size * c.scale

	face, faux := c.faces.face(style.Bold, px)
	c.ctx.SetFontFace(face)
	c.ctx.SetColor(styleColor(style.Color))

	m := face.Metrics()
	ascent := float64(m.Ascent.Ceil())
	lineHeight := px * 1.2
	if h := float64(m.Height.Ceil()); h > lineHeight {
		lineHeight = h
	}

	return textMetrics{
		lineHeight: lineHeight,
		ascent:     ascent,
		fauxBold:   style.Bold && faux,
	}
}

func styleColor(name string) color.Color {
	switch name {
	case "grey", "gray":
		return grey
	default:
		return black
	}
}

func (c *canvas) renderText(cmd *receiptformat.Command) error {
	m := c.applyStyle(cmd.Style)
	defer c.ctx.SetColor(black)

	left := c.margin + cmd.Style.Indent*c.scale
	width := float64(c.width) - c.margin - left

	lines := c.wrap(cmd.Value, width)
	c.ensureHeight(float64(len(lines)) * m.lineHeight)

	for _, line := range lines {
		w, _ := c.ctx.MeasureString(line)

		var x float64
		switch cmd.Align {
		case "center":
			x = left + (width-w)/2
		case "right":
			x = left + width - w
		default:
			x = left
		}

		c.drawString(line, x, c.y+m.ascent, m)
		c.y += m.lineHeight
	}

	return nil
}

func (c *canvas) drawString(s string, x, baseline float64, m textMetrics) {
	c.ctx.DrawString(s, x, baseline)
	if m.fauxBold {
		c.ctx.DrawString(s, x+1, baseline)
	}
}

// wrap splits text on spaces to fit width. An empty string still takes one
// line.
func (c *canvas) wrap(text string, width float64) []string {
	if strings.TrimSpace(text) == "" {
		return []string{""}
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		wrapped := c.ctx.WordWrap(para, width)
		if len(wrapped) == 0 {
			wrapped = []string{""}
		}
		lines = append(lines, wrapped...)
	}
	return lines
}

func (c *canvas) renderFeed(cmd *receiptformat.Command) error {
	lines := cmd.Lines
	if lines == 0 {
		lines = 1
	}

	h := lines * c.line
	c.ensureHeight(h)
	c.y += h

	return nil
}
