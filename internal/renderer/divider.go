package renderer

import (
	"github.com/thereceipt/print-agent/pkg/receiptformat"
)

// Divider geometry, in points
const (
	dashLength = 2.0
	dashGap    = 2.0
	dotSpacing = 3.0
	ruleWidth  = 1.0
)

// renderDivider draws a rule across the content width with half a line of
// space above and below.
func (c *canvas) renderDivider(cmd *receiptformat.Command) error {
	pattern := cmd.Pattern
	if pattern == "" {
		pattern = "solid"
	}

	c.ensureHeight(c.line)
	c.y += c.line / 2

	x1 := c.margin
	x2 := float64(c.width) - c.margin
	y := c.y
	lw := ruleWidth * c.scale

	c.ctx.SetColor(black)
	c.ctx.SetLineWidth(lw)

	switch pattern {
	case "solid":
		c.ctx.DrawLine(x1, y, x2, y)
		c.ctx.Stroke()

	case "double":
		c.ctx.DrawLine(x1, y-lw, x2, y-lw)
		c.ctx.Stroke()
		c.ctx.DrawLine(x1, y+lw, x2, y+lw)
		c.ctx.Stroke()

	case "dashed":
		dash := dashLength * c.scale
		gap := dashGap * c.scale
		for x := x1; x < x2; x += dash + gap {
			end := x + dash
			if end > x2 {
				end = x2
			}
			c.ctx.DrawLine(x, y, end, y)
			c.ctx.Stroke()
		}

	case "dotted":
		step := dotSpacing * c.scale
		for x := x1; x < x2; x += step {
			c.ctx.DrawCircle(x, y, lw/2)
			c.ctx.Fill()
		}
	}

	c.y += c.line / 2

	return nil
}
