package renderer

import (
	"strings"

	"github.com/thereceipt/print-agent/pkg/receiptformat"
)

// columnGap separates the left and right sides of an item row, in points
const columnGap = 4.0

// renderItem draws the left side at the margin plus indent and the right side
// flush with the right margin, both starting on the same baseline. The left
// side wraps inside the space the right side leaves.
func (c *canvas) renderItem(cmd *receiptformat.Command) error {
	left := joinSide(cmd.LeftSide)
	right := joinSide(cmd.RightSide)

	leftStyle := cmd.LeftSide[0].Style
	rightStyle := cmd.RightSide[0].Style

	rm := c.applyStyle(rightStyle)
	rightWidth, _ := c.ctx.MeasureString(right)
	rightX := float64(c.width) - c.margin - rightWidth

	lm := c.applyStyle(leftStyle)
	leftX := c.margin + leftStyle.Indent*c.scale
	available := rightX - columnGap*c.scale - leftX
	if available < c.contentWidth()/4 {
		available = c.contentWidth() / 4
	}
	lines := c.wrap(left, available)

	rowHeight := float64(len(lines)) * lm.lineHeight
	if rm.lineHeight > rowHeight {
		rowHeight = rm.lineHeight
	}
	c.ensureHeight(rowHeight)

	top := c.y
	for i, line := range lines {
		c.drawString(line, leftX, top+float64(i)*lm.lineHeight+lm.ascent, lm)
	}

	// share the first line's baseline
	c.applyStyle(rightStyle)
	c.drawString(right, rightX, top+lm.ascent, rm)
	c.ctx.SetColor(black)

	c.y += rowHeight

	return nil
}

func joinSide(side []receiptformat.Command) string {
	parts := make([]string, 0, len(side))
	for _, cmd := range side {
		parts = append(parts, cmd.Value)
	}
	return strings.Join(parts, " ")
}
