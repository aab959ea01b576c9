// Package receiptformat defines the display list a receipt is laid out into
// before it is rasterized.
package receiptformat

// Version is the only display list version the renderer understands
const Version = "1.0"

// Command types
const (
	TypeText    = "text"
	TypeFeed    = "feed"
	TypeDivider = "divider"
	TypeItem    = "item"
	TypeImage   = "image"
	TypeBarcode = "barcode"
	TypeQRCode  = "qrcode"
)

// Receipt is a laid-out receipt: page geometry plus an ordered command list
type Receipt struct {
	Version    string    `json:"version"`
	Name       string    `json:"name,omitempty"`
	PaperWidth string    `json:"paper_width,omitempty"` // "58mm", "80mm", "112mm"
	Margin     float64   `json:"margin,omitempty"`      // points, each side
	LineHeight float64   `json:"line_height,omitempty"` // points, unit for feeds and divider spacing
	Commands   []Command `json:"commands"`
}

// Style is the look of one text segment. It travels by value with the
// command that uses it; nothing carries over to the next command.
type Style struct {
	Size   float64 `json:"size,omitempty"` // points
	Bold   bool    `json:"bold,omitempty"`
	Color  string  `json:"color,omitempty"`  // "black" (default) or "grey"
	Indent float64 `json:"indent,omitempty"` // points from the left margin
}

// Command is one element of the display list
type Command struct {
	Type string `json:"type"`

	// Text command
	Value string `json:"value,omitempty"`
	Align string `json:"align,omitempty"` // left, center, right
	Style Style  `json:"style,omitempty"`

	// Feed command, in line heights
	Lines float64 `json:"lines,omitempty"`

	// Item command: both sides share one row
	LeftSide  []Command `json:"left_side,omitempty"`
	RightSide []Command `json:"right_side,omitempty"`

	// Divider command
	Pattern string `json:"pattern,omitempty"` // solid, dashed, dotted, double

	// Image command
	Path      string `json:"path,omitempty"`
	Threshold int    `json:"threshold,omitempty"`

	// Barcode and QR code commands
	Format          string `json:"format,omitempty"`
	Height          int    `json:"height,omitempty"` // points
	ErrorCorrection string `json:"error_correction,omitempty"`
}

// Text returns a text command.
func Text(value, align string, style Style) Command {
	return Command{Type: TypeText, Value: value, Align: align, Style: style}
}

// Feed returns vertical space of the given number of line heights.
func Feed(lines float64) Command {
	return Command{Type: TypeFeed, Lines: lines}
}

// Divider returns a horizontal rule.
func Divider(pattern string) Command {
	return Command{Type: TypeDivider, Pattern: pattern}
}

// Row returns an item command with left and right text on the same row.
func Row(left, right string, style Style) Command {
	return Command{
		Type:      TypeItem,
		LeftSide:  []Command{Text(left, "left", style)},
		RightSide: []Command{Text(right, "right", style)},
	}
}
