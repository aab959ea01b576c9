package receiptformat

import (
	"fmt"
)

// Validate validates a Receipt structure
func Validate(r *Receipt) error {
	if r.Version == "" {
		return fmt.Errorf("version is required")
	}
	if r.Version != Version {
		return fmt.Errorf("unsupported version: %s (expected %s)", r.Version, Version)
	}

	if r.PaperWidth != "" {
		if _, ok := PaperPoints(r.PaperWidth); !ok {
			return fmt.Errorf("invalid paper_width: %s (must be 58mm, 80mm, or 112mm)", r.PaperWidth)
		}
	}
	if r.Margin < 0 {
		return fmt.Errorf("margin cannot be negative")
	}

	if len(r.Commands) == 0 {
		return fmt.Errorf("at least one command is required")
	}

	for i, cmd := range r.Commands {
		if err := validateCommand(&cmd); err != nil {
			return fmt.Errorf("command[%d]: %w", i, err)
		}
	}

	return nil
}

func validateCommand(cmd *Command) error {
	switch cmd.Type {
	case "":
		return fmt.Errorf("command type is required")
	case TypeText:
		return validateTextCommand(cmd)
	case TypeItem:
		return validateItemCommand(cmd)
	case TypeFeed:
		if cmd.Lines < 0 {
			return fmt.Errorf("feed lines cannot be negative")
		}
		return nil
	case TypeDivider:
		switch cmd.Pattern {
		case "", "solid", "dashed", "dotted", "double":
			return nil
		}
		return fmt.Errorf("invalid divider pattern '%s'", cmd.Pattern)
	case TypeImage:
		if cmd.Path == "" {
			return fmt.Errorf("image command requires path")
		}
		return nil
	case TypeBarcode:
		if cmd.Value == "" {
			return fmt.Errorf("barcode command requires value")
		}
		switch cmd.Format {
		case "", "CODE128", "CODE39", "EAN13", "EAN8":
			return nil
		}
		return fmt.Errorf("invalid barcode format '%s'", cmd.Format)
	case TypeQRCode:
		if cmd.Value == "" {
			return fmt.Errorf("qrcode command requires value")
		}
		switch cmd.ErrorCorrection {
		case "", "L", "M", "Q", "H":
			return nil
		}
		return fmt.Errorf("invalid error_correction '%s' (must be L, M, Q, or H)", cmd.ErrorCorrection)
	default:
		return fmt.Errorf("unknown command type: %s", cmd.Type)
	}
}

func validateTextCommand(cmd *Command) error {
	switch cmd.Align {
	case "", "left", "center", "right":
	default:
		return fmt.Errorf("invalid align '%s' (must be left, center, or right)", cmd.Align)
	}

	switch cmd.Style.Color {
	case "", "black", "grey", "gray":
	default:
		return fmt.Errorf("invalid color '%s' (must be black or grey)", cmd.Style.Color)
	}

	if cmd.Style.Size < 0 {
		return fmt.Errorf("text size cannot be negative")
	}
	return nil
}

func validateItemCommand(cmd *Command) error {
	if len(cmd.LeftSide) == 0 {
		return fmt.Errorf("item command requires left_side")
	}
	if len(cmd.RightSide) == 0 {
		return fmt.Errorf("item command requires right_side")
	}

	// Only text fits on a shared row
	for i, left := range cmd.LeftSide {
		if left.Type != TypeText {
			return fmt.Errorf("left_side[%d]: item sides hold text only", i)
		}
		if err := validateTextCommand(&left); err != nil {
			return fmt.Errorf("left_side[%d]: %w", i, err)
		}
	}
	for i, right := range cmd.RightSide {
		if right.Type != TypeText {
			return fmt.Errorf("right_side[%d]: item sides hold text only", i)
		}
		if err := validateTextCommand(&right); err != nil {
			return fmt.Errorf("right_side[%d]: %w", i, err)
		}
	}

	return nil
}

// PaperPoints returns the printable page width in points for a paper size.
func PaperPoints(width string) (float64, bool) {
	switch width {
	case "58mm":
		return 164.41, true
	case "80mm", "":
		return 226.77, true
	case "112mm":
		return 317.48, true
	default:
		return 0, false
	}
}
