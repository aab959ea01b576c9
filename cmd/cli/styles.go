package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	Primary = lipgloss.Color("#7C3AED") // Purple
	Success = lipgloss.Color("#10B981") // Green
	Error   = lipgloss.Color("#EF4444") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(Error)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Muted).
			Padding(0, 1)
)

// renderPrinters draws the printer list as a boxed table
func renderPrinters(printers []interface{}) string {
	if len(printers) == 0 {
		return MutedStyle.Render("No printers")
	}

	width := 0
	for _, p := range printers {
		if m, ok := p.(map[string]interface{}); ok {
			if n := len(fmt.Sprint(m["name"])); n > width {
				width = n
			}
		}
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Printers"))
	for _, p := range printers {
		m, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		line := fmt.Sprintf("%-*s", width, m["name"])
		if isDefault, _ := m["isDefault"].(bool); isDefault {
			line += "  " + SuccessStyle.Render("default")
		}
		b.WriteString("\n" + line)
	}
	return BoxStyle.Render(b.String())
}
