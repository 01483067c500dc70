package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

var (
	// HeaderStyle is the style for section titles.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// MutedStyle is for secondary text.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// ErrorStyle is for failures.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(ColorSecondary)
)

// Styler renders text with or without ANSI styling.
type Styler struct {
	color bool
}

// NewStyler returns a Styler; color false produces plain text.
func NewStyler(color bool) Styler {
	return Styler{color: color}
}

// Header renders a section title.
func (s Styler) Header(text string) string {
	if !s.color {
		return text + "\n"
	}
	return HeaderStyle.Render(text)
}

// Muted renders secondary text.
func (s Styler) Muted(text string) string {
	if !s.color {
		return text
	}
	return MutedStyle.Render(text)
}

// Error renders a failure message.
func (s Styler) Error(text string) string {
	if !s.color {
		return text
	}
	return ErrorStyle.Render(text)
}

// Risk renders a risk level in its color, upper-cased.
func (s Styler) Risk(level core.RiskLevel) string {
	text := strings.ToUpper(string(level))
	if !s.color {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(RiskColor(level)).Render(text)
}

// Table renders rows under headers. Plain mode uses an ASCII border so the
// output stays grep-friendly.
func (s Styler) Table(headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...)

	if !s.color {
		return t.Border(lipgloss.ASCIIBorder()).
			StyleFunc(func(_, _ int) lipgloss.Style { return lipgloss.NewStyle().Padding(0, 1) }).
			String()
	}
	return t.Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
