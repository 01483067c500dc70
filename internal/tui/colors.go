// Package tui provides terminal output helpers for the shockcast CLI:
// colors, styled tables, output mode detection and a progress printer fed
// by the event bus.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan

	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorInfo    = lipgloss.Color("#3B82F6") // Blue

	ColorText      = lipgloss.Color("#E5E7EB")
	ColorTextMuted = lipgloss.Color("#9CA3AF")
	ColorBorder    = lipgloss.Color("#374151")

	ColorCritical = lipgloss.Color("#B91C1C") // Deep red
)

// RiskColor returns the color used for a risk level.
func RiskColor(level core.RiskLevel) lipgloss.Color {
	switch level {
	case core.RiskLow:
		return ColorSuccess
	case core.RiskModerate:
		return ColorWarning
	case core.RiskHigh:
		return ColorError
	case core.RiskCritical:
		return ColorCritical
	default:
		return ColorTextMuted
	}
}
