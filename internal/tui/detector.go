package tui

import (
	"os"

	"golang.org/x/term"
)

// OutputMode represents the output mode.
type OutputMode int

const (
	// ModeStyled uses colors and rounded tables.
	ModeStyled OutputMode = iota

	// ModePlain uses plain text output.
	ModePlain

	// ModeJSON uses JSON structured output.
	ModeJSON

	// ModeQuiet suppresses most output.
	ModeQuiet
)

// String returns the string representation of the output mode.
func (m OutputMode) String() string {
	switch m {
	case ModeStyled:
		return "styled"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	case ModeQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// Detector determines the appropriate output mode.
type Detector struct {
	forceMode *OutputMode
	noColor   bool
	isTTY     func() bool
	getenv    func(string) string
}

// NewDetector creates a new output mode detector for stdout.
func NewDetector() *Detector {
	return &Detector{
		isTTY:  func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
		getenv: os.Getenv,
	}
}

// ForceMode forces a specific output mode.
func (d *Detector) ForceMode(mode OutputMode) *Detector {
	d.forceMode = &mode
	return d
}

// NoColor disables color output.
func (d *Detector) NoColor(disable bool) *Detector {
	d.noColor = disable
	return d
}

// Detect determines the appropriate output mode.
func (d *Detector) Detect() OutputMode {
	if d.forceMode != nil {
		return *d.forceMode
	}

	switch d.getenv("SHOCKCAST_OUTPUT") {
	case "json":
		return ModeJSON
	case "quiet":
		return ModeQuiet
	case "plain":
		return ModePlain
	}

	if d.getenv("CI") != "" || d.getenv("GITHUB_ACTIONS") != "" {
		return ModePlain
	}
	if !d.ShouldUseColor() {
		return ModePlain
	}
	return ModeStyled
}

// ShouldUseColor determines if color should be used.
func (d *Detector) ShouldUseColor() bool {
	if d.noColor {
		return false
	}
	if d.getenv("NO_COLOR") != "" {
		return false
	}
	if d.getenv("TERM") == "dumb" {
		return false
	}
	return d.isTTY()
}

// TerminalWidth returns the stdout width, or 100 when it is not a terminal.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return w
}
