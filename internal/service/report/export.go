package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/hugo-lorenzo-mato/shockcast/internal/clip"
	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/fsutil"
	"github.com/hugo-lorenzo-mato/shockcast/internal/logging"
)

// Outcome describes where an export ended up.
type Outcome struct {
	Format      string      `json:"format"`
	Destination string      `json:"destination"`
	Path        string      `json:"path,omitempty"`
	Clipboard   clip.Method `json:"clipboard,omitempty"`
	Bytes       int         `json:"bytes"`
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithStdout replaces the writer used for the "-" destination.
func WithStdout(w io.Writer) Option {
	return func(e *Exporter) {
		e.stdout = w
		e.isTTY = func() bool { return false }
	}
}

// WithTerminal forces terminal rendering on or off for the "-" destination.
func WithTerminal(tty bool) Option {
	return func(e *Exporter) { e.isTTY = func() bool { return tty } }
}

// WithWordWrap sets the terminal rendering width.
func WithWordWrap(width int) Option {
	return func(e *Exporter) {
		if width > 0 {
			e.width = width
		}
	}
}

// WithLogger sets the exporter's logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// Exporter delivers rendered reports.
type Exporter struct {
	stdout io.Writer
	isTTY  func() bool
	width  int
	log    *logging.Logger

	copy  func(string) (clip.Result, error)
	write func(string, []byte, os.FileMode) error
}

// New creates an Exporter writing to the process stdout.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		stdout: os.Stdout,
		isTTY:  func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
		width:  100,
		log:    logging.NewNop(),
		copy:   clip.WriteAll,
		write:  fsutil.WriteFileAtomic,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export renders result in format and sends it to destination: "-" for
// stdout, "clipboard", or a file path replaced atomically.
func Export(result *core.AnalysisResult, format, destination string) (Outcome, error) {
	return New().Export(result, format, destination)
}

// Export renders result in format and sends it to destination.
func (e *Exporter) Export(result *core.AnalysisResult, format, destination string) (Outcome, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = core.FormatText
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return Outcome{}, core.ErrValidation(core.CodeInvalidDestination, "destination is required")
	}

	data, err := Render(result, format)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Format: format, Destination: destination, Bytes: len(data)}

	switch destination {
	case core.DestinationStdout:
		if format == core.FormatText && e.isTTY() {
			data = e.styled(data)
		}
		if _, err := e.stdout.Write(data); err != nil {
			return Outcome{}, core.ErrExecution(core.CodeExportFailed, "writing to stdout").WithCause(err)
		}

	case core.DestinationClipboard:
		res, err := e.copy(string(data))
		if err != nil {
			return Outcome{}, core.ErrExecution(core.CodeExportFailed, "copying to clipboard").WithCause(err)
		}
		out.Clipboard = res.Method
		out.Path = res.FilePath
		if res.Method == clip.MethodFile {
			e.log.Warn("clipboard unavailable, report saved to temp file", "path", res.FilePath)
		}

	default:
		path, err := e.checkPath(destination)
		if err != nil {
			return Outcome{}, err
		}
		if err := e.write(path, data, 0o600); err != nil {
			return Outcome{}, core.ErrExecution(core.CodeExportFailed, "writing report").
				WithCause(err).WithDetail("path", path)
		}
		out.Path = path
	}

	e.log.Info("report exported", "analysis_id", result.ID, "format", format, "destination", destination, "bytes", out.Bytes)
	return out, nil
}

func (e *Exporter) checkPath(destination string) (string, error) {
	path := filepath.Clean(destination)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return "", core.ErrValidation(core.CodeInvalidDestination,
			fmt.Sprintf("destination %q is a directory", destination)).WithDetail("destination", destination)
	}
	return path, nil
}

// styled renders markdown for the terminal. Rendering failures fall back to
// the plain markdown.
func (e *Exporter) styled(data []byte) []byte {
	body := stripFrontmatter(string(data))
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(e.width),
	)
	if err != nil {
		e.log.Debug("terminal renderer unavailable", "error", err)
		return data
	}
	out, err := r.Render(body)
	if err != nil {
		e.log.Debug("terminal rendering failed", "error", err)
		return data
	}
	return []byte(out)
}

func stripFrontmatter(s string) string {
	if !strings.HasPrefix(s, "---\n") {
		return s
	}
	if end := strings.Index(s[4:], "\n---\n"); end >= 0 {
		return strings.TrimLeft(s[4+end+5:], "\n")
	}
	return s
}
