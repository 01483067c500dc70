// Package clip copies exported reports to the user's clipboard.
package clip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	atotto "github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"golang.org/x/term"
)

// Method is the mechanism that made the report copyable.
type Method string

const (
	MethodNative Method = "native" // OS clipboard
	MethodOSC52  Method = "osc52"  // terminal escape sequence
	MethodFile   Method = "file"   // temp file, clipboard unreachable
)

// Result reports how WriteAll delivered the text.
type Result struct {
	Method   Method
	FilePath string // only set when Method == MethodFile
}

// Describe returns a one-line message for the CLI.
func (r Result) Describe() string {
	switch r.Method {
	case MethodNative:
		return "report copied to clipboard"
	case MethodOSC52:
		return "report copied to clipboard via terminal"
	case MethodFile:
		return fmt.Sprintf("clipboard unavailable, report saved to %s", r.FilePath)
	default:
		return "report not copied"
	}
}

// osc52LimitBytes bounds the escape sequence; many terminals drop larger payloads.
const osc52LimitBytes = 100_000

var (
	nativeWriteAll = atotto.WriteAll
	osc52WriteAll  = func(text string) error { return writeOSC52(os.Stderr, text) }
	tempDir        = os.TempDir
)

// WriteAll copies text with the native clipboard, then OSC52, and finally
// falls back to a temp file.
func WriteAll(text string) (Result, error) {
	if err := nativeWriteAll(text); err == nil {
		return Result{Method: MethodNative}, nil
	}
	if err := osc52WriteAll(text); err == nil {
		return Result{Method: MethodOSC52}, nil
	}

	path, err := writeTempFile(text)
	if err != nil {
		return Result{}, fmt.Errorf("saving report to temp file: %w", err)
	}
	return Result{Method: MethodFile, FilePath: path}, nil
}

func writeOSC52(w *os.File, text string) error {
	if text == "" {
		return errors.New("empty clipboard text")
	}
	if !term.IsTerminal(int(w.Fd())) {
		return fmt.Errorf("%s is not a terminal", w.Name())
	}
	return sendOSC52(w, text)
}

func sendOSC52(w io.Writer, text string) error {
	if len(text) > osc52LimitBytes {
		return fmt.Errorf("text too large for OSC52 (%d bytes > %d)", len(text), osc52LimitBytes)
	}

	seq := osc52.New(text).Limit(osc52LimitBytes)
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case os.Getenv("STY") != "":
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(w)
	return err
}

func writeTempFile(text string) (path string, err error) {
	f, err := os.CreateTemp(tempDir(), "shockcast-report-*.md")
	if err != nil {
		return "", err
	}
	path = f.Name()
	defer func() {
		_ = f.Close()
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err = f.WriteString(text); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}
