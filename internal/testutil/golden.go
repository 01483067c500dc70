package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "rewrite golden files from the current output")

var (
	uuidRe      = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	timestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?`)
)

// Golden compares rendered reports with files under a testdata directory.
// Run the tests with -update to rewrite the files.
type Golden struct {
	t   *testing.T
	dir string
}

// NewGolden creates a helper rooted at dir.
func NewGolden(t *testing.T, dir string) *Golden {
	return &Golden{t: t, dir: dir}
}

// Path returns the golden file path for name.
func (g *Golden) Path(name string) string {
	return filepath.Join(g.dir, name+".golden")
}

// Assert fails when actual differs from the golden file, reporting the first
// differing line. Line endings are ignored.
func (g *Golden) Assert(name string, actual []byte) {
	g.t.Helper()
	path := g.Path(name)

	if *update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			g.t.Fatalf("creating golden directory: %v", err)
		}
		if err := os.WriteFile(path, actual, 0o644); err != nil {
			g.t.Fatalf("writing golden file: %v", err)
		}
		g.t.Logf("updated %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		g.t.Fatalf("reading golden file %s: %v (run with -update to create it)", path, err)
	}
	want := strings.ReplaceAll(string(expected), "\r\n", "\n")
	got := strings.ReplaceAll(string(actual), "\r\n", "\n")
	if want == got {
		return
	}

	line, wantLine, gotLine := firstDiff(want, got)
	g.t.Errorf("%s differs at line %d:\n  want: %q\n  got:  %q", path, line, wantLine, gotLine)
}

// AssertString is Assert for strings.
func (g *Golden) AssertString(name, actual string) {
	g.t.Helper()
	g.Assert(name, []byte(actual))
}

func firstDiff(want, got string) (int, string, string) {
	wl := strings.Split(want, "\n")
	gl := strings.Split(got, "\n")
	for i := 0; i < len(wl) || i < len(gl); i++ {
		var w, g string
		if i < len(wl) {
			w = wl[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if w != g {
			return i + 1, w, g
		}
	}
	return 0, "", ""
}

// Normalize converts CRLF, trims trailing blanks per line and trailing newlines.
func Normalize(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// ScrubAnalysisIDs replaces generated analysis IDs.
func ScrubAnalysisIDs(s string) string {
	return uuidRe.ReplaceAllString(s, "[ANALYSIS_ID]")
}

// ScrubTimestamps replaces RFC 3339 and "date time" timestamps.
func ScrubTimestamps(s string) string {
	return timestampRe.ReplaceAllString(s, "[TIMESTAMP]")
}

// ScrubPaths replaces basePath, typically a t.TempDir().
func ScrubPaths(s, basePath string) string {
	if basePath == "" {
		return s
	}
	return strings.ReplaceAll(s, basePath, "[WORKDIR]")
}

// ScrubReport makes a rendered report from a live analysis comparable with a
// golden file.
func ScrubReport(s, basePath string) string {
	return Normalize(ScrubPaths(ScrubTimestamps(ScrubAnalysisIDs(s)), basePath))
}
