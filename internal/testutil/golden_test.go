package testutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/testutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "CRLF to LF",
			input: "line1\r\nline2\r\n",
			want:  "line1\nline2",
		},
		{
			name:  "trailing whitespace",
			input: "line1   \nline2\t\n",
			want:  "line1\nline2",
		},
		{
			name:  "trailing newlines",
			input: "line1\nline2\n\n\n",
			want:  "line1\nline2",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "already clean",
			input: "line1\nline2",
			want:  "line1\nline2",
		},
		{
			name:  "mixed line endings",
			input: "a\r\nb  \nc\t\r\n",
			want:  "a\nb\nc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testutil.Normalize(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScrubTimestamps(t *testing.T) {
	tests := map[string]string{
		"created_at: 2026-03-01T12:00:00Z":         "created_at: [TIMESTAMP]",
		"at 2026-03-01T12:00:00.123456+02:00 done": "at [TIMESTAMP] done",
		"2026-03-01 12:00:00 pandemic":             "[TIMESTAMP] pandemic",
		"severity 4 at 12:00":                      "severity 4 at 12:00",
	}
	for in, want := range tests {
		assert.Equal(t, want, testutil.ScrubTimestamps(in))
	}
}

func TestScrubAnalysisIDs(t *testing.T) {
	got := testutil.ScrubAnalysisIDs("analysis_id: 3f2a9c1e-77aa-4b1c-9d3e-0123456789ab")
	assert.Equal(t, "analysis_id: [ANALYSIS_ID]", got)
	assert.Equal(t, "a-1", testutil.ScrubAnalysisIDs("a-1"))
}

func TestScrubPaths(t *testing.T) {
	assert.Equal(t, "[WORKDIR]/report.md", testutil.ScrubPaths("/tmp/x/report.md", "/tmp/x"))
	assert.Equal(t, "/tmp/x/report.md", testutil.ScrubPaths("/tmp/x/report.md", ""))
}

func TestScrubReport(t *testing.T) {
	in := "---\r\nanalysis_id: 3f2a9c1e-77aa-4b1c-9d3e-0123456789ab  \r\n" +
		"created_at: \"2026-03-01T12:00:00Z\"\r\n---\r\nwritten to /work/r.md\n\n"
	want := "---\nanalysis_id: [ANALYSIS_ID]\ncreated_at: \"[TIMESTAMP]\"\n---\nwritten to [WORKDIR]/r.md"
	assert.Equal(t, want, testutil.ScrubReport(in, "/work"))
}

func TestGolden_AssertAndUpdate(t *testing.T) {
	path := testutil.WriteFile(t, "report.md.golden", "# Title\nbody\n")
	dir := filepath.Dir(path)
	g := testutil.NewGolden(t, dir)

	g.AssertString("report.md", "# Title\r\nbody\r\n")
	assert.Equal(t, path, g.Path("report.md"))
}

func TestNewGolden(t *testing.T) {
	g := testutil.NewGolden(t, t.TempDir())
	if g == nil {
		t.Fatal("expected non-nil Golden")
	}
}

func TestWriteScenarios(t *testing.T) {
	path := testutil.WriteScenarios(t,
		testutil.NamedScenario{Name: "base", EventInput: testutil.NewTestInput()},
		testutil.NamedScenario{Name: "quake", EventInput: testutil.LocalDisasterInput()},
	)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "base", got[0]["name"])
	assert.Equal(t, "pandemic", got[0]["event_type"])
	assert.Equal(t, "local", got[1]["geographic_scope"])
}

func TestWriteReferenceDataset(t *testing.T) {
	path := testutil.WriteReferenceDataset(t, core.ReferenceEvent{
		Name: "Flash crash", Year: 2010, Category: core.CategoryEconomicCrisis,
		Severity: 2, Scope: core.ScopeNational, MarketImpactPct: -3, RecoveryDays: 1,
	})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: Flash crash")
	assert.Contains(t, string(data), "category: economic_crisis")
	assert.Contains(t, string(data), "market_impact_pct: -3")
}

func TestNewTestInput(t *testing.T) {
	in := testutil.NewTestInput()
	assert.Equal(t, "pandemic", in.EventType)
	assert.Equal(t, "global", in.Scope)
	r0, ok := in.Data.Float("r0")
	assert.True(t, ok, "r0 should be set")
	assert.Equal(t, 3.0, r0)
}

func TestNewTestInput_WithOptions(t *testing.T) {
	in := testutil.NewTestInput(func(in *core.EventInput) {
		in.Scope = "national"
	})
	assert.Equal(t, "national", in.Scope)
	assert.Equal(t, "local", testutil.LocalDisasterInput().Scope)
}
