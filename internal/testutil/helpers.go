package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// ErrTest is what failing fakes return.
var ErrTest = errors.New("test error")

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// NamedScenario is one entry of a scenario batch file.
type NamedScenario struct {
	Name            string `yaml:"name"`
	core.EventInput `yaml:",inline"`
}

// WriteScenarios encodes scenarios as a YAML list and returns the file path.
func WriteScenarios(t testing.TB, scenarios ...NamedScenario) string {
	t.Helper()
	data, err := yaml.Marshal(scenarios)
	require.NoError(t, err)
	return WriteFile(t, "scenarios.yaml", string(data))
}

// WriteReferenceDataset encodes evs as a reference dataset and returns the
// file path. Nothing is validated, so broken datasets can be written too.
func WriteReferenceDataset(t testing.TB, evs ...core.ReferenceEvent) string {
	t.Helper()
	data, err := yaml.Marshal(map[string][]core.ReferenceEvent{"events": evs})
	require.NoError(t, err)
	return WriteFile(t, "events.yaml", string(data))
}
