package reference

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
	"github.com/hugo-lorenzo-mato/shockcast/internal/testutil"
)

const smallDataset = `
events:
  - {name: "A", year: 2001, category: cyber, severity: 2, scope: national, market_impact_pct: -0.5, recovery_days: 2}
  - {name: "B", year: 2010, category: cyber, severity: 3, scope: global, market_impact_pct: -1.0, recovery_days: 4}
`

func TestBuiltin_CoversEveryCategory(t *testing.T) {
	evs := Builtin()
	assert.GreaterOrEqual(t, len(evs), 60)

	counts := Counts(evs)
	for _, c := range core.KnownCategories() {
		assert.GreaterOrEqual(t, counts[c], 4, "category %s", c)
	}
	assert.Zero(t, counts[core.CategoryGeneric])
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"empty":          "events: []",
		"bad yaml":       "events: [",
		"unknown cat":    `events: [{name: x, year: 1, category: meteor, severity: 3, scope: global}]`,
		"severity range": `events: [{name: x, year: 1, category: cyber, severity: 9, scope: global}]`,
		"scope":          `events: [{name: x, year: 1, category: cyber, severity: 3, scope: galactic}]`,
		"no name":        `events: [{year: 1, category: cyber, severity: 3, scope: global}]`,
		"recovery":       `events: [{name: x, year: 1, category: cyber, severity: 3, scope: global, recovery_days: -1}]`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestNewStore_FileAndBuiltin(t *testing.T) {
	builtin, err := NewStore("")
	require.NoError(t, err)
	assert.Equal(t, len(Builtin()), len(builtin.Events()))
	assert.NoError(t, builtin.Reload())

	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallDataset), 0o600))

	store, err := NewStore(path)
	require.NoError(t, err)
	assert.Len(t, store.Events(), 2)
	assert.Equal(t, path, store.Path())

	_, err = NewStore(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
}

func TestLoadFile_InvalidDataset(t *testing.T) {
	path := testutil.WriteReferenceDataset(t, core.ReferenceEvent{
		Name: "x", Year: 1, Category: core.CategoryCyber, Severity: 9, Scope: core.ScopeGlobal,
	})

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	var domErr *core.DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, core.CodeReferenceLoad, domErr.Code)
	assert.Equal(t, path, domErr.Details["path"])
	assert.Contains(t, err.Error(), "severity 9 out of range")
}

func TestStore_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallDataset), 0o600))

	bus := events.New(10)
	defer bus.Close()
	reloads := bus.Subscribe(events.TypeReferenceReloaded)

	store, err := NewStore(path, WithPublisher(bus))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("events: ["), 0o600))
	assert.Error(t, store.Reload())
	assert.Len(t, store.Events(), 2)

	select {
	case e := <-reloads:
		assert.NotEmpty(t, e.(events.ReferenceReloadedEvent).Error)
	case <-time.After(time.Second):
		t.Fatal("expected a reload event")
	}
}

func TestStore_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallDataset), 0o600))

	store, err := NewStore(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	extended := smallDataset + `  - {name: "C", year: 2020, category: cyber, severity: 4, scope: global, market_impact_pct: -2.0, recovery_days: 9}
`
	require.Eventually(t, func() bool {
		// rewrite until the watcher is registered and picks it up
		_ = os.WriteFile(path, []byte(extended), 0o600)
		return len(store.Events()) == 3
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStaticStore(t *testing.T) {
	s := NewStaticStore([]core.ReferenceEvent{{Name: "x"}})
	assert.Len(t, s.Events(), 1)
	assert.NoError(t, s.Reload())
	assert.NoError(t, s.Watch(context.Background()))
}
