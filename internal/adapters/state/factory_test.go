package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

func TestNewHistoryStore_AddsExtension(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keeps db", "history.db", "history.db"},
		{"replaces other extension", "history.sqlite", "history.db"},
		{"adds missing extension", "history", "history.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			hs, err := NewHistoryStore(filepath.Join(dir, tt.in))
			if err != nil {
				t.Fatalf("NewHistoryStore() error = %v", err)
			}
			defer hs.Close()

			if _, err := os.Stat(filepath.Join(dir, tt.want)); err != nil {
				t.Errorf("expected %s to exist: %v", tt.want, err)
			}
		})
	}
}

func TestNewHistoryStore_EmptyPath(t *testing.T) {
	if _, err := NewHistoryStore("  "); !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestNewHistoryStoreWithOptions_BackupPath(t *testing.T) {
	dir := t.TempDir()
	backup := filepath.Join(dir, "copy.bak")

	hs, err := NewHistoryStoreWithOptions(filepath.Join(dir, "history.db"), HistoryOptions{BackupPath: backup})
	if err != nil {
		t.Fatal(err)
	}
	defer hs.Close()

	if hs.backupPath != backup {
		t.Errorf("backupPath = %q, want %q", hs.backupPath, backup)
	}
}

func TestCloseHistoryStore(t *testing.T) {
	if err := CloseHistoryStore(nil); err != nil {
		t.Errorf("nil store: %v", err)
	}

	hs, err := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := CloseHistoryStore(hs); err != nil {
		t.Errorf("CloseHistoryStore() error = %v", err)
	}
}
