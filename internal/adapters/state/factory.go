// Package state persists analysis history behind core.HistoryStore.
package state

import (
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// HistoryOptions configures history store creation.
type HistoryOptions struct {
	// BackupPath is where Backup writes its copy. Defaults to "<db>.bak".
	BackupPath string
}

// NewHistoryStore opens the SQLite history store at path.
// A path without the .db extension gets one.
func NewHistoryStore(path string) (*SQLiteHistoryStore, error) {
	return NewHistoryStoreWithOptions(path, HistoryOptions{})
}

// NewHistoryStoreWithOptions opens the history store with additional options.
func NewHistoryStoreWithOptions(path string, opts HistoryOptions) (*SQLiteHistoryStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "history path is required")
	}
	if !strings.HasSuffix(path, ".db") {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
	}

	var sqliteOpts []SQLiteHistoryOption
	if strings.TrimSpace(opts.BackupPath) != "" {
		sqliteOpts = append(sqliteOpts, WithSQLiteBackupPath(opts.BackupPath))
	}
	return NewSQLiteHistoryStore(path, sqliteOpts...)
}

// CloseHistoryStore closes hs if it is non-nil.
func CloseHistoryStore(hs core.HistoryStore) error {
	if hs == nil {
		return nil
	}
	return hs.Close()
}
