package state

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

//go:embed migrations/001_analysis_history.sql
var migrationV1 string

const schemaVersion = 1

// SQLiteHistoryStore implements core.HistoryStore with SQLite storage.
type SQLiteHistoryStore struct {
	dbPath     string
	backupPath string
	db         *sql.DB
	mu         sync.RWMutex
}

// SQLiteHistoryOption configures the store.
type SQLiteHistoryOption func(*SQLiteHistoryStore)

// WithSQLiteBackupPath sets the backup file path.
func WithSQLiteBackupPath(path string) SQLiteHistoryOption {
	return func(s *SQLiteHistoryStore) {
		s.backupPath = path
	}
}

// NewSQLiteHistoryStore opens (creating if needed) the history database at dbPath.
func NewSQLiteHistoryStore(dbPath string, opts ...SQLiteHistoryOption) (*SQLiteHistoryStore, error) {
	s := &SQLiteHistoryStore{
		dbPath:     dbPath,
		backupPath: dbPath + ".bak",
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// scenario batches record concurrently; one writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	s.db = db

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func dsn(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection.
func (s *SQLiteHistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteHistoryStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// table doesn't exist yet
		version = 0
	}

	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *SQLiteHistoryStore) SchemaVersion(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var version int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Record stores a completed analysis. Re-recording an ID replaces the row.
func (s *SQLiteHistoryStore) Record(ctx context.Context, rec core.AnalysisRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return core.ErrValidation(core.CodeHistoryFailed, "analysis record needs an id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analyses (id, event_type, category, scope, severity, impact_pct, risk_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EventType, string(rec.Category), string(rec.Scope),
		rec.Severity, rec.ImpactPct, string(rec.RiskLevel), unixNanos(rec.CreatedAt),
	)
	if err != nil {
		return core.ErrState(core.CodeHistoryFailed, "recording analysis").WithCause(err).WithDetail("id", rec.ID)
	}
	return nil
}

// CountSimilar counts analyses of category recorded at or after since.
func (s *SQLiteHistoryStore) CountSimilar(ctx context.Context, category core.Category, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM analyses WHERE category = ? AND created_at >= ?",
		string(category), unixNanos(since),
	).Scan(&n)
	if err != nil {
		return 0, core.ErrState(core.CodeHistoryFailed, "counting similar analyses").WithCause(err)
	}
	return n, nil
}

// Recent returns up to limit records, newest first. limit <= 0 returns everything.
func (s *SQLiteHistoryStore) Recent(ctx context.Context, limit int) ([]core.AnalysisRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, category, scope, severity, impact_pct, risk_level, created_at
		FROM analyses ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, core.ErrState(core.CodeHistoryFailed, "listing analyses").WithCause(err)
	}
	defer rows.Close()

	var out []core.AnalysisRecord
	for rows.Next() {
		var (
			rec                        core.AnalysisRecord
			category, scope, riskLevel string
			created                    int64
		)
		if err := rows.Scan(&rec.ID, &rec.EventType, &category, &scope, &rec.Severity, &rec.ImpactPct, &riskLevel, &created); err != nil {
			return nil, core.ErrState(core.CodeHistoryFailed, "scanning analysis").WithCause(err)
		}
		rec.Category = core.Category(category)
		rec.Scope = core.Scope(scope)
		rec.RiskLevel = core.RiskLevel(riskLevel)
		rec.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ErrState(core.CodeHistoryFailed, "listing analyses").WithCause(err)
	}
	return out, nil
}

// Prune deletes analyses recorded before cutoff and returns how many were removed.
func (s *SQLiteHistoryStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE created_at < ?", unixNanos(cutoff))
	if err != nil {
		return 0, core.ErrState(core.CodeHistoryFailed, "pruning analyses").WithCause(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, core.ErrState(core.CodeHistoryFailed, "pruning analyses").WithCause(err)
	}
	return int(n), nil
}

var (
	minNanoTime = time.Unix(0, math.MinInt64)
	maxNanoTime = time.Unix(0, math.MaxInt64)
)

// unixNanos converts t to the stored representation, clamping times that
// int64 nanoseconds cannot hold (the zero time among them).
func unixNanos(t time.Time) int64 {
	switch {
	case t.Before(minNanoTime):
		return math.MinInt64
	case t.After(maxNanoTime):
		return math.MaxInt64
	}
	return t.UnixNano()
}

// Exists checks if the database file exists and has data.
func (s *SQLiteHistoryStore) Exists() bool {
	info, err := os.Stat(s.dbPath)
	if err != nil {
		return false
	}
	return info.Size() > 0
}

// BackupPath returns where Backup writes.
func (s *SQLiteHistoryStore) BackupPath() string {
	return s.backupPath
}

// Backup writes a consistent copy of the database to the backup path.
func (s *SQLiteHistoryStore) Backup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureWithinHistoryDir(s.backupPath); err != nil {
		return err
	}
	_ = os.Remove(s.backupPath)
	quoted := strings.ReplaceAll(s.backupPath, "'", "''")
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		// VACUUM INTO needs SQLite 3.27
		return s.copyFile(s.dbPath, s.backupPath)
	}
	return nil
}

func (s *SQLiteHistoryStore) copyFile(src, dst string) error {
	if err := s.ensureWithinHistoryDir(src); err != nil {
		return err
	}
	if err := s.ensureWithinHistoryDir(dst); err != nil {
		return err
	}
	// #nosec G304 -- src path validated to be within history directory
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer srcFile.Close()

	// #nosec G304 -- dst path validated to be within history directory
	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}
	return dstFile.Sync()
}

func (s *SQLiteHistoryStore) ensureWithinHistoryDir(path string) error {
	baseAbs, err := filepath.Abs(filepath.Dir(s.dbPath))
	if err != nil {
		return fmt.Errorf("resolving history directory: %w", err)
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	rel, err := filepath.Rel(baseAbs, pathAbs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("path escapes history directory")
	}
	return nil
}

var _ core.HistoryStore = (*SQLiteHistoryStore)(nil)
