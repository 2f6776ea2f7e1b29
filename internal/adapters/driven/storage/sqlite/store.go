package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// DatabaseFile is the history database file name inside the state directory.
const DatabaseFile = "history.db"

// Store is a SQLite-based store for sync history.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the history database in stateDir.
func NewStore(stateDir string) (*Store, error) {
	if stateDir == "" {
		return nil, fmt.Errorf("%w: state directory is required", domain.ErrConfiguration)
	}

	// Ensure directory exists
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// HistoryStore returns a SyncHistoryStore interface backed by this store.
func (s *Store) HistoryStore() driven.SyncHistoryStore {
	return &historyStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_sync_runs.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== History Store ====================

// historyStore implements driven.SyncHistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.SyncHistoryStore = (*historyStore)(nil)

const selectRuns = `
	SELECT id, source, source_type, status, written, unchanged, deleted,
	       error_count, error, dry_run, started_at, finished_at
	FROM sync_runs`

// Record stores one run. Recording the same run ID twice replaces it.
func (s *historyStore) Record(ctx context.Context, run domain.SyncRun) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, source, source_type, status, written, unchanged, deleted,
			error_count, error, dry_run, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			written = excluded.written,
			unchanged = excluded.unchanged,
			deleted = excluded.deleted,
			error_count = excluded.error_count,
			error = excluded.error,
			finished_at = excluded.finished_at
	`, run.ID, run.Source, string(run.Type), string(run.Status), run.Written, run.Unchanged, run.Deleted,
		run.ErrorCount, run.Error, run.DryRun, run.StartedAt.UTC(), run.FinishedAt.UTC())

	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

// List returns runs newest first, optionally filtered by source.
func (s *historyStore) List(ctx context.Context, source string, limit int) ([]domain.SyncRun, error) {
	query := selectRuns
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY started_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync runs: %w", err)
	}
	return runs, nil
}

// Last returns the most recent run of a source.
func (s *historyStore) Last(ctx context.Context, source string) (*domain.SyncRun, error) {
	row := s.store.db.QueryRowContext(ctx, selectRuns+" WHERE source = ? ORDER BY started_at DESC, id LIMIT 1", source)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.SyncRun, error) {
	var (
		run             domain.SyncRun
		sourceType      string
		status          string
		started, finish sql.NullTime
	)
	if err := row.Scan(&run.ID, &run.Source, &sourceType, &status, &run.Written, &run.Unchanged,
		&run.Deleted, &run.ErrorCount, &run.Error, &run.DryRun, &started, &finish); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning sync run: %w", err)
	}
	run.Type = domain.SourceType(sourceType)
	run.Status = domain.RunStatus(status)
	if started.Valid {
		run.StartedAt = started.Time
	}
	if finish.Valid {
		run.FinishedAt = finish.Time
	}
	return &run, nil
}
