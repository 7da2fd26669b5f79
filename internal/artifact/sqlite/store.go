// Package sqlite stores artifact sets in a single SQLite file.
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
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"cardsim/internal/artifact"
	"cardsim/internal/artifact/sqlite/migrations"
	"cardsim/internal/domain"
)

// Store is an artifact.Store backed by SQLite. Only the latest build is
// kept.
type Store struct {
	db   *sql.DB
	path string
}

var _ artifact.Store = (*Store)(nil)

// NewStore opens (or creates) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("artifact store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps the foreign_keys pragma in effect for every
	// statement.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
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

// Save replaces the stored build with set in one transaction, so readers
// never observe a partial set.
func (s *Store) Save(ctx context.Context, set *artifact.Set) error {
	blobs, err := set.Blobs()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts`); err != nil {
		return fmt.Errorf("clearing artifacts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM builds`); err != nil {
		return fmt.Errorf("clearing builds: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (build_id, fingerprint, normalizer, cards, topics, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		set.BuildID, set.Fingerprint, set.Normalizer, set.Cards, set.Topics, set.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting build: %w", err)
	}
	for _, kind := range artifact.Kinds {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifacts (build_id, kind, payload) VALUES (?, ?, ?)`,
			set.BuildID, kind, blobs[kind]); err != nil {
			return fmt.Errorf("inserting %s: %w", kind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing build: %w", err)
	}
	return nil
}

// Load returns the stored build. It fails with domain.ErrArtifactsMissing
// when nothing has been built yet.
func (s *Store) Load(ctx context.Context) (*artifact.Set, error) {
	var (
		meta    artifact.Meta
		created string
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT build_id, fingerprint, normalizer, cards, topics, created_at
		FROM builds ORDER BY created_at DESC LIMIT 1`)
	if err := row.Scan(&meta.BuildID, &meta.Fingerprint, &meta.Normalizer, &meta.Cards, &meta.Topics, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no build in %s: %w", s.path, domain.ErrArtifactsMissing)
		}
		return nil, fmt.Errorf("querying build: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parsing build time: %w", err)
	}
	meta.CreatedAt = t

	rows, err := s.db.QueryContext(ctx, `SELECT kind, payload FROM artifacts WHERE build_id = ?`, meta.BuildID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	blobs := make(map[string][]byte, len(artifact.Kinds))
	for rows.Next() {
		var (
			kind    string
			payload []byte
		)
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		blobs[kind] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating artifacts: %w", err)
	}
	return artifact.FromBlobs(meta, blobs)
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
