package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	dbFileName = "careerdash.db"
	memoryDSN  = ":memory:"

	// The database holds the user's demographic profile.
	dataDirPerm = 0o700
	dbFilePerm  = 0o600
)

// Store wraps a SQLite database holding the service's local key-value state:
// the form draft and the last submitted profile.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) careerdash.db in dataDir and runs pending
// migrations. Pass ":memory:" for an in-memory database.
func Open(dataDir string) (*Store, error) {
	dsn, dbPath, err := resolveDSN(dataDir)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and the
	// only writers are single-row upserts.
	db.SetMaxOpenConns(1)

	if dbPath != "" {
		if err := os.Chmod(dbPath, dbFilePerm); err != nil && !os.IsNotExist(err) {
			db.Close()
			return nil, fmt.Errorf("restricting database permissions: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// resolveDSN returns the driver DSN for dataDir and, for file databases, the
// database path. Pragmas ride on the DSN so every new connection gets them.
func resolveDSN(dataDir string) (dsn, dbPath string, err error) {
	if dataDir == memoryDSN {
		return memoryDSN, "", nil
	}
	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		return "", "", fmt.Errorf("creating data directory: %w", err)
	}
	dbPath = filepath.Join(dataDir, dbFileName)
	dsn = "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	return dsn, dbPath, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies every embedded migration whose version is not yet recorded
// in schema_version, in version order.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	applied, err := s.AppliedMigrations()
	if err != nil {
		return fmt.Errorf("listing applied migrations: %w", err)
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	type migration struct {
		version int
		name    string
	}
	var pending []migration
	for _, name := range names {
		version, err := parseMigrationVersion(filepath.Base(name))
		if err != nil {
			return err
		}
		if !slices.Contains(applied, version) {
			pending = append(pending, migration{version, name})
		}
	}
	slices.SortFunc(pending, func(a, b migration) int { return a.version - b.version })

	for _, m := range pending {
		if err := s.applyMigration(m.version, m.name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(version int, name string) error {
	content, err := migrationsFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("reading migration %s: %w", name, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("applying migration %d: %w", version, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("recording migration %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", version, err)
	}
	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Local state ---

// GetState returns the raw value stored under key, or ErrNotFound.
func (s *Store) GetState(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM local_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetState upserts value under key.
func (s *Store) SetState(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// DeleteState removes key. Deleting an absent key is not an error.
func (s *Store) DeleteState(key string) error {
	_, err := s.db.Exec("DELETE FROM local_state WHERE key = ?", key)
	return err
}

// StateUpdatedAt reports when key was last written.
func (s *Store) StateUpdatedAt(key string) (time.Time, error) {
	var raw string
	err := s.db.QueryRow("SELECT updated_at FROM local_state WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return t, nil
}
