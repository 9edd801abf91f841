// Package sqlite keeps the key/value document set in a single local
// database file, the default backend.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/migration"
	"github.com/julianstephens/nextstep/migrations"
)

// ErrNotInitialized is returned by Load before 'nextstep init' has run.
var ErrNotInitialized = fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) dsn() string {
	return "file:" + s.path + "?_pragma=busy_timeout(5000)"
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}
	// the auto-backup timer writes from its own goroutine
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

// Init creates the parent directory and the database, then migrates it.
func (s *Store) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(s.path), err)
	}
	if _, err := s.Migrate(func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("migrating %s: %w", s.path, err)
	}
	return nil
}

// Load opens an existing database and checks its schema version.
func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return ErrNotInitialized
	}
	if err := s.open(); err != nil {
		return err
	}
	runner, err := s.runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) runner() (*migration.Runner, error) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, sub, migration.DialectSQLite), nil
}

// Migrate applies pending migrations and returns how many ran.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	if err := s.open(); err != nil {
		return 0, err
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(logFn)
}

// SchemaVersions reports the applied and the newest known schema version.
func (s *Store) SchemaVersions() (current, latest int, err error) {
	if err := s.ready(); err != nil {
		return 0, 0, err
	}
	runner, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	plan, err := runner.Plan()
	if err != nil {
		return 0, 0, err
	}
	return plan.Current, plan.Latest, nil
}

// GetConfigPath is the database file path.
func (s *Store) GetConfigPath() string { return s.path }
