// Package postgres stores the key/value document set in a PostgreSQL
// schema named after the application.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/migration"
	"github.com/julianstephens/nextstep/migrations"
)

const connectTimeout = 10 * time.Second

type Store struct {
	connStr string
	db      *sql.DB
}

func New(connStr string) *Store {
	pinned, err := withSearchPath(connStr)
	if err != nil {
		logger.Warn("could not add search_path to connection string", "error", err)
	}
	return &Store{connStr: pinned}
}

// connect opens the pool and verifies the server answers.
func (s *Store) connect() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.connStr) {
			return fmt.Errorf("connecting to postgres: %w (add sslmode=disable to the connection string)", err)
		}
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	s.db = db
	return nil
}

// Init creates the schema and applies every migration.
func (s *Store) Init() error {
	if err := s.connect(); err != nil {
		return err
	}
	if _, err := s.db.Exec("CREATE SCHEMA IF NOT EXISTS " + constants.AppName); err != nil {
		return fmt.Errorf("creating schema %s: %w", constants.AppName, err)
	}
	if _, err := s.Migrate(func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

// Load connects and refuses a schema that is behind or ahead of this build.
func (s *Store) Load() error {
	if err := s.connect(); err != nil {
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
	sub, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, sub, migration.DialectPostgres), nil
}

func (s *Store) Migrate(logFn func(string)) (int, error) {
	if err := s.connect(); err != nil {
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

// GetConfigPath never exposes the connection string.
func (s *Store) GetConfigPath() string { return "postgresql" }
