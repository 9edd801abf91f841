// Package migration applies the numbered SQL files embedded by each
// storage backend and tracks the schema version in a one-row table.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var (
	// ErrSchemaTooNew means the database was written by a newer nextstep.
	ErrSchemaTooNew = errors.New("database schema is newer than this build of nextstep")
	// ErrSchemaBehind means pending migrations exist.
	ErrSchemaBehind = errors.New("database schema is out of date")
)

// Migration is one NNN_name.sql file.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Plan describes where the database is relative to the embedded files.
type Plan struct {
	Current int
	Latest  int
	Pending []Migration
}

func (p Plan) check() error {
	switch {
	case p.Current > p.Latest:
		return fmt.Errorf("%w: version %d, supported %d; upgrade nextstep", ErrSchemaTooNew, p.Current, p.Latest)
	case p.Current < p.Latest:
		return fmt.Errorf("%w: version %d, latest %d; run 'nextstep migrate'", ErrSchemaBehind, p.Current, p.Latest)
	}
	return nil
}

type Runner struct {
	db      *sql.DB
	fs      fs.FS
	dialect Dialect
}

func NewRunner(db *sql.DB, migrationFS fs.FS, dialect Dialect) *Runner {
	return &Runner{db: db, fs: migrationFS, dialect: dialect}
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// writeVersion replaces the single schema_version row.
func (r *Runner) writeVersion(x execer, version int) error {
	placeholder := "?"
	if r.dialect == DialectPostgres {
		placeholder = "$1"
	}
	if _, err := x.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := x.Exec("INSERT INTO schema_version (version) VALUES ("+placeholder+")", version)
	return err
}

func (r *Runner) EnsureSchemaVersionTable() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`)
	return err
}

// GetCurrentVersion returns 0 for a fresh database.
func (r *Runner) GetCurrentVersion() (int, error) {
	if err := r.EnsureSchemaVersionTable(); err != nil {
		return 0, fmt.Errorf("creating schema_version: %w", err)
	}
	var version int
	switch err := r.db.QueryRow("SELECT version FROM schema_version").Scan(&version); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

func (r *Runner) SetVersion(version int) error {
	if err := r.EnsureSchemaVersionTable(); err != nil {
		return fmt.Errorf("creating schema_version: %w", err)
	}
	if err := r.writeVersion(r.db, version); err != nil {
		return fmt.Errorf("writing schema version %d: %w", version, err)
	}
	return nil
}

func parseName(name string) (int, string, error) {
	prefix, rest, ok := strings.Cut(strings.TrimSuffix(name, ".sql"), "_")
	if !ok || rest == "" {
		return 0, "", fmt.Errorf("migration %s: expected NNN_name.sql", name)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", fmt.Errorf("migration %s: bad version: %w", name, err)
	}
	if version < 1 {
		return 0, "", fmt.Errorf("migration %s: version must be at least 1", name)
	}
	return version, rest, nil
}

// ReadMigrationFiles returns the embedded migrations in version order.
func (r *Runner) ReadMigrationFiles() ([]Migration, error) {
	names, err := fs.Glob(r.fs, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	migrations := make([]Migration, 0, len(names))
	seen := make(map[int]string, len(names))
	for _, name := range names {
		version, label, err := parseName(path.Base(name))
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)", version, prev, name)
		}
		seen[version] = name
		body, err := fs.ReadFile(r.fs, name)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", name, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: label, SQL: string(body)})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func (r *Runner) GetLatestVersion() (int, error) {
	plan, err := r.Plan()
	if err != nil {
		return 0, err
	}
	return plan.Latest, nil
}

// Plan reads the current version and the pending migrations.
func (r *Runner) Plan() (Plan, error) {
	migrations, err := r.ReadMigrationFiles()
	if err != nil {
		return Plan{}, err
	}
	current, err := r.GetCurrentVersion()
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{Current: current}
	for _, m := range migrations {
		plan.Latest = m.Version
		if m.Version > current {
			plan.Pending = append(plan.Pending, m)
		}
	}
	return plan, nil
}

// ApplyMigrations runs every pending migration, each in its own
// transaction together with the version bump, and returns how many ran.
func (r *Runner) ApplyMigrations(logFn func(string)) (int, error) {
	if logFn == nil {
		logFn = func(string) {}
	}
	plan, err := r.Plan()
	if err != nil {
		return 0, err
	}
	if plan.Latest == 0 {
		logFn("No migration files found")
		return 0, nil
	}
	if plan.Current > plan.Latest {
		return 0, plan.check()
	}
	if len(plan.Pending) == 0 {
		logFn(fmt.Sprintf("Database schema is up to date (version %d)", plan.Current))
		return 0, nil
	}

	logFn(fmt.Sprintf("Applying %d migration(s) from version %d to %d", len(plan.Pending), plan.Current, plan.Latest))
	started := time.Now()
	for i, m := range plan.Pending {
		if err := r.apply(m); err != nil {
			return i, err
		}
		logFn(fmt.Sprintf("  ✓ Migration %d (%s) applied", m.Version, m.Name))
	}
	logFn(fmt.Sprintf("Applied %d migration(s) in %v", len(plan.Pending), time.Since(started).Round(time.Millisecond)))
	return len(plan.Pending), nil
}

func (r *Runner) apply(m Migration) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.Version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
	}
	if err = r.writeVersion(tx, m.Version); err != nil {
		return fmt.Errorf("migration %d: recording version: %w", m.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: commit: %w", m.Version, err)
	}
	return nil
}

// ValidateVersion fails unless the database is exactly at the latest version.
func (r *Runner) ValidateVersion() error {
	plan, err := r.Plan()
	if err != nil {
		return err
	}
	return plan.check()
}
