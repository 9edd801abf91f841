// Package archive keeps rotated whole-file copies of the SQLite key-value
// database. Copies are taken before schema migrations and before a copy is
// restored over the live file.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/logger"
)

const (
	// MaxArchives is how many copies survive rotation.
	MaxArchives = 14
	DirName     = "archives"
	FilePrefix  = constants.AppName + "-"
	FileSuffix  = ".db"

	minuteStamp = "20060102-1504"
	secondStamp = "20060102-150405"
)

// Info describes one archived copy.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

type Manager struct {
	dbPath string
	dir    string
	clock  clockwork.Clock
}

// NewManager archives dbPath into an "archives" directory next to it.
func NewManager(dbPath string, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		dbPath: dbPath,
		dir:    filepath.Join(filepath.Dir(dbPath), DirName),
		clock:  clock,
	}
}

func (m *Manager) Dir() string {
	return m.dir
}

// Create copies the database and prunes copies beyond MaxArchives.
func (m *Manager) Create() (string, error) {
	path, err := m.create()
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old archives", "error", err)
	}
	return path, nil
}

func (m *Manager) create() (string, error) {
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if _, err := os.Stat(m.dbPath); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("database does not exist: %s", m.dbPath)
	}

	dest, err := m.nextPath()
	if err != nil {
		return "", err
	}
	if err := m.copyDatabase(dest); err != nil {
		return "", fmt.Errorf("failed to archive database: %w", err)
	}
	logger.Debug("Database archived", "path", dest)
	return dest, nil
}

// nextPath picks a free file name, widening the timestamp to seconds and
// then appending a counter when several copies land in the same minute.
func (m *Manager) nextPath() (string, error) {
	now := m.clock.Now()
	candidate := filepath.Join(m.dir, FilePrefix+now.Format(minuteStamp)+FileSuffix)
	if !exists(candidate) {
		return candidate, nil
	}
	stamp := now.Format(secondStamp)
	candidate = filepath.Join(m.dir, FilePrefix+stamp+FileSuffix)
	for n := 1; exists(candidate); n++ {
		if n > 100 {
			return "", fmt.Errorf("failed to generate unique archive filename")
		}
		candidate = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", FilePrefix, stamp, n, FileSuffix))
	}
	return candidate, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyDatabase writes a consistent copy with VACUUM INTO, falling back to
// a plain file copy when the engine refuses.
func (m *Manager) copyDatabase(dest string) error {
	src, err := sql.Open("sqlite", m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	if err := verify(src); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := src.Exec("VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		src.Close()
		return copyFile(m.dbPath, dest)
	}
	return nil
}

// List returns archived copies, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	out := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{
			Path:      filepath.Join(m.dir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Path > out[j].Path
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// parseName extracts the timestamp from "nextstep-<stamp>[-n].db".
func parseName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, FileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), FileSuffix)

	parts := strings.Split(stamp, "-")
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err == nil {
			stamp = parts[0] + "-" + parts[1]
		}
	}
	for _, layout := range []string{minuteStamp, secondStamp} {
		if ts, err := time.Parse(layout, stamp); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func (m *Manager) rotate() error {
	archives, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxArchives; i < len(archives); i++ {
		if err := os.Remove(archives[i].Path); err != nil {
			return fmt.Errorf("failed to remove old archive %s: %w", archives[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the live database with path. The live file is archived
// first (without rotation) so the restore can itself be undone.
func (m *Manager) Restore(path string) error {
	if !exists(path) {
		return fmt.Errorf("archive does not exist: %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("archive is corrupted or invalid: %w", err)
	}
	err = verify(db)
	db.Close()
	if err != nil {
		return fmt.Errorf("archive is corrupted or invalid: %w", err)
	}

	if exists(m.dbPath) {
		saved, err := m.create()
		if err != nil {
			return fmt.Errorf("failed to archive current database before restore: %w", err)
		}
		logger.Info("Archived current database before restore", "path", filepath.Base(saved))
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return fmt.Errorf("failed to copy archive: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}

func verify(db *sql.DB) error {
	var n int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
