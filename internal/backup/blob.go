package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/models"
)

// BlobStore keeps the newest snapshot document per identity.
type BlobStore interface {
	// Write replaces the identity's document and returns its locator. An
	// empty locator means the document has no address outside the process.
	Write(ctx context.Context, identity models.Identity, data []byte) (string, error)
	Read(ctx context.Context, locator string) ([]byte, error)
	// Latest returns a locator Read accepts, or false when nothing is stored.
	Latest(ctx context.Context, identity models.Identity) (string, bool, error)
}

var unsafeFileChars = regexp.MustCompile(`[^\w.-]`)

// identityTag namespaces the short hashes that keep lossy file names apart.
var identityTag = uuid.MustParse("5b0f8e46-3c1e-4f4a-9d57-2f6c1a9e8b10")

// SanitizeFilePart turns an identity into a file-name fragment.
func SanitizeFilePart(identity models.Identity) string {
	s := strings.ToLower(strings.TrimSpace(string(identity)))
	s = unsafeFileChars.ReplaceAllString(s, "_")
	if s == "" {
		return constants.LocalIdentity
	}
	return s
}

// LatestFileName is the on-disk name of an identity's newest backup. When
// sanitizing dropped characters a short hash of the identity is appended,
// so "a+b@x.com" and "a_b@x.com" never share a file.
func LatestFileName(identity models.Identity) string {
	id := models.NormalizeIdentity(string(identity))
	part := SanitizeFilePart(id)
	if id != "" && part != string(id) {
		part += "-" + uuid.NewSHA1(identityTag, []byte(id)).String()[:8]
	}
	return part + constants.BackupFileSuffix
}

// FileBlobStore keeps one "<identity>_latest.json" file per identity.
type FileBlobStore struct {
	dir string
}

func NewFileBlobStore(dir string) *FileBlobStore {
	return &FileBlobStore{dir: dir}
}

// Dir returns the backup directory path
func (f *FileBlobStore) Dir() string {
	return f.dir
}

func (f *FileBlobStore) path(identity models.Identity) (string, error) {
	return filepath.Abs(filepath.Join(f.dir, LatestFileName(identity)))
}

// Write replaces the file atomically: the data goes to a uniquely named
// temp file in the same directory, is synced, then renamed over the target.
func (f *FileBlobStore) Write(_ context.Context, identity models.Identity, data []byte) (string, error) {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	target, err := f.path(identity)
	if err != nil {
		return "", err
	}

	tmp := filepath.Join(f.dir, "."+uuid.NewString()+".tmp")
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() {
		file.Close()
		os.Remove(tmp)
	}

	if _, err := file.Write(data); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := file.Sync(); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to sync backup: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close backup: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move backup into place: %w", err)
	}
	return target, nil
}

func (f *FileBlobStore) Read(_ context.Context, locator string) ([]byte, error) {
	return os.ReadFile(locator)
}

func (f *FileBlobStore) Latest(_ context.Context, identity models.Identity) (string, bool, error) {
	p, err := f.path(identity)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return p, true, nil
}

// MemoryBlobStore keeps documents in process memory. Write reports an
// empty locator, so metadata records no uri.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

const memoryScheme = "memory://"

func (m *MemoryBlobStore) Write(_ context.Context, identity models.Identity, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[identity.Segment()] = append([]byte(nil), data...)
	return "", nil
}

func (m *MemoryBlobStore) Read(_ context.Context, locator string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[strings.TrimPrefix(locator, memoryScheme)]
	if !ok {
		return nil, fmt.Errorf("no backup at %s", locator)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBlobStore) Latest(_ context.Context, identity models.Identity) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.blobs[identity.Segment()]; !ok {
		return "", false, nil
	}
	return memoryScheme + identity.Segment(), true, nil
}
