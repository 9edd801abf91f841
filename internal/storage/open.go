package storage

import (
	"fmt"
	"strings"

	"github.com/julianstephens/nextstep/internal/storage/memory"
	"github.com/julianstephens/nextstep/internal/storage/postgres"
	"github.com/julianstephens/nextstep/internal/storage/redis"
	"github.com/julianstephens/nextstep/internal/storage/sqlite"
)

// Backend names reported by Kind.
const (
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindRedis    = "redis"
	KindMemory   = "memory"
)

// Kind classifies a DSN: postgres:// and redis:// URLs select those
// backends, ":memory:" the in-process store, anything else a SQLite path.
func Kind(dsn string) string {
	switch {
	case postgres.IsConnString(dsn):
		return KindPostgres
	case redis.IsURL(dsn):
		return KindRedis
	case dsn == ":memory:":
		return KindMemory
	default:
		return KindSQLite
	}
}

// Open builds the Provider for dsn without connecting. Call Init or Load
// before use.
func Open(dsn string) (Provider, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty storage location")
	}
	switch Kind(dsn) {
	case KindPostgres:
		if _, err := postgres.ValidateConnString(dsn); err != nil {
			return nil, err
		}
		return postgres.New(dsn), nil
	case KindRedis:
		return redis.New(dsn), nil
	case KindMemory:
		return memory.New(), nil
	default:
		return sqlite.NewStore(dsn), nil
	}
}

// Migrator is implemented by backends that carry a versioned schema.
type Migrator interface {
	Migrate(logFn func(string)) (int, error)
}

// Versioned is implemented by backends that can report schema versions.
type Versioned interface {
	SchemaVersions() (current, latest int, err error)
}
