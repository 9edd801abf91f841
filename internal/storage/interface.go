package storage

import "context"

// Provider is the string key-value store every piece of persisted state
// goes through. Implementations must be safe for concurrent use.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Keys
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes all pairs or none of them.
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys starting with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Utils
	GetConfigPath() string
}
