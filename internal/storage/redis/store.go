package redis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Store struct {
	url    string
	client *goredis.Client
}

// IsURL reports whether dsn selects the Redis backend.
func IsURL(dsn string) bool {
	return strings.HasPrefix(dsn, "redis://") || strings.HasPrefix(dsn, "rediss://")
}

func New(redisURL string) *Store {
	return &Store{url: redisURL}
}

func (s *Store) connect() error {
	if s.client != nil {
		return nil
	}

	opt, err := goredis.ParseURL(s.url)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := goredis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	s.client = client
	return nil
}

// Init connects; Redis needs no schema.
func (s *Store) Init() error { return s.connect() }
func (s *Store) Load() error { return s.connect() }

func (s *Store) Close() error {
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

// GetConfigPath returns the URL with any password removed.
func (s *Store) GetConfigPath() string {
	u, err := url.Parse(s.url)
	if err != nil {
		return "redis"
	}
	return u.Redacted()
}

func (s *Store) ready() error {
	if s.client == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.ready(); err != nil {
		return "", false, err
	}
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// SetMany writes every pair inside one MULTI/EXEC block.
func (s *Store) SetMany(ctx context.Context, values map[string]string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, k, v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %d keys: %w", len(values), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	iter := s.client.Scan(ctx, 0, globEscape(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
