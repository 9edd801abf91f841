package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store keeps every key in process memory. It backs tests and the
// throwaway "browser" style session where nothing should touch disk.
type Store struct {
	mu         sync.RWMutex
	values     map[string]string
	failWrites error
	failReads  error
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

// FailWrites makes every later write return err. Pass nil to recover.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

// FailReads makes every later read return err. Pass nil to recover.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = err
}

func (s *Store) Init() error  { return nil }
func (s *Store) Load() error  { return nil }
func (s *Store) Close() error { return nil }

func (s *Store) GetConfigPath() string { return ":memory:" }

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failReads != nil {
		return "", false, s.failReads
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	s.values[key] = value
	return nil
}

func (s *Store) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	delete(s.values, key)
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	keys := make([]string, 0)
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
