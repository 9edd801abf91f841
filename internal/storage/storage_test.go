package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/storage/memory"
	"github.com/julianstephens/nextstep/internal/storage/postgres"
	"github.com/julianstephens/nextstep/internal/storage/sqlite"
)

func TestUserKey(t *testing.T) {
	tests := []struct {
		id    models.Identity
		field string
		want  string
	}{
		{"", "entries", "@nextstep/local/entries"},
		{"ann@example.com", "phase", "@nextstep/ann@example.com/phase"},
		{"ann@example.com", "backup/auto", "@nextstep/ann@example.com/backup/auto"},
	}
	for _, tt := range tests {
		if got := UserKey(tt.id, tt.field); got != tt.want {
			t.Errorf("UserKey(%q, %q) = %q, want %q", tt.id, tt.field, got, tt.want)
		}
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	p, err := Open(filepath.Join(t.TempDir(), "nextstep.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*sqlite.Store); !ok {
		t.Errorf("expected sqlite store, got %T", p)
	}

	p, err = Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*memory.Store); !ok {
		t.Errorf("expected memory store, got %T", p)
	}

	p, err = Open("postgres://me@localhost:5432/nextstep")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*postgres.Store); !ok {
		t.Errorf("expected postgres store, got %T", p)
	}

	if Kind("redis://localhost:6379/0") != KindRedis {
		t.Error("redis URL not detected")
	}

	if _, err := Open("postgres://me:pw@localhost/nextstep"); !errors.Is(err, postgres.ErrEmbeddedCredentials) {
		t.Errorf("expected ErrEmbeddedCredentials, got %v", err)
	}
	if _, err := Open("  "); err == nil {
		t.Error("expected error for empty dsn")
	}
}

func providers(t *testing.T) map[string]Provider {
	t.Helper()
	sq := sqlite.NewStore(filepath.Join(t.TempDir(), "nextstep.db"))
	if err := sq.Init(); err != nil {
		t.Fatalf("sqlite Init failed: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Provider{
		"memory": memory.New(),
		"sqlite": sq,
	}
}

func TestProviderContract(t *testing.T) {
	ctx := context.Background()
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := p.Get(ctx, "missing"); ok || err != nil {
				t.Fatalf("Get(missing) = %v, %v", ok, err)
			}

			if err := p.Set(ctx, "@nextstep/a/phase", "1"); err != nil {
				t.Fatal(err)
			}
			if err := p.Set(ctx, "@nextstep/a/phase", "2"); err != nil {
				t.Fatal(err)
			}
			v, ok, err := p.Get(ctx, "@nextstep/a/phase")
			if err != nil || !ok || v != "2" {
				t.Fatalf("Get = %q, %v, %v", v, ok, err)
			}

			err = p.SetMany(ctx, map[string]string{
				"@nextstep/a/entries": "{}",
				"@nextstep/a_b/phase": "1",
				"@nextstep/A/phase":   "1",
			})
			if err != nil {
				t.Fatal(err)
			}

			keys, err := p.Keys(ctx, "@nextstep/a/")
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"@nextstep/a/entries", "@nextstep/a/phase"}
			if len(keys) != len(want) {
				t.Fatalf("Keys = %v, want %v", keys, want)
			}
			for i := range want {
				if keys[i] != want[i] {
					t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
				}
			}

			if err := p.Delete(ctx, "@nextstep/a/phase"); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := p.Get(ctx, "@nextstep/a/phase"); ok {
				t.Error("deleted key still present")
			}
			if err := p.Delete(ctx, "@nextstep/a/phase"); err != nil {
				t.Errorf("deleting a missing key should succeed: %v", err)
			}
		})
	}
}

func TestSQLiteReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nextstep.db")

	s := sqlite.NewStore(path)
	if err := s.Load(); !errors.Is(err, sqlite.ErrNotInitialized) {
		t.Fatalf("Load before Init error = %v, want ErrNotInitialized", err)
	}
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s = sqlite.NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer s.Close()
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Errorf("Get after reload = %q, %v, %v", v, ok, err)
	}
}

func TestMemoryFailureInjection(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	boom := errors.New("disk full")

	m.FailWrites(boom)
	if err := m.Set(ctx, "k", "v"); !errors.Is(err, boom) {
		t.Errorf("Set error = %v", err)
	}
	if err := m.SetMany(ctx, map[string]string{"k": "v"}); !errors.Is(err, boom) {
		t.Errorf("SetMany error = %v", err)
	}
	m.FailWrites(nil)

	m.FailReads(boom)
	if _, _, err := m.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Get error = %v", err)
	}
}
