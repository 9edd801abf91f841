// Package clitest builds command contexts backed by the in-memory store.
package clitest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/nextstep/internal/backup"
	"github.com/julianstephens/nextstep/internal/cli"
	"github.com/julianstephens/nextstep/internal/session"
	"github.com/julianstephens/nextstep/internal/storage/memory"
)

// Env is a ready command context plus the pieces tests inspect.
type Env struct {
	Ctx   *cli.Context
	Out   *bytes.Buffer
	Mem   *memory.Store
	Clock *clockwork.FakeClock
	Blobs *backup.FileBlobStore
}

// New returns a context whose clock reads 2024-01-03 12:00 local time.
// When handle is non-empty the session is signed in as that user.
func New(t *testing.T, handle string) Env {
	t.Helper()
	mem := memory.New()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 3, 12, 0, 0, 0, time.Local))
	blobs := backup.NewFileBlobStore(t.TempDir())
	engine := backup.NewEngine(mem, blobs, clock)
	sess := session.New(session.Options{
		Provider:    mem,
		Engine:      engine,
		Clock:       clock,
		BackupDelay: time.Second,
	})
	t.Cleanup(func() { _ = sess.Close(context.Background()) })

	ctx := context.Background()
	if err := sess.Start(ctx); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	if handle != "" {
		if _, err := sess.SignIn(ctx, handle); err != nil {
			t.Fatalf("failed to sign in: %v", err)
		}
	}

	var out bytes.Buffer
	return Env{
		Ctx: &cli.Context{
			Ctx:     ctx,
			DSN:     ":memory:",
			Store:   mem,
			Engine:  engine,
			Session: sess,
			Clock:   clock,
			Out:     &out,
			Confirm: func(string, string) (bool, error) { return true, nil },
		},
		Out:   &out,
		Mem:   mem,
		Clock: clock,
		Blobs: blobs,
	}
}
