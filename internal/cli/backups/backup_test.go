package backups

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/nextstep/internal/backup"
	"github.com/julianstephens/nextstep/internal/category"
	"github.com/julianstephens/nextstep/internal/cli/clitest"
	apperr "github.com/julianstephens/nextstep/internal/errors"
)

func seeded(t *testing.T) clitest.Env {
	t.Helper()
	env := clitest.New(t, "ann@example.com")
	require.NoError(t, env.Ctx.Session.SetValue(env.Ctx.Context(), "2024-01-02", category.Entrees, 4))
	return env
}

func exportTo(t *testing.T, env clitest.Env) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, (&ExportCmd{Dir: dir}).Run(env.Ctx))
	matches, err := filepath.Glob(filepath.Join(dir, "*_nextstep_backup_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	return matches[0]
}

func TestCreateCmd(t *testing.T) {
	env := seeded(t)
	require.NoError(t, (&CreateCmd{}).Run(env.Ctx))

	out := env.Out.String()
	assert.Contains(t, out, "Backup created at 2024-01-0")
	assert.Contains(t, out, filepath.Join(env.Blobs.Dir(), backup.LatestFileName("ann@example.com")))
}

func TestExportCmd(t *testing.T) {
	env := seeded(t)
	path := exportTo(t, env)

	assert.True(t, strings.HasPrefix(filepath.Base(path), "ann_example.com_nextstep_backup_"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"payload\": {")
	assert.Contains(t, env.Out.String(), "Exported backup")
}

func TestExportCmdStdout(t *testing.T) {
	env := seeded(t)
	env.Out.Reset()
	require.NoError(t, (&ExportCmd{Stdout: true}).Run(env.Ctx))

	out := env.Out.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \""), "expected indented JSON, got %q", out)
	assert.Contains(t, out, `"email": "ann@example.com"`)
	assert.NotContains(t, out, "Exported backup")
}

func TestRestoreCmdFromFile(t *testing.T) {
	path := exportTo(t, seeded(t))

	env := clitest.New(t, "")
	require.NoError(t, (&RestoreCmd{File: path, Yes: true}).Run(env.Ctx))

	id, err := env.Ctx.Session.User()
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", id.String())
	store, err := env.Ctx.Session.Entries()
	require.NoError(t, err)
	assert.Equal(t, 4.0, store.Value("2024-01-02", category.Entrees))
}

func TestRestoreCmdAs(t *testing.T) {
	path := exportTo(t, seeded(t))

	env := clitest.New(t, "")
	require.NoError(t, (&RestoreCmd{File: path, As: "Bob", Yes: true}).Run(env.Ctx))

	id, err := env.Ctx.Session.User()
	require.NoError(t, err)
	assert.Equal(t, "bob", id.String())
	assert.Contains(t, env.Out.String(), "signed in as bob")
}

func TestRestoreCmdCancelled(t *testing.T) {
	path := exportTo(t, seeded(t))

	env := clitest.New(t, "")
	asked := false
	env.Ctx.Confirm = func(title, _ string) (bool, error) {
		asked = true
		assert.Contains(t, title, "into account ann@example.com")
		return false, nil
	}
	require.NoError(t, (&RestoreCmd{File: path}).Run(env.Ctx))

	assert.True(t, asked)
	assert.Contains(t, env.Out.String(), "Restore cancelled.")
	_, err := env.Ctx.Session.User()
	assert.ErrorIs(t, err, apperr.ErrNoCurrentUser)
}

func TestRestoreCmdInvalid(t *testing.T) {
	env := clitest.New(t, "")
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	err := (&RestoreCmd{File: path, Yes: true}).Run(env.Ctx)
	assert.ErrorIs(t, err, apperr.ErrInvalidFormat)

	assert.Error(t, (&RestoreCmd{}).Run(env.Ctx))
	assert.Error(t, (&RestoreCmd{File: path, Latest: true}).Run(env.Ctx))
}

func TestRestoreCmdLatest(t *testing.T) {
	env := seeded(t)
	require.NoError(t, (&CreateCmd{}).Run(env.Ctx))
	require.NoError(t, env.Ctx.Session.SetValue(env.Ctx.Context(), "2024-01-02", category.Entrees, 9))

	require.NoError(t, (&RestoreCmd{Latest: true, Yes: true}).Run(env.Ctx))

	store, err := env.Ctx.Session.Entries()
	require.NoError(t, err)
	assert.Equal(t, 4.0, store.Value("2024-01-02", category.Entrees))
}

func TestAutoAndInfoCmds(t *testing.T) {
	env := clitest.New(t, "ann")

	require.NoError(t, (&InfoCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Automatic backups: off")
	assert.Contains(t, env.Out.String(), "Last backup:       never")

	env.Out.Reset()
	require.NoError(t, (&AutoCmd{State: "on"}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Automatic backups enabled")

	env.Out.Reset()
	require.NoError(t, (&InfoCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Automatic backups: on")
	assert.Contains(t, env.Out.String(), "ann_latest.json")

	env.Out.Reset()
	require.NoError(t, (&AutoCmd{State: "off"}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Automatic backups disabled")
}
