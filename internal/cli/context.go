package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/nextstep/internal/archive"
	"github.com/julianstephens/nextstep/internal/backup"
	apperr "github.com/julianstephens/nextstep/internal/errors"
	"github.com/julianstephens/nextstep/internal/session"
	"github.com/julianstephens/nextstep/internal/storage"
	"github.com/julianstephens/nextstep/internal/storage/sqlite"
	"github.com/julianstephens/nextstep/internal/utils"
)

// ConfirmFunc asks a yes/no question.
type ConfirmFunc func(title, description string) (bool, error)

type Context struct {
	Ctx context.Context
	// DSN is the resolved storage location and DSNSource where it came from.
	DSN       string
	DSNSource string

	Store   storage.Provider
	Engine  *backup.Engine
	Session *session.Session
	Clock   clockwork.Clock
	Out     io.Writer
	Confirm ConfirmFunc
}

func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Writer is where command output goes.
func (c *Context) Writer() io.Writer {
	return c.out()
}

// Ask runs Confirm, falling back to an interactive huh prompt.
func (c *Context) Ask(title, description string) (bool, error) {
	if c.Confirm != nil {
		return c.Confirm(title, description)
	}
	return HuhConfirm(title, description)
}

// Today is the current calendar date.
func (c *Context) Today() string {
	clock := c.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return utils.Today(clock)
}

// Archives returns the database archive manager, or nil when the store is
// not a SQLite file.
func (c *Context) Archives() *archive.Manager {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil
	}
	return archive.NewManager(c.Store.GetConfigPath(), c.Clock)
}

// HuhConfirm asks on the terminal.
func HuhConfirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ResolveDate returns flag when given, otherwise the signed-in identity's
// selected date, otherwise today.
func (c *Context) ResolveDate(flag string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "":
	case "today":
		return c.Today(), nil
	case "yesterday":
		return utils.AddDays(c.Today(), -1)
	default:
		if !utils.ValidateDate(flag) {
			return "", apperr.Validation("date", "invalid date "+flag+", expected YYYY-MM-DD")
		}
		return flag, nil
	}
	st, err := c.Session.Settings()
	if err != nil {
		return "", err
	}
	if st.SelectedDate != "" {
		return st.SelectedDate, nil
	}
	return c.Today(), nil
}
