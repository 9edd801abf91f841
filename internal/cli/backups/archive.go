package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/nextstep/internal/archive"
	"github.com/julianstephens/nextstep/internal/cli"
	"github.com/julianstephens/nextstep/internal/logger"
)

func archives(ctx *cli.Context) (*archive.Manager, error) {
	mgr := ctx.Archives()
	if mgr == nil {
		return nil, fmt.Errorf("database archives are only available for SQLite storage")
	}
	return mgr, nil
}

type ArchiveCreateCmd struct{}

func (c *ArchiveCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := archives(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("archive failed: %w", err)
	}
	ctx.Printf("✓ Archive created: %s\n", filepath.Base(path))
	return nil
}

type ArchiveListCmd struct{}

func (c *ArchiveListCmd) Run(ctx *cli.Context) error {
	mgr, err := archives(ctx)
	if err != nil {
		return err
	}
	list, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list archives: %w", err)
	}

	if len(list) == 0 {
		ctx.Println("No archives found.")
		ctx.Printf("Archives are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.Printf("Available archives (%d total, keeping most recent %d):\n\n", len(list), archive.MaxArchives)
	for _, a := range list {
		sizeKB := float64(a.Size) / 1024.0
		ctx.Printf("  %s  %s  (%.1f KB)\n", a.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(a.Path), sizeKB)
	}
	ctx.Printf("\nArchive directory: %s\n", mgr.Dir())
	return nil
}

type ArchiveRestoreCmd struct {
	File string `arg:"" help:"Path or filename of the archive to restore."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ArchiveRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := archives(ctx)
	if err != nil {
		return err
	}

	path := c.File
	if !filepath.IsAbs(path) {
		candidate := filepath.Join(mgr.Dir(), c.File)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("archive file not found: %s", path)
	}

	if !c.Yes {
		ok, err := ctx.Ask(
			"Restore "+filepath.Base(path)+"?",
			"This replaces the whole database. The current database is archived first.",
		)
		if err != nil || !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	// Pending backups must land before the file is swapped out.
	if err := ctx.Session.Close(ctx.Context()); err != nil {
		logger.Warn("Pending backup failed", "error", err)
	}
	if err := ctx.Store.Close(); err != nil {
		logger.Warn("Failed to close database connection", "error", err)
	}

	if err := mgr.Restore(path); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Println("✓ Database restored successfully!")
	ctx.Println("Restart any running nextstep processes to use the restored database.")
	return nil
}
