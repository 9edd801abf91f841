package system

import (
	"fmt"

	"github.com/julianstephens/nextstep/internal/cli"
	"github.com/julianstephens/nextstep/internal/storage"
)

type MigrateCmd struct {
	NoArchive bool `help:"Skip the database archive taken before migrating."`
}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	migrator, ok := ctx.Store.(storage.Migrator)
	if !ok {
		ctx.Println("This storage backend has no schema to migrate.")
		return nil
	}

	if mgr := ctx.Archives(); mgr != nil && !c.NoArchive {
		path, err := mgr.Create()
		if err != nil {
			return fmt.Errorf("failed to archive database before migrating: %w", err)
		}
		ctx.Printf("Archived database to %s\n", path)
	}

	count, err := migrator.Migrate(func(msg string) {
		ctx.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.Println("No migrations to apply. Database is up to date.")
	} else {
		ctx.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
