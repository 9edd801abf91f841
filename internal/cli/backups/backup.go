package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/nextstep/internal/backup"
	"github.com/julianstephens/nextstep/internal/cli"
	"github.com/julianstephens/nextstep/internal/models"
)

type CreateCmd struct{}

func (c *CreateCmd) Run(ctx *cli.Context) error {
	meta, err := ctx.Session.Backup(ctx.Context())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Printf("✓ Backup created at %s\n", meta.CreatedAt)
	if meta.URI != nil {
		ctx.Printf("  Stored in: %s\n", *meta.URI)
	}
	return nil
}

type ExportCmd struct {
	Dir    string `help:"Directory to write the export into." default:"." type:"path"`
	Stdout bool   `help:"Write the export to standard output instead of a file."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	var t backup.Transferer = backup.DirTransfer{Dir: c.Dir}
	if c.Stdout {
		t = backup.WriterTransfer{W: ctx.Writer()}
	}
	res, err := ctx.Session.Export(ctx.Context(), t)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if !c.Stdout {
		ctx.Printf("✓ Exported backup from %s to %s\n", res.Meta.CreatedAt, res.Location)
	}
	return nil
}

type RestoreCmd struct {
	File   string `arg:"" optional:"" help:"Backup file to restore."`
	As     string `help:"Restore into this account instead of the one named in the file."`
	Latest bool   `help:"Restore the signed-in account's most recent backup."`
	Yes    bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *RestoreCmd) Run(ctx *cli.Context) error {
	if c.Latest == (c.File != "") {
		return fmt.Errorf("specify either a backup file or --latest")
	}

	if c.Latest {
		if !c.confirm(ctx, "your most recent backup") {
			ctx.Println("Restore cancelled.")
			return nil
		}
		snap, err := ctx.Session.RestoreLatest(ctx.Context())
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		ctx.Printf("✓ Restored backup from %s\n", snap.CreatedAt)
		return nil
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}
	snap, err := backup.Parse(data)
	if err != nil {
		return err
	}
	target := models.NormalizeIdentity(c.As)
	if target == "" {
		target = snap.Email
	}
	if !c.confirm(ctx, fmt.Sprintf("%s (%s) into account %s", filepath.Base(c.File), snap.CreatedAt, target.Segment())) {
		ctx.Println("Restore cancelled.")
		return nil
	}

	if _, err := ctx.Session.Restore(ctx.Context(), data, target); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Printf("✓ Restored %d days of entries; signed in as %s\n", len(snap.Payload.Entries), target.Segment())
	return nil
}

func (c *RestoreCmd) confirm(ctx *cli.Context, what string) bool {
	if c.Yes {
		return true
	}
	ok, err := ctx.Ask("Restore "+what+"?", "This replaces the account's current entries and settings.")
	return err == nil && ok
}

type AutoCmd struct {
	State string `arg:"" enum:"on,off" help:"Turn automatic backups on or off."`
}

func (c *AutoCmd) Run(ctx *cli.Context) error {
	meta, err := ctx.Session.SetAutoBackup(ctx.Context(), c.State == "on")
	if err != nil {
		return err
	}
	if meta == nil {
		ctx.Println("✓ Automatic backups disabled")
		return nil
	}
	ctx.Printf("✓ Automatic backups enabled (backed up at %s)\n", meta.CreatedAt)
	return nil
}

type InfoCmd struct{}

func (c *InfoCmd) Run(ctx *cli.Context) error {
	auto, configured, latest, err := ctx.Session.BackupStatus(ctx.Context())
	if err != nil {
		return err
	}
	state := "off"
	if auto {
		state = "on"
	}
	ctx.Printf("Automatic backups: %s\n", state)
	if !configured || latest == nil {
		ctx.Println("Last backup:       never")
		return nil
	}
	ctx.Printf("Last backup:       %s\n", latest.CreatedAt)
	if latest.URI != nil {
		ctx.Printf("Location:          %s\n", *latest.URI)
	}
	return nil
}
