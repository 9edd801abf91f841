package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/nextstep/internal/backup"
	"github.com/julianstephens/nextstep/internal/cli"
	"github.com/julianstephens/nextstep/internal/cli/accounts"
	"github.com/julianstephens/nextstep/internal/cli/backups"
	"github.com/julianstephens/nextstep/internal/cli/entries"
	"github.com/julianstephens/nextstep/internal/cli/reports"
	"github.com/julianstephens/nextstep/internal/cli/settings"
	"github.com/julianstephens/nextstep/internal/cli/system"
	"github.com/julianstephens/nextstep/internal/constants"
	apperr "github.com/julianstephens/nextstep/internal/errors"
	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/session"
	"github.com/julianstephens/nextstep/internal/storage"
)

var CLI struct {
	Version     kong.VersionFlag
	Config      string        `help:"SQLite file path, postgres:// or redis:// URL, or :memory:. For PostgreSQL, credentials must NOT be embedded in the connection string." env:"NEXTSTEP_CONFIG"`
	BackupDir   string        `help:"Directory for latest-snapshot files." env:"NEXTSTEP_BACKUP_DIR"`
	BackupDelay time.Duration `help:"Quiet period before an automatic backup runs." env:"NEXTSTEP_BACKUP_DELAY" default:"1200ms"`
	Debug       bool          `help:"Log debug output to stderr." env:"NEXTSTEP_DEBUG"`

	Init    system.InitCmd    `cmd:"" help:"Initialize nextstep storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`

	Account struct {
		Signin  accounts.SignInCmd  `cmd:"" help:"Sign in, creating the account on first use."`
		Signout accounts.SignOutCmd `cmd:"" help:"Sign out. Data stays on this device."`
		List    accounts.ListCmd    `cmd:"" help:"List accounts on this device."`
		Whoami  accounts.WhoAmICmd  `cmd:"" help:"Show the signed-in account." default:"1"`
	} `cmd:"" help:"Manage local accounts."`

	Entry struct {
		Show entries.ShowCmd `cmd:"" help:"Show a day's values." default:"1"`
		Set  entries.SetCmd  `cmd:"" help:"Set a category value."`
		Inc  entries.IncCmd  `cmd:"" help:"Add one to a category."`
		Dec  entries.DecCmd  `cmd:"" help:"Subtract one from a category."`
	} `cmd:"" help:"Track daily category values."`

	Activity struct {
		List   entries.ActivityListCmd   `cmd:"" help:"List a day's activity entries." default:"1"`
		Add    entries.ActivityAddCmd    `cmd:"" help:"Log calories burned."`
		Update entries.ActivityUpdateCmd `cmd:"" help:"Change an activity entry."`
		Remove entries.ActivityRemoveCmd `cmd:"" help:"Remove an activity entry."`
		Calc   entries.ActivityCalcCmd   `cmd:"" help:"Estimate calories for an exercise and log them."`
	} `cmd:"" help:"Manage the physical activity log."`

	Week     reports.WeekCmd      `cmd:"" help:"Show weekly totals."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage phase, selected date and week start."`

	Backup struct {
		Create  backups.CreateCmd  `cmd:"" help:"Back up the signed-in account now." default:"1"`
		Export  backups.ExportCmd  `cmd:"" help:"Export the latest backup as a JSON file."`
		Restore backups.RestoreCmd `cmd:"" help:"Restore an account from a backup file."`
		Auto    backups.AutoCmd    `cmd:"" help:"Turn automatic backups on or off."`
		Info    backups.InfoCmd    `cmd:"" help:"Show backup status."`
		Archive struct {
			Create  backups.ArchiveCreateCmd  `cmd:"" help:"Archive the whole SQLite database." default:"1"`
			List    backups.ArchiveListCmd    `cmd:"" help:"List database archives."`
			Restore backups.ArchiveRestoreCmd `cmd:"" help:"Replace the database with an archive."`
		} `cmd:"" help:"Manage whole-database archives (SQLite only)."`
	} `cmd:"" help:"Manage account backups."`

	Conn struct {
		SetDSN    system.SetDSNCmd    `cmd:"" name:"set-dsn" help:"Store a connection string in the OS keyring."`
		DeleteDSN system.DeleteDSNCmd `cmd:"" name:"delete-dsn" help:"Remove the stored connection string."`
		Status    system.StatusCmd    `cmd:"" help:"Show which storage is in use." default:"1"`
	} `cmd:"" name:"config" help:"Manage the storage connection."`
}

// Commands that open storage themselves or never need a signed-in session.
var noLoad = map[string]bool{"init": true, "migrate": true, "doctor": true, "config": true}

func main() {
	// A missing .env file is normal.
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily nutrition and activity tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": "v0.1.0"},
	)

	dsn, source := cli.ResolveDSN(CLI.Config)
	kind := storage.Kind(dsn)

	configDir := cli.ExpandHome(filepath.Dir(constants.DefaultConfigPath))
	if kind == storage.KindSQLite {
		configDir = filepath.Dir(dsn)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := storage.Open(dsn)
	if err != nil {
		apperr.Fatal(err)
	}

	var blobs backup.BlobStore
	switch {
	case kind == storage.KindMemory:
		blobs = backup.NewMemoryBlobStore()
	case CLI.BackupDir != "":
		blobs = backup.NewFileBlobStore(cli.ExpandHome(CLI.BackupDir))
	default:
		blobs = backup.NewFileBlobStore(filepath.Join(configDir, constants.BackupDirName))
	}

	clock := clockwork.NewRealClock()
	engine := backup.NewEngine(store, blobs, clock)
	sess := session.New(session.Options{
		Provider:            store,
		Engine:              engine,
		Clock:               clock,
		BackupDelay:         CLI.BackupDelay,
		AutoBackupByDefault: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	appCtx := &cli.Context{
		Ctx:       ctx,
		DSN:       dsn,
		DSNSource: source,
		Store:     store,
		Engine:    engine,
		Session:   sess,
		Clock:     clock,
		Out:       os.Stdout,
	}

	command := strings.Fields(kctx.Command())
	if len(command) > 0 && !noLoad[command[0]] {
		if err := store.Load(); err != nil {
			apperr.Fatal(err)
		}
		if err := sess.Start(ctx); err != nil {
			apperr.Fatal(err)
		}
	}

	err = kctx.Run(appCtx)
	// Pending automatic backups must finish before exit.
	if cerr := sess.Close(context.Background()); cerr != nil {
		logger.Warn("Pending backup failed", "error", cerr)
	}
	if cerr := store.Close(); cerr != nil {
		logger.Warn("Failed to close storage", "error", cerr)
	}
	apperr.Fatal(err)
}
