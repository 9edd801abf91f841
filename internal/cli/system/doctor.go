package system

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/nextstep/internal/accounts"
	"github.com/julianstephens/nextstep/internal/cli"
	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/storage"
)

type DoctorCmd struct{}

type check struct {
	name     string
	needsDB  bool
	warnOnly bool
	run      func(*cli.Context) error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	checks := []check{
		{name: "Storage reachable", run: checkReachable},
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Stored data", needsDB: true, run: checkStoredData},
		{name: "Backups present", needsDB: true, warnOnly: true, run: checkBackupsPresent},
		{name: "Clock/timezone", run: checkClockTimezone},
	}

	hasError := false
	reachable := false
	for i, c := range checks {
		if c.needsDB && !reachable {
			ctx.Printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
			if i == 0 {
				reachable = true
			}
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}
	if _, err := ctx.Store.Keys(ctx.Context(), constants.KeyNamespace+"/"); err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	v, ok := ctx.Store.(storage.Versioned)
	if !ok {
		return nil
	}
	current, latest, err := v.SchemaVersions()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

// checkStoredData verifies every account's entries decode.
func checkStoredData(ctx *cli.Context) error {
	ids := accounts.New(ctx.Store).List(ctx.Context())
	ids = append(ids, models.Identity(constants.LocalIdentity))
	for _, id := range ids {
		key := storage.UserKey(id, constants.FieldEntries)
		raw, ok, err := ctx.Store.Get(ctx.Context(), key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok || raw == "" {
			continue
		}
		var entries models.Entries
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return fmt.Errorf("entries for %s are not valid JSON: %w", id.Segment(), err)
		}
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	current, ok, err := accounts.New(ctx.Store).Current(ctx.Context())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("nobody is signed in")
	}
	if !ctx.Engine.IsConfigured(ctx.Context(), current) {
		return fmt.Errorf("no backups for %s - consider '%s backup auto on'", current, constants.AppName)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if ctx.Clock != nil {
		now = ctx.Clock.Now()
	}
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
