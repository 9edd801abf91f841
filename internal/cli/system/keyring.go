package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/nextstep/internal/cli"
	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/keyring"
	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/storage"
	"github.com/julianstephens/nextstep/internal/storage/postgres"
)

// SetDSNCmd stores a remote storage connection string in the OS keyring.
type SetDSNCmd struct {
	ConnectionString string `arg:"" help:"postgres:// or redis:// connection string to store."`
}

func (cmd *SetDSNCmd) Run(ctx *cli.Context) error {
	switch storage.Kind(cmd.ConnectionString) {
	case storage.KindPostgres:
		if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.Println("⚠️  Warning: Connection string contains embedded credentials.")
			ctx.Println("   It will be stored as-is in the OS keyring.")
		}
	case storage.KindRedis:
	default:
		return errors.New("connection string must be a postgres:// or redis:// URL")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}
	ctx.Println("✓ Connection string stored in OS keyring")
	ctx.Printf("  %s will use it when --config is not given\n", constants.AppName)
	return nil
}

type DeleteDSNCmd struct{}

func (cmd *DeleteDSNCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	ctx.Println("✓ Connection string deleted from OS keyring")
	return nil
}

// StatusCmd shows where storage is resolved from.
type StatusCmd struct{}

func (cmd *StatusCmd) Run(ctx *cli.Context) error {
	ctx.Printf("Storage: %s (%s, from %s)\n", maskPassword(ctx.DSN), storage.Kind(ctx.DSN), ctx.DSNSource)
	if keyring.IsAvailable() {
		ctx.Println("✓ OS keyring is available")
	} else {
		ctx.Println("❌ OS keyring is not available on this system")
	}
	if path := logger.Path(); path != "" {
		ctx.Printf("Log file: %s\n", path)
	}
	return nil
}

// maskPassword hides passwords in URL and key=value connection strings.
func maskPassword(connStr string) string {
	if idx := strings.Index(connStr, "://"); idx != -1 {
		rest := connStr[idx+3:]
		if at := strings.LastIndex(rest, "@"); at != -1 {
			userInfo := rest[:at]
			if colon := strings.Index(userInfo, ":"); colon != -1 {
				return connStr[:idx+3] + userInfo[:colon] + ":****" + rest[at:]
			}
		}
		return connStr
	}
	if !strings.Contains(connStr, "password=") {
		return connStr
	}
	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
