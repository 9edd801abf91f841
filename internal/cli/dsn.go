package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/keyring"
	"github.com/julianstephens/nextstep/internal/logger"
)

// Where a storage location came from.
const (
	SourceFlag    = "flag"
	SourceEnv     = "env"
	SourceKeyring = "keyring"
	SourceDefault = "default"
)

// ResolveDSN picks the storage location: an explicit --config value, then
// NEXTSTEP_KV_CONNECTION, then a connection string saved in the OS keyring,
// then the default SQLite file.
func ResolveDSN(flag string) (dsn, source string) {
	if v := strings.TrimSpace(flag); v != "" {
		return ExpandHome(v), SourceFlag
	}
	if v := strings.TrimSpace(os.Getenv(constants.EnvConnection)); v != "" {
		return v, SourceEnv
	}
	v, err := keyring.GetConnectionString()
	switch {
	case err == nil && strings.TrimSpace(v) != "":
		return v, SourceKeyring
	case err != nil && !errors.Is(err, keyring.ErrNotFound):
		logger.Debug("Keyring lookup failed", "error", err)
	}
	return ExpandHome(constants.DefaultConfigPath), SourceDefault
}
