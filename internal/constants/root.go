package constants

import "time"

const (
	AppName            = "nextstep"
	DefaultKeyringUser = "kv-connection"
	DefaultConfigPath  = "~/.config/nextstep/nextstep.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// SnapshotTimeFormat mirrors the millisecond ISO-8601 form written by older exports.
	SnapshotTimeFormat = "2006-01-02T15:04:05.000Z07:00"

	// Storage namespace. Keys look like "@nextstep/<identity>/<field>".
	KeyNamespace     = "@nextstep"
	LocalIdentity    = "local"
	KeyAccounts      = KeyNamespace + "/accounts"
	KeyCurrentUser   = KeyNamespace + "/currentUser"
	FieldEntries     = "entries"
	FieldPhase       = "phase"
	FieldDate        = "date"
	FieldWeekStart   = "weekStartDay"
	FieldBackupAuto  = "backup/auto"
	FieldBackupMeta  = "backup/latestMeta"
	FieldBackupBlob  = "backup/latestBlob"
	BackupDirName    = "backups"
	BackupFileSuffix = "_latest.json"
	ExportFileInfix  = "_nextstep_backup_"

	// SnapshotVersion is stamped on every snapshot this build writes.
	SnapshotVersion = 1

	// DefaultBackupDelay is the quiescence window for debounced auto-backups.
	DefaultBackupDelay = 1200 * time.Millisecond

	// Environment variables
	EnvConfig      = "NEXTSTEP_CONFIG"
	EnvBackupDir   = "NEXTSTEP_BACKUP_DIR"
	EnvDebug       = "NEXTSTEP_DEBUG"
	EnvBackupDelay = "NEXTSTEP_BACKUP_DELAY"
	EnvConnection  = "NEXTSTEP_KV_CONNECTION"
)
