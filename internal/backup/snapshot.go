package backup

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/julianstephens/nextstep/internal/constants"
	apperr "github.com/julianstephens/nextstep/internal/errors"
	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/settings"
)

type parseConfig struct {
	requireIdentity bool
}

// ParseOption adjusts how strictly Parse validates a document.
type ParseOption func(*parseConfig)

// RequireIdentity rejects documents without a non-empty email.
func RequireIdentity() ParseOption {
	return func(c *parseConfig) { c.requireIdentity = true }
}

// Parse validates a snapshot document. It fails with ErrInvalidFormat when
// data is not a JSON object or has no payload object. Payload fields that
// are missing or out of range are coerced to defaults.
func Parse(data []byte, opts ...ParseOption) (models.Snapshot, error) {
	cfg := parseConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return models.Snapshot{}, apperr.InvalidFormat("not a JSON object")
	}

	rawPayload, ok := doc["payload"]
	var payload map[string]json.RawMessage
	if !ok || json.Unmarshal(rawPayload, &payload) != nil || payload == nil {
		return models.Snapshot{}, apperr.InvalidFormat("missing payload")
	}

	snap := models.Snapshot{
		Version: constants.SnapshotVersion,
		Email:   models.Identity(constants.LocalIdentity),
	}

	var version int
	if raw, ok := doc["version"]; ok && json.Unmarshal(raw, &version) == nil && version > 0 {
		snap.Version = version
	}

	var email string
	if raw, ok := doc["email"]; ok {
		_ = json.Unmarshal(raw, &email)
	}
	if id := models.NormalizeIdentity(email); id != "" {
		snap.Email = id
	} else if cfg.requireIdentity {
		return models.Snapshot{}, apperr.InvalidFormat("missing email")
	}

	if raw, ok := doc["createdAt"]; ok {
		_ = json.Unmarshal(raw, &snap.CreatedAt)
	}

	entries := models.Entries{}
	if raw, ok := payload["entries"]; ok && !isNullJSON(raw) {
		var parsed models.Entries
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return models.Snapshot{}, apperr.InvalidFormat("entries are malformed")
		}
		if parsed != nil {
			entries = parsed
		}
	}
	snap.Payload.Entries = entries

	snap.Payload.Phase = settings.ParsePhase(scalar(payload["phase"]))
	snap.Payload.WeekStartDay = settings.ParseWeekStartDay(scalar(payload["weekStartDay"]))
	if raw, ok := payload["selectedDate"]; ok {
		_ = json.Unmarshal(raw, &snap.Payload.SelectedDate)
	}

	return snap, nil
}

func isNullJSON(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// scalar unwraps a JSON number or numeric string into its text form.
func scalar(raw json.RawMessage) string {
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

// Encode renders a snapshot in its compact stored form.
func Encode(snap models.Snapshot) ([]byte, error) {
	if snap.Payload.Entries == nil {
		snap.Payload.Entries = models.Entries{}
	}
	return json.Marshal(snap)
}

// Indent renders stored snapshot JSON with two-space indentation for export.
func Indent(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// createdAtLayouts are tried in order when naming an export; restored
// documents may carry any of them.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ExportFileName builds "<identity>_nextstep_backup_<createdAt>.json" with
// ':' and '.' in the timestamp replaced by '-'. A createdAt that is not a
// recognizable time is kept with unsafe characters replaced.
func ExportFileName(identity models.Identity, createdAt string) string {
	stamp := strings.TrimSpace(createdAt)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, stamp); err == nil {
			stamp = FormatCreatedAt(t)
			break
		}
	}
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	stamp = unsafeFileChars.ReplaceAllString(stamp, "-")
	return SanitizeFilePart(identity) + constants.ExportFileInfix + stamp + ".json"
}

// FormatCreatedAt renders t as a millisecond UTC ISO-8601 timestamp.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(constants.SnapshotTimeFormat)
}
