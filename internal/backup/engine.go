// Package backup snapshots an identity's state into a versioned JSON
// document, keeps the newest one per identity, and parses documents back
// for restore.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/nextstep/internal/constants"
	apperr "github.com/julianstephens/nextstep/internal/errors"
	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/settings"
	"github.com/julianstephens/nextstep/internal/storage"
)

type Engine struct {
	provider storage.Provider
	blobs    BlobStore
	clock    clockwork.Clock
}

func NewEngine(provider storage.Provider, blobs BlobStore, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		provider: provider,
		blobs:    blobs,
		clock:    clock,
	}
}

type coreState struct {
	entries, phase, date, weekStart string
}

func (e *Engine) readCoreState(ctx context.Context, id models.Identity) (coreState, error) {
	var st coreState
	g, gctx := errgroup.WithContext(ctx)
	read := func(field string, dst *string) {
		g.Go(func() error {
			key := storage.UserKey(id, field)
			v, _, err := e.provider.Get(gctx, key)
			if err != nil {
				return apperr.StorageRead(key, err)
			}
			*dst = v
			return nil
		})
	}
	read(constants.FieldEntries, &st.entries)
	read(constants.FieldPhase, &st.phase)
	read(constants.FieldDate, &st.date)
	read(constants.FieldWeekStart, &st.weekStart)
	return st, g.Wait()
}

func (e *Engine) makeSnapshot(id models.Identity, st coreState) models.Snapshot {
	entries := models.Entries{}
	if st.entries != "" {
		var parsed models.Entries
		if err := json.Unmarshal([]byte(st.entries), &parsed); err == nil && parsed != nil {
			entries = parsed
		} else {
			logger.Warn("Stored entries unreadable, snapshotting empty entries", "identity", id.Segment(), "error", err)
		}
	}
	return models.Snapshot{
		Version:   constants.SnapshotVersion,
		Email:     models.Identity(id.Segment()),
		CreatedAt: FormatCreatedAt(e.clock.Now()),
		Payload: models.Payload{
			Entries:      entries,
			Phase:        settings.ParsePhase(st.phase),
			SelectedDate: st.date,
			WeekStartDay: settings.ParseWeekStartDay(st.weekStart),
		},
	}
}

// CreateSnapshot captures the identity's current state, caches it as the
// latest blob, writes it to the blob store and records the metadata.
func (e *Engine) CreateSnapshot(ctx context.Context, id models.Identity) (models.Snapshot, models.BackupMeta, error) {
	st, err := e.readCoreState(ctx, id)
	if err != nil {
		return models.Snapshot{}, models.BackupMeta{}, err
	}
	snap := e.makeSnapshot(id, st)

	data, err := Encode(snap)
	if err != nil {
		return models.Snapshot{}, models.BackupMeta{}, apperr.StorageWrite("snapshot", err)
	}

	blobKey := storage.UserKey(id, constants.FieldBackupBlob)
	if err := e.provider.Set(ctx, blobKey, string(data)); err != nil {
		return models.Snapshot{}, models.BackupMeta{}, apperr.StorageWrite(blobKey, err)
	}

	meta := models.BackupMeta{CreatedAt: snap.CreatedAt}
	if e.blobs != nil {
		locator, err := e.blobs.Write(ctx, id, data)
		if err != nil {
			return models.Snapshot{}, models.BackupMeta{}, apperr.StorageWrite(LatestFileName(id), err)
		}
		if locator != "" {
			meta.URI = &locator
		}
	}

	if err := e.writeMeta(ctx, id, meta); err != nil {
		return models.Snapshot{}, models.BackupMeta{}, err
	}
	logger.Debug("Backup written", "identity", id.Segment(), "createdAt", meta.CreatedAt)
	return snap, meta, nil
}

func (e *Engine) writeMeta(ctx context.Context, id models.Identity, meta models.BackupMeta) error {
	key := storage.UserKey(id, constants.FieldBackupMeta)
	data, err := json.Marshal(meta)
	if err != nil {
		return apperr.StorageWrite(key, err)
	}
	if err := e.provider.Set(ctx, key, string(data)); err != nil {
		return apperr.StorageWrite(key, err)
	}
	return nil
}

// readJSON decodes the value under key into dst. Missing or unparseable
// values report false.
func (e *Engine) readJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := e.provider.Get(ctx, key)
	if err != nil {
		return false, apperr.StorageRead(key, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logger.Warn("Ignoring unparseable backup value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// ExportResult describes a completed export.
type ExportResult struct {
	Meta     models.BackupMeta
	Name     string
	Location string
}

// ExportSnapshot hands the newest snapshot to t as indented JSON, creating
// a snapshot first when none exists.
func (e *Engine) ExportSnapshot(ctx context.Context, id models.Identity, t Transferer) (ExportResult, error) {
	if t == nil {
		return ExportResult{}, apperr.ErrTransferUnavailable
	}

	current, err := e.LatestBackupInfo(ctx, id)
	if err != nil {
		return ExportResult{}, err
	}
	hasMeta := current != nil
	var meta models.BackupMeta
	if hasMeta {
		meta = *current
	}
	blob, hasBlob, err := e.latestBlob(ctx, id)
	if err != nil {
		return ExportResult{}, err
	}

	if !hasMeta || !hasBlob {
		if _, meta, err = e.CreateSnapshot(ctx, id); err != nil {
			return ExportResult{}, err
		}
		if blob, hasBlob, err = e.latestBlob(ctx, id); err != nil {
			return ExportResult{}, err
		}
		if !hasBlob {
			return ExportResult{}, fmt.Errorf("latest backup missing after snapshot")
		}
	}

	var head struct {
		CreatedAt json.RawMessage `json:"createdAt"`
	}
	_ = json.Unmarshal(blob, &head)
	var createdAt string
	if json.Unmarshal(head.CreatedAt, &createdAt) != nil || strings.TrimSpace(createdAt) == "" {
		createdAt = FormatCreatedAt(e.clock.Now())
	}

	out, err := Indent(blob)
	if err != nil {
		return ExportResult{}, apperr.InvalidFormat("latest backup is not valid JSON")
	}
	name := ExportFileName(id, createdAt)
	location, err := t.Transfer(ctx, name, out)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Meta: meta, Name: name, Location: location}, nil
}

// latestBlob returns the cached latest snapshot if it is a JSON object.
func (e *Engine) latestBlob(ctx context.Context, id models.Identity) ([]byte, bool, error) {
	key := storage.UserKey(id, constants.FieldBackupBlob)
	raw, ok, err := e.provider.Get(ctx, key)
	if err != nil {
		return nil, false, apperr.StorageRead(key, err)
	}
	var obj map[string]json.RawMessage
	if !ok || json.Unmarshal([]byte(raw), &obj) != nil || obj == nil {
		return nil, false, nil
	}
	return []byte(raw), true, nil
}

// RestoreSnapshot validates data and records it as the latest backup of
// the identity it names. Nothing is written when validation fails. The
// caller applies the returned payload to live state.
func (e *Engine) RestoreSnapshot(ctx context.Context, data []byte, opts ...ParseOption) (models.Snapshot, error) {
	return e.restore(ctx, data, nil, opts...)
}

// RestoreFromLatest restores the identity's newest document from the blob
// store.
func (e *Engine) RestoreFromLatest(ctx context.Context, id models.Identity, opts ...ParseOption) (models.Snapshot, error) {
	if e.blobs == nil {
		return models.Snapshot{}, fmt.Errorf("no backup location configured")
	}
	locator, ok, err := e.blobs.Latest(ctx, id)
	if err != nil {
		return models.Snapshot{}, apperr.StorageRead(LatestFileName(id), err)
	}
	if !ok {
		return models.Snapshot{}, fmt.Errorf("no backup found for %s", id.Segment())
	}
	data, err := e.blobs.Read(ctx, locator)
	if err != nil {
		return models.Snapshot{}, apperr.StorageRead(locator, err)
	}
	snap, err := Parse(data, opts...)
	if err != nil {
		return models.Snapshot{}, err
	}
	if snap.Email.Segment() != models.NormalizeIdentity(string(id)).Segment() {
		return models.Snapshot{}, apperr.InvalidFormat(fmt.Sprintf("latest backup for %s belongs to %s", id.Segment(), snap.Email.Segment()))
	}
	var uri *string
	if _, inMemory := e.blobs.(*MemoryBlobStore); !inMemory {
		uri = &locator
	}
	return e.restore(ctx, data, uri, opts...)
}

func (e *Engine) restore(ctx context.Context, data []byte, uri *string, opts ...ParseOption) (models.Snapshot, error) {
	snap, err := Parse(data, opts...)
	if err != nil {
		return models.Snapshot{}, err
	}

	compact, err := compactJSON(data)
	if err != nil {
		return models.Snapshot{}, apperr.InvalidFormat("not a JSON object")
	}

	createdAt := snap.CreatedAt
	if createdAt == "" {
		createdAt = FormatCreatedAt(e.clock.Now())
	}

	blobKey := storage.UserKey(snap.Email, constants.FieldBackupBlob)
	if err := e.provider.Set(ctx, blobKey, compact); err != nil {
		return models.Snapshot{}, apperr.StorageWrite(blobKey, err)
	}
	if err := e.writeMeta(ctx, snap.Email, models.BackupMeta{CreatedAt: createdAt, URI: uri}); err != nil {
		return models.Snapshot{}, err
	}
	logger.Info("Backup restored", "identity", snap.Email.Segment(), "createdAt", createdAt)
	return snap, nil
}

// AutoBackupEnabled reports whether the identity's auto flag is "1".
func (e *Engine) AutoBackupEnabled(ctx context.Context, id models.Identity) bool {
	key := storage.UserKey(id, constants.FieldBackupAuto)
	v, _, err := e.provider.Get(ctx, key)
	if err != nil {
		logger.Warn("Failed to read auto-backup flag", "error", apperr.StorageRead(key, err))
		return false
	}
	return v == "1"
}

// AutoBackupFlagSet reports whether the auto flag has ever been written.
func (e *Engine) AutoBackupFlagSet(ctx context.Context, id models.Identity) bool {
	_, ok, err := e.provider.Get(ctx, storage.UserKey(id, constants.FieldBackupAuto))
	return err == nil && ok
}

func (e *Engine) SetAutoBackupEnabled(ctx context.Context, id models.Identity, enabled bool) error {
	key := storage.UserKey(id, constants.FieldBackupAuto)
	v := "0"
	if enabled {
		v = "1"
	}
	if err := e.provider.Set(ctx, key, v); err != nil {
		return apperr.StorageWrite(key, err)
	}
	return nil
}

// IsConfigured is true once auto-backup is on or any backup exists.
func (e *Engine) IsConfigured(ctx context.Context, id models.Identity) bool {
	if e.AutoBackupEnabled(ctx, id) {
		return true
	}
	if meta, err := e.LatestBackupInfo(ctx, id); err == nil && meta != nil {
		return true
	}
	_, ok, err := e.latestBlob(ctx, id)
	return err == nil && ok
}

// LatestBackupInfo returns the newest backup's metadata, or nil.
func (e *Engine) LatestBackupInfo(ctx context.Context, id models.Identity) (*models.BackupMeta, error) {
	var meta *models.BackupMeta
	ok, err := e.readJSON(ctx, storage.UserKey(id, constants.FieldBackupMeta), &meta)
	if err != nil || !ok {
		return nil, err
	}
	return meta, nil
}

func compactJSON(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
