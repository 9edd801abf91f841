// Package session holds the process-scoped state of the signed-in
// identity: its entry and settings stores and the debounced auto-backup
// that follows every write.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/nextstep/internal/accounts"
	"github.com/julianstephens/nextstep/internal/autobackup"
	"github.com/julianstephens/nextstep/internal/backup"
	"github.com/julianstephens/nextstep/internal/calories"
	"github.com/julianstephens/nextstep/internal/constants"
	"github.com/julianstephens/nextstep/internal/entries"
	apperr "github.com/julianstephens/nextstep/internal/errors"
	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/settings"
	"github.com/julianstephens/nextstep/internal/storage"
	"github.com/julianstephens/nextstep/internal/utils"
	"github.com/julianstephens/nextstep/internal/weekly"
)

type Options struct {
	Provider storage.Provider
	Engine   *backup.Engine
	Clock    clockwork.Clock
	// BackupDelay is the quiet period before an automatic backup runs.
	// Zero means constants.DefaultBackupDelay.
	BackupDelay time.Duration
	// AutoBackupByDefault turns auto-backup on, and backs up once, the
	// first time an identity signs in.
	AutoBackupByDefault bool
}

type Session struct {
	provider  storage.Provider
	engine    *backup.Engine
	clock     clockwork.Clock
	directory *accounts.Directory
	scheduler *autobackup.Scheduler
	autoOn    bool

	mu       sync.Mutex
	user     models.Identity
	entries  *entries.Store
	settings *settings.Store
}

func New(opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	delay := opts.BackupDelay
	if delay <= 0 {
		delay = constants.DefaultBackupDelay
	}
	engine := opts.Engine
	if engine == nil {
		engine = backup.NewEngine(opts.Provider, nil, clock)
	}

	s := &Session{
		provider:  opts.Provider,
		engine:    engine,
		clock:     clock,
		directory: accounts.New(opts.Provider),
		autoOn:    opts.AutoBackupByDefault,
	}
	s.scheduler = autobackup.New(s.runBackup, delay, clock)
	return s
}

func (s *Session) runBackup(ctx context.Context, id models.Identity) error {
	_, meta, err := s.engine.CreateSnapshot(ctx, id)
	if err != nil {
		return err
	}
	logger.Debug("Automatic backup complete", "identity", id.Segment(), "createdAt", meta.CreatedAt)
	return nil
}

// Start resumes whoever was signed in last. Having nobody signed in is
// not an error.
func (s *Session) Start(ctx context.Context) error {
	id, ok, err := s.directory.Current(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.activate(ctx, id)
	return nil
}

func (s *Session) activate(ctx context.Context, id models.Identity) {
	es := entries.New(s.provider, id)
	es.Load(ctx)
	ss := settings.New(s.provider, id)
	ss.Load(ctx)

	s.mu.Lock()
	s.user = id
	s.entries = es
	s.settings = ss
	s.mu.Unlock()
}

// SignIn makes handle the current identity and loads its state.
func (s *Session) SignIn(ctx context.Context, handle string) (models.Identity, error) {
	s.flush(ctx)

	id, err := s.directory.SignIn(ctx, handle)
	if err != nil {
		return "", err
	}
	s.activate(ctx, id)

	if s.autoOn && !s.engine.AutoBackupFlagSet(ctx, id) {
		if err := s.engine.SetAutoBackupEnabled(ctx, id, true); err != nil {
			logger.Warn("Failed to enable auto-backup", "identity", id.Segment(), "error", err)
		} else if _, _, err := s.engine.CreateSnapshot(ctx, id); err != nil {
			logger.Warn("Initial backup failed", "identity", id.Segment(), "error", err)
		}
	}
	return id, nil
}

// SignOut runs any pending backup and forgets the identity. Its data stays.
func (s *Session) SignOut(ctx context.Context) error {
	if _, err := s.User(); err != nil {
		return err
	}
	s.flush(ctx)
	if err := s.directory.SignOut(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.user = ""
	s.entries = nil
	s.settings = nil
	s.mu.Unlock()
	return nil
}

func (s *Session) flush(ctx context.Context) {
	if err := s.scheduler.Flush(ctx); err != nil {
		logger.Warn("Pending backup failed", "error", err)
	}
}

// User returns the signed-in identity.
func (s *Session) User() (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		return "", apperr.ErrNoCurrentUser
	}
	return s.user, nil
}

// Accounts lists every identity that has signed in on this device.
func (s *Session) Accounts(ctx context.Context) []models.Identity {
	return s.directory.List(ctx)
}

func (s *Session) stores() (models.Identity, *entries.Store, *settings.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		return "", nil, nil, apperr.ErrNoCurrentUser
	}
	return s.user, s.entries, s.settings, nil
}

// Entries exposes the signed-in identity's entry store for reads.
func (s *Session) Entries() (*entries.Store, error) {
	_, es, _, err := s.stores()
	return es, err
}

func (s *Session) Settings() (models.Settings, error) {
	_, _, ss, err := s.stores()
	if err != nil {
		return models.Settings{}, err
	}
	return ss.Get(), nil
}

// changed queues a debounced backup when auto-backup is on.
func (s *Session) changed(ctx context.Context, id models.Identity) {
	if s.engine.AutoBackupEnabled(ctx, id) {
		s.scheduler.Schedule(id)
	}
}

func (s *Session) SetValue(ctx context.Context, date, label string, v float64) error {
	id, es, _, err := s.stores()
	if err != nil {
		return err
	}
	if err := es.SetValue(ctx, date, label, v); err != nil {
		return err
	}
	s.changed(ctx, id)
	return nil
}

func (s *Session) Increment(ctx context.Context, date, label string) (float64, error) {
	id, es, _, err := s.stores()
	if err != nil {
		return 0, err
	}
	v, err := es.Increment(ctx, date, label)
	if err != nil {
		return 0, err
	}
	s.changed(ctx, id)
	return v, nil
}

func (s *Session) Decrement(ctx context.Context, date, label string) (float64, error) {
	id, es, _, err := s.stores()
	if err != nil {
		return 0, err
	}
	v, err := es.Decrement(ctx, date, label)
	if err != nil {
		return 0, err
	}
	s.changed(ctx, id)
	return v, nil
}

func (s *Session) AppendActivity(ctx context.Context, date string, cal float64) error {
	id, es, _, err := s.stores()
	if err != nil {
		return err
	}
	if err := es.AppendActivity(ctx, date, cal); err != nil {
		return err
	}
	s.changed(ctx, id)
	return nil
}

func (s *Session) UpdateActivity(ctx context.Context, date string, index int, cal float64) error {
	id, es, _, err := s.stores()
	if err != nil {
		return err
	}
	if err := es.UpdateActivity(ctx, date, index, cal); err != nil {
		return err
	}
	s.changed(ctx, id)
	return nil
}

func (s *Session) RemoveActivity(ctx context.Context, date string, index int) error {
	id, es, _, err := s.stores()
	if err != nil {
		return err
	}
	if err := es.RemoveActivity(ctx, date, index); err != nil {
		return err
	}
	s.changed(ctx, id)
	return nil
}

// LogExercise estimates calories for the exercise and appends them to the
// date's activity log. A nil weight falls back to the most recent weight
// recorded on or before date.
func (s *Session) LogExercise(ctx context.Context, date string, minutes float64, intensity calories.Intensity, weight *float64) (float64, error) {
	id, es, _, err := s.stores()
	if err != nil {
		return 0, err
	}
	var w float64
	if weight != nil {
		w = *weight
	} else {
		found, ok := es.MostRecentWeightUpTo(date)
		if !ok {
			return 0, apperr.Validation("weight", "no weight recorded on or before "+date+", please enter one")
		}
		w = found
	}

	total, err := calories.Estimate(w, minutes, intensity)
	if err != nil {
		return 0, err
	}
	if err := es.AppendActivity(ctx, date, total); err != nil {
		return 0, err
	}
	s.changed(ctx, id)
	return total, nil
}

func (s *Session) SetPhase(ctx context.Context, phase int) error {
	id, _, ss, err := s.stores()
	if err != nil {
		return err
	}
	if err := ss.SetPhase(ctx, phase); err != nil {
		return err
	}
	s.changed(ctx, id)
	return nil
}

func (s *Session) SetSelectedDate(ctx context.Context, date string) error {
	id, _, ss, err := s.stores()
	if err != nil {
		return err
	}
	if err := ss.SetSelectedDate(ctx, date); err != nil {
		return err
	}
	s.changed(ctx, id)
	return nil
}

func (s *Session) SetWeekStartDay(ctx context.Context, day int) error {
	id, _, ss, err := s.stores()
	if err != nil {
		return err
	}
	if err := ss.SetWeekStartDay(ctx, day); err != nil {
		return err
	}
	s.changed(ctx, id)
	return nil
}

// Week summarizes the week containing date, or the selected date (then
// today) when date is empty.
func (s *Session) Week(date string) (weekly.Summary, error) {
	_, es, ss, err := s.stores()
	if err != nil {
		return weekly.Summary{}, err
	}
	st := ss.Get()
	if date == "" {
		date = st.SelectedDate
	}
	return weekly.Summarize(es, st.Phase, date, st.WeekStartDay, utils.Today(s.clock))
}

// Today is the current calendar date on the session clock.
func (s *Session) Today() string {
	return utils.Today(s.clock)
}

// Backup writes a snapshot now, replacing any pending automatic one.
func (s *Session) Backup(ctx context.Context) (models.BackupMeta, error) {
	id, err := s.User()
	if err != nil {
		return models.BackupMeta{}, err
	}
	s.scheduler.Cancel(id)
	_, meta, err := s.engine.CreateSnapshot(ctx, id)
	return meta, err
}

// Export hands the newest snapshot to t.
func (s *Session) Export(ctx context.Context, t backup.Transferer) (backup.ExportResult, error) {
	id, err := s.User()
	if err != nil {
		return backup.ExportResult{}, err
	}
	s.flush(ctx)
	return s.engine.ExportSnapshot(ctx, id, t)
}

// SetAutoBackup flips the flag. Turning it on backs up immediately.
func (s *Session) SetAutoBackup(ctx context.Context, enabled bool) (*models.BackupMeta, error) {
	id, err := s.User()
	if err != nil {
		return nil, err
	}
	if err := s.engine.SetAutoBackupEnabled(ctx, id, enabled); err != nil {
		return nil, err
	}
	if !enabled {
		s.scheduler.Cancel(id)
		return nil, nil
	}
	_, meta, err := s.engine.CreateSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// BackupStatus reports the auto flag and the newest backup, if any.
func (s *Session) BackupStatus(ctx context.Context) (auto, configured bool, latest *models.BackupMeta, err error) {
	id, err := s.User()
	if err != nil {
		return false, false, nil, err
	}
	latest, err = s.engine.LatestBackupInfo(ctx, id)
	if err != nil {
		return false, false, nil, err
	}
	return s.engine.AutoBackupEnabled(ctx, id), s.engine.IsConfigured(ctx, id), latest, nil
}

// Restore validates data, records it as the latest backup and applies it
// to target (the document's own identity when target is empty).
func (s *Session) Restore(ctx context.Context, data []byte, target models.Identity) (models.Snapshot, error) {
	snap, err := s.engine.RestoreSnapshot(ctx, data)
	if err != nil {
		return models.Snapshot{}, err
	}
	return snap, s.ApplySnapshot(ctx, snap, target)
}

// RestoreLatest applies the signed-in identity's newest stored backup.
func (s *Session) RestoreLatest(ctx context.Context) (models.Snapshot, error) {
	id, err := s.User()
	if err != nil {
		return models.Snapshot{}, err
	}
	s.scheduler.Cancel(id)
	snap, err := s.engine.RestoreFromLatest(ctx, id)
	if err != nil {
		return models.Snapshot{}, err
	}
	return snap, s.ApplySnapshot(ctx, snap, id)
}

// ApplySnapshot writes the snapshot payload as target's live state in one
// atomic batch, then signs in as target.
func (s *Session) ApplySnapshot(ctx context.Context, snap models.Snapshot, target models.Identity) error {
	if target == "" {
		target = snap.Email
	}
	target = models.Identity(target.Segment())

	ents := snap.Payload.Entries
	if ents == nil {
		ents = models.Entries{}
	}
	ents, _ = entries.MigrateCategoryKeys(ents)
	data, err := json.Marshal(ents)
	entriesKey := storage.UserKey(target, constants.FieldEntries)
	if err != nil {
		return apperr.StorageWrite(entriesKey, err)
	}

	values := settings.Values(target, snap.Payload.Settings().Normalize())
	values[entriesKey] = string(data)
	if err := s.provider.SetMany(ctx, values); err != nil {
		return apperr.StorageWrite(storage.UserPrefix(target), err)
	}
	logger.Info("Snapshot applied", "identity", target.Segment(), "createdAt", snap.CreatedAt)

	_, err = s.SignIn(ctx, string(target))
	return err
}

// Close runs pending backups and stops the scheduler.
func (s *Session) Close(ctx context.Context) error {
	err := s.scheduler.Flush(ctx)
	s.scheduler.Stop()
	return err
}
