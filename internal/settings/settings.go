// Package settings persists the per-identity phase, selected date and
// week start day.
package settings

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/julianstephens/nextstep/internal/constants"
	apperr "github.com/julianstephens/nextstep/internal/errors"
	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/storage"
	"github.com/julianstephens/nextstep/internal/utils"
)

type Store struct {
	mu       sync.Mutex
	provider storage.Provider
	identity models.Identity
	current  models.Settings
}

func New(provider storage.Provider, identity models.Identity) *Store {
	return &Store{
		provider: provider,
		identity: identity,
		current:  models.DefaultSettings(),
	}
}

// Load refreshes the cached settings from the provider.
func (s *Store) Load(ctx context.Context) models.Settings {
	loaded := Read(ctx, s.provider, s.identity)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = loaded
	return loaded
}

func (s *Store) Get() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) SetPhase(ctx context.Context, phase int) error {
	if phase != constants.PhaseOne && phase != constants.PhaseTwo {
		return apperr.Validation("phase", "phase must be 1 or 2")
	}
	return s.write(ctx, constants.FieldPhase, strconv.Itoa(phase), func(st *models.Settings) { st.Phase = phase })
}

// SetSelectedDate stores date; the empty string clears it.
func (s *Store) SetSelectedDate(ctx context.Context, date string) error {
	if date != "" && !utils.ValidateDate(date) {
		return apperr.Validation("date", "invalid date "+date+", expected YYYY-MM-DD")
	}
	return s.write(ctx, constants.FieldDate, date, func(st *models.Settings) { st.SelectedDate = date })
}

func (s *Store) SetWeekStartDay(ctx context.Context, day int) error {
	if day < 0 || day > 6 {
		return apperr.Validation("weekStartDay", "week start day must be between 0 (Sunday) and 6 (Saturday)")
	}
	return s.write(ctx, constants.FieldWeekStart, strconv.Itoa(day), func(st *models.Settings) { st.WeekStartDay = day })
}

func (s *Store) write(ctx context.Context, field, value string, apply func(*models.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storage.UserKey(s.identity, field)
	if err := s.provider.Set(ctx, key, value); err != nil {
		return apperr.StorageWrite(key, err)
	}
	apply(&s.current)
	return nil
}

// Read loads settings for identity, falling back to defaults for anything
// missing, unreadable or out of range.
func Read(ctx context.Context, provider storage.Provider, identity models.Identity) models.Settings {
	out := models.DefaultSettings()

	if raw, ok := get(ctx, provider, identity, constants.FieldPhase); ok {
		out.Phase = ParsePhase(raw)
	}
	if raw, ok := get(ctx, provider, identity, constants.FieldDate); ok && utils.ValidateDate(raw) {
		out.SelectedDate = raw
	}
	if raw, ok := get(ctx, provider, identity, constants.FieldWeekStart); ok {
		out.WeekStartDay = ParseWeekStartDay(raw)
	}
	return out.Normalize()
}

func get(ctx context.Context, provider storage.Provider, identity models.Identity, field string) (string, bool) {
	key := storage.UserKey(identity, field)
	raw, ok, err := provider.Get(ctx, key)
	if err != nil {
		logger.Warn("Failed to read setting, using default", "error", apperr.StorageRead(key, err))
		return "", false
	}
	return raw, ok && raw != ""
}

// ParsePhase reads a stored phase; anything but 1 or 2 gives the default.
func ParsePhase(raw string) int {
	n, ok := parseInt(raw)
	if !ok || (n != constants.PhaseOne && n != constants.PhaseTwo) {
		return constants.DefaultPhase
	}
	return n
}

// ParseWeekStartDay reads a stored week start day; anything outside 0..6
// gives the default.
func ParseWeekStartDay(raw string) int {
	n, ok := parseInt(raw)
	if !ok || n < 0 || n > 6 {
		return constants.DefaultWeekStartDay
	}
	return n
}

func parseInt(raw string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Values renders s as the provider key/value pairs that persist it.
func Values(identity models.Identity, s models.Settings) map[string]string {
	return map[string]string{
		storage.UserKey(identity, constants.FieldPhase):     strconv.Itoa(s.Phase),
		storage.UserKey(identity, constants.FieldDate):      s.SelectedDate,
		storage.UserKey(identity, constants.FieldWeekStart): strconv.Itoa(s.WeekStartDay),
	}
}
