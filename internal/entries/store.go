// Package entries is the per-identity store of daily records.
package entries

import (
	"context"
	"encoding/json"
	"math"
	"sync"

	"github.com/julianstephens/nextstep/internal/category"
	"github.com/julianstephens/nextstep/internal/constants"
	apperr "github.com/julianstephens/nextstep/internal/errors"
	"github.com/julianstephens/nextstep/internal/logger"
	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/storage"
	"github.com/julianstephens/nextstep/internal/utils"
)

// Store holds one identity's entries in memory and writes every change
// through to the provider. Mutations are serialized; each one installs a
// fresh outer map, so a map handed out earlier is never touched again.
type Store struct {
	mu       sync.Mutex
	provider storage.Provider
	identity models.Identity
	entries  models.Entries
}

func New(provider storage.Provider, identity models.Identity) *Store {
	return &Store{
		provider: provider,
		identity: identity,
		entries:  models.Entries{},
	}
}

func (s *Store) Identity() models.Identity {
	return s.identity
}

func (s *Store) key() string {
	return storage.UserKey(s.identity, constants.FieldEntries)
}

// Load replaces the in-memory state with what the provider holds. A failed
// read or an unparseable value leaves the store empty. Legacy labels are
// migrated and written back; if that write fails the unmigrated data is
// kept.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := Read(ctx, s.provider, s.identity)

	migrated, changed := MigrateCategoryKeys(loaded)
	if changed {
		if err := s.persist(ctx, migrated); err != nil {
			logger.Warn("Category migration not saved", "identity", s.identity.Segment(), "error", err)
		} else {
			logger.Info("Migrated legacy category labels", "identity", s.identity.Segment())
			loaded = migrated
		}
	}
	s.entries = loaded
}

// Read decodes the stored entries for identity without caching them.
// Failures degrade to an empty map.
func Read(ctx context.Context, provider storage.Provider, identity models.Identity) models.Entries {
	key := storage.UserKey(identity, constants.FieldEntries)
	raw, ok, err := provider.Get(ctx, key)
	if err != nil {
		logger.Warn("Failed to read entries", "error", apperr.StorageRead(key, err))
		return models.Entries{}
	}
	if !ok || raw == "" {
		return models.Entries{}
	}
	var out models.Entries
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		logger.Warn("Stored entries are not valid JSON, starting empty", "key", key, "error", err)
		return models.Entries{}
	}
	return out
}

func (s *Store) persist(ctx context.Context, next models.Entries) error {
	data, err := json.Marshal(next)
	if err != nil {
		return apperr.StorageWrite(s.key(), err)
	}
	if err := s.provider.Set(ctx, s.key(), string(data)); err != nil {
		return apperr.StorageWrite(s.key(), err)
	}
	return nil
}

// mutate applies fn to a copy of the date's record and installs the result
// only after it has been persisted.
func (s *Store) mutate(ctx context.Context, date string, fn func(rec *models.DailyRecord) error) error {
	if !utils.ValidateDate(date) {
		return apperr.Validation("date", "invalid date "+date+", expected YYYY-MM-DD")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.entries[date].Clone()
	if err := fn(&rec); err != nil {
		return err
	}

	next := make(models.Entries, len(s.entries)+1)
	for d, r := range s.entries {
		next[d] = r
	}
	next[date] = rec

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

// Record returns a copy of the record for date; unseen dates give an empty record.
func (s *Store) Record(date string) models.DailyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[date].Clone()
}

// Value returns the numeric value for the canonical form of label, or 0.
func (s *Store) Value(date, label string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[date].Get(category.Canonicalize(label))
}

func (s *Store) SetValue(ctx context.Context, date, label string, v float64) error {
	_, err := s.adjust(ctx, date, label, func(float64) float64 { return v })
	return err
}

// Increment adds one to the category's value for date.
func (s *Store) Increment(ctx context.Context, date, label string) (float64, error) {
	return s.adjust(ctx, date, label, func(cur float64) float64 { return cur + 1 })
}

// Decrement subtracts one, never going below zero.
func (s *Store) Decrement(ctx context.Context, date, label string) (float64, error) {
	return s.adjust(ctx, date, label, func(cur float64) float64 { return math.Max(0, cur-1) })
}

// adjust replaces the canonical category's value with fn(current) under
// the store lock and returns the value written.
func (s *Store) adjust(ctx context.Context, date, label string, fn func(float64) float64) (float64, error) {
	key := category.Canonicalize(label)
	if key == "" {
		return 0, apperr.Validation("category", "category is required")
	}
	if key == category.ActivityEntries {
		return 0, apperr.Validation("category", "the activity log is edited through activity entries")
	}

	var written float64
	err := s.mutate(ctx, date, func(rec *models.DailyRecord) error {
		v := fn(rec.Get(key))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperr.Validation("value", "value must be a finite number")
		}
		if rec.Values == nil {
			rec.Values = make(map[string]float64)
		}
		rec.Values[key] = v
		delete(rec.Other, key)
		written = v
		return nil
	})
	return written, err
}

// Activity returns a copy of the day's activity log.
func (s *Store) Activity(date string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.entries[date].Activity
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

func (s *Store) ActivityTotal(date string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[date].ActivityTotal()
}

func validCalories(calories float64) error {
	if math.IsNaN(calories) || math.IsInf(calories, 0) {
		return apperr.Validation("calories", "calories must be a finite number")
	}
	return nil
}

func (s *Store) AppendActivity(ctx context.Context, date string, calories float64) error {
	if err := validCalories(calories); err != nil {
		return err
	}
	return s.mutate(ctx, date, func(rec *models.DailyRecord) error {
		rec.Activity = append(rec.Activity, calories)
		delete(rec.Other, category.ActivityEntries)
		return nil
	})
}

func (s *Store) UpdateActivity(ctx context.Context, date string, index int, calories float64) error {
	if err := validCalories(calories); err != nil {
		return err
	}
	return s.mutate(ctx, date, func(rec *models.DailyRecord) error {
		if index < 0 || index >= len(rec.Activity) {
			return apperr.ErrIndexOutOfRange
		}
		rec.Activity[index] = calories
		return nil
	})
}

func (s *Store) RemoveActivity(ctx context.Context, date string, index int) error {
	return s.mutate(ctx, date, func(rec *models.DailyRecord) error {
		if index < 0 || index >= len(rec.Activity) {
			return apperr.ErrIndexOutOfRange
		}
		next := make([]float64, 0, len(rec.Activity)-1)
		next = append(next, rec.Activity[:index]...)
		next = append(next, rec.Activity[index+1:]...)
		rec.Activity = next
		return nil
	})
}

// MostRecentWeightUpTo scans dates on or before date, newest first, and
// returns the first finite weight.
func (s *Store) MostRecentWeightUpTo(date string) (float64, bool) {
	s.mu.Lock()
	entries := s.entries
	s.mu.Unlock()
	return MostRecentWeightUpTo(entries, date)
}

// MostRecentWeightUpTo is the map form of Store.MostRecentWeightUpTo.
func MostRecentWeightUpTo(entries models.Entries, date string) (float64, bool) {
	dates := entries.Dates()
	for i := len(dates) - 1; i >= 0; i-- {
		if dates[i] > date {
			continue
		}
		if w, ok := entries[dates[i]].Number(category.Weight); ok {
			return w, true
		}
	}
	return 0, false
}

func (s *Store) Dates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Dates()
}

// Snapshot returns a deep copy of every record.
func (s *Store) Snapshot() models.Entries {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Clone()
}

// Replace swaps in a whole new set of entries and persists it.
func (s *Store) Replace(ctx context.Context, entries models.Entries) error {
	next := entries.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.entries = next
	return nil
}
