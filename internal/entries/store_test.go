package entries

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/nextstep/internal/category"
	"github.com/julianstephens/nextstep/internal/constants"
	apperr "github.com/julianstephens/nextstep/internal/errors"
	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/storage"
	"github.com/julianstephens/nextstep/internal/storage/memory"
)

const user = models.Identity("ann@example.com")

func newStore(t *testing.T, seed string) (*Store, *memory.Store) {
	t.Helper()
	mem := memory.New()
	if seed != "" {
		require.NoError(t, mem.Set(context.Background(), storage.UserKey(user, constants.FieldEntries), seed))
	}
	s := New(mem, user)
	s.Load(context.Background())
	return s, mem
}

func stored(t *testing.T, mem *memory.Store) models.Entries {
	t.Helper()
	raw, ok, err := mem.Get(context.Background(), storage.UserKey(user, constants.FieldEntries))
	require.NoError(t, err)
	require.True(t, ok, "entries were never persisted")
	var out models.Entries
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestLoadMissingAndCorrupt(t *testing.T) {
	s, _ := newStore(t, "")
	assert.Empty(t, s.Dates())

	s, _ = newStore(t, "{not json")
	assert.Empty(t, s.Dates())

	mem := memory.New()
	mem.FailReads(errors.New("io error"))
	s = New(mem, user)
	s.Load(context.Background())
	assert.Empty(t, s.Dates())
}

func TestLoadMigratesLegacyLabels(t *testing.T) {
	s, mem := newStore(t, `{"2024-01-01":{"Days In The Box":3,"Entrees":2}}`)

	rec := s.Record("2024-01-01")
	assert.Equal(t, 3.0, rec.Get(category.DaysIn10Box))
	assert.False(t, rec.Has("Days In The Box"))

	persisted := stored(t, mem)
	assert.Equal(t, 3.0, persisted["2024-01-01"].Get(category.DaysIn10Box))
	assert.False(t, persisted["2024-01-01"].Has("Days In The Box"))
}

func TestLoadKeepsOriginalWhenMigrationWriteFails(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, storage.UserKey(user, constants.FieldEntries), `{"2024-01-01":{"Days In The Box":3}}`))
	mem.FailWrites(errors.New("read-only"))

	s := New(mem, user)
	s.Load(ctx)

	rec := s.Record("2024-01-01")
	assert.Equal(t, 3.0, rec.Get("Days In The Box"))
	assert.False(t, rec.Has(category.DaysIn10Box))
}

func TestSetValueCanonicalizes(t *testing.T) {
	s, mem := newStore(t, "")
	ctx := context.Background()

	require.NoError(t, s.SetValue(ctx, "2024-01-01", "Days in Phase 1 Box", 2))
	assert.Equal(t, 2.0, s.Value("2024-01-01", category.DaysIn10Box))
	assert.Equal(t, 2.0, s.Value("2024-01-01", "Days In The Box"))
	assert.Equal(t, []string{category.DaysIn10Box}, s.Record("2024-01-01").Keys())
	assert.Equal(t, 2.0, stored(t, mem)["2024-01-01"].Get(category.DaysIn10Box))
}

func TestSetValueValidation(t *testing.T) {
	s, _ := newStore(t, "")
	ctx := context.Background()

	err := s.SetValue(ctx, "2024-13-01", category.Entrees, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = s.SetValue(ctx, "2024-01-01", category.Entrees, math.NaN())
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = s.SetValue(ctx, "2024-01-01", category.ActivityEntries, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Empty(t, s.Dates())
}

func TestWriteFailureRollsBack(t *testing.T) {
	s, mem := newStore(t, "")
	ctx := context.Background()
	require.NoError(t, s.SetValue(ctx, "2024-01-01", category.Entrees, 1))

	mem.FailWrites(errors.New("disk full"))
	err := s.SetValue(ctx, "2024-01-01", category.Entrees, 5)
	assert.ErrorIs(t, err, apperr.ErrStorageWrite)
	assert.Equal(t, 1.0, s.Value("2024-01-01", category.Entrees))

	err = s.AppendActivity(ctx, "2024-01-02", 100)
	assert.ErrorIs(t, err, apperr.ErrStorageWrite)
	assert.Empty(t, s.Activity("2024-01-02"))
	assert.Equal(t, []string{"2024-01-01"}, s.Dates())
}

func TestIncrementDecrement(t *testing.T) {
	s, _ := newStore(t, "")
	ctx := context.Background()

	v, err := s.Increment(ctx, "2024-01-01", category.Bars)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = s.Decrement(ctx, "2024-01-01", category.Bars)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = s.Decrement(ctx, "2024-01-01", category.Bars)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestActivityLog(t *testing.T) {
	s, _ := newStore(t, "")
	ctx := context.Background()
	date := "2024-01-03"

	require.NoError(t, s.AppendActivity(ctx, date, 100))
	require.NoError(t, s.AppendActivity(ctx, date, 50))
	require.NoError(t, s.AppendActivity(ctx, date, 25))
	assert.Equal(t, 175.0, s.ActivityTotal(date))

	require.NoError(t, s.UpdateActivity(ctx, date, 1, 60))
	assert.Equal(t, []float64{100, 60, 25}, s.Activity(date))

	require.NoError(t, s.RemoveActivity(ctx, date, 0))
	assert.Equal(t, []float64{60, 25}, s.Activity(date))

	assert.ErrorIs(t, s.RemoveActivity(ctx, date, 2), apperr.ErrIndexOutOfRange)
	assert.ErrorIs(t, s.UpdateActivity(ctx, date, -1, 5), apperr.ErrIndexOutOfRange)
	assert.ErrorIs(t, s.UpdateActivity(ctx, date, 9, 5), apperr.ErrValidation)
	assert.Equal(t, []float64{60, 25}, s.Activity(date))
}

func TestActivityTotalIncludesLegacyScalar(t *testing.T) {
	s, _ := newStore(t, `{"2024-01-03":{"Physical Activity":40,"Physical Activity Entries":[10,"x",5]}}`)
	assert.Equal(t, 55.0, s.ActivityTotal("2024-01-03"))
}

func TestMostRecentWeightUpTo(t *testing.T) {
	s, _ := newStore(t, `{
		"2024-01-01":{"Today's Weight":150},
		"2024-01-03":{"Entrees":2},
		"2024-01-05":{"Today's Weight":148}
	}`)

	w, ok := s.MostRecentWeightUpTo("2024-01-04")
	assert.True(t, ok)
	assert.Equal(t, 150.0, w)

	w, ok = s.MostRecentWeightUpTo("2024-01-05")
	assert.True(t, ok)
	assert.Equal(t, 148.0, w)

	_, ok = s.MostRecentWeightUpTo("2023-12-31")
	assert.False(t, ok)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s, _ := newStore(t, "")
	ctx := context.Background()
	require.NoError(t, s.SetValue(ctx, "2024-01-01", category.Entrees, 1))

	snap := s.Snapshot()
	require.NoError(t, s.SetValue(ctx, "2024-01-01", category.Entrees, 4))
	assert.Equal(t, 1.0, snap["2024-01-01"].Get(category.Entrees))

	snap["2024-01-01"].Values[category.Entrees] = 99
	assert.Equal(t, 4.0, s.Value("2024-01-01", category.Entrees))
}

func TestReplace(t *testing.T) {
	s, mem := newStore(t, `{"2024-01-01":{"Entrees":1}}`)
	next := models.Entries{"2024-02-01": {Values: map[string]float64{category.Bars: 2}}}

	require.NoError(t, s.Replace(context.Background(), next))
	assert.Equal(t, []string{"2024-02-01"}, s.Dates())
	assert.Equal(t, 2.0, stored(t, mem)["2024-02-01"].Get(category.Bars))
}
