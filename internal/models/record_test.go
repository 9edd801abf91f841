package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/nextstep/internal/category"
)

func TestDailyRecordUnmarshal(t *testing.T) {
	data := []byte(`{
		"Entrees": 2,
		"Physical Activity": 25,
		"Physical Activity Entries": [100, 50],
		"Note": "felt good",
		"Bars": null
	}`)

	var r DailyRecord
	require.NoError(t, json.Unmarshal(data, &r))

	assert.Equal(t, 2.0, r.Get(category.Entrees))
	assert.Equal(t, []float64{100, 50}, r.Activity)
	assert.Equal(t, 175.0, r.ActivityTotal())
	assert.Equal(t, 0.0, r.Get("Note"))
	assert.True(t, r.Has("Note"))
	assert.False(t, r.Has(category.Bars), "null counts as absent")
	assert.Equal(t, 0.0, r.Get(category.Bars))
}

func TestDailyRecordActivityNonNumericElements(t *testing.T) {
	var r DailyRecord
	require.NoError(t, json.Unmarshal([]byte(`{"Physical Activity Entries": [10, "x", null, 5]}`), &r))
	assert.Equal(t, []float64{10, 0, 0, 5}, r.Activity)
	assert.Equal(t, 15.0, r.ActivityTotal())
}

func TestDailyRecordActivityNotAnArrayIsPreserved(t *testing.T) {
	var r DailyRecord
	require.NoError(t, json.Unmarshal([]byte(`{"Physical Activity Entries": "oops"}`), &r))
	assert.Nil(t, r.Activity)
	assert.Contains(t, r.Other, category.ActivityEntries)
}

func TestDailyRecordRoundTrip(t *testing.T) {
	in := []byte(`{"Entrees":2,"Note":"felt good","Physical Activity Entries":[],"Today's Weight":150.5}`)

	var r DailyRecord
	require.NoError(t, json.Unmarshal(in, &r))
	assert.NotNil(t, r.Activity, "an empty log stays an empty log")

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(out))
}

func TestDailyRecordCloneIsDeep(t *testing.T) {
	r := DailyRecord{
		Values:   map[string]float64{category.Entrees: 1},
		Activity: []float64{10},
		Other:    map[string]json.RawMessage{"Note": json.RawMessage(`"a"`)},
	}
	c := r.Clone()
	c.Values[category.Entrees] = 9
	c.Activity[0] = 99
	c.Other["Note"][1] = 'z'

	assert.Equal(t, 1.0, r.Values[category.Entrees])
	assert.Equal(t, 10.0, r.Activity[0])
	assert.Equal(t, `"a"`, string(r.Other["Note"]))
}

func TestDailyRecordKeysAndEmpty(t *testing.T) {
	var r DailyRecord
	assert.True(t, r.IsEmpty())
	assert.Empty(t, r.Keys())

	r = DailyRecord{Values: map[string]float64{"b": 1}, Activity: []float64{}}
	assert.False(t, r.IsEmpty())
	assert.Equal(t, []string{"Physical Activity Entries", "b"}, r.Keys())
}

func TestEntriesDatesSorted(t *testing.T) {
	e := Entries{"2024-01-03": {}, "2023-12-31": {}, "2024-01-01": {}}
	assert.Equal(t, []string{"2023-12-31", "2024-01-01", "2024-01-03"}, e.Dates())
	assert.NotNil(t, Entries(nil).Clone())
}

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, Identity("me@example.com"), NormalizeIdentity("  Me@Example.COM "))
	assert.Equal(t, "local", Identity("").Segment())
	assert.Equal(t, "me", Identity("me").Segment())
}

func TestSettingsNormalize(t *testing.T) {
	s := Settings{Phase: 5, WeekStartDay: 9, SelectedDate: "2024-01-01"}.Normalize()
	assert.Equal(t, Settings{Phase: 1, WeekStartDay: 0, SelectedDate: "2024-01-01"}, s)

	s = Settings{Phase: 2, WeekStartDay: 6}.Normalize()
	assert.Equal(t, 2, s.Phase)
	assert.Equal(t, 6, s.WeekStartDay)
}
