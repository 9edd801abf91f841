package models

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"

	"github.com/julianstephens/nextstep/internal/category"
)

// DailyRecord is one calendar day's tracked values.
//
// On the wire it is a flat JSON object: numeric categories, the activity log
// under category.ActivityEntries, and anything else an older build wrote
// (kept verbatim in Other so a load/save cycle never drops data).
type DailyRecord struct {
	Values   map[string]float64
	Activity []float64 // nil when the day has no activity log
	Other    map[string]json.RawMessage
}

// Get returns the numeric value stored under label, or 0.
func (r DailyRecord) Get(label string) float64 {
	v, ok := r.Values[label]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Has reports whether label holds a non-null value of any type.
func (r DailyRecord) Has(label string) bool {
	if _, ok := r.Values[label]; ok {
		return true
	}
	raw, ok := r.Other[label]
	return ok && !isNull(raw)
}

// Number returns the value under label when it is a finite number.
func (r DailyRecord) Number(label string) (float64, bool) {
	v, ok := r.Values[label]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ActivityTotal is the activity log sum plus the legacy scalar value.
func (r DailyRecord) ActivityTotal() float64 {
	var sum float64
	for _, v := range r.Activity {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sum += v
		}
	}
	return sum + r.Get(category.PhysicalActivity)
}

// Keys returns every key present in the record, sorted.
func (r DailyRecord) Keys() []string {
	keys := make([]string, 0, len(r.Values)+len(r.Other)+1)
	for k := range r.Values {
		keys = append(keys, k)
	}
	for k := range r.Other {
		keys = append(keys, k)
	}
	if r.Activity != nil {
		keys = append(keys, category.ActivityEntries)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether the record holds nothing at all.
func (r DailyRecord) IsEmpty() bool {
	return len(r.Values) == 0 && len(r.Other) == 0 && r.Activity == nil
}

// Clone returns a deep copy.
func (r DailyRecord) Clone() DailyRecord {
	out := DailyRecord{}
	if r.Values != nil {
		out.Values = make(map[string]float64, len(r.Values))
		for k, v := range r.Values {
			out.Values[k] = v
		}
	}
	if r.Activity != nil {
		out.Activity = make([]float64, len(r.Activity))
		copy(out.Activity, r.Activity)
	}
	if r.Other != nil {
		out.Other = make(map[string]json.RawMessage, len(r.Other))
		for k, v := range r.Other {
			out.Other[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func (r DailyRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Values)+len(r.Other)+1)
	for k, v := range r.Other {
		flat[k] = v
	}
	for k, v := range r.Values {
		flat[k] = v
	}
	if r.Activity != nil {
		flat[category.ActivityEntries] = r.Activity
	}
	return json.Marshal(flat)
}

func (r *DailyRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = DailyRecord{}
	for k, v := range raw {
		if k == category.ActivityEntries {
			if list, ok := decodeActivity(v); ok {
				r.Activity = list
				continue
			}
		} else if n, ok := decodeNumber(v); ok {
			if r.Values == nil {
				r.Values = make(map[string]float64)
			}
			r.Values[k] = n
			continue
		}
		if r.Other == nil {
			r.Other = make(map[string]json.RawMessage)
		}
		r.Other[k] = append(json.RawMessage(nil), v...)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeNumber(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// decodeActivity accepts any JSON array; elements that are not numbers count as 0.
func decodeActivity(raw json.RawMessage) ([]float64, bool) {
	var items []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &items) != nil {
		return nil, false
	}
	out := make([]float64, len(items))
	for i, item := range items {
		if n, ok := decodeNumber(item); ok {
			out[i] = n
		}
	}
	return out, true
}
