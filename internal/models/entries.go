package models

import "sort"

// Entries maps a YYYY-MM-DD date to that day's record.
type Entries map[string]DailyRecord

// Clone returns a deep copy. A nil receiver clones to an empty map.
func (e Entries) Clone() Entries {
	out := make(Entries, len(e))
	for d, r := range e {
		out[d] = r.Clone()
	}
	return out
}

// Dates returns every date key in ascending order.
func (e Entries) Dates() []string {
	dates := make([]string, 0, len(e))
	for d := range e {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Record returns the record for date, or an empty record.
func (e Entries) Record(date string) DailyRecord {
	return e[date]
}
