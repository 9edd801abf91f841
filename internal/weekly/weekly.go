// Package weekly derives week-level views from daily records. Everything
// here works on calendar date strings, never instants.
package weekly

import (
	"fmt"

	"github.com/julianstephens/nextstep/internal/category"
	"github.com/julianstephens/nextstep/internal/models"
	"github.com/julianstephens/nextstep/internal/utils"
)

// RecordSource looks up one day's record. Both entries.Store and
// models.Entries satisfy it.
type RecordSource interface {
	Record(date string) models.DailyRecord
}

// Summary is the weekly view: summed totals for every summed category of
// the phase, and the weight closest to today inside the week.
type Summary struct {
	Start      string
	End        string
	Categories []string // totals keys in catalog order
	Totals     map[string]float64
	Weight     *float64
}

// WeekStart returns the first day of the week containing date.
func WeekStart(date string, weekStartDay int) (string, error) {
	if weekStartDay < 0 || weekStartDay > 6 {
		return "", fmt.Errorf("week start day %d out of range 0-6", weekStartDay)
	}
	wd, err := utils.Weekday(date)
	if err != nil {
		return "", err
	}
	diff := (int(wd) - weekStartDay + 7) % 7
	return utils.AddDays(date, -diff)
}

// WeekEnd returns start plus six days.
func WeekEnd(start string) (string, error) {
	return utils.AddDays(start, 6)
}

// Dates lists every date from start to end inclusive. An end before start
// yields an empty list.
func Dates(start, end string) ([]string, error) {
	from, err := utils.ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := utils.ParseDate(end)
	if err != nil {
		return nil, err
	}
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, utils.FormatDate(d))
	}
	return out, nil
}

// summed canonicalizes categories and drops weight and the reserved
// activity log key, keeping first-seen order.
func summed(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		key := category.Canonicalize(c)
		if !category.IsSummed(key) || key == category.ActivityEntries || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// Totals sums each category over start..end. Physical activity counts the
// activity log as well as the legacy scalar.
func Totals(src RecordSource, categories []string, start, end string) (map[string]float64, error) {
	dates, err := Dates(start, end)
	if err != nil {
		return nil, err
	}
	keys := summed(categories)
	totals := make(map[string]float64, len(keys))
	for _, k := range keys {
		totals[k] = 0
	}
	for _, d := range dates {
		rec := src.Record(d)
		for _, k := range keys {
			if k == category.PhysicalActivity {
				totals[k] += rec.ActivityTotal()
			} else {
				totals[k] += rec.Get(k)
			}
		}
	}
	return totals, nil
}

// Weight returns the weight recorded inside start..end whose date is
// closest to today. On a tie the earlier date wins.
func Weight(src RecordSource, start, end, today string) (float64, bool, error) {
	dates, err := Dates(start, end)
	if err != nil {
		return 0, false, err
	}
	if !utils.ValidateDate(today) {
		return 0, false, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", today)
	}

	var (
		best     float64
		bestDist = -1
	)
	for _, d := range dates {
		w, ok := src.Record(d).Number(category.Weight)
		if !ok {
			continue
		}
		dist, _ := utils.DaysBetween(d, today)
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = w, dist
		}
	}
	return best, bestDist >= 0, nil
}

// Summarize builds the week containing selectedDate (today when empty).
func Summarize(src RecordSource, phase int, selectedDate string, weekStartDay int, today string) (Summary, error) {
	if selectedDate == "" {
		selectedDate = today
	}
	start, err := WeekStart(selectedDate, weekStartDay)
	if err != nil {
		return Summary{}, err
	}
	end, err := WeekEnd(start)
	if err != nil {
		return Summary{}, err
	}

	cats := summed(category.ForPhase(phase))
	totals, err := Totals(src, cats, start, end)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{Start: start, End: end, Categories: cats, Totals: totals}
	w, ok, err := Weight(src, start, end, today)
	if err != nil {
		return Summary{}, err
	}
	if ok {
		out.Weight = &w
	}
	return out, nil
}

// Label renders the week range for display, e.g. "Dec 31 - Jan 6, 2024".
func (s Summary) Label() string {
	start, err1 := utils.ParseDate(s.Start)
	end, err2 := utils.ParseDate(s.End)
	if err1 != nil || err2 != nil {
		return s.Start + " - " + s.End
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}
