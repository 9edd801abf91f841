package utils

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/nextstep/internal/constants"
)

// Dates are handled as calendar days: parsed at UTC midnight so that
// arithmetic never crosses a daylight-saving transition.

// ParseDate parses a YYYY-MM-DD string into a UTC-midnight time.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return t, nil
}

// FormatDate formats a time as YYYY-MM-DD using its own calendar fields.
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ValidateDate reports whether date is a well-formed calendar date.
func ValidateDate(date string) bool {
	_, err := ParseDate(date)
	return err == nil
}

// AddDays shifts a calendar date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// Weekday returns the day of week of a calendar date.
func Weekday(date string) (time.Weekday, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// DaysBetween returns b - a in whole calendar days.
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDate(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// Today returns the local calendar date according to clock.
func Today(clock clockwork.Clock) string {
	return FormatDate(clock.Now().In(time.Local))
}
