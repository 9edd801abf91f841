package models

import "github.com/julianstephens/nextstep/internal/constants"

// Settings is the per-identity view state that travels with every backup.
type Settings struct {
	Phase        int    `json:"phase"`        // 1 or 2
	SelectedDate string `json:"selectedDate"` // YYYY-MM-DD, empty when never set
	WeekStartDay int    `json:"weekStartDay"` // 0=Sunday .. 6=Saturday
}

// DefaultSettings returns the settings a fresh identity starts with.
func DefaultSettings() Settings {
	return Settings{
		Phase:        constants.DefaultPhase,
		SelectedDate: constants.DefaultSelectedDate,
		WeekStartDay: constants.DefaultWeekStartDay,
	}
}

// Normalize coerces out-of-range fields back to their defaults.
func (s Settings) Normalize() Settings {
	if s.Phase != constants.PhaseOne && s.Phase != constants.PhaseTwo {
		s.Phase = constants.DefaultPhase
	}
	if s.WeekStartDay < 0 || s.WeekStartDay > 6 {
		s.WeekStartDay = constants.DefaultWeekStartDay
	}
	return s
}
