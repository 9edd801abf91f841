package constants

const (
	PhaseOne = 1
	PhaseTwo = 2

	// Default Settings Values
	DefaultPhase        = PhaseOne
	DefaultWeekStartDay = 0 // Sunday
	DefaultSelectedDate = ""
)
