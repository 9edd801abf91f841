package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	LabelStyle  = lipgloss.NewStyle().Width(22)
	MutedStyle  = lipgloss.NewStyle().Faint(true)
)

// FormatNumber prints v without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
