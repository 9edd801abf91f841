// Package calories estimates calories burned from body weight, exercise
// minutes and intensity using a fixed calories-per-minute chart.
package calories

import (
	"math"
	"strings"

	apperr "github.com/julianstephens/nextstep/internal/errors"
)

type Intensity string

const (
	Low      Intensity = "low"
	Medium   Intensity = "medium"
	High     Intensity = "high"
	VeryHigh Intensity = "veryHigh"
)

// Intensities lists the accepted levels, lightest first.
var Intensities = []Intensity{Low, Medium, High, VeryHigh}

// Label is the display name of the intensity.
func (i Intensity) Label() string {
	switch i {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	case VeryHigh:
		return "Very High"
	}
	return string(i)
}

// ParseIntensity accepts the key form ("veryHigh") or the label form
// ("very high", "very-high"), case-insensitively.
func ParseIntensity(raw string) (Intensity, error) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(raw)))
	for _, i := range Intensities {
		if strings.ToLower(string(i)) == key {
			return i, nil
		}
	}
	return "", apperr.Validation("intensity", "intensity must be one of low, medium, high, veryHigh")
}

// Row is one weight band. A band covers [MinWeight, next band's MinWeight).
type Row struct {
	MinWeight float64
	Low       float64
	Medium    float64
	High      float64
	VeryHigh  float64
}

func (r Row) rate(i Intensity) (float64, bool) {
	switch i {
	case Low:
		return r.Low, true
	case Medium:
		return r.Medium, true
	case High:
		return r.High, true
	case VeryHigh:
		return r.VeryHigh, true
	}
	return 0, false
}

var chart = []Row{
	{100, 1, 3, 7, 10},
	{121, 1, 5, 9, 12},
	{141, 2, 5, 10, 13},
	{161, 2, 6, 11, 14},
	{181, 2, 7, 12, 15},
	{201, 2, 7, 13, 17},
	{221, 3, 8, 14, 18},
	{241, 3, 9, 15, 19},
	{261, 3, 9, 16, 20},
	{281, 3, 10, 17, 21},
	{301, 4, 11, 18, 23},
	{321, 4, 11, 19, 24},
	{341, 4, 12, 20, 24},
	{361, 4, 13, 20, 26},
	{381, 4, 13, 21, 27},
	{400, 5, 14, 22, 28},
}

// Chart returns a copy of the calories-per-minute chart.
func Chart() []Row {
	out := make([]Row, len(chart))
	copy(out, chart)
	return out
}

// PerMinute returns the calories burned per minute. Weights below the
// first band use the first band; anything past the last band's minimum
// uses the last. Unknown intensities give 0.
func PerMinute(weight float64, intensity Intensity) float64 {
	row := chart[0]
	for _, r := range chart {
		if weight < r.MinWeight {
			break
		}
		row = r
	}
	rate, _ := row.rate(intensity)
	return rate
}

// Estimate returns PerMinute(weight) * minutes rounded half up.
func Estimate(weight, minutes float64, intensity Intensity) (float64, error) {
	if !finitePositive(weight) {
		return 0, apperr.Validation("weight", "please enter a valid weight (lbs)")
	}
	if !finitePositive(minutes) {
		return 0, apperr.Validation("minutes", "please enter minutes exercised")
	}
	if _, ok := chart[0].rate(intensity); !ok {
		return 0, apperr.Validation("intensity", "unknown intensity "+string(intensity))
	}
	total := math.Floor(PerMinute(weight, intensity)*minutes + 0.5)
	if !finitePositive(total) {
		return 0, apperr.Validation("minutes", "unable to calculate, check weight, intensity and minutes")
	}
	return total, nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
