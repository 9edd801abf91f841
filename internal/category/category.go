// Package category holds the per-phase tracking catalogs and resolves
// historical label variants to their canonical form.
package category

const (
	ShakesAndCereal  = "Shakes & Cereal"
	Entrees          = "Entrees"
	Bars             = "Bars"
	FruitsAndVeggies = "Fruits & Veggies"
	DaysMet325       = "Days Met 3+2+5"
	DaysIn10Box      = "Days In 1.0 Box"
	DaysIn15Box      = "Days In 1.5 Box"
	PhysicalActivity = "Physical Activity"
	Weight           = "Today's Weight"

	// ActivityEntries is the reserved record key holding the activity log.
	ActivityEntries = "Physical Activity Entries"
)

var phase1 = []string{
	ShakesAndCereal, Entrees, Bars, FruitsAndVeggies,
	DaysMet325, DaysIn10Box, PhysicalActivity, Weight,
}

var phase2 = []string{
	ShakesAndCereal, Entrees, Bars, FruitsAndVeggies,
	DaysIn10Box, DaysIn15Box, PhysicalActivity, Weight,
}

// synonyms maps every known spelling (canonical included) to the canonical label.
var synonyms = map[string]string{
	"Days In 1.0 Box":     DaysIn10Box,
	"Days in 1.0 Box":     DaysIn10Box,
	"Days in Phase 1 Box": DaysIn10Box,
	"Days In The Box":     DaysIn10Box,
}

// legacyOrder lists the labels older builds wrote, oldest first. When a
// record holds several of them the first one found supplies the value.
var legacyOrder = []string{"Days In The Box", "Days in Phase 1 Box", "Days in 1.0 Box"}

var legacy = map[string]string{
	"Days In The Box":     DaysIn10Box,
	"Days in Phase 1 Box": DaysIn10Box,
	"Days in 1.0 Box":     DaysIn10Box,
}

// Canonicalize returns the canonical form of label. Unknown labels are
// returned unchanged.
func Canonicalize(label string) string {
	if c, ok := synonyms[label]; ok {
		return c
	}
	return label
}

// ForPhase returns a copy of the catalog for phase. Anything other than 2
// is treated as phase 1.
func ForPhase(phase int) []string {
	src := phase1
	if phase == 2 {
		src = phase2
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Legacy returns a copy of the old-label to canonical-label mapping.
func Legacy() map[string]string {
	out := make(map[string]string, len(legacy))
	for k, v := range legacy {
		out[k] = v
	}
	return out
}

// LegacyLabels returns the legacy labels in migration order.
func LegacyLabels() []string {
	out := make([]string, len(legacyOrder))
	copy(out, legacyOrder)
	return out
}

// Alternates returns every non-canonical spelling known for canonical.
func Alternates(canonical string) []string {
	var out []string
	for k, v := range synonyms {
		if v == canonical && k != canonical {
			out = append(out, k)
		}
	}
	return out
}

// IsSummed reports whether weekly totals add this category up day by day.
func IsSummed(label string) bool {
	return Canonicalize(label) != Weight
}

// IsKnown reports whether label (after canonicalization) appears in either catalog.
func IsKnown(label string) bool {
	c := Canonicalize(label)
	for _, l := range phase1 {
		if l == c {
			return true
		}
	}
	for _, l := range phase2 {
		if l == c {
			return true
		}
	}
	return false
}
