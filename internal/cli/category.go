package cli

import (
	"strings"

	"github.com/julianstephens/nextstep/internal/category"
	apperr "github.com/julianstephens/nextstep/internal/errors"
)

// ResolveCategory maps user input to a catalog label. Known spellings are
// canonicalized first, then matched case-insensitively against both phase
// catalogs and their alternate spellings.
func ResolveCategory(input string) (string, error) {
	label := category.Canonicalize(strings.TrimSpace(input))
	if label == "" {
		return "", apperr.Validation("category", "category is required")
	}
	if category.IsKnown(label) {
		return label, nil
	}
	for _, phase := range []int{1, 2} {
		for _, c := range category.ForPhase(phase) {
			if strings.EqualFold(c, label) {
				return c, nil
			}
			for _, alt := range category.Alternates(c) {
				if strings.EqualFold(alt, label) {
					return c, nil
				}
			}
		}
	}
	return "", apperr.Validation("category", "unknown category "+input)
}
