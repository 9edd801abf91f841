package entries

import (
	"github.com/julianstephens/nextstep/internal/category"
	"github.com/julianstephens/nextstep/internal/models"
)

// MigrateCategoryKeys renames legacy category labels to their canonical
// form. An existing non-null canonical value wins over the legacy one; the
// legacy key is always removed. The input is never modified, and the
// returned bool reports whether anything changed.
func MigrateCategoryKeys(in models.Entries) (models.Entries, bool) {
	legacy := category.Legacy()
	order := category.LegacyLabels()
	var out models.Entries

	for date, rec := range in {
		var migrated *models.DailyRecord
		for _, oldKey := range order {
			newKey := legacy[oldKey]
			if oldKey == newKey || !hasKey(rec, oldKey) {
				continue
			}
			if migrated == nil {
				c := rec.Clone()
				migrated = &c
			}
			moveKey(migrated, oldKey, newKey)
		}
		if migrated == nil {
			continue
		}
		if out == nil {
			out = make(models.Entries, len(in))
			for d, r := range in {
				out[d] = r
			}
		}
		out[date] = *migrated
	}

	if out == nil {
		return in, false
	}
	return out, true
}

// hasKey reports whether the key is present at all, null included.
func hasKey(rec models.DailyRecord, key string) bool {
	if _, ok := rec.Values[key]; ok {
		return true
	}
	_, ok := rec.Other[key]
	return ok
}

func moveKey(rec *models.DailyRecord, oldKey, newKey string) {
	if !rec.Has(newKey) {
		if v, ok := rec.Values[oldKey]; ok {
			rec.Values[newKey] = v
			delete(rec.Other, newKey)
		} else if raw, ok := rec.Other[oldKey]; ok {
			rec.Other[newKey] = raw
		}
	}
	delete(rec.Values, oldKey)
	delete(rec.Other, oldKey)
}
