package cli

import (
	"strconv"
	"strings"
	"time"

	apperr "github.com/julianstephens/nextstep/internal/errors"
)

// ParseWeekday accepts a day name or any prefix of at least three letters
// ("wed", "thurs"), or a number from 0 (Sunday) to 6 (Saturday).
func ParseWeekday(s string) (time.Weekday, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(in); err == nil {
		if n >= int(time.Sunday) && n <= int(time.Saturday) {
			return time.Weekday(n), nil
		}
	} else if len(in) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.HasPrefix(strings.ToLower(d.String()), in) {
				return d, nil
			}
		}
	}
	return 0, apperr.Validation("weekday", "invalid weekday "+strconv.Quote(s))
}
