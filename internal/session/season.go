package session

import (
	"fmt"
	"time"
)

// SeasonLabel derives the rolling season a date belongs to. The season
// runs August through July: August-December belong to the starting year,
// January-July to the previous starting year.
func SeasonLabel(t time.Time) string {
	year := t.Year()
	if t.Month() < time.August {
		year--
	}
	return fmt.Sprintf("%d-%d", year, year+1)
}
