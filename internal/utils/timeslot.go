package utils

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Bookable durations in hours.
var AllowedDurations = []int{1, 2, 3, 4, 5, 6, 8, 10, 12, 24}

func IsAllowedDuration(hours int) bool {
	for _, h := range AllowedDurations {
		if h == hours {
			return true
		}
	}
	return false
}

// NextAvailableQuarterHour rounds up to the next quarter-hour boundary.
// A time already on a boundary still advances a full 15 minutes, so the
// result is always 1 to 15 minutes in the future. Seconds are zeroed.
func NextAvailableQuarterHour(now time.Time) time.Time {
	add := 15 - now.Minute()%15
	t := now.Add(time.Duration(add) * time.Minute)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// MinStartTime returns the earliest selectable "HH:mm" start for a date.
// Today is floored to the next quarter hour; future dates have no floor.
func MinStartTime(date string, now time.Time) string {
	if date == now.Format(DateLayout) {
		return NextAvailableQuarterHour(now).Format(TimeLayout)
	}
	return "00:00"
}
