package calendar

import (
	"strings"
	"time"
)

var weekdayNames = [...]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// WeekdayName returns the lowercase English name used for habit schedules.
func WeekdayName(wd time.Weekday) string {
	if wd < time.Sunday || wd > time.Saturday {
		return ""
	}
	return weekdayNames[wd]
}

// ParseWeekdayName accepts a full English weekday name in any case.
func ParseWeekdayName(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range weekdayNames {
		if n == name {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// ValidWeekdayNumber reports whether n is in 0 (Sunday) .. 6 (Saturday).
func ValidWeekdayNumber(n int) bool { return n >= 0 && n <= 6 }
