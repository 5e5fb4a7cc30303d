package calendar

import (
	"fmt"
	"math"
	"time"
)

// FormatHour renders a fractional hour for the planner grid: 9 -> "9 AM",
// 13.25 -> "1:15 PM", 0 -> "12 AM".
func FormatHour(hour float64) string {
	h := int(math.Floor(hour))
	m := int(math.Round((hour - float64(h)) * 60))
	if m == 60 {
		h, m = h+1, 0
	}
	period := "AM"
	if h%24 >= 12 {
		period = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	if m == 0 {
		return fmt.Sprintf("%d %s", display, period)
	}
	return fmt.Sprintf("%d:%02d %s", display, m, period)
}

// Greeting picks the dashboard salutation for the hour of now.
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// FriendlyDate labels d relative to today.
func FriendlyDate(d, today Date) string {
	switch DaysBetween(today, d) {
	case 0:
		return "Today"
	case -1:
		return "Yesterday"
	case 1:
		return "Tomorrow"
	default:
		return d.Format("Monday, Jan 2")
	}
}
