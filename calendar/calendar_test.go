package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stride/habit-engine/calendar"
)

// =============================================================================
// DATE
// =============================================================================

func TestDateOf_SameWallClockDay_SameKey(t *testing.T) {
	// GIVEN: Two instants on the same local day, hours apart
	loc := time.FixedZone("UTC-7", -7*3600)
	early := time.Date(2025, time.March, 10, 0, 5, 0, 0, loc)
	late := time.Date(2025, time.March, 10, 23, 55, 0, 0, loc)

	// THEN: Both normalize to the same date, even though in UTC they differ
	assert.Equal(t, "2025-03-10", calendar.DateOf(early).Key())
	assert.Equal(t, calendar.DateOf(early).Key(), calendar.DateOf(late).Key())
	assert.True(t, calendar.DateOf(early).Equal(calendar.DateOf(late)))
}

func TestParseDate(t *testing.T) {
	d, err := calendar.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.February, d.Month())
	assert.Equal(t, 29, d.Day())

	_, err = calendar.ParseDate("2024/02/29")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	_, err = calendar.ParseDate("2023-02-29")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}

func TestDate_Arithmetic(t *testing.T) {
	d := calendar.MustParseDate("2025-12-31")

	assert.Equal(t, "2026-01-01", d.AddDays(1).Key())
	assert.Equal(t, "2025-12-24", d.AddDays(-7).Key())
	assert.Equal(t, 365, calendar.DaysBetween(calendar.MustParseDate("2025-01-01"), calendar.MustParseDate("2026-01-01")))
	assert.Equal(t, -1, calendar.DaysBetween(d, d.AddDays(-1)))
	assert.Equal(t, 29, calendar.DaysInMonth(2024, time.February))
	assert.Equal(t, 30, calendar.DaysInMonth(2025, time.April))
}

func TestDate_TextRoundTrip(t *testing.T) {
	var d calendar.Date
	require.NoError(t, d.UnmarshalText([]byte("2025-06-01")))
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", string(b))

	require.NoError(t, d.UnmarshalText(nil))
	assert.True(t, d.IsZero())
	assert.Equal(t, "", d.Key())
}

func TestWeekdayNames(t *testing.T) {
	assert.Equal(t, "wednesday", calendar.MustParseDate("2025-01-01").WeekdayName())
	assert.True(t, calendar.MustParseDate("2025-01-03").IsWeekday())
	assert.False(t, calendar.MustParseDate("2025-01-04").IsWeekday())

	wd, ok := calendar.ParseWeekdayName(" Friday ")
	require.True(t, ok)
	assert.Equal(t, time.Friday, wd)

	_, ok = calendar.ParseWeekdayName("fri")
	assert.False(t, ok)
}

func TestValidWeekdayNumber(t *testing.T) {
	assert.True(t, calendar.ValidWeekdayNumber(0))
	assert.True(t, calendar.ValidWeekdayNumber(6))
	assert.False(t, calendar.ValidWeekdayNumber(-1))
	assert.False(t, calendar.ValidWeekdayNumber(7))
}

// =============================================================================
// PERIOD
// =============================================================================

func TestWeekOf_StartsMonday(t *testing.T) {
	// 2025-01-05 is a Sunday: its week is Mon Dec 30 .. Sun Jan 5
	week := calendar.WeekOf(calendar.MustParseDate("2025-01-05"))
	assert.Equal(t, "2024-12-30", week.Start.Key())
	assert.Equal(t, "2025-01-05", week.End.Key())
	assert.Equal(t, 7, week.Len())

	week = calendar.WeekOf(calendar.MustParseDate("2024-12-30"))
	assert.Equal(t, "2024-12-30", week.Start.Key())
}

func TestMonthGridOf_CoversWholeWeeks(t *testing.T) {
	// February 2025 starts on Saturday and ends on Friday
	grid := calendar.MonthGridOf(calendar.MustParseDate("2025-02-14"))
	assert.Equal(t, "2025-01-27", grid.Start.Key())
	assert.Equal(t, "2025-03-02", grid.End.Key())
	assert.Equal(t, 0, grid.Len()%7)
}

func TestPeriod_DaysAndContains(t *testing.T) {
	p, err := calendar.NewPeriod(calendar.MustParseDate("2025-01-30"), calendar.MustParseDate("2025-02-02"))
	require.NoError(t, err)

	days := p.Days()
	require.Len(t, days, 4)
	assert.Equal(t, "2025-01-30", days[0].Key())
	assert.Equal(t, "2025-02-02", days[3].Key())
	assert.True(t, p.Contains(calendar.MustParseDate("2025-02-01")))
	assert.False(t, p.Contains(calendar.MustParseDate("2025-02-03")))

	_, err = calendar.NewPeriod(p.End, p.Start)
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)

	inverted := calendar.Period{Start: p.End, End: p.Start}
	assert.Empty(t, inverted.Days())
	assert.Equal(t, 0, inverted.Len())
}

func TestLastAndNextNDays(t *testing.T) {
	today := calendar.MustParseDate("2025-03-01")

	last := calendar.LastNDays(today, 7)
	assert.Equal(t, "2025-02-23", last.Start.Key())
	assert.Equal(t, "2025-03-01", last.End.Key())

	next := calendar.NextNDays(today, 3)
	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03"}, keys(next.Days()))

	assert.Empty(t, calendar.LastNDays(today, 0).Days())
}

func TestMondayPadding(t *testing.T) {
	assert.Equal(t, 0, calendar.MondayPadding(calendar.MustParseDate("2025-09-01"))) // Monday
	assert.Equal(t, 6, calendar.MondayPadding(calendar.MustParseDate("2025-06-01"))) // Sunday
	assert.Equal(t, 5, calendar.MondayPadding(calendar.MustParseDate("2025-02-01"))) // Saturday
}

// =============================================================================
// FORMAT
// =============================================================================

func TestFormatHour(t *testing.T) {
	cases := map[float64]string{
		0:     "12 AM",
		9:     "9 AM",
		12:    "12 PM",
		13.25: "1:15 PM",
		23.5:  "11:30 PM",
		6.75:  "6:45 AM",
	}
	for in, want := range cases {
		assert.Equal(t, want, calendar.FormatHour(in), "hour %v", in)
	}
}

func TestGreeting(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 1, 1, h, 0, 0, 0, time.UTC) }
	assert.Equal(t, "Good morning", calendar.Greeting(at(8)))
	assert.Equal(t, "Good afternoon", calendar.Greeting(at(12)))
	assert.Equal(t, "Good evening", calendar.Greeting(at(17)))
}

func TestFriendlyDate(t *testing.T) {
	today := calendar.MustParseDate("2025-01-15")
	assert.Equal(t, "Today", calendar.FriendlyDate(today, today))
	assert.Equal(t, "Yesterday", calendar.FriendlyDate(today.AddDays(-1), today))
	assert.Equal(t, "Tomorrow", calendar.FriendlyDate(today.AddDays(1), today))
	assert.Equal(t, "Monday, Jan 20", calendar.FriendlyDate(today.AddDays(5), today))
}

func TestClock_TodayUsesInjectedTime(t *testing.T) {
	clock := calendar.FixedClock(time.Date(2025, 7, 4, 22, 0, 0, 0, time.Local))
	assert.Equal(t, "2025-07-04", clock.Today().Key())
}

func keys(days []calendar.Date) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Key()
	}
	return out
}
