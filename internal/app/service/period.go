package service

import "time"

// DefaultPeriodDays is used when the selector is absent or not recognised.
const DefaultPeriodDays = 7

// periodDays maps a period selector to a number of days. "2" and "3" are the
// dashboard's legacy ordinal selectors for 7 and 30 days.
var periodDays = map[string]int{
	"1":  1,
	"2":  7,
	"3":  30,
	"7":  7,
	"30": 30,
}

// Window is an inclusive range of whole UTC calendar days.
type Window struct {
	From time.Time
	To   time.Time
	Days int
}

// PeriodWindow maps a period selector to the window of days ending today (UTC).
// From is midnight of the first day; To is the last instant of today.
func PeriodWindow(period string, now time.Time) Window {
	days, ok := periodDays[period]
	if !ok {
		days = DefaultPeriodDays
	}

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Window{
		From: today.AddDate(0, 0, -(days - 1)),
		To:   today.AddDate(0, 0, 1).Add(-time.Nanosecond),
		Days: days,
	}
}

// Dates lists every day of the window as YYYY-MM-DD.
func (w Window) Dates() []string {
	dates := make([]string, 0, w.Days)
	for d := 0; d < w.Days; d++ {
		dates = append(dates, w.From.AddDate(0, 0, d).Format(time.DateOnly))
	}
	return dates
}
