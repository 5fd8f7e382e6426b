// Package week buckets millisecond timestamps into Monday-first calendar
// weeks relative to a reference "now".
//
// Boundaries are computed on the local calendar date of now (its Location):
// the current week is [Monday 00:00, next Monday 00:00). Timestamps are
// compared against those boundaries at full precision.
package week

import "time"

// MondayOf returns midnight of the Monday starting the week that contains
// now, in now's location.
func MondayOf(now time.Time) time.Time {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	// Sunday is 6 days after Monday, Monday is 0.
	offset := (int(today.Weekday()) + 6) % 7

	return today.AddDate(0, 0, -offset)
}

// Bounds returns the start of the current week and the start of the next.
func Bounds(now time.Time) (start, end time.Time) {
	start = MondayOf(now)
	return start, start.AddDate(0, 0, 7)
}

func IsInCurrentWeek(ts int64, now time.Time) bool {
	start, end := Bounds(now)
	t := time.UnixMilli(ts)
	return !t.Before(start) && t.Before(end)
}

func IsInPastWeek(ts int64, now time.Time) bool {
	return time.UnixMilli(ts).Before(MondayOf(now))
}

func IsInFutureWeek(ts int64, now time.Time) bool {
	_, end := Bounds(now)
	return !time.UnixMilli(ts).Before(end)
}
