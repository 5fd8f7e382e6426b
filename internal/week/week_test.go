package week

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paris(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	return loc
}

func TestMondayOf(t *testing.T) {
	loc := paris(t)
	monday := time.Date(2024, time.March, 11, 0, 0, 0, 0, loc)

	cases := map[string]time.Time{
		"monday midnight": monday,
		"wednesday noon":  time.Date(2024, time.March, 13, 12, 30, 0, 0, loc),
		"sunday late":     time.Date(2024, time.March, 17, 23, 59, 59, 0, loc),
	}

	for name, now := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, monday.Equal(MondayOf(now)), "got %s", MondayOf(now))
		})
	}

	// Sunday belongs to the week that started six days earlier, not the next one.
	sunday := time.Date(2024, time.March, 10, 8, 0, 0, 0, loc)
	assert.True(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, loc).Equal(MondayOf(sunday)))
}

func TestMondayOfAcrossDST(t *testing.T) {
	loc := paris(t)
	// Clocks go forward on Sunday 2024-03-31 in Europe/Paris.
	now := time.Date(2024, time.April, 2, 9, 0, 0, 0, loc)
	assert.True(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, loc).Equal(MondayOf(now)))

	start, end := Bounds(time.Date(2024, time.March, 27, 9, 0, 0, 0, loc))
	assert.True(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, loc).Equal(end))
	assert.Equal(t, 167*time.Hour, end.Sub(start))
}

func TestPartitionAtBoundaries(t *testing.T) {
	loc := paris(t)
	now := time.Date(2024, time.March, 13, 15, 0, 0, 0, loc) // Wednesday
	start, end := Bounds(now)

	ms := func(tm time.Time) int64 { return tm.UnixMilli() }

	points := []struct {
		name    string
		ts      int64
		past    bool
		current bool
		future  bool
	}{
		{"just before monday", ms(start) - 1, true, false, false},
		{"monday 00:00:00", ms(start), false, true, false},
		{"monday 00:00:01", ms(start.Add(time.Second)), false, true, false},
		{"now", ms(now), false, true, false},
		{"sunday 23:59:59.999", ms(end) - 1, false, true, false},
		{"next monday 00:00:00", ms(end), false, false, true},
		{"far past", 0, true, false, false},
	}

	for _, p := range points {
		t.Run(p.name, func(t *testing.T) {
			assert.Equal(t, p.past, IsInPastWeek(p.ts, now), "past")
			assert.Equal(t, p.current, IsInCurrentWeek(p.ts, now), "current")
			assert.Equal(t, p.future, IsInFutureWeek(p.ts, now), "future")
		})
	}
}

func TestExactlyOnePredicateHolds(t *testing.T) {
	loc := paris(t)
	now := time.Date(2024, time.March, 17, 22, 0, 0, 0, loc) // Sunday evening
	base := time.Date(2024, time.February, 20, 0, 0, 0, 0, loc)

	for h := 0; h < 24*60; h += 7 {
		ts := base.Add(time.Duration(h) * time.Hour).UnixMilli()
		n := 0
		for _, ok := range []bool{IsInPastWeek(ts, now), IsInCurrentWeek(ts, now), IsInFutureWeek(ts, now)} {
			if ok {
				n++
			}
		}
		require.Equal(t, 1, n, "ts=%d", ts)
	}
}

func TestNineDaysBeforeWednesdayIsPast(t *testing.T) {
	loc := paris(t)
	now := time.Date(2024, time.March, 13, 10, 0, 0, 0, loc)
	ts := now.AddDate(0, 0, -9).UnixMilli()

	assert.True(t, IsInPastWeek(ts, now))
	assert.False(t, IsInCurrentWeek(ts, now))
}
