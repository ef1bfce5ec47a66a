package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fightflight/backend/internal/models"
)

var studio = time.FixedZone("IST", 5*3600+1800)

// thursday10am is Thursday 2026-10-15 10:00 in the studio's zone.
var thursday10am = time.Date(2026, time.October, 15, 10, 0, 0, 0, studio)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, studio)
}

func TestParseWallClock(t *testing.T) {
	cases := []struct {
		in   string
		want WallClock
	}{
		{"12:00 AM", WallClock{0, 0}},
		{"12:30 AM", WallClock{0, 30}},
		{"12:00 PM", WallClock{12, 0}},
		{"1:15 PM", WallClock{13, 15}},
		{"6:30 PM", WallClock{18, 30}},
		{"9:05 am", WallClock{9, 5}},
		{"11:59 PM", WallClock{23, 59}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseWallClock(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "18:00", "6:30", "13:00 PM", "0:30 AM", "6:3 PM", "6:60 PM", "six PM", "6:30 XM"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseWallClock(bad)
			require.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestWallClockString(t *testing.T) {
	for _, s := range []string{"12:00 AM", "12:00 PM", "6:30 PM", "9:05 AM"} {
		assert.Equal(t, s, MustParseWallClock(s).String())
	}
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d)

	d, err = ParseWeekday(" Sunday ")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	_, err = ParseWeekday("Funday")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestResolveNextOccurrence(t *testing.T) {
	cases := []struct {
		name    string
		weekday time.Weekday
		time    string
		want    time.Time
	}{
		{"later today", time.Thursday, "11:00 AM", date(2026, time.October, 15)},
		{"starting right now", time.Thursday, "10:00 AM", date(2026, time.October, 15)},
		{"earlier today wraps a week", time.Thursday, "9:00 AM", date(2026, time.October, 22)},
		{"tomorrow", time.Friday, "6:00 AM", date(2026, time.October, 16)},
		{"yesterday wraps", time.Wednesday, "7:00 PM", date(2026, time.October, 21)},
		{"sunday", time.Sunday, "8:00 AM", date(2026, time.October, 18)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveNextOccurrence(tc.weekday, MustParseWallClock(tc.time), thursday10am)
			assert.True(t, tc.want.Equal(got), "got %s want %s", got, tc.want)
			assert.Equal(t, tc.weekday, got.Weekday())
		})
	}
}

func TestHasOccurrencePassedThisWeek(t *testing.T) {
	oneMinuteAgo := thursday10am.Add(-time.Minute)
	oneMinuteAhead := thursday10am.Add(time.Minute)

	assert.True(t, HasOccurrencePassedThisWeek(time.Thursday, WallClock{oneMinuteAgo.Hour(), oneMinuteAgo.Minute()}, thursday10am))
	assert.False(t, HasOccurrencePassedThisWeek(time.Thursday, WallClock{oneMinuteAhead.Hour(), oneMinuteAhead.Minute()}, thursday10am))
	assert.False(t, HasOccurrencePassedThisWeek(time.Thursday, MustParseWallClock("10:00 AM"), thursday10am))

	assert.True(t, HasOccurrencePassedThisWeek(time.Wednesday, MustParseWallClock("11:00 PM"), thursday10am))
	assert.True(t, HasOccurrencePassedThisWeek(time.Sunday, MustParseWallClock("11:00 PM"), thursday10am))
	assert.False(t, HasOccurrencePassedThisWeek(time.Friday, MustParseWallClock("6:00 AM"), thursday10am))
	assert.False(t, HasOccurrencePassedThisWeek(time.Saturday, MustParseWallClock("6:00 AM"), thursday10am))
}

func TestUpcomingThisWeek(t *testing.T) {
	mk := func(name string, day time.Weekday, at string, active bool) *models.ClassTemplate {
		return &models.ClassTemplate{ID: uuid.New(), Name: name, Weekday: day, WallClockTime: at, Active: active}
	}
	templates := []*models.ClassTemplate{
		mk("sat-yoga", time.Saturday, "9:00 AM", true),
		mk("thu-evening", time.Thursday, "6:30 PM", true),
		mk("thu-early", time.Thursday, "7:00 AM", true),
		mk("fri-retired", time.Friday, "6:00 PM", false),
		mk("mon", time.Monday, "6:00 PM", true),
		mk("thu-noon", time.Thursday, "12:00 PM", true),
		mk("broken", time.Friday, "noonish", true),
	}

	got := UpcomingThisWeek(templates, thursday10am)

	var names []string
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"thu-noon", "thu-evening", "sat-yoga"}, names)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(thursday10am, date(2026, time.October, 15)))
	assert.Equal(t, 1, DaysBetween(thursday10am, date(2026, time.October, 16)))
	assert.Equal(t, -2, DaysBetween(thursday10am, date(2026, time.October, 13)))
	assert.Equal(t, 17, DaysBetween(thursday10am, date(2026, time.November, 1)))
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func genNow(t *rapid.T) time.Time {
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, studio)
	minutes := rapid.IntRange(0, 2*365*24*60).Draw(t, "minutes")
	return base.Add(time.Duration(minutes) * time.Minute)
}

func genSlot(t *rapid.T) (time.Weekday, WallClock) {
	day := time.Weekday(rapid.IntRange(0, 6).Draw(t, "weekday"))
	wc := WallClock{Hour: rapid.IntRange(0, 23).Draw(t, "hour"), Minute: rapid.IntRange(0, 59).Draw(t, "minute")}
	return day, wc
}

func TestResolveNextOccurrenceNeverInPast(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := genNow(t)
		day, wc := genSlot(t)
		today := Midnight(now, studio)

		next := ResolveNextOccurrence(day, wc, now)

		if next.Before(today) {
			t.Fatalf("next %s before today %s", next, today)
		}
		if d := DaysBetween(today, next); d > 7 {
			t.Fatalf("next occurrence %d days out", d)
		}
		if next.Weekday() != day {
			t.Fatalf("weekday %s, want %s", next.Weekday(), day)
		}
		isToday := next.Equal(today)
		wantToday := day == now.Weekday() && !HasSlotPassed(today, wc, now)
		if isToday != wantToday {
			t.Fatalf("resolved to today=%v, want %v", isToday, wantToday)
		}
		if HasSlotPassed(next, wc, now) {
			t.Fatalf("resolved slot %s is already over at %s", next, now)
		}
	})
}

func TestPassedFilterAgreesWithResolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := genNow(t)
		day, wc := genSlot(t)
		today := Midnight(now, studio)

		next := ResolveNextOccurrence(day, wc, now)
		daysToSaturday := int(time.Saturday - now.Weekday())
		inThisWeek := DaysBetween(today, next) <= daysToSaturday

		if HasOccurrencePassedThisWeek(day, wc, now) == inThisWeek {
			t.Fatalf("passed=%v but next occurrence %s in this week=%v", !inThisWeek, next, inThisWeek)
		}
	})
}
