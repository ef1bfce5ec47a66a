// Package schedule maps recurring weekly class slots onto concrete calendar
// dates. Everything here is a pure function of its inputs; callers pass "now"
// already converted to the studio's location.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fightflight/backend/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// WallClock is a time of day in 24-hour form.
type WallClock struct {
	Hour   int
	Minute int
}

// ParseWallClock parses a 12-hour time such as "6:30 PM". 12:xx AM is hour 0,
// 12:xx PM stays hour 12, every other PM hour adds 12.
func ParseWallClock(s string) (WallClock, error) {
	clock, period, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return WallClock{}, fmt.Errorf("%w: time %q must look like 6:30 PM", models.ErrValidation, s)
	}
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return WallClock{}, fmt.Errorf("%w: time %q must look like 6:30 PM", models.ErrValidation, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 1 || hour > 12 {
		return WallClock{}, fmt.Errorf("%w: invalid hour in %q", models.ErrValidation, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || minute < 0 || minute > 59 {
		return WallClock{}, fmt.Errorf("%w: invalid minute in %q", models.ErrValidation, s)
	}
	switch strings.ToUpper(strings.TrimSpace(period)) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return WallClock{}, fmt.Errorf("%w: time %q needs AM or PM", models.ErrValidation, s)
	}
	return WallClock{Hour: hour, Minute: minute}, nil
}

// MustParseWallClock is ParseWallClock for literals.
func MustParseWallClock(s string) WallClock {
	wc, err := ParseWallClock(s)
	if err != nil {
		panic(err)
	}
	return wc
}

func (w WallClock) minutes() int { return w.Hour*60 + w.Minute }

// String formats the clock back to the 12-hour display form.
func (w WallClock) String() string {
	hour, period := w.Hour, "AM"
	if hour >= 12 {
		period = "PM"
	}
	if hour%12 == 0 {
		hour = 12
	} else {
		hour %= 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, w.Minute, period)
}

// ParseWeekday accepts a full English day name, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(strings.TrimSpace(s), d.String()) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: unknown weekday %q", models.ErrValidation, s)
}

// Midnight returns the start of t's calendar day, as read in t's own location,
// expressed in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SlotStart returns the instant the slot starts on the given date.
func SlotStart(date time.Time, wc WallClock) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, wc.Hour, wc.Minute, 0, 0, date.Location())
}

// HasSlotPassed reports whether now is strictly after the slot's start on date.
func HasSlotPassed(date time.Time, wc WallClock, now time.Time) bool {
	return now.After(SlotStart(date, wc))
}

// ResolveNextOccurrence returns the calendar date of the next occurrence of the
// weekly slot, never earlier than today. Today is returned only when the slot
// is today and has not started yet.
func ResolveNextOccurrence(weekday time.Weekday, wc WallClock, now time.Time) time.Time {
	diff := int(weekday) - int(now.Weekday())
	if diff < 0 {
		diff += 7
	}
	today := Midnight(now, now.Location())
	if diff == 0 && HasSlotPassed(today, wc, now) {
		diff = 7
	}
	y, m, d := today.Date()
	return time.Date(y, m, d+diff, 0, 0, 0, 0, now.Location())
}

// HasOccurrencePassedThisWeek reports whether this week's occurrence of the
// slot is already behind us. Weeks run Sunday through Saturday: a weekday
// earlier than today has passed, a later one has not, and today's slot has
// passed once now is strictly after its start. Templates are never
// deactivated by this check; they come back when the week rolls over.
func HasOccurrencePassedThisWeek(weekday time.Weekday, wc WallClock, now time.Time) bool {
	if weekday != now.Weekday() {
		return weekday < now.Weekday()
	}
	return HasSlotPassed(Midnight(now, now.Location()), wc, now)
}

// UpcomingThisWeek filters templates to the active ones whose occurrence this
// week is still ahead, sorted by weekday then start time. Templates with an
// unparseable time are dropped.
func UpcomingThisWeek(templates []*models.ClassTemplate, now time.Time) []*models.ClassTemplate {
	out := make([]*models.ClassTemplate, 0, len(templates))
	for _, c := range templates {
		if !c.Active {
			continue
		}
		wc, err := ParseWallClock(c.WallClockTime)
		if err != nil {
			continue
		}
		if HasOccurrencePassedThisWeek(c.Weekday, wc, now) {
			continue
		}
		out = append(out, c)
	}
	SortByWeekdayAndTime(out)
	return out
}

// SortByWeekdayAndTime orders templates Sunday first, then by start time.
func SortByWeekdayAndTime(templates []*models.ClassTemplate) {
	key := func(c *models.ClassTemplate) int {
		wc, err := ParseWallClock(c.WallClockTime)
		if err != nil {
			return int(c.Weekday) * 24 * 60
		}
		return int(c.Weekday)*24*60 + wc.minutes()
	}
	sort.SliceStable(templates, func(i, j int) bool {
		return key(templates[i]) < key(templates[j])
	})
}

// DaysBetween counts calendar days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
