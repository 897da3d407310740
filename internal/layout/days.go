package layout

import (
	"fmt"
	"strings"
	"time"
)

// Weekday numbers the days of the week 1..7 with 1 = Sunday.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

const day = 24 * time.Hour

// WeekdayOf returns the weekday of t's calendar date in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday()) + 1
}

// Valid reports whether w is in 1..7.
func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

// IsWeekend reports whether w is Saturday or Sunday.
func (w Weekday) IsWeekend() bool {
	return w == Sunday || w == Saturday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return time.Weekday(w - 1).String()
}

// ParseWeekday accepts full or three-letter English day names, any case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for w := Sunday; w <= Saturday; w++ {
		name := strings.ToLower(w.String())
		if s == name || s == name[:3] {
			return w, nil
		}
	}
	return 0, fmt.Errorf("layout: unknown weekday %q", s)
}

// DaysBetween returns the number of calendar-day boundaries from a to b,
// negative when b is earlier. Each value is read as a civil date in its own
// location, so DST shifts never produce fractional days.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / day)
}

// StartOfDay returns midnight of t's calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves t's calendar date by n days and returns its midnight.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
