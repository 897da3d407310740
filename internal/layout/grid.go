package layout

import "time"

// CalendarConfig carries the display preferences that affect column math.
// Changing it invalidates every GridSpec built from it.
type CalendarConfig struct {
	FirstDayOfWeek Weekday
}

// DefaultCalendarConfig starts weeks on Sunday.
func DefaultCalendarConfig() CalendarConfig {
	return CalendarConfig{FirstDayOfWeek: Sunday}
}

func (c CalendarConfig) firstDay() Weekday {
	if !c.FirstDayOfWeek.Valid() {
		return Sunday
	}
	return c.FirstDayOfWeek
}

// GridSpec describes one grid instance: a week row, a month row or a month
// block. Column 0 is the weekday cell FirstDayOfWeek; Anchor (the first real
// date) sits at column Offset, and the cells before it are padding.
type GridSpec struct {
	Anchor         time.Time `json:"anchor"`
	Columns        int       `json:"columns"`
	FirstDayOfWeek Weekday   `json:"first_day_of_week"`
	Offset         int       `json:"offset"`
}

// NewGridSpec builds a GridSpec for anchor and derives its offset from cfg.
// Anchor is truncated to midnight.
func NewGridSpec(anchor time.Time, columns int, cfg CalendarConfig) GridSpec {
	if columns < 0 {
		columns = 0
	}
	first := cfg.firstDay()
	return GridSpec{
		Anchor:         StartOfDay(anchor),
		Columns:        columns,
		FirstDayOfWeek: first,
		Offset:         FirstColumnOffset(anchor, first),
	}
}

// FirstColumnOffset is the number of padding cells before date when a row
// starts on first.
func FirstColumnOffset(date time.Time, first Weekday) int {
	return (int(WeekdayOf(date)) - int(first) + 7) % 7
}

// ColumnOf returns the zero-based column of date, or false when date is
// before the anchor or past the last column.
func ColumnOf(date time.Time, g GridSpec) (int, bool) {
	d := DaysBetween(g.Anchor, date)
	if d < 0 {
		return 0, false
	}
	col := d + g.Offset
	if col >= g.Columns {
		return 0, false
	}
	return col, true
}

// DateOfColumn is the inverse of ColumnOf. Padding cells and out-of-range
// indices return false.
func DateOfColumn(index int, g GridSpec) (time.Time, bool) {
	if index < g.Offset || index >= g.Columns {
		return time.Time{}, false
	}
	return AddDays(g.Anchor, index-g.Offset), true
}

// WeekdayOfColumn returns the weekday shown in column index.
func WeekdayOfColumn(index int, g GridSpec) Weekday {
	first := g.FirstDayOfWeek
	if !first.Valid() {
		first = Sunday
	}
	i := ((index % 7) + 7) % 7
	return Weekday((int(first)-1+i)%7 + 1)
}

// StartOfWeek returns midnight of the first day of the week containing t.
func StartOfWeek(t time.Time, cfg CalendarConfig) time.Time {
	return AddDays(t, -FirstColumnOffset(t, cfg.firstDay()))
}

// RequiredColumnsForMonth is the column count a month row needs so that its
// last day fits after the leading padding.
func RequiredColumnsForMonth(year int, month time.Month, cfg CalendarConfig) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return FirstColumnOffset(first, cfg.firstDay()) + DaysIn(year, month)
}

// RequiredColumnsForYear is the widest RequiredColumnsForMonth of the year,
// so every month row of the year can share one column count.
func RequiredColumnsForYear(year int, cfg CalendarConfig) int {
	n := 0
	for m := time.January; m <= time.December; m++ {
		n = max(n, RequiredColumnsForMonth(year, m, cfg))
	}
	return n
}
