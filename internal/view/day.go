package view

import (
	"slices"
	"strings"
	"time"

	"yearcal/internal/layout"
	"yearcal/internal/model"
)

// DayEvents lists the events occurring on day's calendar date: all-day
// events first, then by start time and title.
func DayEvents(events []model.Event, day time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if layout.DaysBetween(day, ev.Start) <= 0 && layout.DaysBetween(day, ev.EffectiveEnd()) >= 0 {
			out = append(out, ev)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Event) int {
		switch {
		case a.AllDay != b.AllDay:
			if a.AllDay {
				return -1
			}
			return 1
		case !a.Start.Equal(b.Start):
			return a.Start.Compare(b.Start)
		case a.Title != b.Title:
			return strings.Compare(a.Title, b.Title)
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
