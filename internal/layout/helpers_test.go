package layout

import (
	"time"

	"yearcal/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func allDay(id string, from time.Time, days int) model.Event {
	return model.Event{
		ID:     id,
		Title:  id,
		Start:  from,
		End:    AddDays(from, days),
		AllDay: true,
	}
}

func timed(id string, start time.Time, d time.Duration) model.Event {
	return model.Event{
		ID:    id,
		Title: id,
		Start: start,
		End:   start.Add(d),
	}
}

func byID(placed []PlacedEvent) map[string]PlacedEvent {
	m := make(map[string]PlacedEvent, len(placed))
	for _, p := range placed {
		m[p.Event.ID] = p
	}
	return m
}

// sundayWeek is the week of 2026-03-01 (a Sunday) with Sunday as first day.
func sundayWeek() GridSpec {
	return NewGridSpec(date(2026, time.March, 1), 7, CalendarConfig{FirstDayOfWeek: Sunday})
}
