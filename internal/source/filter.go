package source

import (
	"strings"

	"yearcal/internal/config"
	"yearcal/internal/model"
)

// Filter hides events by calendar and by kind. A nil Calendars set shows
// every calendar.
type Filter struct {
	Calendars  map[string]bool
	ShowAllDay bool
	ShowTimed  bool
}

// FilterFromConfig shows enabled calendars and honors the show_* toggles.
func FilterFromConfig(cfg *config.Config) Filter {
	f := Filter{ShowAllDay: cfg.ShowAllDay, ShowTimed: cfg.ShowTimed}
	if len(cfg.ICS) > 0 {
		f.Calendars = make(map[string]bool)
		for _, id := range cfg.EnabledCalendars() {
			f.Calendars[id] = true
		}
	}
	return f
}

// Allows reports whether ev passes the filter.
func (f Filter) Allows(ev model.Event) bool {
	if ev.AllDay && !f.ShowAllDay {
		return false
	}
	if !ev.AllDay && !f.ShowTimed {
		return false
	}
	if f.Calendars != nil && !f.Calendars[ev.CalendarID] {
		return false
	}
	return true
}

// Apply returns the events that pass the filter, in input order.
func (f Filter) Apply(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if f.Allows(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Search returns events whose title or location contains query, ignoring
// case. An empty query matches nothing.
func Search(events []model.Event, query string) []model.Event {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Event, 0)
	if q == "" {
		return out
	}
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), q) || strings.Contains(strings.ToLower(ev.Location), q) {
			out = append(out, ev)
		}
	}
	return out
}
