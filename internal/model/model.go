package model

import "time"

// Event is a single concrete calendar event as handed to the layout engine:
// recurrence is already expanded and Start/End are already in the display
// timezone.
//
// All-day events follow the iCalendar convention of an exclusive End (the
// start of the day after the last day). Use EffectiveEnd for any day math.
type Event struct {
	// ID is stable across refreshes for the same occurrence.
	ID    string `json:"id"`
	Title string `json:"title"`

	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day"`

	// CalendarID is the source calendar (config ICS ID).
	CalendarID string `json:"calendar_id"`
	// Color is the display color of the source calendar, "#rrggbb".
	Color string `json:"color,omitempty"`

	Location string `json:"location,omitempty"`
}

// Duration returns End-Start, or zero when End precedes Start.
func (e Event) Duration() time.Duration {
	d := e.End.Sub(e.Start)
	if d < 0 {
		return 0
	}
	return d
}

// EffectiveEnd returns the inclusive last instant of the event. For all-day
// events this is one nanosecond before the exclusive End, so a one-day
// all-day event stays on one day.
func (e Event) EffectiveEnd() time.Time {
	end := e.End
	if end.Before(e.Start) {
		end = e.Start
	}
	if e.AllDay && end.After(e.Start) {
		end = end.Add(-time.Nanosecond)
	}
	return end
}

// IsMultiDay reports whether the event touches more than one calendar day.
func (e Event) IsMultiDay() bool {
	sy, sm, sd := e.Start.Date()
	ey, em, ed := e.EffectiveEnd().Date()
	return sy != ey || sm != em || sd != ed
}
