// Package layout maps calendar events onto day-column grids and stacks
// overlapping event bars into rows.
//
// A grid instance (week row, month row or month block) is described by a
// GridSpec. LayoutGrid projects events onto its columns and packs them into
// rows; LayoutFeatured reduces them to one label per day. Every call is a pure
// function of its arguments and may run concurrently with others.
package layout

import "yearcal/internal/model"

// Result is one layout pass over one grid instance.
type Result struct {
	Placed []PlacedEvent `json:"placed"`
	// Dropped counts events that overlap the grid but did not fit under
	// the row cap.
	Dropped int `json:"dropped"`
	// Overflow holds the dropped count per column; nil when nothing was
	// dropped.
	Overflow []int `json:"overflow,omitempty"`
}

// LayoutGrid places every event that overlaps g into a row, honouring
// maxRows (0 = DefaultMaxRows, negative = Unbounded).
func LayoutGrid(events []model.Event, g GridSpec, maxRows int) Result {
	p := Pack(Project(events, g), maxRows)
	res := Result{Placed: p.Placed, Dropped: len(p.Dropped)}
	if len(p.Dropped) > 0 {
		res.Overflow = make([]int, g.Columns)
		for _, iv := range p.Dropped {
			for c := iv.Start; c <= iv.End; c++ {
				res.Overflow[c]++
			}
		}
	}
	return res
}

// LayoutFeatured returns one segment per run of days won by the same event.
func LayoutFeatured(events []model.Event, g GridSpec) []Segment {
	return Featured(Project(events, g), g.Columns)
}

// Project converts the events that overlap g into column intervals clamped
// to [0, g.Columns-1]. Events with no positive duration and events entirely
// outside the grid are left out.
func Project(events []model.Event, g GridSpec) []Interval {
	if g.Columns <= 0 {
		return nil
	}
	out := make([]Interval, 0, len(events))
	for _, ev := range events {
		if iv, ok := project(ev, g); ok {
			out = append(out, iv)
		}
	}
	return out
}

func project(ev model.Event, g GridSpec) (Interval, bool) {
	if ev.Duration() <= 0 {
		return Interval{}, false
	}
	start := DaysBetween(g.Anchor, ev.Start) + g.Offset
	end := start + DaySpan(ev) - 1
	// Columns before Offset are padding: an event must reach the anchor.
	if end < g.Offset || start >= g.Columns {
		return Interval{}, false
	}
	return Interval{
		Event: ev,
		Start: clamp(start, 0, g.Columns-1),
		End:   clamp(end, 0, g.Columns-1),
	}, true
}

// DaySpan is the number of day columns an event covers: the calendar days
// from its start to its effective end, inclusive. Counting civil dates keeps
// all-day events on 23h and 25h DST days at one column each. Never less
// than 1.
func DaySpan(ev model.Event) int {
	return max(DaysBetween(ev.Start, ev.EffectiveEnd())+1, 1)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
