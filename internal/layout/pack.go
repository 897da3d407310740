package layout

import (
	"cmp"
	"slices"
	"strings"

	"yearcal/internal/model"
)

const (
	// DefaultMaxRows is used when a caller passes maxRows == 0.
	DefaultMaxRows = 5
	// Unbounded disables the row cap.
	Unbounded = -1
)

// Interval is an event projected onto one grid: inclusive columns
// [Start, End].
type Interval struct {
	Event model.Event
	Start int
	End   int
}

// PlacedEvent is an event bar assigned to a row of one grid instance.
type PlacedEvent struct {
	Event       model.Event `json:"event"`
	Row         int         `json:"row"`
	ColumnStart int         `json:"column_start"`
	ColumnSpan  int         `json:"column_span"`
}

// Packing is the outcome of Pack.
type Packing struct {
	Placed  []PlacedEvent
	Dropped []Interval
}

// CompareEvents orders events by layout priority: longer duration first,
// all-day before timed, earlier start, then title and ID so the order is
// total.
func CompareEvents(a, b model.Event) int {
	if c := cmp.Compare(b.Duration(), a.Duration()); c != 0 {
		return c
	}
	if a.AllDay != b.AllDay {
		if a.AllDay {
			return -1
		}
		return 1
	}
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Pack assigns each interval the lowest row whose occupied columns do not
// intersect it, visiting intervals in CompareEvents order. Intervals that
// find no row below maxRows are returned in Dropped.
//
// This is first-fit interval colouring: optimal for nested or sequential
// intervals, not guaranteed minimal for arbitrary overlap.
func Pack(intervals []Interval, maxRows int) Packing {
	out := Packing{Placed: make([]PlacedEvent, 0, len(intervals))}
	if len(intervals) == 0 {
		return out
	}
	limit := maxRows
	if limit == 0 {
		limit = DefaultMaxRows
	}

	sorted := slices.Clone(intervals)
	slices.SortStableFunc(sorted, func(a, b Interval) int {
		return CompareEvents(a.Event, b.Event)
	})

	width := 0
	for _, iv := range sorted {
		width = max(width, iv.End+1)
	}

	var rows [][]bool
	for _, iv := range sorted {
		if iv.Start < 0 || iv.End < iv.Start {
			continue
		}
		row := firstFreeRow(rows, iv, limit)
		if row < 0 {
			out.Dropped = append(out.Dropped, iv)
			continue
		}
		if row == len(rows) {
			rows = append(rows, make([]bool, width))
		}
		for c := iv.Start; c <= iv.End; c++ {
			rows[row][c] = true
		}
		out.Placed = append(out.Placed, PlacedEvent{
			Event:       iv.Event,
			Row:         row,
			ColumnStart: iv.Start,
			ColumnSpan:  iv.End - iv.Start + 1,
		})
	}
	return out
}

// firstFreeRow returns the index of the first row that can take iv, which is
// len(rows) when a new row is needed, or -1 when the cap is reached.
func firstFreeRow(rows [][]bool, iv Interval, limit int) int {
	for r, occupied := range rows {
		if !slices.Contains(occupied[iv.Start:iv.End+1], true) {
			return r
		}
	}
	if limit > 0 && len(rows) >= limit {
		return -1
	}
	return len(rows)
}
