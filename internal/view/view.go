// Package view enumerates the grid instances of a year for each layout
// style and lays every instance out through the layout engine.
package view

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"yearcal/internal/layout"
	"yearcal/internal/metrics"
	"yearcal/internal/model"
)

// Style selects how a year is split into grid instances.
type Style string

const (
	// StyleWeeks is a continuous stack of 7-column week rows.
	StyleWeeks Style = "year"
	// StyleMonthRows is one row per month, all rows sharing one width.
	StyleMonthRows Style = "months"
	// StyleMonthGrid is one 6x7 block per month.
	StyleMonthGrid Style = "grid"
)

// monthBlockColumns is the cell count of a 6-week month block.
const monthBlockColumns = 42

// ParseStyle accepts a style name; empty means StyleWeeks.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleWeeks:
		return StyleWeeks, nil
	case StyleMonthRows:
		return StyleMonthRows, nil
	case StyleMonthGrid:
		return StyleMonthGrid, nil
	}
	return "", fmt.Errorf("view: unknown style %q", s)
}

// Request describes one year build.
type Request struct {
	Year     int
	Style    Style
	Calendar layout.CalendarConfig
	// MaxRows is passed to the engine: 0 default, negative unbounded.
	MaxRows int
	// Featured also computes the one-event-per-day reduction.
	Featured bool
	// Location anchors the grid dates; nil means time.Local.
	Location *time.Location
}

// Day is one column cell of a grid instance.
type Day struct {
	Column  int            `json:"column"`
	Date    time.Time      `json:"date,omitzero"`
	Weekday layout.Weekday `json:"weekday"`
	Weekend bool           `json:"weekend"`
	// InPeriod is false for padding cells and for dates outside the
	// instance's own period (other months in month views, other years in
	// week rows).
	InPeriod bool `json:"in_period"`
}

// Grid is one laid-out grid instance.
type Grid struct {
	Label    string               `json:"label"`
	Spec     layout.GridSpec      `json:"spec"`
	Days     []Day                `json:"days"`
	Placed   []layout.PlacedEvent `json:"placed"`
	Rows     int                  `json:"rows"`
	Dropped  int                  `json:"dropped"`
	Overflow []int                `json:"overflow,omitempty"`
	Featured []layout.Segment     `json:"featured,omitempty"`
}

// Year is a whole year laid out in one style.
type Year struct {
	Year           int            `json:"year"`
	Style          Style          `json:"style"`
	FirstDayOfWeek layout.Weekday `json:"first_day_of_week"`
	Columns        int            `json:"columns"`
	Grids          []Grid         `json:"grids"`
	Dropped        int            `json:"dropped"`
}

// instance is a grid instance before layout.
type instance struct {
	label       string
	spec        layout.GridSpec
	periodStart time.Time
	periodEnd   time.Time // exclusive
	// ownOnly keeps the instance to events touching its own period, so an
	// event shows in its month and never in another month's trailing cells.
	ownOnly bool
}

func instances(req Request) ([]instance, error) {
	loc := req.Location
	if loc == nil {
		loc = time.Local
	}
	cfg := req.Calendar
	jan1 := time.Date(req.Year, time.January, 1, 0, 0, 0, 0, loc)
	nextJan1 := jan1.AddDate(1, 0, 0)

	var out []instance
	switch req.Style {
	case StyleWeeks:
		for anchor := layout.StartOfWeek(jan1, cfg); anchor.Before(nextJan1); anchor = layout.AddDays(anchor, 7) {
			out = append(out, instance{
				label:       anchor.Format("Jan 2"),
				spec:        layout.NewGridSpec(anchor, 7, cfg),
				periodStart: jan1,
				periodEnd:   nextJan1,
			})
		}
	case StyleMonthRows, StyleMonthGrid:
		columns := monthBlockColumns
		if req.Style == StyleMonthRows {
			columns = layout.RequiredColumnsForYear(req.Year, cfg)
		}
		for m := time.January; m <= time.December; m++ {
			first := time.Date(req.Year, m, 1, 0, 0, 0, 0, loc)
			out = append(out, instance{
				label:       first.Format("January"),
				spec:        layout.NewGridSpec(first, columns, cfg),
				periodStart: first,
				periodEnd:   first.AddDate(0, 1, 0),
				ownOnly:     true,
			})
		}
	default:
		return nil, fmt.Errorf("view: unknown style %q", req.Style)
	}
	return out, nil
}

// Build lays out every grid instance of req.Year. Instances are laid out
// in parallel; ctx is checked before each one.
func Build(ctx context.Context, events []model.Event, req Request) (*Year, error) {
	started := time.Now()
	insts, err := instances(req)
	if err != nil {
		return nil, err
	}

	grids := make([]Grid, len(insts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, in := range insts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			grids[i] = buildGrid(events, in, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("view: build %d %s: %w", req.Year, req.Style, err)
	}

	y := &Year{
		Year:           req.Year,
		Style:          req.Style,
		FirstDayOfWeek: insts[0].spec.FirstDayOfWeek,
		Grids:          grids,
	}
	for _, gr := range grids {
		y.Columns = max(y.Columns, gr.Spec.Columns)
		y.Dropped += gr.Dropped
	}
	metrics.ObserveLayout(string(req.Style), time.Since(started), y.Dropped)
	return y, nil
}

func buildGrid(events []model.Event, in instance, req Request) Grid {
	if in.ownOnly {
		events = inPeriod(events, in)
	}
	res := layout.LayoutGrid(events, in.spec, req.MaxRows)
	gr := Grid{
		Label:    in.label,
		Spec:     in.spec,
		Days:     days(in),
		Placed:   res.Placed,
		Dropped:  res.Dropped,
		Overflow: res.Overflow,
	}
	for _, p := range res.Placed {
		gr.Rows = max(gr.Rows, p.Row+1)
	}
	if req.Featured {
		gr.Featured = layout.LayoutFeatured(events, in.spec)
	}
	return gr
}

// inPeriod keeps the events whose day columns reach into the instance's
// period, counting days the way the layout engine does.
func inPeriod(events []model.Event, in instance) []model.Event {
	periodDays := layout.DaysBetween(in.periodStart, in.periodEnd)
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		first := layout.DaysBetween(in.periodStart, ev.Start)
		last := first + layout.DaySpan(ev) - 1
		if last >= 0 && first < periodDays {
			out = append(out, ev)
		}
	}
	return out
}

func days(in instance) []Day {
	out := make([]Day, in.spec.Columns)
	for c := range out {
		wd := layout.WeekdayOfColumn(c, in.spec)
		d := Day{Column: c, Weekday: wd, Weekend: wd.IsWeekend()}
		if date, ok := layout.DateOfColumn(c, in.spec); ok {
			d.Date = date
			d.InPeriod = !date.Before(in.periodStart) && date.Before(in.periodEnd)
		}
		out[c] = d
	}
	return out
}
