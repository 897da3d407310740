package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yearcal/internal/layout"
	"yearcal/internal/model"
)

var monday = layout.CalendarConfig{FirstDayOfWeek: layout.Monday}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func req(style Style) Request {
	return Request{Year: 2026, Style: style, Calendar: monday, Location: time.UTC}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"", StyleWeeks, false},
		{"year", StyleWeeks, false},
		{" Months ", StyleMonthRows, false},
		{"grid", StyleMonthGrid, false},
		{"spiral", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestWeekRowsCoverEveryDayOnce(t *testing.T) {
	for _, first := range []layout.Weekday{layout.Sunday, layout.Monday, layout.Saturday} {
		r := req(StyleWeeks)
		r.Calendar = layout.CalendarConfig{FirstDayOfWeek: first}
		y, err := Build(context.Background(), nil, r)
		require.NoError(t, err)

		seen := make(map[time.Time]int)
		for _, g := range y.Grids {
			assert.Equal(t, 7, g.Spec.Columns)
			assert.Zero(t, g.Spec.Offset)
			for _, d := range g.Days {
				if d.InPeriod {
					seen[d.Date]++
				}
			}
		}
		assert.Len(t, seen, 365, first.String())
		for day, n := range seen {
			assert.Equal(t, 1, n, day.Format(time.DateOnly))
		}
		assert.Equal(t, layout.WeekdayOf(y.Grids[0].Days[0].Date), first)
	}
}

func TestMonthRowsShareColumnCount(t *testing.T) {
	y, err := Build(context.Background(), nil, req(StyleMonthRows))
	require.NoError(t, err)
	require.Len(t, y.Grids, 12)

	want := layout.RequiredColumnsForYear(2026, monday)
	assert.Equal(t, want, y.Columns)
	for i, g := range y.Grids {
		assert.Equal(t, want, g.Spec.Columns, g.Label)
		assert.Equal(t, date(2026, time.Month(i+1), 1), g.Spec.Anchor)

		inMonth := 0
		for _, d := range g.Days {
			if d.InPeriod {
				inMonth++
			}
		}
		assert.Equal(t, layout.DaysIn(2026, time.Month(i+1)), inMonth, g.Label)
	}
	// March 2026 starts on a Sunday: six padding cells in a Monday-start row.
	march := y.Grids[2]
	assert.Zero(t, march.Days[5].Date)
	assert.Equal(t, date(2026, time.March, 1), march.Days[6].Date)
	assert.True(t, march.Days[6].Weekend)
}

func TestMonthGridBlocks(t *testing.T) {
	y, err := Build(context.Background(), nil, req(StyleMonthGrid))
	require.NoError(t, err)
	require.Len(t, y.Grids, 12)
	for _, g := range y.Grids {
		assert.Equal(t, 42, g.Spec.Columns)
		assert.Len(t, g.Days, 42)
	}
	assert.Equal(t, "February", y.Grids[1].Label)
}

func TestBuildPlacesEventsPerInstance(t *testing.T) {
	events := []model.Event{
		// Fri Jan 30 to Mon Feb 2 crosses a week and a month boundary.
		{ID: "trip", Title: "Trip", Start: date(2026, 1, 30), End: date(2026, 2, 3), AllDay: true},
		{ID: "call", Title: "Call", Start: date(2026, 1, 30).Add(9 * time.Hour), End: date(2026, 1, 30).Add(10 * time.Hour)},
	}

	r := req(StyleWeeks)
	r.Featured = true
	y, err := Build(context.Background(), events, r)
	require.NoError(t, err)

	var hits []string
	for _, g := range y.Grids {
		for _, p := range g.Placed {
			hits = append(hits, g.Label+"/"+p.Event.ID)
			if g.Label == "Jan 26" && p.Event.ID == "trip" {
				assert.Equal(t, 4, p.ColumnStart)
				assert.Equal(t, 3, p.ColumnSpan)
				assert.Zero(t, p.Row)
			}
			if g.Label == "Feb 2" && p.Event.ID == "trip" {
				assert.Equal(t, 0, p.ColumnStart)
				assert.Equal(t, 1, p.ColumnSpan)
			}
		}
	}
	assert.ElementsMatch(t, []string{"Jan 26/trip", "Jan 26/call", "Feb 2/trip"}, hits)

	for _, g := range y.Grids {
		if g.Label == "Jan 26" {
			assert.Equal(t, 2, g.Rows)
			require.Len(t, g.Featured, 1)
			assert.Equal(t, "trip", g.Featured[0].EventID)
		}
	}
}

func TestMonthViewsShowEventsInTheirOwnMonth(t *testing.T) {
	events := []model.Event{
		{ID: "dentist", Title: "Dentist", Start: date(2026, 2, 2), End: date(2026, 2, 3), AllDay: true},
		// Fri Jan 30 to Mon Feb 2 belongs to both months.
		{ID: "trip", Title: "Trip", Start: date(2026, 1, 30), End: date(2026, 2, 3), AllDay: true},
	}
	for _, style := range []Style{StyleMonthGrid, StyleMonthRows} {
		t.Run(string(style), func(t *testing.T) {
			y, err := Build(context.Background(), events, req(style))
			require.NoError(t, err)

			ids := func(g Grid) []string {
				var out []string
				for _, p := range g.Placed {
					out = append(out, p.Event.ID)
				}
				return out
			}
			jan, feb := y.Grids[0], y.Grids[1]
			assert.ElementsMatch(t, []string{"trip"}, ids(jan))
			assert.ElementsMatch(t, []string{"dentist", "trip"}, ids(feb))
		})
	}
}

func TestBuildCountsDrops(t *testing.T) {
	var events []model.Event
	for i := range 4 {
		events = append(events, model.Event{
			ID:     string(rune('a' + i)),
			Title:  "busy",
			Start:  date(2026, 5, 4),
			End:    date(2026, 5, 5),
			AllDay: true,
		})
	}
	r := req(StyleMonthGrid)
	r.MaxRows = 3
	y, err := Build(context.Background(), events, r)
	require.NoError(t, err)
	assert.Equal(t, 1, y.Dropped)

	may := y.Grids[4]
	col, ok := layout.ColumnOf(date(2026, 5, 4), may.Spec)
	require.True(t, ok)
	require.NotNil(t, may.Overflow)
	assert.Equal(t, 1, may.Overflow[col])
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, nil, req(StyleWeeks))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBuildRejectsUnknownStyle(t *testing.T) {
	_, err := Build(context.Background(), nil, req("spiral"))
	assert.Error(t, err)
}

func TestDayEvents(t *testing.T) {
	events := []model.Event{
		{ID: "late", Title: "Dinner", Start: date(2026, 3, 3).Add(19 * time.Hour), End: date(2026, 3, 3).Add(21 * time.Hour)},
		{ID: "early", Title: "Standup", Start: date(2026, 3, 3).Add(9 * time.Hour), End: date(2026, 3, 3).Add(9*time.Hour + 15*time.Minute)},
		{ID: "trip", Title: "Trip", Start: date(2026, 3, 2), End: date(2026, 3, 4), AllDay: true},
		{ID: "ends", Title: "Ends before", Start: date(2026, 3, 1), End: date(2026, 3, 3), AllDay: true},
		{ID: "next", Title: "Tomorrow", Start: date(2026, 3, 4).Add(8 * time.Hour), End: date(2026, 3, 4).Add(9 * time.Hour)},
	}
	got := DayEvents(events, date(2026, 3, 3))
	ids := make([]string, len(got))
	for i, ev := range got {
		ids[i] = ev.ID
	}
	assert.Equal(t, []string{"trip", "early", "late"}, ids)
}
