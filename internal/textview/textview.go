// Package textview renders a laid-out year as styled terminal text.
package textview

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"yearcal/internal/layout"
	"yearcal/internal/view"
)

// cellWidth is the number of terminal columns per day.
const cellWidth = 3

// labelWidth is the left gutter holding grid labels.
const labelWidth = 10

var (
	colorDim     = lipgloss.Color("240")
	colorWeekend = lipgloss.Color("167")
	colorTitle   = lipgloss.Color("36")
	colorBar     = lipgloss.Color("75")

	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)
	styleLabel    = lipgloss.NewStyle().Foreground(colorTitle)
	styleDay      = lipgloss.NewStyle()
	styleWeekend  = lipgloss.NewStyle().Foreground(colorWeekend)
	styleOutside  = lipgloss.NewStyle().Foreground(colorDim)
	styleOverflow = lipgloss.NewStyle().Foreground(colorWeekend).Italic(true)
	styleBar      = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

// Render returns the whole year as text.
func Render(y *view.Year) string {
	var b strings.Builder
	Fprint(&b, y)
	return b.String()
}

// Fprint writes the whole year to w.
func Fprint(w io.Writer, y *view.Year) {
	fmt.Fprintln(w, styleTitle.Render(fmt.Sprintf("%d · %s · week starts %s", y.Year, y.Style, y.FirstDayOfWeek)))
	if len(y.Grids) > 0 {
		fmt.Fprintln(w, gutter("")+weekdayHeader(y.Grids[0].Days))
	}
	for _, g := range y.Grids {
		fmt.Fprintln(w, gutter(g.Label)+dayNumbers(g.Days))
		for row := range g.Rows {
			fmt.Fprintln(w, gutter("")+barRow(g, row))
		}
		if g.Dropped > 0 {
			fmt.Fprintln(w, gutter("")+overflowRow(g.Overflow))
		}
	}
	if y.Dropped > 0 {
		fmt.Fprintln(w, styleOverflow.Render(fmt.Sprintf("%d event bars hidden", y.Dropped)))
	}
}

func gutter(label string) string {
	if len(label) > labelWidth-1 {
		label = label[:labelWidth-1]
	}
	return styleLabel.Render(label) + strings.Repeat(" ", labelWidth-len(label))
}

func weekdayHeader(days []view.Day) string {
	var b strings.Builder
	for _, d := range days {
		name := d.Weekday.String()[:2]
		b.WriteString(dayStyle(d, true).Render(pad(name, cellWidth)))
	}
	return b.String()
}

func dayNumbers(days []view.Day) string {
	var b strings.Builder
	for _, d := range days {
		text := ""
		if !d.Date.IsZero() {
			text = fmt.Sprintf("%2d", d.Date.Day())
		}
		b.WriteString(dayStyle(d, d.InPeriod).Render(pad(text, cellWidth)))
	}
	return b.String()
}

func dayStyle(d view.Day, inPeriod bool) lipgloss.Style {
	switch {
	case !inPeriod:
		return styleOutside
	case d.Weekend:
		return styleWeekend
	}
	return styleDay
}

func barRow(g view.Grid, row int) string {
	var b strings.Builder
	col := 0
	for _, p := range placedInRow(g.Placed, row) {
		if p.ColumnStart > col {
			b.WriteString(strings.Repeat(" ", (p.ColumnStart-col)*cellWidth))
		}
		width := p.ColumnSpan * cellWidth
		title := truncate(p.Event.Title, width-1)
		b.WriteString(barStyle(p.Event.Color).Render(pad(title, width-1)))
		b.WriteString(" ")
		col = p.ColumnStart + p.ColumnSpan
	}
	return b.String()
}

func placedInRow(placed []layout.PlacedEvent, row int) []layout.PlacedEvent {
	out := make([]layout.PlacedEvent, 0)
	for _, p := range placed {
		if p.Row == row {
			out = append(out, p)
		}
	}
	// Placement order follows priority, not position.
	slices.SortFunc(out, func(a, b layout.PlacedEvent) int {
		return cmp.Compare(a.ColumnStart, b.ColumnStart)
	})
	return out
}

func overflowRow(overflow []int) string {
	var b strings.Builder
	for _, n := range overflow {
		text := ""
		if n > 0 {
			text = fmt.Sprintf("+%d", n)
		}
		b.WriteString(styleOverflow.Render(pad(text, cellWidth)))
	}
	return b.String()
}

func barStyle(color string) lipgloss.Style {
	if color == "" {
		return styleBar.Background(colorBar)
	}
	return styleBar.Background(lipgloss.Color(color))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func pad(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
