package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "yearcal/internal/log"
	"yearcal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// eventNamespace seeds name-based (v5) event IDs so the same occurrence keeps
// its ID across refreshes.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://yearcal.local/events"))

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone to which timed occurrences are
	// converted. If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded events and information about truncation.
type ExpandResult struct {
	Events []model.Event
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// ExpandOccurrences expands parsed VEVENTs into concrete events within the
// configured range. It handles:
//
//   - Single non-recurring events
//   - RRULE-based recurrence (DAILY/WEEKLY/MONTHLY/YEARLY, etc.)
//   - EXDATE for exception removal
//   - RECURRENCE-ID overrides
//   - All-day semantics (dates stay on the same civil day in every zone)
//
// The output is sorted by start then ID so repeated expansions of the same
// input are identical.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by source+UID.
	type key struct{ source, uid string }
	baseByUID := make(map[key][]ParsedEvent)
	overridesByUID := make(map[key][]ParsedEvent)
	var order []key

	for _, ev := range events {
		k := key{ev.Source.ID, ev.UID}
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[k] = append(overridesByUID[k], ev)
			continue
		}
		if _, seen := baseByUID[k]; !seen {
			order = append(order, k)
		}
		baseByUID[k] = append(baseByUID[k], ev)
	}

	out := make([]model.Event, 0, len(events))
	for _, k := range order {
		ov := overridesByUID[k]
		truncated := false

		for _, ev := range baseByUID[k] {
			occ, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			out = append(out, occ...)
		}

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, k.uid)
			appLog.Warn("expand: truncated occurrences for UID due to cap",
				"uid", k.uid,
				"source", k.source,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	result.Events = out
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Event {
	if o, ok := findOverrideForStart(overrides, ev.Start); ok {
		ev = o
	}
	if !timeRangesOverlap(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []model.Event{makeEvent(ev, ev.Start, ev.End, ev.Start, cfg.DisplayLocation)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	out := make([]model.Event, 0)

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the window by the event's length so occurrences that began
	// before RangeStart but still run into it are kept.
	length := ev.End.Sub(ev.Start)
	rangeStart := cfg.RangeStart.Add(-length).In(ev.Start.Location())
	rangeEnd := cfg.RangeEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	days := 0
	if ev.AllDay {
		days = max(1, int(length.Round(time.Hour)/(24*time.Hour)))
	}

	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			occStart = time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occEnd = occStart.AddDate(0, 0, days)
		} else {
			occEnd = occStart.Add(length)
		}

		base, start, end := ev, occStart, occEnd
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			base, start, end = o, o.Start, o.End
		}
		out = append(out, makeEvent(base, start, end, occStart, cfg.DisplayLocation))
	}

	return out, hitCap
}

// findOverrideForStart finds an override whose RECURRENCE-ID matches
// baseStart exactly.
func findOverrideForStart(overrides []ParsedEvent, baseStart time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(baseStart.Location()).Equal(baseStart) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeEvent builds a model.Event for one occurrence. instance is the
// occurrence's original (pre-override) start and keys the ID.
//
// Timed events are converted into displayLoc. All-day events keep their
// civil dates and are re-anchored at midnight in displayLoc, since a date has
// no zone and converting it would shift it by a day west of UTC.
func makeEvent(ev ParsedEvent, start, end, instance time.Time, displayLoc *time.Location) model.Event {
	if ev.AllDay {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, displayLoc)
		end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, displayLoc)
	} else {
		start = start.In(displayLoc)
		end = end.In(displayLoc)
	}

	instanceKey := instance.UTC().Format(time.RFC3339Nano)
	if ev.AllDay {
		instanceKey = instance.Format("20060102")
	}

	return model.Event{
		ID:         EventID(ev.Source.ID, ev.UID, instanceKey),
		Title:      ev.Summary,
		Start:      start,
		End:        end,
		AllDay:     ev.AllDay,
		CalendarID: ev.Source.ID,
		Color:      ev.Source.Color,
		Location:   ev.Location,
	}
}

// EventID derives a stable ID for one occurrence of a VEVENT.
func EventID(sourceID, uid, instanceKey string) string {
	name := sourceID + "\x00" + uid + "\x00" + instanceKey
	return uuid.NewSHA1(eventNamespace, []byte(name)).String()
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
