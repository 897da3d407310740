package layout

// Segment is a run of adjacent columns that share the same featured event.
type Segment struct {
	EventID     string `json:"event_id"`
	Title       string `json:"title"`
	Color       string `json:"color,omitempty"`
	StartColumn int    `json:"start_column"`
	Span        int    `json:"span"`
}

// Featured picks one winning event per column (the first by CompareEvents
// among the intervals covering it) and merges adjacent columns with the same
// winner into segments. Columns without events break segments.
func Featured(intervals []Interval, columns int) []Segment {
	if columns <= 0 || len(intervals) == 0 {
		return nil
	}

	winners := make([]int, columns)
	for c := range winners {
		winners[c] = -1
	}
	for i, iv := range intervals {
		lo, hi := max(iv.Start, 0), min(iv.End, columns-1)
		for c := lo; c <= hi; c++ {
			w := winners[c]
			if w < 0 || CompareEvents(iv.Event, intervals[w].Event) < 0 {
				winners[c] = i
			}
		}
	}

	var segs []Segment
	for c, w := range winners {
		if w < 0 {
			continue
		}
		ev := intervals[w].Event
		if n := len(segs); n > 0 {
			last := &segs[n-1]
			if last.EventID == ev.ID && last.StartColumn+last.Span == c {
				last.Span++
				continue
			}
		}
		segs = append(segs, Segment{
			EventID:     ev.ID,
			Title:       ev.Title,
			Color:       ev.Color,
			StartColumn: c,
			Span:        1,
		})
	}
	return segs
}
