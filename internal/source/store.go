// Package source turns configured ICS subscriptions into a refreshed,
// filterable snapshot of display events.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"yearcal/internal/config"
	"yearcal/internal/ics"
	appLog "yearcal/internal/log"
	"yearcal/internal/metrics"
	"yearcal/internal/model"
)

// Provider supplies events overlapping [from, to).
type Provider interface {
	Events(ctx context.Context, from, to time.Time) ([]model.Event, error)
}

// Store holds the most recent expansion of every enabled ICS source.
type Store struct {
	fetcher *ics.Fetcher
	sources []ics.Source
	loc     *time.Location
	filter  Filter
	now     func() time.Time

	// years before and after the current year kept in the snapshot
	backYears, aheadYears int

	mu        sync.RWMutex
	events    []model.Event
	truncated []string
	updatedAt time.Time
}

// NewStore builds a store for cfg. Events are fetched only on Refresh.
func NewStore(cfg *config.Config, fetcher *ics.Fetcher) *Store {
	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		if c.URL == "" || c.Disabled {
			continue
		}
		sources = append(sources, ics.Source{ID: c.ID, Name: c.Name, URL: c.URL, Color: c.Color})
	}
	return &Store{
		fetcher:    fetcher,
		sources:    sources,
		loc:        ResolveLocation(cfg.Timezone),
		filter:     FilterFromConfig(cfg),
		now:        time.Now,
		backYears:  1,
		aheadYears: 1,
	}
}

// Truncated lists the UIDs whose recurrence hit the expansion cap in the
// last refresh.
func (s *Store) Truncated() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.truncated
}

// Location is the display zone events are expanded into.
func (s *Store) Location() *time.Location { return s.loc }

// UpdatedAt reports when the last successful refresh finished.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Refresh fetches, parses and expands every source and swaps the snapshot.
// Per-source failures are logged and skipped; an error is returned only
// when no source produced data while some were configured.
func (s *Store) Refresh(ctx context.Context) error {
	started := s.now()
	year := started.In(s.loc).Year()
	rangeStart := time.Date(year-s.backYears, time.January, 1, 0, 0, 0, 0, s.loc)
	rangeEnd := time.Date(year+s.aheadYears+1, time.January, 1, 0, 0, 0, 0, s.loc)

	results, fetchErr := s.fetcher.FetchAll(ctx, s.sources)
	if fetchErr != nil {
		appLog.Warn("refresh: some sources failed", "err", fetchErr)
	}
	if len(results) == 0 && len(s.sources) > 0 {
		return fmt.Errorf("source: refresh: no source available: %w", fetchErr)
	}

	parsed := make([]ics.ParsedEvent, 0)
	for _, res := range results {
		evs, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("refresh: parse failed for source", err, "id", res.Source.ID)
			continue
		}
		parsed = append(parsed, evs...)
	}

	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: s.loc,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		return fmt.Errorf("source: expand: %w", err)
	}

	s.mu.Lock()
	s.events = expanded.Events
	s.truncated = expanded.TruncatedEvents
	s.updatedAt = s.now()
	s.mu.Unlock()

	metrics.EventsLoaded.Set(float64(len(expanded.Events)))
	metrics.LastRefresh.SetToCurrentTime()
	appLog.Info("refresh completed",
		"sources", len(s.sources),
		"events", len(expanded.Events),
		"took", s.now().Sub(started).Round(time.Millisecond),
	)
	return nil
}

// Events returns filtered events overlapping [from, to).
func (s *Store) Events(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, errors.New("source: range end before start")
	}
	s.mu.RLock()
	snapshot := s.events
	s.mu.RUnlock()

	return s.filter.Apply(Between(snapshot, from, to)), nil
}

// Between returns the events overlapping [from, to), sorted by start then ID.
func Between(events []model.Event, from, to time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if ev.Start.Before(to) && ev.End.After(from) {
			out = append(out, ev)
		} else if ev.Duration() == 0 && !ev.Start.Before(from) && ev.Start.Before(to) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Static is a fixed in-memory Provider.
type Static []model.Event

// Events implements Provider.
func (s Static) Events(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Between(s, from, to), nil
}

// YearRange returns [Jan 1 of year, Jan 1 of year+1) in loc.
func YearRange(year int, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(1, 0, 0)
}

// ResolveLocation loads an IANA zone, falling back to time.Local.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
