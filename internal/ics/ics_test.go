package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yearcal/internal/model"
)

var testSource = Source{ID: "work", Name: "Work", URL: "https://example.com/private/work.ics?token=s3cret", Color: "#3366ff"}

func icsBody(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//yearcal//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR")
	return []byte(strings.Join(all, "\r\n") + "\r\n")
}

var sampleICS = icsBody(
	"BEGIN:VEVENT",
	"UID:trip@example.com",
	"SUMMARY:Trip",
	"DTSTART;VALUE=DATE:20260310",
	"DTEND;VALUE=DATE:20260312",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:review@example.com",
	"SUMMARY:Review",
	"LOCATION:Room 4",
	"DTSTART:20260305T090000Z",
	"DTEND:20260305T100000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:standup@example.com",
	"SUMMARY:Standup",
	"DTSTART:20260302T100000Z",
	"DTEND:20260302T103000Z",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"EXDATE:20260309T100000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:standup@example.com",
	"SUMMARY:Standup (moved)",
	"RECURRENCE-ID:20260316T100000Z",
	"DTSTART:20260316T150000Z",
	"DTEND:20260316T153000Z",
	"END:VEVENT",
)

func expandSample(t *testing.T, loc *time.Location) []model.Event {
	t.Helper()
	parsed, err := ParseICS(testSource, sampleICS)
	require.NoError(t, err)
	require.Len(t, parsed, 4)

	res, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, res.TruncatedEvents)
	return res.Events
}

func titles(events []model.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Title
	}
	return out
}

func TestParseICS(t *testing.T) {
	parsed, err := ParseICS(testSource, sampleICS)
	require.NoError(t, err)
	require.Len(t, parsed, 4)

	trip := parsed[0]
	assert.True(t, trip.AllDay)
	assert.Equal(t, trip.Start.AddDate(0, 0, 2), trip.End)

	review := parsed[1]
	assert.False(t, review.AllDay)
	assert.Equal(t, "Room 4", review.Location)
	assert.Equal(t, time.Hour, review.End.Sub(review.Start))

	standup := parsed[2]
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", standup.RawRRule)
	require.Len(t, standup.ExDates, 1)

	assert.True(t, parsed[3].IsOverride)
}

func TestParseICSEmptyBody(t *testing.T) {
	_, err := ParseICS(testSource, nil)
	assert.Error(t, err)
}

func TestExpandOccurrences(t *testing.T) {
	events := expandSample(t, time.UTC)

	// Standup: 4 weekly instances minus one EXDATE, one of them moved.
	assert.Equal(t, []string{"Standup", "Review", "Trip", "Standup (moved)", "Standup"}, titles(events))

	moved := events[3]
	assert.Equal(t, time.Date(2026, 3, 16, 15, 0, 0, 0, time.UTC), moved.Start)
	assert.Equal(t, EventID("work", "standup@example.com", "2026-03-16T10:00:00Z"), moved.ID)

	for _, ev := range events {
		assert.Equal(t, "work", ev.CalendarID)
		assert.Equal(t, "#3366ff", ev.Color)
	}
}

func TestExpandAllDayKeepsCivilDates(t *testing.T) {
	west := time.FixedZone("UTC-5", -5*3600)
	events := expandSample(t, west)

	var trip model.Event
	for _, ev := range events {
		if ev.Title == "Trip" {
			trip = ev
		}
	}
	require.True(t, trip.AllDay)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, west), trip.Start)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, west), trip.End)
	assert.Equal(t, EventID("work", "trip@example.com", "20260310"), trip.ID)
}

func TestExpandIDsAreStable(t *testing.T) {
	a := expandSample(t, time.UTC)
	b := expandSample(t, time.FixedZone("UTC+9", 9*3600))
	require.Len(t, b, len(a))

	ids := make(map[string]bool, len(a))
	for _, ev := range a {
		assert.False(t, ids[ev.ID], "duplicate id %s", ev.ID)
		ids[ev.ID] = true
	}
	for _, ev := range b {
		assert.True(t, ids[ev.ID], "id %s for %q changed with display zone", ev.ID, ev.Title)
	}
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	_, err := ExpandOccurrences(nil, ExpandConfig{
		RangeStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}

func TestExpandCapsOccurrences(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:daily@example.com",
		"SUMMARY:Daily",
		"DTSTART:20260101T080000Z",
		"DTEND:20260101T081500Z",
		"RRULE:FREQ=DAILY",
		"END:VEVENT",
	)
	parsed, err := ParseICS(testSource, body)
	require.NoError(t, err)

	res, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation:        time.UTC,
		RangeStart:             time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:               time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		MaxOccurrencesPerEvent: 10,
	})
	require.NoError(t, err)
	assert.Len(t, res.Events, 10)
	assert.Equal(t, []string{"daily@example.com"}, res.TruncatedEvents)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL(testSource.URL))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}

func TestFetcherUsesConditionalCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(sampleICS)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir()).WithClient(srv.Client())
	src := Source{ID: "work", URL: srv.URL + "/work.ics"}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchAllKeepsOrderAndJoinsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.ics") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(sampleICS)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir()).WithClient(srv.Client())
	sources := []Source{
		{ID: "a", URL: srv.URL + "/a.ics"},
		{ID: "gone", URL: srv.URL + "/missing.ics"},
		{ID: "b", URL: srv.URL + "/b.ics"},
		{ID: "empty"},
	}

	results, err := f.FetchAll(context.Background(), sources)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone")
	assert.Contains(t, err.Error(), "empty")
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Source.ID)
	assert.Equal(t, "b", results[1].Source.ID)
}
