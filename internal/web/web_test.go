package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yearcal/internal/config"
	"yearcal/internal/model"
	"yearcal/internal/source"
	"yearcal/internal/view"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

var fixture = source.Static{
	{ID: "offsite", Title: "Offsite", Location: "Lisbon", Start: day(time.May, 4), End: day(time.May, 7), AllDay: true, CalendarID: "work", Color: "#3366ff"},
	{ID: "review", Title: "Review", Start: day(time.May, 5).Add(13 * time.Hour), End: day(time.May, 5).Add(14 * time.Hour), CalendarID: "work"},
	{ID: "nye", Title: "New Year trip", Start: day(time.December, 30), End: time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC), AllDay: true, CalendarID: "home"},
}

type failingProvider struct{}

func (failingProvider) Events(context.Context, time.Time, time.Time) ([]model.Event, error) {
	return nil, errors.New("boom")
}

func newTestServer(t *testing.T, mutate func(*config.Config), p source.Provider) http.Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	cfg.Normalize()
	s := NewServer(cfg, p, Options{Location: time.UTC, PreviewPath: filepath.Join(t.TempDir(), "preview.png")})
	s.now = func() time.Time { return day(time.March, 1) }
	return s.Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthBypassesAuth(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "me", Password: "secret"}
	}, fixture)

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = get(t, h, "/api/layout")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/layout", nil)
	req.SetBasicAuth("me", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLayoutEndpoint(t *testing.T) {
	h := newTestServer(t, nil, fixture)

	rec := get(t, h, "/api/layout?year=2026&style=grid&featured=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var y view.Year
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &y))
	assert.Equal(t, 2026, y.Year)
	assert.Equal(t, view.StyleMonthGrid, y.Style)
	require.Len(t, y.Grids, 12)

	may := y.Grids[4]
	require.Len(t, may.Placed, 2)
	assert.Equal(t, "offsite", may.Placed[0].Event.ID)
	assert.Equal(t, 0, may.Placed[0].Row)
	assert.Equal(t, 3, may.Placed[0].ColumnSpan)
	assert.Equal(t, "review", may.Placed[1].Event.ID)
	assert.Equal(t, 1, may.Placed[1].Row)
	require.NotEmpty(t, may.Featured)
	assert.Equal(t, "offsite", may.Featured[0].EventID)
}

func TestLayoutWeekRowsIncludeNextYearTail(t *testing.T) {
	h := newTestServer(t, nil, fixture)
	rec := get(t, h, "/api/layout?year=2026&style=year")
	require.Equal(t, http.StatusOK, rec.Code)

	var y view.Year
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &y))
	last := y.Grids[len(y.Grids)-1]
	require.Len(t, last.Placed, 1)
	assert.Equal(t, "nye", last.Placed[0].Event.ID)
	// Mon Dec 28 week: Wed 30 through Fri Jan 1.
	assert.Equal(t, 2, last.Placed[0].ColumnStart)
	assert.Equal(t, 3, last.Placed[0].ColumnSpan)
}

func TestLayoutBadRequests(t *testing.T) {
	h := newTestServer(t, nil, fixture)
	for _, target := range []string{
		"/api/layout?year=abc",
		"/api/layout?year=0",
		"/api/layout?style=spiral",
		"/api/layout?max_rows=lots",
		"/api/day?date=tomorrow",
	} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json", target)
	}
}

func TestProviderFailure(t *testing.T) {
	h := newTestServer(t, nil, failingProvider{})
	rec := get(t, h, "/api/events")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to load events"}`, rec.Body.String())
}

func TestEventsEndpoint(t *testing.T) {
	h := newTestServer(t, nil, fixture)

	var resp eventsResponse
	rec := get(t, h, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2026, resp.Year)
	assert.Equal(t, "UTC", resp.DisplayTimeZone)
	assert.Len(t, resp.Events, 3)

	rec = get(t, h, "/api/events?year=2026&q=lisbon")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "offsite", resp.Events[0].ID)
}

func TestEventsEndpointKeepsToTheYear(t *testing.T) {
	eve := source.Static{
		{ID: "eve", Title: "New Year's Eve", Start: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), End: day(time.January, 1), AllDay: true},
	}
	h := newTestServer(t, nil, eve)

	var resp eventsResponse
	rec := get(t, h, "/api/events?year=2026")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Events)

	// The first week row of 2026 still shows it.
	rec = get(t, h, "/api/layout?year=2026&style=year")
	require.Equal(t, http.StatusOK, rec.Code)
	var y view.Year
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &y))
	require.Len(t, y.Grids[0].Placed, 1)
	assert.Equal(t, "eve", y.Grids[0].Placed[0].Event.ID)
}

func TestDayEndpoint(t *testing.T) {
	h := newTestServer(t, nil, fixture)
	rec := get(t, h, "/api/day?date=2026-05-05")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "offsite", resp.Events[0].ID)
	assert.Equal(t, "review", resp.Events[1].ID)
}

func TestYearPage(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) { c.Layout = "months" }, fixture)
	rec := get(t, h, "/year?year=2026")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, `data-ready="true"`)
	assert.Contains(t, body, `data-style="months"`)
	assert.Contains(t, body, "Offsite")
	assert.Contains(t, body, "#3366ff")
	assert.Equal(t, 12, strings.Count(body, `<section class="grid"`))
}

func TestPreviewAndMetrics(t *testing.T) {
	cfg := config.DefaultConfig()
	preview := filepath.Join(t.TempDir(), "preview.png")
	s := NewServer(cfg, fixture, Options{Location: time.UTC, PreviewPath: preview})
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/preview.png").Code)

	require.NoError(t, os.WriteFile(preview, []byte("\x89PNG"), 0o644))
	rec := get(t, h, "/preview.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\x89PNG", rec.Body.String())

	// Populate a metric before scraping.
	get(t, h, "/api/layout?year=2026")
	rec = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "yearcal_layout_duration_seconds")
}
