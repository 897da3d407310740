package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"yearcal/internal/config"
	"yearcal/internal/layout"
	appLog "yearcal/internal/log"
	"yearcal/internal/metrics"
	"yearcal/internal/model"
	"yearcal/internal/source"
	"yearcal/internal/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"color": func(c string) template.CSS {
		if hexColor.MatchString(c) {
			return template.CSS(c)
		}
		return "#4b8bd6"
	},
}).ParseFS(templateFS, "templates/*.tmpl"))

// Server provides the HTML year page, the JSON API, the preview image and
// metrics.
type Server struct {
	cfg         *config.Config
	events      source.Provider
	loc         *time.Location
	previewPath string
	now         func() time.Time
}

// Options configures optional Server behavior.
type Options struct {
	// PreviewPath is the PNG served on /preview.png.
	PreviewPath string
	// Location is the display zone; nil resolves cfg.Timezone.
	Location *time.Location
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, events source.Provider, opts Options) *Server {
	loc := opts.Location
	if loc == nil {
		loc = source.ResolveLocation(cfg.Timezone)
	}
	return &Server{
		cfg:         cfg,
		events:      events,
		loc:         loc,
		previewPath: opts.PreviewPath,
		now:         time.Now,
	}
}

// Handler returns the router for this server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	// /health is never behind auth.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.basicAuthEnabled() {
			appLog.Info("HTTP basic auth enabled")
			r.Use(s.basicAuth)
		}
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/year", http.StatusFound)
		})
		r.Get("/year", s.handleYearPage)
		r.Get("/preview.png", s.handlePreview)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())

		r.Route("/api", func(r chi.Router) {
			r.Get("/events", s.handleEvents)
			r.Get("/layout", s.handleLayout)
			r.Get("/day", s.handleDay)
		})
	})
	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web: listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("stopping HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="yearcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured PNG from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.previewPath == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, s.previewPath)
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Year            int           `json:"year"`
	DisplayTimeZone string        `json:"display_timezone"`
	Events          []model.Event `json:"events"`
	TruncatedUIDs   []string      `json:"truncated_uids,omitempty"`
}

// truncationReporter is implemented by providers that cap recurrence
// expansion.
type truncationReporter interface {
	Truncated() []string
}

// handleEvents returns the filtered events overlapping a calendar year.
//
// GET /api/events?year=2026&q=offsite
//   - year: defaults to the current year in the display zone
//   - q:    optional case-insensitive title/location search
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	year, err := s.parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, to := source.YearRange(year, s.loc)
	events, err := s.events.Events(r.Context(), from, to)
	if err != nil {
		appLog.Error("api events: provider failed", err, "year", year)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		events = source.Search(events, q)
	}
	resp := eventsResponse{
		Year:            year,
		DisplayTimeZone: s.loc.String(),
		Events:          events,
	}
	if tr, ok := s.events.(truncationReporter); ok {
		resp.TruncatedUIDs = tr.Truncated()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLayout returns a whole year laid out in one style.
//
// GET /api/layout?year=2026&style=months&max_rows=4&featured=1
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	y, status, err := s.buildYear(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, y)
}

// dayResponse is the JSON response shape for /api/day.
type dayResponse struct {
	Date   string        `json:"date"`
	Events []model.Event `json:"events"`
}

// handleDay lists the events of one day, all-day events first.
//
// GET /api/day?date=2026-03-14
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	day, err := time.ParseInLocation(time.DateOnly, r.URL.Query().Get("date"), s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	events, err := s.events.Events(r.Context(), day, layout.AddDays(day, 1))
	if err != nil {
		appLog.Error("api day: provider failed", err, "date", day.Format(time.DateOnly))
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{
		Date:   day.Format(time.DateOnly),
		Events: view.DayEvents(events, day),
	})
}

// handleYearPage renders the year as server-side HTML. The root element
// carries data-ready="true" for the screenshot capture.
func (s *Server) handleYearPage(w http.ResponseWriter, r *http.Request) {
	y, status, err := s.buildYear(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "year.html.tmpl", struct{ Year *view.Year }{y}); err != nil {
		appLog.Error("year page: render failed", err)
	}
}

// buildYear parses the common layout query and builds the year.
func (s *Server) buildYear(r *http.Request) (*view.Year, int, error) {
	q := r.URL.Query()
	year, err := s.parseYear(r)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	styleName := q.Get("style")
	if styleName == "" {
		styleName = s.cfg.Layout
	}
	style, err := view.ParseStyle(styleName)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	maxRows := s.cfg.MaxRows
	if v := q.Get("max_rows"); v != "" {
		if maxRows, err = strconv.Atoi(v); err != nil {
			return nil, http.StatusBadRequest, errors.New("max_rows must be an integer")
		}
	}
	featured, _ := strconv.ParseBool(q.Get("featured"))

	events, err := s.yearEvents(r.Context(), year)
	if err != nil {
		appLog.Error("layout: provider failed", err, "year", year)
		return nil, http.StatusInternalServerError, errors.New("failed to load events")
	}
	y, err := view.Build(r.Context(), events, view.Request{
		Year:     year,
		Style:    style,
		Calendar: s.cfg.CalendarConfig(),
		MaxRows:  maxRows,
		Featured: featured,
		Location: s.loc,
	})
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return y, http.StatusOK, nil
}

// yearEvents loads the events to lay out: the year plus a week on either
// side, so week rows that straddle New Year are complete.
func (s *Server) yearEvents(ctx context.Context, year int) ([]model.Event, error) {
	from, to := source.YearRange(year, s.loc)
	return s.events.Events(ctx, layout.AddDays(from, -7), layout.AddDays(to, 7))
}

func (s *Server) parseYear(r *http.Request) (int, error) {
	v := r.URL.Query().Get("year")
	if v == "" {
		return s.now().In(s.loc).Year(), nil
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("invalid year %q", v)
	}
	return year, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
