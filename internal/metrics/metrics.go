// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the process-wide registry. A dedicated registry keeps test
// binaries free of global default-registry collisions.
var Registry = prometheus.NewRegistry()

var (
	// LayoutDuration observes one whole-year build per style.
	LayoutDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "yearcal",
		Name:      "layout_duration_seconds",
		Help:      "Time spent laying out a year of grid instances",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"style"})

	// LayoutDropped counts events that did not fit under the row cap.
	LayoutDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yearcal",
		Name:      "layout_dropped_events_total",
		Help:      "Event bars dropped because a grid ran out of rows",
	}, []string{"style"})

	// ICSFetches counts fetch outcomes per source: ok, cached, error.
	ICSFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yearcal",
		Name:      "ics_fetch_total",
		Help:      "ICS fetch attempts by source and result",
	}, []string{"source", "result"})

	// EventsLoaded is the number of events in the current snapshot.
	EventsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "yearcal",
		Name:      "events_loaded",
		Help:      "Events in the most recent refresh snapshot",
	})

	// LastRefresh is the unix time of the last successful refresh.
	LastRefresh = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "yearcal",
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix time of the last successful event refresh",
	})
)

func init() {
	Registry.MustRegister(
		LayoutDuration,
		LayoutDropped,
		ICSFetches,
		EventsLoaded,
		LastRefresh,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveLayout records one year build.
func ObserveLayout(style string, took time.Duration, dropped int) {
	LayoutDuration.WithLabelValues(style).Observe(took.Seconds())
	if dropped > 0 {
		LayoutDropped.WithLabelValues(style).Add(float64(dropped))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
