// Package metrics exposes parse diagnostics and sync outcomes in Prometheus
// form on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "datestack"

// Drop reasons used as the "reason" label.
const (
	ReasonShortFragment = "short_fragment"
	ReasonNoStart       = "no_start"
	ReasonKeyword       = "keyword"
)

// Recorder is safe for concurrent use. A nil *Recorder ignores all calls.
type Recorder struct {
	registry *prometheus.Registry

	eventsParsed   *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	syncRuns       *prometheus.CounterVec
	eventsSynced   prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		eventsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_parsed_total",
			Help:      "Events produced by the parser, by pass.",
		}, []string{"pass"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Fragments or events discarded, by reason.",
		}, []string{"reason"}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time spent collecting and parsing one export pass.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pass"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs, by result.",
		}, []string{"result"}),
		eventsSynced: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_synced",
			Help:      "Events accepted by the server in the last successful sync.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sync_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync.",
		}),
	}

	r.registry.MustRegister(
		r.eventsParsed,
		r.eventsDropped,
		r.exportDuration,
		r.syncRuns,
		r.eventsSynced,
		r.lastSuccess,
		collectors.NewGoCollector(),
	)
	return r
}

func passLabel(allDay bool) string {
	if allDay {
		return "all_day"
	}
	return "timed"
}

// ObservePass records one parsed export pass.
func (r *Recorder) ObservePass(allDay bool, events, droppedShort, droppedNoStart int, took time.Duration) {
	if r == nil {
		return
	}
	pass := passLabel(allDay)
	r.eventsParsed.WithLabelValues(pass).Add(float64(events))
	r.eventsDropped.WithLabelValues(ReasonShortFragment).Add(float64(droppedShort))
	r.eventsDropped.WithLabelValues(ReasonNoStart).Add(float64(droppedNoStart))
	r.exportDuration.WithLabelValues(pass).Observe(took.Seconds())
}

func (r *Recorder) ObserveKeywordFiltered(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.eventsDropped.WithLabelValues(ReasonKeyword).Add(float64(n))
}

// ObserveSync records the outcome of one sync run.
func (r *Recorder) ObserveSync(synced int, err error, at time.Time) {
	if r == nil {
		return
	}
	if err != nil {
		r.syncRuns.WithLabelValues("error").Inc()
		return
	}
	r.syncRuns.WithLabelValues("ok").Inc()
	r.eventsSynced.Set(float64(synced))
	r.lastSuccess.Set(float64(at.Unix()))
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
