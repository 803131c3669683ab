package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements domain.repository.Metrics using Prometheus.
// Each Recorder owns its registry so one-shot runs, the server and tests
// never collide on the default registerer.
type Recorder struct {
	reg *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	chartsRendered *prometheus.CounterVec
	rowsLoaded     prometheus.Gauge
	lastAsOf       prometheus.Gauge
	lastSuccess    prometheus.Gauge
	latency        *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fgreport_runs_total",
				Help: "Report runs by final status",
			},
			[]string{"status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fgreport_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		chartsRendered: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fgreport_charts_rendered_total",
				Help: "Charts rendered by name",
			},
			[]string{"chart"},
		),
		rowsLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "fgreport_rows_loaded",
			Help: "Observations loaded by the last run",
		}),
		lastAsOf: f.NewGauge(prometheus.GaugeOpts{
			Name: "fgreport_last_as_of_timestamp_seconds",
			Help: "As-of date of the last published report",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "fgreport_last_success_timestamp_seconds",
			Help: "Wall clock time of the last successful run",
		}),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fgreport_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fgreport_http_requests_total",
				Help: "Preview server requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fgreport_http_request_duration_seconds",
				Help:    "Preview server request latency",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(status string, seconds float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.latency.WithLabelValues("run").Observe(seconds)
	if status == "success" {
		r.lastSuccess.SetToCurrentTime()
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRows records how many observations were loaded.
func (r *Recorder) RecordRows(n int) {
	r.rowsLoaded.Set(float64(n))
}

// RecordChart counts one rendered chart.
func (r *Recorder) RecordChart(name string) {
	r.chartsRendered.WithLabelValues(name).Inc()
}

// RecordAsOf records the as-of date of the published report.
func (r *Recorder) RecordAsOf(t time.Time) {
	r.lastAsOf.Set(float64(t.Unix()))
}

// RecordLatency records stage latency in seconds.
func (r *Recorder) RecordLatency(stage string, seconds float64) {
	r.latency.WithLabelValues(stage).Observe(seconds)
}

// RecordRequest records one HTTP request served by the preview server.
func (r *Recorder) RecordRequest(route, method string, status int, seconds float64) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(seconds)
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
