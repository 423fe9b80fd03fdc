// Package metrics exposes Prometheus counters for the evaluation pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meeting_evaluator"

// Recorder owns its registry so several instances can coexist in tests. A
// nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	evaluations     *prometheus.CounterVec
	parseDuration   prometheus.Histogram
	generatorErrors prometheus.Counter
	syncRuns        *prometheus.CounterVec
	syncInserted    prometheus.Counter
	queueDepth      prometheus.Gauge
	archived        prometheus.Counter
}

type Option func(*options)

type options struct {
	buckets      []float64
	goCollectors  bool
}

// WithHistogramBuckets sets the parse duration buckets, in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(o *options) { o.goCollectors = true }
}

func New(opts ...Option) *Recorder {
	o := options{buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1}}
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	if o.goCollectors {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	auto := promauto.With(reg)

	return &Recorder{
		registry: reg,
		evaluations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Evaluations processed, by parse status.",
		}, []string{"status"}),
		parseDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing one evaluation text.",
			Buckets:   o.buckets,
		}),
		generatorErrors: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_errors_total",
			Help:      "Text generation calls that failed after retries.",
		}),
		syncRuns: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Spreadsheet sync runs, by outcome.",
		}, []string{"outcome"}),
		syncInserted: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_meetings_inserted_total",
			Help:      "Meetings inserted by spreadsheet syncs.",
		}),
		queueDepth: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_queue_depth",
			Help:      "Meetings waiting in the worker queue.",
		}),
		archived: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_archived_total",
			Help:      "Unparseable evaluations written to the failure archive.",
		}),
	}
}

func (r *Recorder) ObserveEvaluation(status string) {
	if r == nil {
		return
	}
	r.evaluations.WithLabelValues(status).Inc()
}

func (r *Recorder) ObserveParse(d time.Duration) {
	if r == nil {
		return
	}
	r.parseDuration.Observe(d.Seconds())
}

func (r *Recorder) GeneratorError() {
	if r == nil {
		return
	}
	r.generatorErrors.Inc()
}

func (r *Recorder) SyncRun(inserted int, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.syncRuns.WithLabelValues("error").Inc()
		return
	}
	r.syncRuns.WithLabelValues("ok").Inc()
	r.syncInserted.Add(float64(inserted))
}

func (r *Recorder) SetQueueDepth(n int) {
	if r == nil {
		return
	}
	r.queueDepth.Set(float64(n))
}

func (r *Recorder) Archived() {
	if r == nil {
		return
	}
	r.archived.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}
