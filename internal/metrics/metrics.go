package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vodconverter"

// Recorder exports pipeline activity as Prometheus metrics. It satisfies the
// pipeline's Observer.
type Recorder struct {
	registry    *prometheus.Registry
	jobs        *prometheus.CounterVec
	renditions  prometheus.Counter
	transitions *prometheus.HistogramVec
	durations   *prometheus.HistogramVec
	active      prometheus.Gauge
}

// New registers the converter metrics, plus Go and process collectors, on a
// fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Conversion jobs by terminal outcome.",
		}, []string{"outcome"}),
		renditions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renditions_uploaded_total",
			Help:      "Rendition files uploaded to the blob store.",
		}),
		transitions: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time spent reaching each pipeline state from the previous one.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 9),
		}, []string{"state"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of a conversion job.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"outcome"}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Jobs currently being processed.",
		}),
	}
}

// Registry exposes the underlying registry for scraping.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) JobStarted() {
	r.active.Inc()
}

func (r *Recorder) JobFinished(outcome string, elapsed time.Duration) {
	r.active.Dec()
	r.jobs.WithLabelValues(outcome).Inc()
	r.durations.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// MessageRejected counts a message dropped before a job began.
func (r *Recorder) MessageRejected() {
	r.jobs.WithLabelValues("rejected").Inc()
}

func (r *Recorder) ObserveTransition(state string, elapsed time.Duration) {
	r.transitions.WithLabelValues(state).Observe(elapsed.Seconds())
}

func (r *Recorder) AddRenditions(n int) {
	if n > 0 {
		r.renditions.Add(float64(n))
	}
}
