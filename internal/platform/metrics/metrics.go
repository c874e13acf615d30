package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline
type Metrics struct {
	DisclosuresPublished prometheus.Counter
	DisclosuresSkipped   *prometheus.CounterVec
	DisclosuresUpdated   prometheus.Counter
	DuplicateEvents      prometheus.Counter
	CacheLookups         *prometheus.CounterVec
	SweepCandidates      *prometheus.CounterVec
	ThingsScrubbed       prometheus.Counter
	SweepDuration        prometheus.Histogram
	JobsRun              *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		DisclosuresPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "openmod_disclosures_published_total",
			Help: "Total number of moderation actions published to the target community",
		}),
		DisclosuresSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "openmod_disclosures_skipped_total",
			Help: "Moderation actions not published, by reason",
		}, []string{"reason"}),
		DisclosuresUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "openmod_disclosures_updated_total",
			Help: "Published posts edited after their target changed",
		}),
		DuplicateEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "openmod_duplicate_events_total",
			Help: "Inbound events dropped because they were already processed",
		}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "openmod_cache_lookups_total",
			Help: "Thing cache lookups by kind and result",
		}, []string{"kind", "result"}),
		SweepCandidates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "openmod_sweep_candidates_total",
			Help: "Compliance candidates probed by the sweep, by outcome",
		}, []string{"outcome"}),
		ThingsScrubbed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "openmod_things_scrubbed_total",
			Help: "Things whose cached data and published records were erased",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "openmod_sweep_duration_seconds",
			Help:    "Wall time of one sweep batch",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		JobsRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "openmod_jobs_run_total",
			Help: "Scheduled jobs executed, by name and status",
		}, []string{"name", "status"}),
	}
}

// IncrementPublished increments the published disclosures counter by 1
func (m *Metrics) IncrementPublished() {
	m.DisclosuresPublished.Inc()
}

// IncrementSkipped records an action that was filtered out.
func (m *Metrics) IncrementSkipped(reason string) {
	m.DisclosuresSkipped.WithLabelValues(reason).Inc()
}

// IncrementUpdated increments the edited disclosures counter by 1
func (m *Metrics) IncrementUpdated() {
	m.DisclosuresUpdated.Inc()
}

// IncrementDuplicate increments the duplicate events counter by 1
func (m *Metrics) IncrementDuplicate() {
	m.DuplicateEvents.Inc()
}

// ObserveCacheLookup records a cache lookup outcome (hit, miss or gone).
func (m *Metrics) ObserveCacheLookup(kind, result string) {
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}

// AddCandidates records n probed candidates as active or inactive.
func (m *Metrics) AddCandidates(outcome string, n int) {
	m.SweepCandidates.WithLabelValues(outcome).Add(float64(n))
}

// IncrementScrubbed increments the scrubbed things counter by 1
func (m *Metrics) IncrementScrubbed() {
	m.ThingsScrubbed.Inc()
}

// ObserveSweep records the duration of one sweep batch in seconds.
func (m *Metrics) ObserveSweep(seconds float64) {
	m.SweepDuration.Observe(seconds)
}

// ObserveJob records a job execution.
func (m *Metrics) ObserveJob(name, status string) {
	m.JobsRun.WithLabelValues(name, status).Inc()
}
