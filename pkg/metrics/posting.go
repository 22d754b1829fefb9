package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PostingMetrics records posting saga outcomes.
type PostingMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewPostingMetrics registers the posting metrics on the provided registerer.
func NewPostingMetrics(reg prometheus.Registerer) *PostingMetrics {
	if reg == nil {
		return &PostingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "posting_duration_seconds",
		Help:    "Duration of posting sagas in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "posting_outcomes_total",
		Help: "Posting sagas by kind and outcome.",
	}, []string{"kind", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_append_retries_total",
		Help: "Ledger appends retried after a version conflict.",
	}, []string{"ledger"})
	reg.MustRegister(duration, outcomes, retries)
	return &PostingMetrics{
		duration: duration,
		outcomes: outcomes,
		retries:  retries,
	}
}

// ObserveDuration records the duration for the given event kind.
func (p *PostingMetrics) ObserveDuration(kind string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncOutcome increments the outcome counter for the given kind.
func (p *PostingMetrics) IncOutcome(kind, outcome string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// IncRetry increments the retry counter for the named ledger.
func (p *PostingMetrics) IncRetry(ledger string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(normalizeLabel(ledger)).Inc()
}

// ReconcileMetrics records cross-stream reconciliation findings.
type ReconcileMetrics struct {
	runs       *prometheus.CounterVec
	mismatches *prometheus.CounterVec
}

// NewReconcileMetrics registers the reconciliation metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_runs_total",
		Help: "Reconciliation job executions by outcome.",
	}, []string{"outcome"})
	mismatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_mismatches_total",
		Help: "Cross-stream mismatches found, by missing stream.",
	}, []string{"stream"})
	reg.MustRegister(runs, mismatches)
	return &ReconcileMetrics{runs: runs, mismatches: mismatches}
}

// IncRun increments the run counter for the given outcome.
func (r *ReconcileMetrics) IncRun(outcome string) {
	if r == nil || r.runs == nil {
		return
	}
	r.runs.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncMismatch increments the mismatch counter for the named stream.
func (r *ReconcileMetrics) IncMismatch(stream string) {
	if r == nil || r.mismatches == nil {
		return
	}
	r.mismatches.WithLabelValues(normalizeLabel(stream)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
