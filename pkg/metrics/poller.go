package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PollerMetrics records cycle outcomes for the change-notification loops.
type PollerMetrics struct {
	cycleDuration *prometheus.HistogramVec
	cycleSuccess  *prometheus.CounterVec
	cycleFailure  *prometheus.CounterVec
	emitted       *prometheus.CounterVec
}

// NewPollerMetrics registers the poll loop metrics on the provided registerer.
func NewPollerMetrics(reg prometheus.Registerer) *PollerMetrics {
	if reg == nil {
		return &PollerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poll_cycle_duration_seconds",
		Help:    "Duration of change-notification poll cycles in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"loop"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_cycle_success",
		Help: "Successful poll cycles.",
	}, []string{"loop"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_cycle_failure",
		Help: "Poll cycles that failed to fetch or persist.",
	}, []string{"loop"})
	emitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_notifications_emitted",
		Help: "Notifications emitted per change kind.",
	}, []string{"loop", "kind"})
	reg.MustRegister(duration, success, failure, emitted)
	return &PollerMetrics{
		cycleDuration: duration,
		cycleSuccess:  success,
		cycleFailure:  failure,
		emitted:       emitted,
	}
}

// ObserveCycle records the duration for the named loop.
func (p *PollerMetrics) ObserveCycle(loop string, duration time.Duration) {
	if p == nil || p.cycleDuration == nil {
		return
	}
	p.cycleDuration.WithLabelValues(normalizeLabel(loop)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named loop.
func (p *PollerMetrics) IncSuccess(loop string) {
	if p == nil || p.cycleSuccess == nil {
		return
	}
	p.cycleSuccess.WithLabelValues(normalizeLabel(loop)).Inc()
}

// IncFailure increments the failure counter for the named loop.
func (p *PollerMetrics) IncFailure(loop string) {
	if p == nil || p.cycleFailure == nil {
		return
	}
	p.cycleFailure.WithLabelValues(normalizeLabel(loop)).Inc()
}

// AddEmitted counts notifications emitted by kind.
func (p *PollerMetrics) AddEmitted(loop, kind string, n int) {
	if p == nil || p.emitted == nil || n <= 0 {
		return
	}
	p.emitted.WithLabelValues(normalizeLabel(loop), normalizeLabel(kind)).Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
