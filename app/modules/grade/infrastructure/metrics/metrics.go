package grademetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GradeMetrics records grade module operations.
type GradeMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, guildID, service string)
	RecordOperationSuccess(ctx context.Context, operation, guildID, service string)
	RecordOperationFailure(ctx context.Context, operation, guildID, service string)
	RecordOperationDuration(ctx context.Context, operation, guildID, service string, duration time.Duration)
	RecordTransition(ctx context.Context, direction, outcome string)
	RecordNotificationFailure(ctx context.Context)
}

// PrometheusMetrics implements GradeMetrics on a Prometheus registry.
type PrometheusMetrics struct {
	attempts      *prometheus.CounterVec
	successes     *prometheus.CounterVec
	failures      *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	notifyFailure prometheus.Counter
}

// NewPrometheusMetrics registers the grade collectors on registry.
func NewPrometheusMetrics(registry prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradebot",
			Subsystem: "grade",
			Name:      "operation_attempts_total",
			Help:      "Grade operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradebot",
			Subsystem: "grade",
			Name:      "operation_success_total",
			Help:      "Grade operations that completed without error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradebot",
			Subsystem: "grade",
			Name:      "operation_failures_total",
			Help:      "Grade operations that returned an error.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gradebot",
			Subsystem: "grade",
			Name:      "operation_duration_seconds",
			Help:      "Grade operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradebot",
			Subsystem: "grade",
			Name:      "transitions_total",
			Help:      "Per-member grade transitions by direction and outcome.",
		}, []string{"direction", "outcome"}),
		notifyFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gradebot",
			Subsystem: "grade",
			Name:      "notification_failures_total",
			Help:      "Direct messages that could not be delivered.",
		}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.successes, m.failures, m.durations, m.transitions, m.notifyFailure} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Guild ids are left out of the label set to keep cardinality bounded.

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, _ string, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, _ string, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, _ string, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, _ string, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordTransition(_ context.Context, direction, outcome string) {
	m.transitions.WithLabelValues(direction, outcome).Inc()
}

func (m *PrometheusMetrics) RecordNotificationFailure(_ context.Context) {
	m.notifyFailure.Inc()
}

// NoOpMetrics discards everything. Used in tests.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, string, string) {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, string, string) {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, string, string) {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, string, string, time.Duration) {
}
func (NoOpMetrics) RecordTransition(context.Context, string, string) {}
func (NoOpMetrics) RecordNotificationFailure(context.Context)        {}
