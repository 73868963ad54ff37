package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the tracker's Prometheus collectors. A nil *Metrics is a
// valid no-op so services and tests can run without a registry.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	health     *prometheus.GaugeVec
}

// New registers the collectors with reg. Collectors already registered by
// an earlier call are reused.
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})
	if err := register(reg, &requests); err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	if err := register(reg, &duration); err != nil {
		return nil, err
	}

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "objective_operations_total",
		Help:      "Objective operations by name and outcome.",
	}, []string{"op", "outcome"})
	if err := register(reg, &operations); err != nil {
		return nil, err
	}

	health := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "objectives_by_schedule_status",
		Help:      "Objectives per schedule-health status at the last scan.",
	}, []string{"status"})
	if err := register(reg, &health); err != nil {
		return nil, err
	}

	return &Metrics{
		requests:   requests,
		duration:   duration,
		operations: operations,
		health:     health,
	}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			return fmt.Errorf("collector type mismatch: %T", are.ExistingCollector)
		}
		*c = existing
		return nil
	}
	return fmt.Errorf("register collector: %w", err)
}

// ObserveRequest implements middleware.RequestObserver.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Operation counts one service call.
func (m *Metrics) Operation(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// SetScheduleHealth replaces the per-status gauge values.
func (m *Metrics) SetScheduleHealth(counts map[string]int) {
	if m == nil {
		return
	}
	m.health.Reset()
	for status, n := range counts {
		m.health.WithLabelValues(status).Set(float64(n))
	}
}
