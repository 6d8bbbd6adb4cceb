package store

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK        = "ok"
	outcomeError     = "error"
	outcomeConflict  = "conflict"
	outcomeIgnored   = "ignored"
	outcomeOverwrite = "overwritten"
	outcomeNoop      = "noop"
)

// Metrics records store operations. A nil *Metrics discards observations.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the store collectors with reg under namespace.
// Collectors already registered by a previous call are reused.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Store operations by collection, operation and outcome.",
	}, []string{"collection", "operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Time spent in store operations.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"collection", "operation"})

	var err error
	if operations, err = register(reg, operations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{operations: operations, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(collection, operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(collection, operation, outcome).Inc()
	m.duration.WithLabelValues(collection, operation).Observe(time.Since(started).Seconds())
}
