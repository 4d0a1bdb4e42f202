package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports operation counts and durations.
//
// Metrics:
//
//	<namespace>_operations_total{entity,operation}
//	<namespace>_operation_duration_seconds{entity,operation}
type Prometheus struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheus registers the collectors on reg. If collectors with the same
// names are already registered, the existing ones are reused.
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of data-access operations",
		},
		[]string{"entity", "operation"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of data-access operations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"entity", "operation"},
	)

	var err error
	if ops, err = register(reg, ops); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Prometheus{ops: ops, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Record increments the operation counter and observes the duration.
func (p *Prometheus) Record(entity, operation string, elapsed time.Duration, _ ...any) {
	p.ops.WithLabelValues(entity, operation).Inc()
	p.duration.WithLabelValues(entity, operation).Observe(elapsed.Seconds())
}
