// Package metrics records store operations with Prometheus collectors.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/example/equipment-rental/internal/persistence"
)

const namespace = "rentaldesk"

// Recorder implements persistence.Recorder.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

var _ persistence.Recorder = (*Recorder)(nil)

// NewRecorder registers the store collectors on a fresh registry.
func NewRecorder() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by collection and operation.",
		}, []string{"collection", "operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "failures_total",
			Help:      "Store operations that returned an error.",
		}, []string{"collection", "operation"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Backend latency of store operations.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"collection", "operation"}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.failures, r.latency} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register store collector: %w", err)
		}
	}
	return r, nil
}

// ObserveStoreOperation counts the operation and its latency.
func (r *Recorder) ObserveStoreOperation(collection, operation string, elapsed time.Duration, err error) {
	r.operations.WithLabelValues(collection, operation).Inc()
	r.latency.WithLabelValues(collection, operation).Observe(elapsed.Seconds())
	if err != nil {
		r.failures.WithLabelValues(collection, operation).Inc()
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteText writes every gathered family in the Prometheus text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	var errs []error
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
