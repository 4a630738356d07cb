// Package metrics exposes Prometheus counters for credseal operations.
//
// Soft failures (missing certificate, cipher or unprotect errors) are
// reported to callers as empty results; the counters here keep them
// observable.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "credseal"

// Outcomes
const (
	OutcomeOK          = "ok"
	OutcomeSoftFailure = "soft_failure"
	OutcomeError       = "error"
)

var (
	once     sync.Once
	registry *prometheus.Registry

	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of encrypt/decrypt/protect/unprotect operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	SoftFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_failures_total",
			Help:      "Operations that returned an empty result instead of an error, by reason",
		},
		[]string{"operation", "reason"},
	)
)

// Registry returns the registry holding all credseal metrics
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(OperationsTotal, SoftFailuresTotal)
	})
	return registry
}

// ObserveOK counts a successful operation
func ObserveOK(operation string) {
	OperationsTotal.WithLabelValues(operation, OutcomeOK).Inc()
}

// ObserveSoftFailure counts an operation that collapsed to an empty result
func ObserveSoftFailure(operation, reason string) {
	OperationsTotal.WithLabelValues(operation, OutcomeSoftFailure).Inc()
	SoftFailuresTotal.WithLabelValues(operation, reason).Inc()
}

// ObserveError counts an operation that returned an error to the caller
func ObserveError(operation string) {
	OperationsTotal.WithLabelValues(operation, OutcomeError).Inc()
}

// WriteTextfile writes all metrics in the node exporter textfile format
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry())
}
