// Package metrics declares the editor's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyra_demo_classifications_total",
		Help: "Demonstrations classified, by resolved kind",
	}, []string{"kind"})

	DemonstratedInputs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lyra_demo_inputs_applied_total",
		Help: "Inferred inputs applied to interactions",
	})

	DropFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lyra_demo_drop_failures_total",
		Help: "Signal bubbles that could not be bound to their drop target",
	})

	TimelineOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lyra_timeline_operations_total",
		Help: "Timeline operations, by operation",
	}, []string{"op"})

	TimelineSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lyra_timeline_size",
		Help: "Current number of snapshots in the timeline",
	})

	CompileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lyra_spec_compile_duration_seconds",
		Help:    "Duration of document to specification compilation",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	CompileErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lyra_spec_compile_errors_total",
		Help: "Failed specification compilations",
	})

	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lyra_server_sessions",
		Help: "Open editor sessions",
	})
)
