package compiler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// phaseNodes counts nodes handled per phase.
	// Labels: "enumerate", "classify", "score"
	phaseNodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tictactable_compiler_nodes_total",
		Help: "Nodes handled by each compiler phase",
	}, []string{"phase"})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tictactable_compiler_phase_duration_seconds",
		Help:    "Wall time spent in each compiler phase",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"phase"})

	// compileFailures counts aborted compilations.
	// Labels: "duplicate_node", "missing_node", "turn_conflict", "node_limit",
	// "non_convergence", "canceled", "other"
	compileFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tictactable_compiler_failures_total",
		Help: "Compilations aborted by error kind",
	}, []string{"reason"})

	exportedNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tictactable_compiler_table_nodes",
		Help: "Number of states in the most recently exported table",
	})
)
