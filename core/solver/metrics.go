package solver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	solveDuration *prometheus.HistogramVec
	searchNodes   prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, prometheus.Counter) {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solve_stage_duration_seconds",
			Help:    "Wall time spent in each solve stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	nodes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "solve_search_nodes_total",
			Help: "Number of search nodes explored across all solves",
		},
	)
	return dur, nodes
}

func init() {
	solveDuration, searchNodes = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers solver metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(solveDuration, searchNodes)
}

// ResetMetrics reinitializes the collectors for testing purposes and registers
// them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	solveDuration, searchNodes = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
