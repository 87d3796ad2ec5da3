package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/parkops/workplan/core/metrics"
)

// PromSink records finished analyses in Prometheus metrics.
type PromSink struct {
	analyses *prometheus.CounterVec
	wallTime *prometheus.HistogramVec
	overload *prometheus.GaugeVec
	util     *prometheus.GaugeVec
}

// NewPromSink registers analysis metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	analyses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analyses_total",
		Help: "Total number of finished feasibility analyses",
	}, []string{"project", "verdict", "structural"})
	wallTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analysis_wall_time_seconds",
		Help:    "Wall time of finished analyses",
		Buckets: prometheus.DefBuckets,
	}, []string{"project", "stage_reached"})
	overload := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "analysis_total_overload",
		Help: "Minimal extra staff-slots needed by the latest infeasible analysis",
	}, []string{"project"})
	util := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "analysis_utilization_percent",
		Help: "Per-role utilization of the latest analysis",
	}, []string{"project", "role"})

	for _, c := range []prometheus.Collector{analyses, wallTime, overload, util} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{analyses: analyses, wallTime: wallTime, overload: overload, util: util}, nil
}

// RecordAnalysis increments the verdict counter and observes the wall time.
func (s *PromSink) RecordAnalysis(ev coremetrics.AnalysisEvent) error {
	s.analyses.WithLabelValues(ev.Project, ev.Verdict, strconv.FormatBool(ev.Structural)).Inc()
	s.wallTime.WithLabelValues(ev.Project, strconv.Itoa(ev.StageReached)).Observe(ev.WallTimeSeconds)
	s.overload.WithLabelValues(ev.Project).Set(float64(ev.TotalOverload))
	return nil
}

// RecordUtilization sets the per-role load gauges.
func (s *PromSink) RecordUtilization(evs []coremetrics.UtilizationEvent) error {
	for _, ev := range evs {
		s.util.WithLabelValues(ev.Project, ev.Role).Set(ev.Percent)
	}
	return nil
}
