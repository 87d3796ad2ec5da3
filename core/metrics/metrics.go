// Package metrics defines the sink interfaces analysis results are recorded
// to. Implementations live in infra/metrics.
package metrics

import "time"

// AnalysisEvent is one finished feasibility run to be recorded.
type AnalysisEvent struct {
	Project         string
	RunID           string
	Verdict         string
	Structural      bool
	StageReached    int
	WallTimeSeconds float64
	ProvenOptimal   bool
	TotalOverload   int
	Time            time.Time
}

// MetricsSink records finished analyses for observability purposes.
type MetricsSink interface {
	RecordAnalysis(ev AnalysisEvent) error
}

// UtilizationEvent is a per-role load snapshot of a finished run.
type UtilizationEvent struct {
	Project string
	RunID   string
	Role    string
	Percent float64
	Time    time.Time
}

// UtilizationRecorder is implemented by sinks able to record per-role load.
type UtilizationRecorder interface {
	RecordUtilization(evs []UtilizationEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAnalysis(AnalysisEvent) error         { return nil }
func (NopSink) RecordUtilization([]UtilizationEvent) error { return nil }
