package metrics

import coremetrics "github.com/parkops/workplan/core/metrics"

// MultiSink fans analysis events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAnalysis forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordAnalysis(ev coremetrics.AnalysisEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAnalysis(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordUtilization forwards utilization events when supported by the sink.
func (m *MultiSink) RecordUtilization(evs []coremetrics.UtilizationEvent) error {
	for _, s := range m.Sinks {
		if ur, ok := s.(coremetrics.UtilizationRecorder); ok {
			if err := ur.RecordUtilization(evs); err != nil {
				return err
			}
		}
	}
	return nil
}
