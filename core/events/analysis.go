// Package events defines the notifications published on the event bus while
// an analysis runs. Stage events are delivered in stage order; the result
// event strictly follows every progress event of its run.
package events

import (
	"time"

	"github.com/parkops/workplan/core/model"
	"github.com/parkops/workplan/core/solver"
)

// StageEvent is published when a run transitions into a solve stage.
type StageEvent struct {
	Project string
	RunID   string
	Stage   solver.Stage
}

// ProgressEvent is a periodic search update where the solver exposes one.
type ProgressEvent struct {
	Project      string
	RunID        string
	Stage        solver.Stage
	Elapsed      time.Duration
	Nodes        int64
	BestOverload int
}

// ResultEvent carries the terminal analysis of a run. Cancelled runs publish a
// ResultEvent with a cancelled verdict and no persisted analysis.
type ResultEvent struct {
	Project  string
	RunID    string
	Analysis model.Analysis
}
