// Package project binds one immutable work-plan to its resource-set versions
// and the ordered history of analyses produced from them.
package project

import (
	"fmt"
	"sync"

	"github.com/parkops/workplan/core/model"
)

// Project is the container for one work-plan. The activity list is fixed at
// creation; the resource set may be edited between runs; the analysis history
// is append-only and extended only with terminal, non-cancelled verdicts.
type Project struct {
	Name string

	mu         sync.RWMutex
	activities []model.Activity
	resources  model.ResourceSet
	versions   []model.ResourceSet // snapshots bound to analyses, in bind order
	analyses   []model.Analysis
}

// New creates a project over an immutable copy of the activity list.
func New(name string, activities []model.Activity, resources model.ResourceSet) *Project {
	acts := make([]model.Activity, len(activities))
	copy(acts, activities)
	return &Project{Name: name, activities: acts, resources: resources}
}

// Restore rebuilds a project from persisted state, history included.
func Restore(name string, activities []model.Activity, resources model.ResourceSet, versions []model.ResourceSet, analyses []model.Analysis) *Project {
	p := New(name, activities, resources)
	p.versions = append(p.versions, versions...)
	p.analyses = append(p.analyses, analyses...)
	return p
}

// Activities returns a copy of the work-plan.
func (p *Project) Activities() []model.Activity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	acts := make([]model.Activity, len(p.activities))
	copy(acts, p.activities)
	return acts
}

// Resources returns the current editable resource set.
func (p *Project) Resources() model.ResourceSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.resources
}

// SetResources replaces the editable resource set. Snapshots already bound to
// analyses are unaffected.
func (p *Project) SetResources(rs model.ResourceSet) {
	p.mu.Lock()
	p.resources = rs
	p.mu.Unlock()
}

// BindSnapshot records a resource-set snapshot as a version used by a run.
func (p *Project) BindSnapshot(rs model.ResourceSet) {
	p.mu.Lock()
	p.versions = append(p.versions, rs)
	p.mu.Unlock()
}

// Versions returns the resource-set snapshots bound so far.
func (p *Project) Versions() []model.ResourceSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	vs := make([]model.ResourceSet, len(p.versions))
	copy(vs, p.versions)
	return vs
}

// AppendAnalysis extends the history. Only terminal, non-cancelled verdicts
// may be appended; cancelled runs persist nothing.
func (p *Project) AppendAnalysis(a model.Analysis) error {
	if !a.Verdict.Terminal() {
		return fmt.Errorf("analysis %s is not terminal", a.ID)
	}
	if a.Verdict == model.VerdictCancelled {
		return fmt.Errorf("cancelled analysis %s must not be persisted", a.ID)
	}
	p.mu.Lock()
	p.analyses = append(p.analyses, a)
	p.mu.Unlock()
	return nil
}

// History returns a copy of the analysis history in append order.
func (p *Project) History() []model.Analysis {
	p.mu.RLock()
	defer p.mu.RUnlock()
	hs := make([]model.Analysis, len(p.analyses))
	copy(hs, p.analyses)
	return hs
}

// Latest returns the most recent analysis, or nil when none has run.
func (p *Project) Latest() *model.Analysis {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.analyses) == 0 {
		return nil
	}
	a := p.analyses[len(p.analyses)-1]
	return &a
}

// Duplicate copies the project under a new name. History travels along only
// when includeAnalyses is set; the resource set is snapshotted so edits to the
// copy never alias the original.
func (p *Project) Duplicate(name string, includeAnalyses bool) *Project {
	p.mu.RLock()
	defer p.mu.RUnlock()
	dup := New(name, p.activities, p.resources.Snapshot())
	if includeAnalyses {
		dup.versions = append(dup.versions, p.versions...)
		dup.analyses = append(dup.analyses, p.analyses...)
	}
	return dup
}
