// Package export renders finished analyses as structured documents.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/parkops/workplan/core/model"
)

// Document is the exported analysis shape. Feasible is nil for an
// inconclusive verdict, where feasibility is undetermined either way.
type Document struct {
	Feasible    *bool              `json:"feasible"`
	Cancelled   bool               `json:"cancelled"`
	Structural  bool               `json:"structural_infeasibility"`
	Utilisation map[string]float64 `json:"utilisation"`
	Overloads   []model.Overload   `json:"overloads"`
	Stats       Stats              `json:"solver_stats"`
}

// Stats is the exported subset of the solver statistics.
type Stats struct {
	StageReached    int     `json:"stage_reached"`
	WallTimeSeconds float64 `json:"wall_time_seconds"`
	ProvenOptimal   bool    `json:"proven_optimal"`
}

// NewDocument maps an analysis to its export form.
func NewDocument(a model.Analysis) Document {
	doc := Document{
		Cancelled:   a.Verdict == model.VerdictCancelled,
		Structural:  a.Structural,
		Utilisation: a.Utilisation,
		Overloads:   a.Overloads,
		Stats: Stats{
			StageReached:    a.Stats.StageReached,
			WallTimeSeconds: a.Stats.WallTimeSeconds,
			ProvenOptimal:   a.Stats.ProvenOptimal,
		},
	}
	if doc.Utilisation == nil {
		doc.Utilisation = map[string]float64{}
	}
	if doc.Overloads == nil {
		doc.Overloads = []model.Overload{}
	}
	switch a.Verdict {
	case model.VerdictFeasible:
		v := true
		doc.Feasible = &v
	case model.VerdictInfeasible:
		v := false
		doc.Feasible = &v
	}
	return doc
}

// WriteJSON writes the analysis document to w in JSON format.
func WriteJSON(w io.Writer, a model.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(a))
}

// WriteCSV writes the overload entries to w in CSV format.
func WriteCSV(w io.Writer, a model.Analysis) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "slot", "role", "extra_needed"}); err != nil {
		return err
	}
	for _, o := range a.Overloads {
		rec := []string{o.Date, o.Slot, o.Role, strconv.Itoa(o.ExtraNeeded)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
