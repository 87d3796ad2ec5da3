// Package loader reads work-plan and resource files into typed records. The
// core engine consumes the resulting values and never parses raw input itself.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/parkops/workplan/core/model"
)

// Fixed work-plan columns; every remaining column is a role demand column.
var workplanColumns = []string{"ActivityID", "ActivityName", "Quarter", "Frequency", "Duration"}

// LoadWorkplanCSV reads a work-plan CSV file into activities.
func LoadWorkplanCSV(path string) ([]model.Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workplan: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadWorkplan(f)
}

// ReadWorkplan parses work-plan CSV data. The header must carry the fixed
// columns ActivityID, ActivityName, Quarter, Frequency and Duration; any
// further column names a role and its per-occurrence demand.
func ReadWorkplan(r io.Reader) ([]model.Activity, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read workplan header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range workplanColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("workplan is missing required column %q", required)
		}
	}
	fixed := make(map[string]struct{}, len(workplanColumns))
	for _, c := range workplanColumns {
		fixed[c] = struct{}{}
	}

	var activities []model.Activity
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("workplan line %d: %w", line, err)
		}
		freq, err := strconv.Atoi(strings.TrimSpace(rec[cols["Frequency"]]))
		if err != nil {
			return nil, fmt.Errorf("workplan line %d: frequency: %w", line, err)
		}
		dur, err := strconv.ParseFloat(strings.TrimSpace(rec[cols["Duration"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("workplan line %d: duration: %w", line, err)
		}
		demand := make(map[string]int)
		for i, name := range header {
			role := strings.TrimSpace(name)
			if _, ok := fixed[role]; ok || role == "" {
				continue
			}
			cell := strings.TrimSpace(rec[i])
			if cell == "" {
				continue
			}
			n, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("workplan line %d: demand for %s: %w", line, role, err)
			}
			if n != 0 {
				demand[role] = n
			}
		}
		activities = append(activities, model.Activity{
			ID:        strings.TrimSpace(rec[cols["ActivityID"]]),
			Name:      strings.TrimSpace(rec[cols["ActivityName"]]),
			Quarter:   strings.TrimSpace(rec[cols["Quarter"]]),
			Frequency: freq,
			Duration:  dur,
			Demand:    demand,
		})
	}
	return activities, nil
}
