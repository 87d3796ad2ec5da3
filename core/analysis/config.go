package analysis

import (
	"fmt"
	"time"

	"github.com/parkops/workplan/core/model"
	"github.com/parkops/workplan/core/schedule"
	"github.com/parkops/workplan/core/solver"
)

// Config defines planning and solve parameters loaded from configuration.
type Config struct {
	HorizonDays        int     `json:"horizon_days"`
	StartDate          string  `json:"start_date"` // ISO date, defaults to today
	Stage1LimitSeconds float64 `json:"stage1_limit_seconds"`
	Stage2LimitSeconds float64 `json:"stage2_limit_seconds"`
}

// SetDefaults applies the quarter horizon and stage limits.
func (c *Config) SetDefaults() {
	if c.HorizonDays == 0 {
		c.HorizonDays = schedule.DefaultHorizonDays
	}
	if c.Stage1LimitSeconds == 0 {
		c.Stage1LimitSeconds = solver.DefaultStageLimit.Seconds()
	}
	if c.Stage2LimitSeconds == 0 {
		c.Stage2LimitSeconds = solver.DefaultStageLimit.Seconds()
	}
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.HorizonDays < 1 {
		return fmt.Errorf("horizon_days must be positive, got %d", c.HorizonDays)
	}
	if c.StartDate != "" {
		if _, err := time.Parse(model.HolidayDateLayout, c.StartDate); err != nil {
			return fmt.Errorf("start_date: %w", err)
		}
	}
	return nil
}

// Start returns the horizon start date, today when unset.
func (c Config) Start() time.Time {
	if c.StartDate != "" {
		t, err := time.Parse(model.HolidayDateLayout, c.StartDate)
		if err == nil {
			return t
		}
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Limits converts the configured stage budgets for the solver.
func (c Config) Limits() solver.Limits {
	return solver.Limits{
		Stage1: time.Duration(c.Stage1LimitSeconds * float64(time.Second)),
		Stage2: time.Duration(c.Stage2LimitSeconds * float64(time.Second)),
	}
}
