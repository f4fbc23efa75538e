package sim

import "fmt"

// Config holds the agent body and sensor parameters. Lengths are in pixels
// unless noted; a maze cell is CellDimension pixels wide.
type Config struct {
	CellDimension      float64 `ini:"cell_dimension"`
	AgentRadius        float64 `ini:"agent_radius"`
	MaxSpeed           float64 `ini:"max_speed"`
	MaxAngularVelocity float64 `ini:"max_angular_velocity"` // degrees per step
	RangefinderRange   float64 `ini:"rangefinder_range"`    // cells
	StartHeading       float64 `ini:"start_heading"`        // degrees, 0 is east
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		CellDimension:      32,
		AgentRadius:        8,
		MaxSpeed:           5,
		MaxAngularVelocity: 15,
		RangefinderRange:   8,
		StartHeading:       0,
	}
}

// Validate checks the body fits inside a cell and the limits are positive.
func (c Config) Validate() error {
	if c.CellDimension <= 0 {
		return fmt.Errorf("config error: cell_dimension must be positive")
	}
	if c.AgentRadius <= 0 || 2*c.AgentRadius >= c.CellDimension {
		return fmt.Errorf("config error: agent_radius must be positive and smaller than half of cell_dimension")
	}
	if c.MaxSpeed <= 0 || c.MaxSpeed >= c.AgentRadius {
		return fmt.Errorf("config error: max_speed must be positive and smaller than agent_radius")
	}
	if c.MaxAngularVelocity <= 0 {
		return fmt.Errorf("config error: max_angular_velocity must be positive")
	}
	if c.RangefinderRange <= 0 {
		return fmt.Errorf("config error: rangefinder_range must be positive")
	}
	return nil
}

// StepBudget is the number of steps an agent gets for a path of pathCells
// cells.
func (c Config) StepBudget(pathCells int) int {
	return pathCells * int(c.CellDimension)
}
