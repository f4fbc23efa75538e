package maze

import "fmt"

// Config holds the maze mutation probabilities.
type Config struct {
	MutateStructure float64 `ini:"mutate_structure"`
	AddWall         float64 `ini:"add_wall"`
	DeleteWall      float64 `ini:"delete_wall"`
	AddWaypoint     float64 `ini:"add_waypoint"`
	DeleteWaypoint  float64 `ini:"delete_waypoint"`
	IncreaseSize    float64 `ini:"increase_size"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MutateStructure: 0.5,
		AddWall:         0.1,
		DeleteWall:      0.001,
		AddWaypoint:     0.1,
		DeleteWaypoint:  0.001,
		IncreaseSize:    0.05,
	}
}

// Validate checks that every probability lies in [0, 1].
func (c Config) Validate() error {
	probs := []struct {
		name string
		v    float64
	}{
		{"mutate_structure", c.MutateStructure},
		{"add_wall", c.AddWall},
		{"delete_wall", c.DeleteWall},
		{"add_waypoint", c.AddWaypoint},
		{"delete_waypoint", c.DeleteWaypoint},
		{"increase_size", c.IncreaseSize},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", p.name)
		}
	}
	return nil
}
