// Package config loads the single INI file that drives an MCC run. The NEAT
// sections are handed to the neat package; the [MCC], [Maze], [Simulator]
// and [Output] sections are mapped here onto structs pre-filled with
// defaults, so absent keys keep their default.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/baldhumanity/mcc-maze/maze"
	"github.com/baldhumanity/mcc-maze/neat"
	"github.com/baldhumanity/mcc-maze/sim"
)

// Experiment names accepted by [MCC] experiment.
const (
	ExperimentRegular     = "regular"
	ExperimentSpeciated   = "speciated"
	ExperimentReplacement = "replacement"
	ExperimentVariedSize  = "varied_size"
)

// Species assignment rules accepted by [MCC] species_assignment.
const (
	AssignNearest  = "nearest"
	AssignFarthest = "farthest"
)

// Store kinds accepted by [Output] store.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the whole process configuration. It is built once and passed
// by reference.
type Config struct {
	MCC       MCCConfig
	Maze      maze.Config
	Simulator sim.Config
	Output    OutputConfig
	Neat      *neat.Config
}

// MCCConfig holds the coevolution parameters.
type MCCConfig struct {
	Experiment                  string `ini:"experiment"`
	Generations                 int    `ini:"generations"`
	MazePopulationCapacity      int    `ini:"maze_population_capacity"`
	MazeSeedAmount              int    `ini:"maze_seed_amount"`
	AgentPopulationCapacity     int    `ini:"agent_population_capacity"`
	AgentSeedAmount             int    `ini:"agent_seed_amount"`
	FindSeedGenerationLimit     int    `ini:"find_seed_generation_limit"`
	SeedSearchRounds            int    `ini:"seed_search_rounds"`
	SeedWorkers                 int    `ini:"seed_workers"`
	AgentSelectionLimit         int    `ini:"agent_selection_limit"`
	MazeSelectionLimit          int    `ini:"maze_selection_limit"`
	DefaultMazeSize             int    `ini:"default_maze_size"`
	SpeciesAssignment           string `ini:"species_assignment"`
	GenerationsBetweenSave      int    `ini:"generations_between_save"`
	GenerationsBetweenUpdate    int    `ini:"generations_between_update"`
	VariedSizeAgentBorrowAmount int    `ini:"varied_size_agent_borrow_amount"`
	VariedSizeMazeBorrowAmount  int    `ini:"varied_size_maze_borrow_amount"`

	// SpeciationThreshold is recognised for compatibility. The species
	// count is fixed by the seeds, so the queues never read it.
	SpeciationThreshold float64 `ini:"speciation_threshold"`
}

// OutputConfig controls where results go.
type OutputConfig struct {
	Directory   string `ini:"directory"`
	Store       string `ini:"store"` // memory or sqlite
	SQLitePath  string `ini:"sqlite_path"`
	RenderScale int    `ini:"render_scale"`
	Plot        bool   `ini:"plot"`
	Checkpoint  bool   `ini:"checkpoint"`
}

// DefaultMCC returns the documented [MCC] defaults.
func DefaultMCC() MCCConfig {
	return MCCConfig{
		Experiment:                  ExperimentReplacement,
		Generations:                 100,
		MazePopulationCapacity:      250,
		MazeSeedAmount:              10,
		AgentPopulationCapacity:     250,
		AgentSeedAmount:             20,
		FindSeedGenerationLimit:     50,
		SeedSearchRounds:            20,
		SeedWorkers:                 4,
		AgentSelectionLimit:         10,
		MazeSelectionLimit:          10,
		DefaultMazeSize:             10,
		SpeciesAssignment:           AssignNearest,
		SpeciationThreshold:         0.85,
		GenerationsBetweenSave:      10,
		GenerationsBetweenUpdate:    20,
		VariedSizeAgentBorrowAmount: 2,
		VariedSizeMazeBorrowAmount:  2,
	}
}

// DefaultOutput returns the documented [Output] defaults.
func DefaultOutput() OutputConfig {
	return OutputConfig{
		Directory:   "output",
		Store:       StoreSQLite,
		SQLitePath:  "mcc.db",
		RenderScale: 4,
		Plot:        true,
		Checkpoint:  true,
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	file, err := ini.LoadSources(neat.LoadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", path, err)
	}
	return FromFile(file)
}

// Parse reads a configuration from INI source bytes.
func Parse(data []byte) (*Config, error) {
	file, err := ini.LoadSources(neat.LoadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return FromFile(file)
}

// FromFile maps an already loaded INI file.
func FromFile(file *ini.File) (*Config, error) {
	cfg := &Config{
		MCC:       DefaultMCC(),
		Maze:      maze.DefaultConfig(),
		Simulator: sim.DefaultConfig(),
		Output:    DefaultOutput(),
	}
	sections := []struct {
		name   string
		target interface{}
	}{
		{"MCC", &cfg.MCC},
		{"Maze", &cfg.Maze},
		{"Simulator", &cfg.Simulator},
		{"Output", &cfg.Output},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).MapTo(s.target); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	neatCfg, err := neat.ConfigFromFile(file)
	if err != nil {
		return nil, fmt.Errorf("agent genome config: %w", err)
	}
	cfg.Neat = neatCfg

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-section constraints.
func (c *Config) Validate() error {
	if err := c.MCC.Validate(); err != nil {
		return err
	}
	if err := c.Maze.Validate(); err != nil {
		return err
	}
	if err := c.Simulator.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if c.Neat == nil {
		return fmt.Errorf("config error: missing agent genome config")
	}
	g := c.Neat.Genome
	if g.NumInputs != sim.InputCount || g.NumOutputs != sim.OutputCount {
		return fmt.Errorf("config error: agent genome needs %d inputs and %d outputs, got %d and %d",
			sim.InputCount, sim.OutputCount, g.NumInputs, g.NumOutputs)
	}
	if !g.FeedForward {
		return fmt.Errorf("config error: agent genome must be feed_forward")
	}
	return nil
}

// Validate checks the [MCC] section.
func (m MCCConfig) Validate() error {
	switch m.Experiment {
	case ExperimentRegular, ExperimentSpeciated, ExperimentReplacement, ExperimentVariedSize:
	default:
		return fmt.Errorf("config error: unknown experiment '%s'", m.Experiment)
	}
	switch m.SpeciesAssignment {
	case AssignNearest, AssignFarthest:
	default:
		return fmt.Errorf("config error: unknown species_assignment '%s'", m.SpeciesAssignment)
	}

	positive := []struct {
		name string
		v    int
	}{
		{"generations", m.Generations},
		{"maze_population_capacity", m.MazePopulationCapacity},
		{"maze_seed_amount", m.MazeSeedAmount},
		{"agent_population_capacity", m.AgentPopulationCapacity},
		{"agent_seed_amount", m.AgentSeedAmount},
		{"find_seed_generation_limit", m.FindSeedGenerationLimit},
		{"seed_search_rounds", m.SeedSearchRounds},
		{"seed_workers", m.SeedWorkers},
		{"agent_selection_limit", m.AgentSelectionLimit},
		{"maze_selection_limit", m.MazeSelectionLimit},
		{"generations_between_save", m.GenerationsBetweenSave},
		{"generations_between_update", m.GenerationsBetweenUpdate},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("config error: %s must be positive", p.name)
		}
	}
	if m.DefaultMazeSize < 3 {
		return fmt.Errorf("config error: default_maze_size must be at least 3")
	}
	if m.SpeciationThreshold < 0 {
		return fmt.Errorf("config error: speciation_threshold must not be negative")
	}
	if m.VariedSizeAgentBorrowAmount < 0 || m.VariedSizeMazeBorrowAmount < 0 {
		return fmt.Errorf("config error: varied size borrow amounts must not be negative")
	}
	// Agents are seeded per maze, so every maze species needs its agents.
	if m.AgentSeedAmount < m.MazeSeedAmount {
		return fmt.Errorf("config error: agent_seed_amount (%d) must be at least maze_seed_amount (%d)",
			m.AgentSeedAmount, m.MazeSeedAmount)
	}
	if m.MazePopulationCapacity/m.MazeSeedAmount < 1 {
		return fmt.Errorf("config error: maze species capacity is zero (capacity %d, seeds %d)",
			m.MazePopulationCapacity, m.MazeSeedAmount)
	}
	if m.AgentPopulationCapacity/m.AgentSeedAmount < 1 {
		return fmt.Errorf("config error: agent species capacity is zero (capacity %d, seeds %d)",
			m.AgentPopulationCapacity, m.AgentSeedAmount)
	}
	return nil
}

// Speciated reports whether the experiment uses speciated queues.
func (m MCCConfig) Speciated() bool {
	return m.Experiment != ExperimentRegular
}

// AgentsPerMaze is how many seed agents each seed maze contributes.
func (m MCCConfig) AgentsPerMaze() int {
	return m.AgentSeedAmount / m.MazeSeedAmount
}

// Validate checks the [Output] section.
func (o OutputConfig) Validate() error {
	switch o.Store {
	case StoreMemory:
	case StoreSQLite:
		if o.SQLitePath == "" {
			return fmt.Errorf("config error: sqlite_path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("config error: unknown store '%s'", o.Store)
	}
	if o.RenderScale <= 0 {
		return fmt.Errorf("config error: render_scale must be positive")
	}
	return nil
}
