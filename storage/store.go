// Package storage persists run metadata, per-generation statistics and the
// viable mazes of a run.
package storage

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/baldhumanity/mcc-maze/maze"
)

// RunRecord describes one invocation of an experiment.
type RunRecord struct {
	ID          string    `json:"id"`
	Experiment  string    `json:"experiment"`
	ConfigPath  string    `json:"config_path"`
	StartedAt   time.Time `json:"started_at"`
	Generations int       `json:"generations"`
	Finished    bool      `json:"finished"`
}

// GenerationRecord is the statistics line of one generation.
type GenerationRecord struct {
	RunID                 string  `json:"run_id"`
	Generation            int     `json:"generation"`
	Agents                int     `json:"agents"`
	Mazes                 int     `json:"mazes"`
	AverageMazeSize       float64 `json:"average_maze_size"`
	AveragePathComplexity float64 `json:"average_path_complexity"`
	AverageAgentSize      float64 `json:"average_agent_size"`
	Line                  string  `json:"line"`
}

// MazeRecord is a maze admitted during a run, with the agent that solved it.
type MazeRecord struct {
	RunID      string       `json:"run_id"`
	MazeID     int          `json:"maze_id"`
	Generation int          `json:"generation"`
	SolverID   int          `json:"solver_id"`
	Genome     *maze.Genome `json:"genome"`
}

// Store defines the persistence operations of a run.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	SaveGeneration(ctx context.Context, rec GenerationRecord) error
	ListGenerations(ctx context.Context, runID string) ([]GenerationRecord, error)
	SaveMaze(ctx context.Context, rec MazeRecord) error
	ListMazes(ctx context.Context, runID string) ([]MazeRecord, error)
}

// NewRunID returns a fresh, time-ordered run id.
func NewRunID() string {
	return ulid.Make().String()
}
