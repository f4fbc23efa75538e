// Package analytics turns a run into files: the statistics line of every
// generation, growth plots, rendered mazes and population diversity.
package analytics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/baldhumanity/mcc-maze/mcc"
	"github.com/baldhumanity/mcc-maze/storage"
)

// File names written into the analyzer directory.
const (
	GenerationsFile = "generations.txt"
	PlotFile        = "growth.png"
	DiversityFile   = "diversity.txt"
)

// Analyzer records a run. It is an mcc.Observer.
type Analyzer struct {
	Dir   string
	Store storage.Store
	RunID string

	// NoPlot disables the growth plot written by Finish.
	NoPlot bool

	mu    sync.Mutex
	stats []mcc.GenerationStatistics
	lines *os.File
}

var _ mcc.Observer = (*Analyzer)(nil)

// NewAnalyzer creates dir and opens its statistics file for appending, so
// a resumed run continues the same file. store may be nil.
func NewAnalyzer(dir string, store storage.Store, runID string) (*Analyzer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory '%s': %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, GenerationsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open statistics file: %w", err)
	}
	return &Analyzer{Dir: dir, Store: store, RunID: runID, lines: f}, nil
}

// Observe appends the statistics line and stores the generation.
func (a *Analyzer) Observe(ctx context.Context, s mcc.GenerationStatistics) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lines == nil {
		return fmt.Errorf("analyzer is closed")
	}
	a.stats = append(a.stats, s)
	line := s.String()
	if _, err := fmt.Fprintln(a.lines, line); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	if a.Store == nil {
		return nil
	}
	return a.Store.SaveGeneration(ctx, storage.GenerationRecord{
		RunID:                 a.RunID,
		Generation:            s.Generation,
		Agents:                s.Agents,
		Mazes:                 s.Mazes,
		AverageMazeSize:       s.AverageMazeSize,
		AveragePathComplexity: s.AveragePathComplexity,
		AverageAgentSize:      s.AverageAgentSize,
		Line:                  line,
	})
}

// Statistics returns the generations observed so far.
func (a *Analyzer) Statistics() []mcc.GenerationStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]mcc.GenerationStatistics(nil), a.stats...)
}

// RecordMazes stores the mazes of a population at generation.
func (a *Analyzer) RecordMazes(ctx context.Context, generation int, mazes []*mcc.Maze) error {
	if a.Store == nil {
		return nil
	}
	for _, m := range mazes {
		err := a.Store.SaveMaze(ctx, storage.MazeRecord{
			RunID:      a.RunID,
			MazeID:     m.ID,
			Generation: generation,
			SolverID:   m.SolverID,
			Genome:     m.Genome,
		})
		if err != nil {
			return fmt.Errorf("store maze %d: %w", m.ID, err)
		}
	}
	return nil
}

// Finish writes the growth plot and the diversity of the final
// populations, then closes the statistics file.
func (a *Analyzer) Finish(_ context.Context, agents []*mcc.Agent, mazes []*mcc.Maze) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.NoPlot && len(a.stats) > 0 {
		if err := PlotGenerations(a.stats, filepath.Join(a.Dir, PlotFile)); err != nil {
			return err
		}
	}
	diversity := fmt.Sprintf("maze_diversity %.5f\nagent_diversity %.5f\n", MazeDiversity(mazes), AgentDiversity(agents))
	if err := os.WriteFile(filepath.Join(a.Dir, DiversityFile), []byte(diversity), 0o644); err != nil {
		return fmt.Errorf("write diversity: %w", err)
	}
	return a.closeLines()
}

// Close closes the statistics file. It is safe to call more than once.
func (a *Analyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closeLines()
}

func (a *Analyzer) closeLines() error {
	if a.lines == nil {
		return nil
	}
	err := a.lines.Close()
	a.lines = nil
	return err
}
