package mcc

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/baldhumanity/mcc-maze/config"
)

var discardLogger = log.New(io.Discard, "", 0)

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return discardLogger
	}
	return l
}

// Controller reshapes the populations between generations.
type Controller interface {
	Update(ctx context.Context, e *Engine) error
}

// Observer receives the statistics of every finished generation.
type Observer interface {
	Observe(ctx context.Context, stats GenerationStatistics) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, stats GenerationStatistics) error

func (f ObserverFunc) Observe(ctx context.Context, stats GenerationStatistics) error {
	return f(ctx, stats)
}

// Engine runs the coevolution loop. A generation produces children from
// both populations, evaluates every agent child in every maze child and
// admits only the viable ones.
type Engine struct {
	Config     *config.Config
	Agents     Population[*Agent]
	Mazes      Population[*Maze]
	AgentIDs   *IDCounter
	MazeIDs    *IDCounter
	Controller Controller
	Observer   Observer
	Saver      func(ctx context.Context, e *Engine) error
	Logger     *log.Logger
	// Generation is the number of the next generation, starting at 0.
	Generation int
}

// NewEngine builds the populations named by [MCC] experiment from the
// seeds. finder is only used by the replacement experiment. Children take
// their ids from ids; with nil ids, counting starts after the seed ids.
func NewEngine(cfg *config.Config, seeds []Seed, finder *SeedFinder, ids *SeedIDs, logger *log.Logger) (*Engine, error) {
	if len(seeds) == 0 {
		return nil, ErrNoFounders
	}
	var (
		mazes  []*Maze
		agents []*Agent
	)
	for _, s := range seeds {
		mazes = append(mazes, s.Maze)
		agents = append(agents, s.Agents...)
	}
	if ids == nil {
		ids = NewSeedIDs()
		for _, m := range mazes {
			ids.Mazes.NextID = max(ids.Mazes.NextID, m.ID+1)
		}
		for _, a := range agents {
			ids.Agents.NextID = max(ids.Agents.NextID, a.ID+1)
		}
	}

	e := &Engine{
		Config:   cfg,
		AgentIDs: ids.Agents,
		MazeIDs:  ids.Mazes,
		Logger:   logger,
	}
	mc := cfg.MCC
	if !mc.Speciated() {
		mq, err := NewQueue(mazes, mc.MazePopulationCapacity, mc.MazeSelectionLimit, e.MazeIDs)
		if err != nil {
			return nil, fmt.Errorf("maze queue: %w", err)
		}
		mq.SetSizeBaseline(float64(mc.DefaultMazeSize))
		aq, err := NewQueue(agents, mc.AgentPopulationCapacity, mc.AgentSelectionLimit, e.AgentIDs)
		if err != nil {
			return nil, fmt.Errorf("agent queue: %w", err)
		}
		e.Mazes, e.Agents = mq, aq
		return e, nil
	}

	assignment, err := ParseAssignment(mc.SpeciesAssignment)
	if err != nil {
		return nil, err
	}
	mq, err := NewSpeciatedQueue(mazes, mc.MazePopulationCapacity, mc.MazeSelectionLimit, assignment, e.MazeIDs)
	if err != nil {
		return nil, fmt.Errorf("maze species: %w", err)
	}
	mq.SetSizeBaseline(float64(mc.DefaultMazeSize))
	aq, err := NewSpeciatedQueue(agents, mc.AgentPopulationCapacity, mc.AgentSelectionLimit, assignment, e.AgentIDs)
	if err != nil {
		return nil, fmt.Errorf("agent species: %w", err)
	}
	e.Mazes, e.Agents = mq, aq
	if err := e.attachController(finder); err != nil {
		return nil, err
	}
	return e, nil
}

// attachController installs the population controller of the experiment.
func (e *Engine) attachController(finder *SeedFinder) error {
	mc := e.Config.MCC
	switch mc.Experiment {
	case config.ExperimentReplacement:
		if finder == nil {
			return fmt.Errorf("the replacement experiment needs a seed finder")
		}
		e.Controller = &ReplacementController{Finder: finder, Logger: e.Logger}
	case config.ExperimentVariedSize:
		e.Controller = &VariedSizeController{
			AgentBorrowAmount: mc.VariedSizeAgentBorrowAmount,
			MazeBorrowAmount:  mc.VariedSizeMazeBorrowAmount,
			Logger:            e.Logger,
		}
	}
	return nil
}

// Step runs one generation and returns its statistics.
func (e *Engine) Step(ctx context.Context) (GenerationStatistics, error) {
	logger := orDiscard(e.Logger)

	agentChildren := e.Agents.Children()
	mazeChildren := e.Mazes.Children()

	if err := Evaluate(agentChildren, mazeChildren, e.Config.Simulator, logger); err != nil {
		return GenerationStatistics{}, fmt.Errorf("generation %d: %w", e.Generation, err)
	}

	admittedAgents := admitViable(e.Agents, agentChildren)
	admittedMazes := admitViable(e.Mazes, mazeChildren)

	e.Agents.SaveState()
	e.Mazes.SaveState()

	stats := CollectStatistics(e.Generation, e.Agents, e.Mazes)
	stats.AdmittedAgents = admittedAgents
	stats.AdmittedMazes = admittedMazes

	if e.Observer != nil {
		if err := e.Observer.Observe(ctx, stats); err != nil {
			return stats, fmt.Errorf("observe generation %d: %w", e.Generation, err)
		}
	}

	if e.Controller != nil && e.Generation > 0 && e.Generation%e.Config.MCC.GenerationsBetweenUpdate == 0 {
		logger.Printf("generation %s", stats)
		if err := e.Controller.Update(ctx, e); err != nil {
			return stats, fmt.Errorf("update populations after generation %d: %w", e.Generation, err)
		}
	}

	e.Generation++
	return stats, nil
}

// Run steps until [MCC] generations have run. The context is only checked
// between generations, so a cancelled run stops on a generation boundary.
// Saver, when set, is called after every generations_between_save
// generations.
func (e *Engine) Run(ctx context.Context) error {
	logger := orDiscard(e.Logger)
	for e.Generation < e.Config.MCC.Generations {
		if err := ctx.Err(); err != nil {
			logger.Printf("stopping before generation %d: %v", e.Generation, err)
			return err
		}
		stats, err := e.Step(ctx)
		if err != nil {
			return err
		}
		logger.Printf("generation %d: agents %d (+%d), mazes %d (+%d), average maze size %.2f",
			stats.Generation, stats.Agents, stats.AdmittedAgents, stats.Mazes, stats.AdmittedMazes, stats.AverageMazeSize)
		if e.Saver != nil && e.Generation%e.Config.MCC.GenerationsBetweenSave == 0 {
			if err := e.Saver(ctx, e); err != nil {
				return fmt.Errorf("save after generation %d: %w", stats.Generation, err)
			}
		}
	}
	return nil
}

// SpeciatedAgents returns the agent population when it is speciated.
func (e *Engine) SpeciatedAgents() (*SpeciatedQueue[*Agent], bool) {
	q, ok := e.Agents.(*SpeciatedQueue[*Agent])
	return q, ok
}

// SpeciatedMazes returns the maze population when it is speciated.
func (e *Engine) SpeciatedMazes() (*SpeciatedQueue[*Maze], bool) {
	q, ok := e.Mazes.(*SpeciatedQueue[*Maze])
	return q, ok
}
