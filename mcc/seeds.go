package mcc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/baldhumanity/mcc-maze/config"
	"github.com/baldhumanity/mcc-maze/maze"
	"github.com/baldhumanity/mcc-maze/neat"
	"github.com/baldhumanity/mcc-maze/neat/nn"
	"github.com/baldhumanity/mcc-maze/sim"
)

// ErrSeedSearchExhausted is returned when the seed search runs out of
// rounds before finding enough pairs.
var ErrSeedSearchExhausted = errors.New("seed search exhausted")

// solvedFitness is the fitness of an agent that reaches the exit. Agents
// that do not are scored below it by their final distance to the exit.
const (
	solvedFitness      = 1.0
	unsolvedFitnessCap = 0.99
)

// Seed is a maze together with agents that solve it.
type Seed struct {
	Maze   *Maze
	Agents []*Agent
}

// SeedIDs are the id counters shared by seeds and the populations they
// found.
type SeedIDs struct {
	Mazes  *IDCounter
	Agents *IDCounter
}

// NewSeedIDs starts both counters at 0.
func NewSeedIDs() *SeedIDs {
	return &SeedIDs{Mazes: NewIDCounter(0), Agents: NewIDCounter(0)}
}

// SeedFinder discovers maze/agent pairs that satisfy the minimal criterion
// by evolving a NEAT population against each maze. Attempts are independent
// and run in parallel; everything else happens on the caller's goroutine.
type SeedFinder struct {
	Config *config.Config
	IDs    *SeedIDs
	Logger *log.Logger
}

// NewSeedFinder creates a finder that draws ids from ids.
func NewSeedFinder(cfg *config.Config, ids *SeedIDs, logger *log.Logger) *SeedFinder {
	return &SeedFinder{Config: cfg, IDs: ids, Logger: logger}
}

type attemptResult struct {
	maze   *maze.Genome
	agents []*neat.Genome
}

// Find returns mazeCount seeds of random mazes, each with agentsPerMaze
// distinct solvers. Seeds are viable and the first agent is the solver of
// record. Failed attempts are retried in later rounds; after
// seed_search_rounds rounds ErrSeedSearchExhausted is returned.
func (f *SeedFinder) Find(ctx context.Context, mazeCount, agentsPerMaze int) ([]Seed, error) {
	logger := orDiscard(f.Logger)
	mc := f.Config.MCC
	var found []*attemptResult
	attempt := 0

	for round := 0; round < mc.SeedSearchRounds && len(found) < mazeCount; round++ {
		need := mazeCount - len(found)
		results := make([]*attemptResult, need)

		p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(mc.SeedWorkers)
		for i := 0; i < need; i++ {
			i, n := i, attempt
			attempt++
			p.Go(func(ctx context.Context) error {
				r, err := f.attempt(ctx, n, nil, agentsPerMaze)
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return nil, fmt.Errorf("seed search round %d: %w", round, err)
		}

		before := len(found)
		for _, r := range results {
			if r != nil {
				found = append(found, r)
			}
		}
		logger.Printf("seed search round %d: %d of %d attempts succeeded, %d/%d seeds",
			round, len(found)-before, need, len(found), mazeCount)
	}

	if len(found) < mazeCount {
		return nil, fmt.Errorf("%w: found %d of %d seeds in %d rounds", ErrSeedSearchExhausted, len(found), mazeCount, mc.SeedSearchRounds)
	}

	seeds := make([]Seed, 0, len(found))
	for _, r := range found {
		seed := Seed{Maze: f.newMaze(r.maze)}
		for _, g := range r.agents {
			seed.Agents = append(seed.Agents, f.newAgent(g))
		}
		seed.Maze.Viable = true
		seed.Maze.SolverID = seed.Agents[0].ID
		for _, a := range seed.Agents {
			a.Viable = true
			a.SolvedMazeID = seed.Maze.ID
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// FindAgentForMaze evolves an agent that solves m, retrying for up to
// seed_search_rounds attempts.
func (f *SeedFinder) FindAgentForMaze(ctx context.Context, m *Maze) (*Agent, error) {
	for round := 0; round < f.Config.MCC.SeedSearchRounds; round++ {
		r, err := f.attempt(ctx, round, m.Genome.Clone(), 1)
		if err != nil {
			return nil, err
		}
		if r != nil {
			a := f.newAgent(r.agents[0])
			a.Viable = true
			a.SolvedMazeID = m.ID
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: no agent for maze %d in %d rounds", ErrSeedSearchExhausted, m.ID, f.Config.MCC.SeedSearchRounds)
}

// attempt evolves a fresh population against one maze, a random one when
// g is nil. It returns nil without error when the generation limit passes
// before want distinct solvers turn up.
func (f *SeedFinder) attempt(ctx context.Context, n int, g *maze.Genome, want int) (*attemptResult, error) {
	mc := f.Config.MCC
	base := orDiscard(f.Logger)
	logger := log.New(base.Writer(), fmt.Sprintf("%sattempt %d: ", base.Prefix(), n), base.Flags())

	if g == nil {
		var err error
		g, err = maze.Random(mc.DefaultMazeSize, mc.DefaultMazeSize)
		if err != nil {
			return nil, err
		}
	}
	ph, err := maze.Compile(g)
	if err != nil {
		logger.Printf("maze does not compile: %v", err)
		return nil, nil
	}

	// Each attempt owns its config so node keys are never shared.
	neatCfg := f.Config.Neat.Clone()
	pop, err := neat.NewPopulation(neatCfg)
	if err != nil {
		return nil, err
	}

	simCfg := f.Config.Simulator
	steps := simCfg.StepBudget(g.SolutionLength())
	solvers := make(map[int]*neat.Genome)

	fitness := func(genomes map[int]*neat.Genome) error {
		for _, key := range sortedGenomeKeys(genomes) {
			genome := genomes[key]
			net, err := nn.CreateFeedForwardNetwork(genome)
			if err != nil {
				genome.Fitness = 0
				continue
			}
			res, err := sim.Simulate(net, ph, steps, false, simCfg)
			if err != nil {
				return err
			}
			if res.ReachedEnd {
				genome.Fitness = solvedFitness
				if len(solvers) < want {
					solvers[genome.Key] = genome.Copy()
				}
				continue
			}
			genome.Fitness = 0
			if res.FinalPosition != nil {
				genome.Fitness = unsolvedFitnessCap * sim.Proximity(*res.FinalPosition, ph)
			}
		}
		return nil
	}

	for gen := 0; gen < mc.FindSeedGenerationLimit; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		winner, err := pop.RunGeneration(fitness)
		if err != nil {
			logger.Printf("abandoned: %v", err)
			return nil, nil
		}
		if len(solvers) >= want {
			logger.Printf("found %d solvers in generation %d for %s", len(solvers), gen, g)
			return &attemptResult{maze: g, agents: sortedGenomes(solvers)}, nil
		}
		if winner != nil && !neatCfg.Neat.NoFitnessTermination {
			// Keep evolving the same population for more distinct solvers.
			neatCfg.Neat.NoFitnessTermination = true
		}
	}
	logger.Printf("no pair within %d generations (%d/%d solvers)", mc.FindSeedGenerationLimit, len(solvers), want)
	return nil, nil
}

func (f *SeedFinder) newMaze(g *maze.Genome) *Maze {
	return NewMaze(f.IDs.Mazes.Next(), g, &f.Config.Maze)
}

// newAgent relinks g to the shared genome config and raises its node key
// index above every key g uses.
func (f *SeedFinder) newAgent(g *neat.Genome) *Agent {
	shared := &f.Config.Neat.Genome
	g.Config = shared
	shared.EnsureNodeKeyAbove(g.MaxNodeKey())
	g.Fitness = 0
	return NewAgent(f.IDs.Agents.Next(), g)
}

func sortedGenomeKeys(genomes map[int]*neat.Genome) []int {
	keys := make([]int, 0, len(genomes))
	for k := range genomes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedGenomes(genomes map[int]*neat.Genome) []*neat.Genome {
	out := make([]*neat.Genome, 0, len(genomes))
	for _, k := range sortedGenomeKeys(genomes) {
		out = append(out, genomes[k])
	}
	return out
}
