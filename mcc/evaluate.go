package mcc

import (
	"fmt"
	"log"

	"github.com/baldhumanity/mcc-maze/maze"
	"github.com/baldhumanity/mcc-maze/neat/nn"
	"github.com/baldhumanity/mcc-maze/sim"
)

// Evaluate runs every agent in every maze. An agent that reaches an exit
// becomes viable and a maze that is solved becomes viable; each records the
// first partner it succeeded with. Mazes that fail to compile and agents
// whose network cannot be built stay non-viable. Only simulator failures
// are returned.
func Evaluate(agents []*Agent, mazes []*Maze, cfg sim.Config, logger *log.Logger) error {
	logger = orDiscard(logger)

	nets := make([]*nn.FeedForwardNetwork, len(agents))
	for i, a := range agents {
		net, err := nn.CreateFeedForwardNetwork(a.Genome)
		if err != nil {
			logger.Printf("agent %d has no usable network: %v", a.ID, err)
			continue
		}
		nets[i] = net
	}

	for _, m := range mazes {
		ph, err := maze.Compile(m.Genome)
		if err != nil {
			logger.Printf("maze %d does not compile: %v", m.ID, err)
			continue
		}
		steps := cfg.StepBudget(m.Genome.SolutionLength())
		for i, a := range agents {
			if nets[i] == nil {
				continue
			}
			res, err := sim.Simulate(nets[i], ph, steps, false, cfg)
			if err != nil {
				return fmt.Errorf("agent %d in maze %d: %w", a.ID, m.ID, err)
			}
			if !res.ReachedEnd {
				continue
			}
			if !a.Viable {
				a.Viable = true
				a.SolvedMazeID = m.ID
			}
			if !m.Viable {
				m.Viable = true
				m.SolverID = a.ID
			}
		}
	}
	return nil
}
