package analytics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/baldhumanity/mcc-maze/maze"
	"github.com/baldhumanity/mcc-maze/mcc"
	"github.com/baldhumanity/mcc-maze/neat/nn"
	"github.com/baldhumanity/mcc-maze/sim"
)

// meanPairwiseDistance is 0 for fewer than two items.
func meanPairwiseDistance[T any](items []T, distance func(a, b T) float64) float64 {
	if len(items) < 2 {
		return 0
	}
	d := make([]float64, 0, len(items)*(len(items)-1)/2)
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			d = append(d, distance(items[i], items[j]))
		}
	}
	return stat.Mean(d, nil)
}

// MazeDiversity is the mean pairwise genome distance of mazes.
func MazeDiversity(mazes []*mcc.Maze) float64 {
	return meanPairwiseDistance(mazes, (*mcc.Maze).Distance)
}

// AgentDiversity is the mean pairwise genome distance of agents.
func AgentDiversity(agents []*mcc.Agent) float64 {
	return meanPairwiseDistance(agents, (*mcc.Agent).Distance)
}

// Trace replays agent a in maze m and returns the compiled maze, the
// trajectory and whether the agent reached the exit.
func Trace(a *mcc.Agent, m *mcc.Maze, cfg sim.Config) (*maze.Phenotype, sim.Result, error) {
	ph, err := maze.Compile(m.Genome)
	if err != nil {
		return nil, sim.Result{}, fmt.Errorf("maze %d: %w", m.ID, err)
	}
	net, err := nn.CreateFeedForwardNetwork(a.Genome)
	if err != nil {
		return nil, sim.Result{}, fmt.Errorf("agent %d: %w", a.ID, err)
	}
	res, err := sim.Simulate(net, ph, cfg.StepBudget(m.Genome.SolutionLength()), true, cfg)
	if err != nil {
		return nil, sim.Result{}, err
	}
	return ph, res, nil
}
