package mcc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/mcc-maze/config"
)

// seedConfig is testConfig with the searches of two mazes, two solvers
// each, spread over four workers.
func seedConfig(t *testing.T, experiment string) *config.Config {
	t.Helper()
	cfg := testConfig(t, experiment)
	cfg.MCC.SeedWorkers = 4
	return cfg
}

func findSeeds(t *testing.T, cfg *config.Config, ids *SeedIDs) (*SeedFinder, []Seed) {
	t.Helper()
	finder := NewSeedFinder(cfg, ids, nil)
	seeds, err := finder.Find(context.Background(), cfg.MCC.MazeSeedAmount, cfg.MCC.AgentsPerMaze())
	require.NoError(t, err)
	return finder, seeds
}

func TestFindSeeds(t *testing.T) {
	cfg := seedConfig(t, config.ExperimentReplacement)
	ids := NewSeedIDs()
	finder := NewSeedFinder(cfg, ids, nil)

	seeds, err := finder.Find(context.Background(), 4, 2)
	require.NoError(t, err)
	require.Len(t, seeds, 4)
	assert.Equal(t, 4, ids.Mazes.NextID)
	assert.Equal(t, 8, ids.Agents.NextID)

	agentIDs := map[int]bool{}
	for i, s := range seeds {
		assert.Equal(t, i, s.Maze.ID)
		assert.True(t, s.Maze.Viable)
		assert.Equal(t, cfg.MCC.DefaultMazeSize, s.Maze.Size())
		require.Len(t, s.Agents, 2)
		assert.Equal(t, s.Agents[0].ID, s.Maze.SolverID)
		for _, a := range s.Agents {
			assert.True(t, a.Viable)
			assert.Equal(t, s.Maze.ID, a.SolvedMazeID)
			assert.Equal(t, a.ID, a.Genome.Key)
			assert.Same(t, &cfg.Neat.Genome, a.Genome.Config)
			assert.False(t, agentIDs[a.ID])
			agentIDs[a.ID] = true
		}

		// The pair still meets the criterion when evaluated from scratch.
		m := s.Maze.Clone()
		m.Viable = false
		agents := []*Agent{s.Agents[0].Clone(), s.Agents[1].Clone()}
		for _, a := range agents {
			a.Viable = false
		}
		require.NoError(t, Evaluate(agents, []*Maze{m}, cfg.Simulator, nil))
		assert.True(t, m.Viable)
		assert.Equal(t, s.Agents[0].ID, m.SolverID)
		for _, a := range agents {
			assert.True(t, a.Viable)
			assert.Equal(t, m.ID, a.SolvedMazeID)
		}
	}
}

func TestFindSeedsCancelled(t *testing.T) {
	cfg := seedConfig(t, config.ExperimentReplacement)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSeedFinder(cfg, NewSeedIDs(), nil).Find(ctx, 2, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindAgentForMaze(t *testing.T) {
	cfg := seedConfig(t, config.ExperimentReplacement)
	ids := NewSeedIDs()
	finder, seeds := findSeeds(t, cfg, ids)
	target := seeds[1].Maze

	a, err := finder.FindAgentForMaze(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 4, a.ID)
	assert.Equal(t, 5, ids.Agents.NextID)
	assert.True(t, a.Viable)
	assert.Equal(t, target.ID, a.SolvedMazeID)

	m := target.Clone()
	m.Viable = false
	c := a.Clone()
	c.Viable = false
	require.NoError(t, Evaluate([]*Agent{c}, []*Maze{m}, cfg.Simulator, nil))
	assert.True(t, c.Viable)
	assert.Equal(t, a.ID, m.SolverID)
}

func TestEvaluateFirstSolverWins(t *testing.T) {
	cfg := seedConfig(t, config.ExperimentRegular)
	_, seeds := findSeeds(t, cfg, NewSeedIDs())
	s := seeds[0]

	still := NewAgent(50, stillGenome(cfg, 50))
	first, second := s.Agents[0].Clone(), s.Agents[1].Clone()
	first.SetID(60)
	second.SetID(61)
	agents := []*Agent{still, first, second}
	for _, a := range agents {
		a.Viable = false
	}
	a, b := s.Maze.Clone(), s.Maze.Clone()
	a.SetID(70)
	b.SetID(71)
	a.Viable, b.Viable = false, false

	require.NoError(t, Evaluate(agents, []*Maze{a, b}, cfg.Simulator, nil))
	assert.False(t, still.Viable)
	assert.Equal(t, -1, still.SolvedMazeID)
	assert.True(t, first.Viable)
	assert.True(t, second.Viable)
	// Both agents solve both mazes; each side keeps its first partner.
	assert.Equal(t, 70, first.SolvedMazeID)
	assert.Equal(t, 70, second.SolvedMazeID)
	assert.True(t, a.Viable)
	assert.True(t, b.Viable)
	assert.Equal(t, 60, a.SolverID)
	assert.Equal(t, 60, b.SolverID)
}

func TestSolvingChildIsAdmitted(t *testing.T) {
	cfg := seedConfig(t, config.ExperimentRegular)
	ids := NewSeedIDs()
	_, seeds := findSeeds(t, cfg, ids)
	e, err := NewEngine(cfg, seeds, nil, ids, nil)
	require.NoError(t, err)
	require.Equal(t, 4, e.Agents.Len())

	child := seeds[0].Agents[0].Clone()
	child.SetID(e.AgentIDs.Next())
	child.Viable = false
	require.NoError(t, Evaluate([]*Agent{child}, e.Mazes.Items(), cfg.Simulator, nil))
	require.True(t, child.Viable)
	assert.Equal(t, seeds[0].Maze.ID, child.SolvedMazeID)
	// The founder maze keeps its solver of record.
	assert.Equal(t, seeds[0].Agents[0].ID, seeds[0].Maze.SolverID)

	assert.Equal(t, 1, admitViable(e.Agents, []*Agent{child}))
	assert.Equal(t, 5, e.Agents.Len())
	items := e.Agents.Items()
	assert.Same(t, child, items[len(items)-1])
}

func TestEngineRunFromSeeds(t *testing.T) {
	cfg := seedConfig(t, config.ExperimentRegular)
	cfg.MCC.Generations = 4
	ids := NewSeedIDs()
	_, seeds := findSeeds(t, cfg, ids)
	e, err := NewEngine(cfg, seeds, nil, ids, nil)
	require.NoError(t, err)

	admitted := 0
	e.Observer = ObserverFunc(func(_ context.Context, s GenerationStatistics) error {
		admitted += s.AdmittedAgents
		return nil
	})
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 4, e.Generation)
	assert.Equal(t, min(4+admitted, cfg.MCC.AgentPopulationCapacity), e.Agents.Len())

	for _, m := range e.Mazes.Items() {
		assert.True(t, m.Viable)
		assert.GreaterOrEqual(t, m.SolverID, 0)
	}
	for _, a := range e.Agents.Items() {
		assert.True(t, a.Viable)
		assert.Less(t, a.SolvedMazeID, e.MazeIDs.NextID)
		assert.GreaterOrEqual(t, a.SolvedMazeID, 0)
	}
}

func TestReplacementUpdate(t *testing.T) {
	cfg := seedConfig(t, config.ExperimentReplacement)
	ids := NewSeedIDs()
	finder, seeds := findSeeds(t, cfg, ids)
	e, err := NewEngine(cfg, seeds, finder, ids, nil)
	require.NoError(t, err)
	require.IsType(t, &ReplacementController{}, e.Controller)

	// Every species holds only its founder, so all of them count as empty.
	require.NoError(t, e.Controller.Update(context.Background(), e))

	agents, _ := e.SpeciatedAgents()
	mazes, _ := e.SpeciatedMazes()
	var agentSpecies, mazeSpecies []int
	for _, s := range agents.Species() {
		agentSpecies = append(agentSpecies, s.ID)
	}
	for _, s := range mazes.Species() {
		mazeSpecies = append(mazeSpecies, s.ID)
	}
	// Two seed pairs refound maze species 0 and 1 with agent species 0 and
	// 1, agent species 2 gets an agent for the smallest maze and the
	// worst maze species, the first on a tie, is refounded at random.
	assert.Equal(t, []int{4, 5, 6, 3}, agentSpecies)
	assert.Equal(t, []int{4, 3}, mazeSpecies)
	assert.Equal(t, 8, agents.Capacity())
	assert.Equal(t, 8, mazes.Capacity())

	founder := func(s *Species[*Agent]) *Agent { return s.Queue.Items()[0] }
	paired := mazes.Species()[1].Queue.Items()[0]
	assert.Equal(t, 3, paired.ID)
	assert.True(t, paired.Viable)
	assert.Equal(t, 5, paired.SolverID)
	assert.Equal(t, 5, founder(agents.Species()[1]).ID)
	assert.Equal(t, 3, founder(agents.Species()[1]).SolvedMazeID)
	assert.Equal(t, 4, founder(agents.Species()[0]).ID)
	assert.Equal(t, 2, founder(agents.Species()[0]).SolvedMazeID)
	assert.Equal(t, 6, founder(agents.Species()[2]).ID)
	assert.Equal(t, 2, founder(agents.Species()[2]).SolvedMazeID)

	random := mazes.Species()[0].Queue.Items()[0]
	assert.Equal(t, 4, random.ID)
	assert.False(t, random.Viable)
	assert.Equal(t, cfg.MCC.DefaultMazeSize, random.Size())
	assert.Equal(t, 5, ids.Mazes.NextID)
	assert.Equal(t, 7, ids.Agents.NextID)
}

func TestReplacementRun(t *testing.T) {
	cfg := seedConfig(t, config.ExperimentReplacement)
	cfg.MCC.Generations = 6
	ids := NewSeedIDs()
	finder, seeds := findSeeds(t, cfg, ids)
	e, err := NewEngine(cfg, seeds, finder, ids, nil)
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 6, e.Generation)

	agents, _ := e.SpeciatedAgents()
	mazes, _ := e.SpeciatedMazes()
	assert.Len(t, agents.Species(), 4)
	assert.Len(t, mazes.Species(), 2)
	assert.Equal(t, 8, agents.Capacity())
	assert.Equal(t, 8, mazes.Capacity())
	assert.LessOrEqual(t, agents.Len(), 8)
	assert.LessOrEqual(t, mazes.Len(), 8)

	// Updates after generations 2 and 4 each refound at least the worst
	// maze species.
	newest := 0
	for _, s := range mazes.Species() {
		newest = max(newest, s.ID)
	}
	assert.GreaterOrEqual(t, newest, 3)
	for _, a := range agents.Items() {
		assert.True(t, a.Viable)
		assert.GreaterOrEqual(t, a.SolvedMazeID, 0)
	}
}
