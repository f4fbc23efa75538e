package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agentSections(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../neat/testdata/agent.ini")
	require.NoError(t, err)
	return string(data)
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := Load("../configs/mcc.ini")
	require.NoError(t, err)

	assert.Equal(t, DefaultMCC(), cfg.MCC)
	assert.Equal(t, DefaultOutput(), cfg.Output)
	assert.Equal(t, 32.0, cfg.Simulator.CellDimension)
	assert.InDelta(t, 0.05, cfg.Maze.IncreaseSize, 1e-12)
	assert.Equal(t, 150, cfg.Neat.Neat.PopSize)
	assert.Equal(t, 2, cfg.MCC.AgentsPerMaze())
	assert.True(t, cfg.MCC.Speciated())
}

func TestMissingSectionsKeepDefaults(t *testing.T) {
	cfg, err := Parse([]byte(agentSections(t) + "\n[MCC]\nexperiment = regular\ngenerations = 7\n"))
	require.NoError(t, err)

	assert.Equal(t, ExperimentRegular, cfg.MCC.Experiment)
	assert.Equal(t, 7, cfg.MCC.Generations)
	assert.Equal(t, 250, cfg.MCC.MazePopulationCapacity)
	assert.False(t, cfg.MCC.Speciated())
	assert.Equal(t, 0.85, cfg.MCC.SpeciationThreshold)
	assert.Equal(t, 8.0, cfg.Simulator.AgentRadius)
	assert.Equal(t, StoreSQLite, cfg.Output.Store)
}

func TestSpeciationThresholdIsParsed(t *testing.T) {
	cfg, err := Parse([]byte(agentSections(t) + "\n[MCC]\nspeciation_threshold = 1.5\n"))
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.MCC.SpeciationThreshold)
	assert.Equal(t, AssignNearest, cfg.MCC.SpeciesAssignment)
}

func TestRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"experiment":       "[MCC]\nexperiment = tournament\n",
		"assignment":       "[MCC]\nspecies_assignment = random\n",
		"zero capacity":    "[MCC]\nmaze_population_capacity = 0\n",
		"species capacity": "[MCC]\nmaze_population_capacity = 5\n",
		"selection":        "[MCC]\nagent_selection_limit = 0\n",
		"seeds":            "[MCC]\nagent_seed_amount = 5\n",
		"maze size":        "[MCC]\ndefault_maze_size = 2\n",
		"threshold":        "[MCC]\nspeciation_threshold = -1\n",
		"probability":      "[Maze]\nadd_wall = 2\n",
		"radius":           "[Simulator]\nagent_radius = 16\n",
		"store":            "[Output]\nstore = postgres\n",
		"scale":            "[Output]\nrender_scale = 0\n",
	}
	for name, section := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(agentSections(t) + "\n" + section))
			assert.Error(t, err)
		})
	}
}

func TestRejectsIncompatibleAgentGenome(t *testing.T) {
	cfg, err := Parse([]byte(agentSections(t)))
	require.NoError(t, err)

	cfg.Neat.Genome.NumInputs = 4
	assert.ErrorContains(t, cfg.Validate(), "10 inputs")

	cfg.Neat.Genome.NumInputs = 10
	cfg.Neat.Genome.FeedForward = false
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.ini")
	assert.Error(t, err)
}
