package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

const testConfigPath = "testdata/agent.ini"

func loadTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfig(testConfigPath)
	require.NoError(t, err)
	return cfg
}

func TestLoadConfig(t *testing.T) {
	cfg := loadTestConfig(t)

	assert.Equal(t, 20, cfg.Neat.PopSize)
	assert.True(t, cfg.Neat.ResetOnExtinction)
	assert.True(t, cfg.Genome.FeedForward)
	assert.Equal(t, []string{"tanh", "sigmoid"}, cfg.Genome.ActivationOptions)
	assert.Equal(t, []int{-1, -2, -3, -4, -5, -6, -7, -8, -9, -10}, cfg.Genome.InputKeys)
	assert.Equal(t, []int{0, 1}, cfg.Genome.OutputKeys)
	assert.Equal(t, 2, cfg.Genome.NodeKeyIndex)
	assert.Equal(t, "partial_direct", cfg.Genome.ConnectionType)
	assert.InDelta(t, 0.5, cfg.Genome.ConnectionFraction, 1e-12)

	// Unset keys fall back to defaults.
	assert.Equal(t, "gaussian", cfg.Genome.ResponseInitType)
	assert.Equal(t, 1, cfg.Reproduction.MinSpeciesSize)
}

func TestConfigFromFileRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		section string
		key     string
		value   string
	}{
		{"unknown activation", "DefaultGenome", "activation_options", "tanh bogus"},
		{"unknown aggregation", "DefaultGenome", "aggregation_options", "sum nope"},
		{"fraction out of range", "DefaultGenome", "initial_connection", "partial_direct 1.5"},
		{"fraction on full", "DefaultGenome", "initial_connection", "full_direct 0.5"},
		{"unknown connection", "DefaultGenome", "initial_connection", "sparse"},
		{"probability", "DefaultGenome", "conn_add_prob", "1.5"},
		{"zero population", "NEAT", "pop_size", "0"},
		{"criterion", "NEAT", "fitness_criterion", "best"},
		{"species fitness", "DefaultStagnation", "species_fitness_func", "mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			file, err := ini.LoadSources(LoadOptions, testConfigPath)
			require.NoError(t, err)
			file.Section(tc.section).Key(tc.key).SetValue(tc.value)

			_, err = ConfigFromFile(file)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("testdata/missing.ini")
	assert.Error(t, err)
}

func TestCloneHasIndependentIndexer(t *testing.T) {
	cfg := loadTestConfig(t)
	clone := cfg.Clone()

	clone.Genome.GetNewNodeKey()
	clone.Genome.GetNewNodeKey()
	clone.Genome.ActivationOptions[0] = "relu"

	assert.Equal(t, 2, cfg.Genome.NodeKeyIndex)
	assert.Equal(t, 4, clone.Genome.NodeKeyIndex)
	assert.Equal(t, "tanh", cfg.Genome.ActivationOptions[0])
}

func TestEnsureNodeKeyAbove(t *testing.T) {
	gc := &GenomeConfig{NodeKeyIndex: 2}
	gc.EnsureNodeKeyAbove(9)
	assert.Equal(t, 10, gc.GetNewNodeKey())
	gc.EnsureNodeKeyAbove(3)
	assert.Equal(t, 11, gc.GetNewNodeKey())
}
