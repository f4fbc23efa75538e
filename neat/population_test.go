package neat

import (
	"bytes"
	"errors"
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGenerationReturnsWinner(t *testing.T) {
	cfg := loadTestConfig(t)
	pop, err := NewPopulation(cfg)
	require.NoError(t, err)
	require.Len(t, pop.Population, cfg.Neat.PopSize)

	winner, err := pop.RunGeneration(func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = float64(g.Key) / 20
		}
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, 20, winner.Key)
	assert.Same(t, winner, pop.Best())
	assert.Contains(t, pop.Population, winner.Key)
}

func TestRunGenerationReproduces(t *testing.T) {
	cfg := loadTestConfig(t)
	pop, err := NewPopulation(cfg)
	require.NoError(t, err)
	var buf bytes.Buffer
	pop.SetLogger(log.New(&buf, "", 0))

	for gen := 1; gen <= 5; gen++ {
		winner, err := pop.RunGeneration(func(genomes map[int]*Genome) error {
			for _, g := range genomes {
				g.Fitness = 0.1 * float64(len(g.Connections)%5)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Nil(t, winner)
		assert.Equal(t, gen, pop.Generation)
		assert.NotEmpty(t, pop.Population)
	}
	assert.Contains(t, buf.String(), "generation 5")
	assert.NotEmpty(t, pop.SpeciesSet.Species)
}

func TestRunGenerationPropagatesFitnessError(t *testing.T) {
	cfg := loadTestConfig(t)
	pop, err := NewPopulation(cfg)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = pop.RunGeneration(func(map[int]*Genome) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSpeciateAssignsEveryGenome(t *testing.T) {
	cfg := loadTestConfig(t)
	pop, err := NewPopulation(cfg)
	require.NoError(t, err)

	pop.SpeciesSet.Speciate(pop.Population, 1)
	assigned := 0
	for _, s := range pop.SpeciesSet.Species {
		assigned += len(s.Members)
		assert.Contains(t, s.Members, s.Representative.Key)
	}
	assert.Equal(t, len(pop.Population), assigned)
	for key := range pop.Population {
		_, ok := pop.SpeciesSet.GetSpecies(key)
		assert.True(t, ok)
	}
}

func TestComputeSpawnAmountsMatchesPopulation(t *testing.T) {
	amounts := computeSpawnAmounts([]float64{0.1, 0.5, 0.9}, 1.5, []int{10, 5, 5}, 30, 2)
	total := 0
	for _, a := range amounts {
		assert.GreaterOrEqual(t, a, 2)
		total += a
	}
	assert.Equal(t, 30, total)
}

func TestStatFunctions(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.InDelta(t, 2.5, Mean(values), 1e-12)
	assert.InDelta(t, 2.5, Median(values), 1e-12)
	assert.InDelta(t, 10, Sum(values), 1e-12)
	assert.Equal(t, 4.0, MaxFloat(values))
	assert.Equal(t, 1.0, MinFloat(values))
	assert.InDelta(t, math.Sqrt(5.0/3.0), Stdev(values), 1e-12)
	assert.Equal(t, []float64{4, 1, 3, 2}, values)

	assert.Zero(t, Mean(nil))
	assert.True(t, math.IsInf(MaxFloat(nil), -1))
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestActivationLookup(t *testing.T) {
	for _, name := range []string{"sigmoid", "tanh", "relu", "identity", "clamped"} {
		_, err := GetActivation(name)
		assert.NoError(t, err, name)
	}
	_, err := GetActivation("softmax")
	assert.Error(t, err)

	assert.InDelta(t, 0.5, Sigmoid(0), 1e-12)
	assert.Equal(t, 1.0, Clamped(5))
	assert.Equal(t, -3.0, MaxAbs([]float64{1, -3, 2}))
	assert.Equal(t, 1.0, Product(nil))
}
