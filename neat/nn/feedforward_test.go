package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/mcc-maze/neat"
)

func linearGenome() *neat.Genome {
	cfg := &neat.GenomeConfig{
		NumInputs:   2,
		NumOutputs:  1,
		FeedForward: true,
		InputKeys:   []int{-1, -2},
		OutputKeys:  []int{0},
	}
	g := neat.NewGenome(1, cfg)
	for _, key := range []int{0, 5} {
		g.Nodes[key] = &neat.NodeGene{Key: key, Response: 1, Activation: "identity", Aggregation: "sum"}
	}
	g.Nodes[0].Bias = 0.5
	add := func(in, out int, w float64, enabled bool) {
		k := neat.ConnectionKey{InNodeID: in, OutNodeID: out}
		g.Connections[k] = &neat.ConnectionGene{Key: k, Weight: w, Enabled: enabled}
	}
	add(-1, 5, 2, true)
	add(5, 0, 3, true)
	add(-2, 0, -1, true)
	add(-1, 0, 100, false)
	return g
}

func TestActivateWeightedSum(t *testing.T) {
	net, err := CreateFeedForwardNetwork(linearGenome())
	require.NoError(t, err)

	out, err := net.Activate([]float64{1, 4})
	require.NoError(t, err)
	// 0.5 + 3*(2*1) + (-1*4)
	assert.Equal(t, []float64{2.5}, out)

	out, err = net.Activate([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, out)
}

func TestActivateRejectsWrongInputCount(t *testing.T) {
	net, err := CreateFeedForwardNetwork(linearGenome())
	require.NoError(t, err)

	_, err = net.Activate([]float64{1})
	assert.Error(t, err)
}

func TestUnreachableNodesArePruned(t *testing.T) {
	g := linearGenome()
	g.Nodes[7] = &neat.NodeGene{Key: 7, Response: 1, Activation: "identity", Aggregation: "sum"}
	k := neat.ConnectionKey{InNodeID: -1, OutNodeID: 7}
	g.Connections[k] = &neat.ConnectionGene{Key: k, Weight: 1, Enabled: true}

	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)
	assert.Len(t, net.order, 2)
}

func TestCycleIsRejected(t *testing.T) {
	g := linearGenome()
	k := neat.ConnectionKey{InNodeID: 0, OutNodeID: 5}
	g.Connections[k] = &neat.ConnectionGene{Key: k, Weight: 1, Enabled: true}

	_, err := CreateFeedForwardNetwork(g)
	assert.ErrorContains(t, err, "cycle")
}

func TestMissingNodeIsRejected(t *testing.T) {
	g := linearGenome()
	k := neat.ConnectionKey{InNodeID: 9, OutNodeID: 0}
	g.Connections[k] = &neat.ConnectionGene{Key: k, Weight: 1, Enabled: true}

	_, err := CreateFeedForwardNetwork(g)
	assert.ErrorContains(t, err, "missing node 9")
}

func TestRecurrentConfigIsRejected(t *testing.T) {
	g := linearGenome()
	g.Config.FeedForward = false

	_, err := CreateFeedForwardNetwork(g)
	assert.Error(t, err)
}

func TestMutatedGenomesCompile(t *testing.T) {
	cfg, err := neat.LoadConfig("../testdata/agent.ini")
	require.NoError(t, err)

	g := neat.NewGenome(1, &cfg.Genome)
	g.ConfigureNew()
	inputs := make([]float64, cfg.Genome.NumInputs)
	for i := range inputs {
		inputs[i] = 0.5
	}
	for i := 0; i < 200; i++ {
		g.Mutate()
		net, err := CreateFeedForwardNetwork(g)
		require.NoError(t, err, "after %d mutations: %s", i+1, g)
		out, err := net.Activate(inputs)
		require.NoError(t, err)
		require.Len(t, out, 2)
	}
}
