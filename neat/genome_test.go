package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenome(t *testing.T, cfg *Config, key int) *Genome {
	t.Helper()
	g := NewGenome(key, &cfg.Genome)
	g.ConfigureNew()
	return g
}

func TestConfigureNewFullDirect(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Genome.ConnectionType = "full_direct"

	g := newTestGenome(t, cfg, 1)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Connections, 20)
	for key := range g.Connections {
		assert.Less(t, key.InNodeID, 0)
		assert.GreaterOrEqual(t, key.OutNodeID, 0)
	}
}

func TestConfigureNewHiddenLayer(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Genome.ConnectionType = "full_nodirect"
	cfg.Genome.NumHidden = 3

	g := newTestGenome(t, cfg, 1)
	assert.Len(t, g.Nodes, 5)
	// inputs->hidden plus hidden->outputs, no direct edges
	assert.Len(t, g.Connections, 10*3+3*2)
	assert.Equal(t, []int{2, 3, 4}, g.hiddenKeys())
}

func TestPartialConnectionFraction(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Genome.ConnectionFraction = 0
	assert.Empty(t, newTestGenome(t, cfg, 1).Connections)

	cfg.Genome.ConnectionFraction = 1
	assert.Len(t, newTestGenome(t, cfg, 2).Connections, 20)
}

func TestNewNodeKeySkipsExistingKeys(t *testing.T) {
	cfg := loadTestConfig(t)
	g := newTestGenome(t, cfg, 1)
	g.Nodes[2] = NewNodeGene(2, g.Config)
	g.Nodes[3] = NewNodeGene(3, g.Config)

	assert.Equal(t, 4, g.newNodeKey())
	assert.Equal(t, 5, cfg.Genome.NodeKeyIndex)
}

func TestMutateAddNodeSplitsConnection(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Genome.ConnectionType = "full_direct"
	g := newTestGenome(t, cfg, 1)

	require.True(t, g.mutateAddNode())
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Connections, 22)

	disabled := 0
	for _, c := range g.Connections {
		if !c.Enabled {
			disabled++
		}
	}
	assert.Equal(t, 1, disabled)
}

func TestMutateDeleteConnectionDisables(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Genome.ConnectionType = "full_direct"
	g := newTestGenome(t, cfg, 1)

	require.True(t, g.mutateDeleteConnection())
	assert.Len(t, g.Connections, 20)
	assert.Len(t, g.enabledConnectionKeys(), 19)

	empty := NewGenome(2, &cfg.Genome)
	assert.False(t, empty.mutateDeleteConnection())
}

func TestMutateDeleteNodeRemovesEdges(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Genome.ConnectionType = "full_direct"
	g := newTestGenome(t, cfg, 1)
	require.True(t, g.mutateAddNode())
	hidden := g.hiddenKeys()
	require.Len(t, hidden, 1)

	require.True(t, g.mutateDeleteNode())
	assert.NotContains(t, g.Nodes, hidden[0])
	for key := range g.Connections {
		assert.NotEqual(t, hidden[0], key.InNodeID)
		assert.NotEqual(t, hidden[0], key.OutNodeID)
	}
}

func TestMutationNeverCreatesCycles(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Genome.NodeAddProb = 0.5
	cfg.Genome.ConnAddProb = 0.9
	cfg.Genome.EnabledMutateRate = 0.3
	g := newTestGenome(t, cfg, 1)

	for i := 0; i < 300; i++ {
		g.Mutate()
		for key, conn := range g.Connections {
			if !conn.Enabled {
				continue
			}
			conn.Enabled = false
			assert.False(t, createsCycle(g, key.InNodeID, key.OutNodeID), "edge %v closes a cycle", key)
			conn.Enabled = true
		}
	}
}

func TestCrossoverBreaksCycles(t *testing.T) {
	cfg := loadTestConfig(t)
	a := NewGenome(1, &cfg.Genome)
	b := NewGenome(2, &cfg.Genome)
	for _, g := range []*Genome{a, b} {
		g.Nodes[0] = NewNodeGene(0, g.Config)
		g.Nodes[1] = NewNodeGene(1, g.Config)
		g.Nodes[2] = NewNodeGene(2, g.Config)
	}
	forward := ConnectionKey{InNodeID: 2, OutNodeID: 0}
	backward := ConnectionKey{InNodeID: 0, OutNodeID: 2}
	a.Connections[forward] = &ConnectionGene{Key: forward, Weight: 1, Enabled: true}
	a.Connections[backward] = &ConnectionGene{Key: backward, Weight: 1, Enabled: false}
	b.Connections[forward] = &ConnectionGene{Key: forward, Weight: 1, Enabled: false}
	b.Connections[backward] = &ConnectionGene{Key: backward, Weight: 1, Enabled: true}
	a.Fitness = 1

	for i := 0; i < 50; i++ {
		child := NewGenome(10+i, &cfg.Genome)
		child.ConfigureCrossover(a, b)
		assert.False(t, child.Connections[forward].Enabled && child.Connections[backward].Enabled)
	}
}

func TestCopyIsDeep(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Genome.ConnectionType = "full_direct"
	g := newTestGenome(t, cfg, 1)
	g.Fitness = 0.7

	c := g.Copy()
	assert.Equal(t, g.Fitness, c.Fitness)
	assert.Equal(t, g.Size(), c.Size())
	for key := range c.Connections {
		c.Connections[key].Weight += 100
		assert.NotEqual(t, c.Connections[key].Weight, g.Connections[key].Weight)
	}
	c.Nodes[0].Bias = 99
	assert.NotEqual(t, 99.0, g.Nodes[0].Bias)
}

func TestDistance(t *testing.T) {
	cfg := loadTestConfig(t)
	a := newTestGenome(t, cfg, 1)
	b := newTestGenome(t, cfg, 2)
	for i := 0; i < 10; i++ {
		b.Mutate()
	}

	assert.Zero(t, a.Distance(a))
	assert.InDelta(t, a.Distance(b), b.Distance(a), 1e-9)
	assert.GreaterOrEqual(t, a.Distance(b), 0.0)
}

func TestMaxNodeKey(t *testing.T) {
	cfg := loadTestConfig(t)
	g := NewGenome(1, &cfg.Genome)
	assert.Equal(t, -1, g.MaxNodeKey())
	g.ConfigureNew()
	assert.Equal(t, 1, g.MaxNodeKey())
}
