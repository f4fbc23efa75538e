package neat

import (
	"fmt"
	"math/rand"
	"sort"
)

// Genome is an agent genotype: a set of node genes and connection genes that
// compile into a feed-forward controller.
type Genome struct {
	Key         int
	Nodes       map[int]*NodeGene
	Connections map[ConnectionKey]*ConnectionGene
	Fitness     float64
	// Config is shared by every genome of a population. It also carries the
	// node key indexer, so it must not be shared across goroutines.
	Config *GenomeConfig
}

// NewGenome creates an empty genome.
func NewGenome(key int, config *GenomeConfig) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Config:      config,
	}
}

// ConfigureNew creates the output and hidden nodes and the initial
// connections named by initial_connection.
func (g *Genome) ConfigureNew() {
	for _, key := range g.Config.OutputKeys {
		g.Nodes[key] = NewNodeGene(key, g.Config)
	}
	for i := 0; i < g.Config.NumHidden; i++ {
		key := g.newNodeKey()
		g.Nodes[key] = NewNodeGene(key, g.Config)
	}
	g.setupInitialConnections()
}

// setupInitialConnections wires the genome according to the connection type.
// The fs_neat variants connect a single random input. The full and partial
// variants connect inputs to hidden nodes and hidden nodes to outputs, and
// inputs straight to outputs when the type is direct or there are no hidden
// nodes. Partial variants keep each candidate with ConnectionFraction.
func (g *Genome) setupInitialConnections() {
	inputs := g.Config.InputKeys
	outputs := g.Config.OutputKeys
	hidden := g.hiddenKeys()
	fraction := 1.0

	switch g.Config.ConnectionType {
	case "unconnected", "":
		return
	case "fs_neat_nohidden":
		in := inputs[rand.Intn(len(inputs))]
		g.connectAll([]int{in}, outputs, fraction)
		return
	case "fs_neat", "fs_neat_hidden":
		in := inputs[rand.Intn(len(inputs))]
		g.connectAll([]int{in}, hidden, fraction)
		g.connectAll([]int{in}, outputs, fraction)
		return
	case "partial", "partial_nodirect", "partial_direct":
		fraction = g.Config.ConnectionFraction
	case "full", "full_nodirect", "full_direct":
	default:
		panic(fmt.Sprintf("invalid initial_connection type in genome configuration: %s", g.Config.ConnectionType))
	}

	direct := g.Config.ConnectionType == "full_direct" || g.Config.ConnectionType == "partial_direct"
	g.connectAll(inputs, hidden, fraction)
	g.connectAll(hidden, outputs, fraction)
	if direct || len(hidden) == 0 {
		g.connectAll(inputs, outputs, fraction)
	}
	if !g.Config.FeedForward {
		for key := range g.Nodes {
			g.connectAll([]int{key}, []int{key}, fraction)
		}
	}
}

func (g *Genome) connectAll(from, to []int, fraction float64) {
	for _, in := range from {
		for _, out := range to {
			if fraction < 1 && rand.Float64() >= fraction {
				continue
			}
			key := ConnectionKey{InNodeID: in, OutNodeID: out}
			g.Connections[key] = NewConnectionGene(key, g.Config)
		}
	}
}

// hiddenKeys returns the sorted keys of nodes that are not outputs.
func (g *Genome) hiddenKeys() []int {
	outputs := make(map[int]bool, len(g.Config.OutputKeys))
	for _, k := range g.Config.OutputKeys {
		outputs[k] = true
	}
	hidden := make([]int, 0, len(g.Nodes))
	for k := range g.Nodes {
		if !outputs[k] {
			hidden = append(hidden, k)
		}
	}
	sort.Ints(hidden)
	return hidden
}

// newNodeKey allocates a key from the config indexer, skipping any key the
// genome already holds. Seeds evolved in separate populations can carry keys
// the shared indexer has not handed out yet.
func (g *Genome) newNodeKey() int {
	for {
		key := g.Config.GetNewNodeKey()
		if _, taken := g.Nodes[key]; !taken {
			return key
		}
	}
}

// MaxNodeKey returns the largest node key in the genome, or -1 when empty.
func (g *Genome) MaxNodeKey() int {
	maxKey := -1
	for k := range g.Nodes {
		if k > maxKey {
			maxKey = k
		}
	}
	return maxKey
}

// ConfigureCrossover fills g from two parents. Nodes and disjoint
// connections come from the fitter parent; homologous genes mix.
func (g *Genome) ConfigureCrossover(parent1, parent2 *Genome) {
	if parent1.Fitness < parent2.Fitness {
		parent1, parent2 = parent2, parent1
	}
	g.Config = parent1.Config

	for key, node := range parent1.Nodes {
		if other, ok := parent2.Nodes[key]; ok {
			g.Nodes[key] = node.Crossover(other)
		} else {
			g.Nodes[key] = node.Copy()
		}
	}
	for key, conn := range parent1.Connections {
		if other, ok := parent2.Connections[key]; ok {
			g.Connections[key] = conn.Crossover(other)
		} else {
			g.Connections[key] = conn.Copy()
		}
	}
	if g.Config.FeedForward {
		g.breakCycles()
	}
}

// Copy returns a deep copy sharing the same config.
func (g *Genome) Copy() *Genome {
	c := NewGenome(g.Key, g.Config)
	c.Fitness = g.Fitness
	for k, n := range g.Nodes {
		c.Nodes[k] = n.Copy()
	}
	for k, conn := range g.Connections {
		c.Connections[k] = conn.Copy()
	}
	return c
}

// Size is the number of node and connection genes.
func (g *Genome) Size() int {
	return len(g.Nodes) + len(g.Connections)
}

// Mutate applies structural mutations by their probabilities, then mutates
// the attributes of every gene. With single_structural_mutation at most one
// structural change is made.
func (g *Genome) Mutate() {
	cfg := g.Config
	structural := []struct {
		prob float64
		op   func() bool
	}{
		{cfg.NodeAddProb, g.mutateAddNode},
		{cfg.ConnAddProb, g.mutateAddConnection},
		{cfg.NodeDeleteProb, g.mutateDeleteNode},
		{cfg.ConnDeleteProb, g.mutateDeleteConnection},
	}
	for _, s := range structural {
		if rand.Float64() < s.prob && s.op() && cfg.SingleStructuralMutation {
			break
		}
	}

	for _, node := range g.Nodes {
		node.Mutate(cfg)
	}
	for _, conn := range g.Connections {
		conn.Mutate(g, cfg)
	}
}

// mutateAddNode splits a random enabled connection. The old edge is
// disabled; the incoming half gets weight 1 and the outgoing half keeps the
// old weight.
func (g *Genome) mutateAddNode() bool {
	enabled := g.enabledConnectionKeys()
	if len(enabled) == 0 {
		return false
	}
	split := g.Connections[enabled[rand.Intn(len(enabled))]]
	split.Enabled = false

	key := g.newNodeKey()
	g.Nodes[key] = NewNodeGene(key, g.Config)

	inKey := ConnectionKey{InNodeID: split.Key.InNodeID, OutNodeID: key}
	in := NewConnectionGene(inKey, g.Config)
	in.Weight = 1.0
	in.Enabled = true
	g.Connections[inKey] = in

	outKey := ConnectionKey{InNodeID: key, OutNodeID: split.Key.OutNodeID}
	out := NewConnectionGene(outKey, g.Config)
	out.Weight = split.Weight
	out.Enabled = true
	g.Connections[outKey] = out
	return true
}

// mutateAddConnection tries up to 20 random endpoint pairs for a new edge.
// Inputs are never targets, and feed-forward genomes reject cycles.
func (g *Genome) mutateAddConnection() bool {
	sources := append([]int(nil), g.Config.InputKeys...)
	targets := make([]int, 0, len(g.Nodes))
	for k := range g.Nodes {
		sources = append(sources, k)
		targets = append(targets, k)
	}
	if len(targets) == 0 {
		return false
	}
	sort.Ints(sources)
	sort.Ints(targets)

	for attempt := 0; attempt < 20; attempt++ {
		key := ConnectionKey{
			InNodeID:  sources[rand.Intn(len(sources))],
			OutNodeID: targets[rand.Intn(len(targets))],
		}
		if _, exists := g.Connections[key]; exists {
			continue
		}
		if g.Config.FeedForward && createsCycle(g, key.InNodeID, key.OutNodeID) {
			continue
		}
		g.Connections[key] = NewConnectionGene(key, g.Config)
		return true
	}
	return false
}

// mutateDeleteNode removes a random hidden node with every connection that
// touches it.
func (g *Genome) mutateDeleteNode() bool {
	hidden := g.hiddenKeys()
	if len(hidden) == 0 {
		return false
	}
	victim := hidden[rand.Intn(len(hidden))]
	for key := range g.Connections {
		if key.InNodeID == victim || key.OutNodeID == victim {
			delete(g.Connections, key)
		}
	}
	delete(g.Nodes, victim)
	return true
}

// mutateDeleteConnection disables a random enabled connection. The gene is
// kept so its innovation still aligns during crossover.
func (g *Genome) mutateDeleteConnection() bool {
	enabled := g.enabledConnectionKeys()
	if len(enabled) == 0 {
		return false
	}
	g.Connections[enabled[rand.Intn(len(enabled))]].Enabled = false
	return true
}

// enabledConnectionKeys returns the enabled connection keys in sorted order.
func (g *Genome) enabledConnectionKeys() []ConnectionKey {
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k, conn := range g.Connections {
		if conn.Enabled {
			keys = append(keys, k)
		}
	}
	sortConnectionKeys(keys)
	return keys
}

// breakCycles disables enabled connections that close a loop. Crossover can
// combine the enabled flags of two acyclic parents into a cyclic child.
func (g *Genome) breakCycles() {
	enabled := g.enabledConnectionKeys()
	for _, k := range enabled {
		g.Connections[k].Enabled = false
	}
	for _, k := range enabled {
		if !createsCycle(g, k.InNodeID, k.OutNodeID) {
			g.Connections[k].Enabled = true
		}
	}
}

func sortConnectionKeys(keys []ConnectionKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].InNodeID != keys[j].InNodeID {
			return keys[i].InNodeID < keys[j].InNodeID
		}
		return keys[i].OutNodeID < keys[j].OutNodeID
	})
}

// Distance is the NEAT compatibility distance:
//
//	c1 * disjoint / N + c2 * mean attribute difference of matching genes
//
// where N is the connection count of the larger genome.
func (g *Genome) Distance(other *Genome) float64 {
	disjoint := 0
	matching := 0
	diff := 0.0
	for key, conn := range g.Connections {
		if o, ok := other.Connections[key]; ok {
			diff += conn.Distance(o)
			matching++
		} else {
			disjoint++
		}
	}
	for key := range other.Connections {
		if _, ok := g.Connections[key]; !ok {
			disjoint++
		}
	}

	n := float64(len(g.Connections))
	if m := float64(len(other.Connections)); m > n {
		n = m
	}
	if n < 1 {
		n = 1
	}

	d := g.Config.CompatibilityDisjointCoefficient * float64(disjoint) / n
	if matching > 0 {
		d += g.Config.CompatibilityWeightCoefficient * diff / float64(matching)
	}
	return d
}

func (g *Genome) String() string {
	return fmt.Sprintf("Genome(Key: %d, Fitness: %.4f, Nodes: %d, Connections: %d)",
		g.Key, g.Fitness, len(g.Nodes), len(g.Connections))
}

// createsCycle reports whether adding inNode->outNode would close a loop over
// the enabled connections.
func createsCycle(genome *Genome, inNode, outNode int) bool {
	if inNode == outNode {
		return true
	}
	adjacency := make(map[int][]int)
	for key, conn := range genome.Connections {
		if conn.Enabled {
			adjacency[key.InNodeID] = append(adjacency[key.InNodeID], key.OutNodeID)
		}
	}

	visited := map[int]bool{outNode: true}
	queue := []int{outNode}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if next == inNode {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
