package nn

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/mcc-maze/neat"
)

// neuron is a node prepared for activation.
type neuron struct {
	key         int
	bias        float64
	response    float64
	activation  neat.ActivationType
	aggregation neat.AggregationType
	inputs      []link
}

type link struct {
	from   int
	weight float64
}

// FeedForwardNetwork is the phenotype of an agent genome. Neurons are
// evaluated once per activation in topological order.
type FeedForwardNetwork struct {
	InputKeys  []int
	OutputKeys []int
	order      []neuron
	values     map[int]float64
}

// CreateFeedForwardNetwork compiles a genome into a network. Only enabled
// connections take part, and neurons that cannot influence an output are
// dropped. It fails for recurrent configurations and for cyclic genomes.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	if !g.Config.FeedForward {
		return nil, fmt.Errorf("cannot create FeedForwardNetwork for a genome configured with feed_forward = false")
	}

	incoming := make(map[int][]link)
	outgoing := make(map[int][]int)
	for key, conn := range g.Connections {
		if !conn.Enabled {
			continue
		}
		incoming[key.OutNodeID] = append(incoming[key.OutNodeID], link{from: key.InNodeID, weight: conn.Weight})
		outgoing[key.InNodeID] = append(outgoing[key.InNodeID], key.OutNodeID)
	}

	required := requiredNodes(g, incoming)

	// Kahn's algorithm over the required neurons. Edges from inputs do not
	// count towards the in-degree since inputs are set before evaluation.
	inDegree := make(map[int]int, len(required))
	ready := make([]int, 0, len(required))
	for key := range required {
		for _, l := range incoming[key] {
			if required[l.from] {
				inDegree[key]++
			}
		}
		if inDegree[key] == 0 {
			ready = append(ready, key)
		}
	}
	sort.Ints(ready)

	net := &FeedForwardNetwork{
		InputKeys:  g.Config.InputKeys,
		OutputKeys: g.Config.OutputKeys,
		values:     make(map[int]float64),
	}
	for len(ready) > 0 {
		key := ready[0]
		ready = ready[1:]

		node, ok := g.Nodes[key]
		if !ok {
			return nil, fmt.Errorf("connection references missing node %d", key)
		}
		act, err := neat.GetActivation(node.Activation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", key, err)
		}
		agg, err := neat.GetAggregation(node.Aggregation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", key, err)
		}
		inputs := append([]link(nil), incoming[key]...)
		sort.Slice(inputs, func(i, j int) bool { return inputs[i].from < inputs[j].from })
		net.order = append(net.order, neuron{
			key:         key,
			bias:        node.Bias,
			response:    node.Response,
			activation:  act,
			aggregation: agg,
			inputs:      inputs,
		})

		next := append([]int(nil), outgoing[key]...)
		sort.Ints(next)
		for _, out := range next {
			if !required[out] {
				continue
			}
			inDegree[out]--
			if inDegree[out] == 0 {
				ready = append(ready, out)
			}
		}
	}

	if len(net.order) != len(required) {
		return nil, fmt.Errorf("failed topological sort: cycle detected (expected %d nodes, got %d)", len(required), len(net.order))
	}
	return net, nil
}

// requiredNodes returns the non-input nodes that have a path to an output,
// outputs included.
func requiredNodes(g *neat.Genome, incoming map[int][]link) map[int]bool {
	inputs := make(map[int]bool, len(g.Config.InputKeys))
	for _, k := range g.Config.InputKeys {
		inputs[k] = true
	}
	required := make(map[int]bool)
	stack := append([]int(nil), g.Config.OutputKeys...)
	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if required[key] || inputs[key] {
			continue
		}
		required[key] = true
		for _, l := range incoming[key] {
			stack = append(stack, l.from)
		}
	}
	return required
}

// Activate feeds one input vector through the network. The input count must
// match the configured inputs. Outputs with no incoming path still apply
// their bias. A network keeps its node values between calls, so it must not
// be activated concurrently.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.InputKeys) {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), len(net.InputKeys))
	}
	for i, key := range net.InputKeys {
		net.values[key] = inputs[i]
	}

	var buf []float64
	for _, n := range net.order {
		buf = buf[:0]
		for _, l := range n.inputs {
			buf = append(buf, net.values[l.from]*l.weight)
		}
		agg := 0.0
		if len(buf) > 0 {
			agg = n.aggregation(buf)
		}
		net.values[n.key] = n.activation(n.bias + n.response*agg)
	}

	outputs := make([]float64, len(net.OutputKeys))
	for i, key := range net.OutputKeys {
		outputs[i] = net.values[key]
	}
	return outputs, nil
}
