package neat

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// --------------------------- NodeGene ---------------------------

// NodeGene is a hidden or output neuron. Input nodes have no gene; they are
// identified by the negative keys in GenomeConfig.InputKeys.
type NodeGene struct {
	Key         int
	Bias        float64
	Response    float64
	Activation  string
	Aggregation string
}

// NewNodeGene creates a node with attributes drawn from the config.
func NewNodeGene(key int, config *GenomeConfig) *NodeGene {
	return &NodeGene{
		Key:         key,
		Bias:        initFloat(config.BiasInitMean, config.BiasInitStdev, config.BiasInitType, config.BiasMinValue, config.BiasMaxValue),
		Response:    initFloat(config.ResponseInitMean, config.ResponseInitStdev, config.ResponseInitType, config.ResponseMinValue, config.ResponseMaxValue),
		Activation:  initChoice(config.ActivationDefault, config.ActivationOptions),
		Aggregation: initChoice(config.AggregationDefault, config.AggregationOptions),
	}
}

func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(Key: %d, Bias: %.3f, Response: %.3f, Activation: %s, Aggregation: %s)",
		ng.Key, ng.Bias, ng.Response, ng.Activation, ng.Aggregation)
}

// Copy creates a deep copy of the NodeGene.
func (ng *NodeGene) Copy() *NodeGene {
	c := *ng
	return &c
}

// Mutate perturbs or replaces each attribute according to its rates.
func (ng *NodeGene) Mutate(config *GenomeConfig) {
	ng.Bias = mutateFloat(ng.Bias, floatRates{
		mutate: config.BiasMutateRate, replace: config.BiasReplaceRate, power: config.BiasMutatePower,
		mean: config.BiasInitMean, stdev: config.BiasInitStdev, initType: config.BiasInitType,
		min: config.BiasMinValue, max: config.BiasMaxValue,
	})
	ng.Response = mutateFloat(ng.Response, floatRates{
		mutate: config.ResponseMutateRate, replace: config.ResponseReplaceRate, power: config.ResponseMutatePower,
		mean: config.ResponseInitMean, stdev: config.ResponseInitStdev, initType: config.ResponseInitType,
		min: config.ResponseMinValue, max: config.ResponseMaxValue,
	})
	ng.Activation = mutateChoice(ng.Activation, config.ActivationMutateRate, config.ActivationOptions)
	ng.Aggregation = mutateChoice(ng.Aggregation, config.AggregationMutateRate, config.AggregationOptions)
}

// Distance is the attribute distance between two homologous nodes.
func (ng *NodeGene) Distance(other *NodeGene) float64 {
	d := math.Abs(ng.Bias-other.Bias) + math.Abs(ng.Response-other.Response)
	if ng.Activation != other.Activation {
		d++
	}
	if ng.Aggregation != other.Aggregation {
		d++
	}
	return d
}

// Crossover inherits each attribute from either parent with equal odds.
func (ng *NodeGene) Crossover(other *NodeGene) *NodeGene {
	child := ng.Copy()
	if rand.Float64() < 0.5 {
		child.Bias = other.Bias
	}
	if rand.Float64() < 0.5 {
		child.Response = other.Response
	}
	if rand.Float64() < 0.5 {
		child.Activation = other.Activation
	}
	if rand.Float64() < 0.5 {
		child.Aggregation = other.Aggregation
	}
	return child
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionKey identifies a connection by its endpoints. It doubles as the
// innovation marker when aligning genomes.
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

// ConnectionGene is a weighted edge between two nodes.
type ConnectionGene struct {
	Key     ConnectionKey
	Weight  float64
	Enabled bool
}

// NewConnectionGene creates a connection with attributes drawn from the config.
func NewConnectionGene(key ConnectionKey, config *GenomeConfig) *ConnectionGene {
	return &ConnectionGene{
		Key:     key,
		Weight:  initFloat(config.WeightInitMean, config.WeightInitStdev, config.WeightInitType, config.WeightMinValue, config.WeightMaxValue),
		Enabled: parseBoolAttribute(config.EnabledDefault),
	}
}

func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(Key: %d->%d, Weight: %.3f, Enabled: %t)",
		cg.Key.InNodeID, cg.Key.OutNodeID, cg.Weight, cg.Enabled)
}

// Copy creates a deep copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// Mutate perturbs the weight and may toggle the enabled flag. Re-enabling is
// refused when the genome is feed-forward and the edge would close a cycle.
func (cg *ConnectionGene) Mutate(genome *Genome, config *GenomeConfig) {
	cg.Weight = mutateFloat(cg.Weight, floatRates{
		mutate: config.WeightMutateRate, replace: config.WeightReplaceRate, power: config.WeightMutatePower,
		mean: config.WeightInitMean, stdev: config.WeightInitStdev, initType: config.WeightInitType,
		min: config.WeightMinValue, max: config.WeightMaxValue,
	})

	rate := config.EnabledMutateRate
	if cg.Enabled {
		rate += config.EnabledRateToFalseAdd
	} else {
		rate += config.EnabledRateToTrueAdd
	}
	if rate <= 0 || rand.Float64() >= rate {
		return
	}
	enable := rand.Float64() < 0.5
	if enable && !cg.Enabled && config.FeedForward && createsCycle(genome, cg.Key.InNodeID, cg.Key.OutNodeID) {
		return
	}
	cg.Enabled = enable
}

// Distance is the attribute distance between two homologous connections.
func (cg *ConnectionGene) Distance(other *ConnectionGene) float64 {
	d := math.Abs(cg.Weight - other.Weight)
	if cg.Enabled != other.Enabled {
		d++
	}
	return d
}

// Crossover inherits each attribute from either parent with equal odds.
func (cg *ConnectionGene) Crossover(other *ConnectionGene) *ConnectionGene {
	child := cg.Copy()
	if rand.Float64() < 0.5 {
		child.Weight = other.Weight
	}
	if rand.Float64() < 0.5 {
		child.Enabled = other.Enabled
	}
	return child
}

// --------------------------- Attribute helpers ---------------------------

type floatRates struct {
	mutate, replace, power float64
	mean, stdev            float64
	initType               string
	min, max               float64
}

// initFloat draws a gaussian or uniform value clamped to [minVal, maxVal].
// Unknown init types fall back to gaussian.
func initFloat(mean, stdev float64, initType string, minVal, maxVal float64) float64 {
	var v float64
	if strings.EqualFold(initType, "uniform") {
		lo := math.Max(minVal, mean-2*stdev)
		hi := math.Min(maxVal, mean+2*stdev)
		if hi < lo {
			hi = lo
		}
		v = lo + rand.Float64()*(hi-lo)
	} else {
		v = mean + rand.NormFloat64()*stdev
	}
	return clamp(v, minVal, maxVal)
}

func mutateFloat(v float64, r floatRates) float64 {
	roll := rand.Float64()
	switch {
	case roll < r.mutate:
		return clamp(v+rand.NormFloat64()*r.power, r.min, r.max)
	case roll < r.mutate+r.replace:
		return initFloat(r.mean, r.stdev, r.initType, r.min, r.max)
	}
	return v
}

// initChoice returns def when it names an option, otherwise a random option.
func initChoice(def string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	for _, opt := range options {
		if opt == def {
			return def
		}
	}
	return options[rand.Intn(len(options))]
}

// mutateChoice switches to a different option with probability rate.
func mutateChoice(v string, rate float64, options []string) string {
	if rate <= 0 || rand.Float64() >= rate {
		return v
	}
	others := make([]string, 0, len(options))
	for _, opt := range options {
		if opt != v {
			others = append(others, opt)
		}
	}
	if len(others) == 0 {
		return v
	}
	return others[rand.Intn(len(others))]
}
