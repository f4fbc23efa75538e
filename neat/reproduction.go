package neat

import (
	"log"
	"math"
	"math/rand"
)

// Reproduction creates genomes, either from scratch or from parents.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int
	Ancestors     map[int][]int // Genome key -> parent keys.
	Stagnation    *Stagnation
	Logger        *log.Logger
}

// NewReproduction creates a reproduction manager. Genome keys start at 1.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation) *Reproduction {
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		Stagnation:    stagnation,
	}
}

func (r *Reproduction) nextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates popSize freshly configured genomes.
func (r *Reproduction) CreateNewPopulation(genomeConfig *GenomeConfig, popSize int) map[int]*Genome {
	genomes := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		key := r.nextKey()
		g := NewGenome(key, genomeConfig)
		g.ConfigureNew()
		genomes[key] = g
		r.Ancestors[key] = nil
	}
	return genomes
}

// Reproduce builds the next generation. Stagnant species are dropped, the
// rest receive offspring in proportion to their adjusted fitness, elites are
// carried over unchanged and the remaining offspring are mutated crossovers
// of parents drawn from the top survival_threshold of each species. An empty
// map means every species went extinct.
func (r *Reproduction) Reproduce(config *Config, speciesSet *SpeciesSet, popSize int, generation int) map[int]*Genome {
	logger := orDiscard(r.Logger)

	var fitnesses []float64
	var remaining []*Species
	for _, info := range r.Stagnation.Update(speciesSet, generation) {
		if info.IsStagnant {
			logger.Printf("species %d removed for stagnation", info.SpeciesID)
			continue
		}
		if f := info.Species.GetFitnesses(); len(f) > 0 {
			fitnesses = append(fitnesses, f...)
			remaining = append(remaining, info.Species)
		}
	}
	if len(remaining) == 0 {
		logger.Printf("all species extinct in generation %d", generation)
		return map[int]*Genome{}
	}

	// Fitness sharing over the range of member fitness.
	minFitness := MinFloat(fitnesses)
	fitnessRange := math.Max(1.0, MaxFloat(fitnesses)-minFitness)
	adjusted := make([]float64, len(remaining))
	previousSizes := make([]int, len(remaining))
	adjustedSum := 0.0
	for i, sp := range remaining {
		sp.AdjustedFitness = (sp.Fitness - minFitness) / fitnessRange
		adjusted[i] = sp.AdjustedFitness
		adjustedSum += sp.AdjustedFitness
		previousSizes[i] = len(sp.Members)
	}

	minSize := max(r.Config.MinSpeciesSize, r.Config.Elitism)
	spawnAmounts := computeSpawnAmounts(adjusted, adjustedSum, previousSizes, popSize, minSize)

	next := make(map[int]*Genome, popSize)
	ancestors := make(map[int][]int, popSize)
	for i, sp := range remaining {
		spawn := max(spawnAmounts[i], r.Config.Elitism)
		members := sp.sortedMembers()

		for _, elite := range members[:min(r.Config.Elitism, len(members))] {
			next[elite.Key] = elite
			ancestors[elite.Key] = []int{elite.Key}
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		cutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(members))))
		cutoff = min(max(cutoff, 2), len(members))
		parents := members[:cutoff]

		for ; spawn > 0; spawn-- {
			p1 := parents[rand.Intn(len(parents))]
			p2 := parents[rand.Intn(len(parents))]
			key := r.nextKey()
			child := NewGenome(key, &config.Genome)
			child.ConfigureCrossover(p1, p2)
			child.Mutate()
			next[key] = child
			ancestors[key] = []int{p1.Key, p2.Key}
		}
	}
	r.Ancestors = ancestors

	if len(next) != popSize {
		logger.Printf("new population size %d differs from target %d", len(next), popSize)
	}
	return next
}

// computeSpawnAmounts moves each species halfway from its previous size
// towards its fitness-proportional share, then normalises the total to
// popSize without going below minSize.
func computeSpawnAmounts(adjusted []float64, adjustedSum float64, previousSizes []int, popSize, minSize int) []int {
	amounts := make([]int, len(adjusted))
	total := 0
	for i, af := range adjusted {
		target := float64(minSize)
		if adjustedSum > 0 {
			target = math.Max(target, af/adjustedSum*float64(popSize))
		}
		delta := (target - float64(previousSizes[i])) * 0.5
		step := int(math.Round(delta))
		switch {
		case step != 0:
		case delta > 0:
			step = 1
		case delta < 0:
			step = -1
		}
		amounts[i] = max(minSize, previousSizes[i]+step)
		total += amounts[i]
	}
	if total == 0 {
		return amounts
	}

	norm := float64(popSize) / float64(total)
	total = 0
	for i, a := range amounts {
		amounts[i] = max(minSize, int(math.Round(float64(a)*norm)))
		total += amounts[i]
	}

	diff := popSize - total
	order := rand.Perm(len(amounts))
	for _, i := range order {
		if diff == 0 {
			break
		}
		if diff > 0 {
			amounts[i]++
			diff--
		} else if amounts[i] > minSize {
			amounts[i]--
			diff++
		}
	}
	return amounts
}
