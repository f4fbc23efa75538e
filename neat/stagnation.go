package neat

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
)

// Stagnation detects species whose fitness has stopped improving.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
	Logger             *log.Logger
}

// NewStagnation resolves the species fitness reducer named in the config.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{Config: config, SpeciesFitnessFunc: fn}, nil
}

// StagnationInfo is the verdict for one species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update refreshes each species' fitness and history, then marks species
// that have not improved for max_stagnation generations. The
// species_elitism fittest species are never marked, and marking stops once
// only that many non-stagnant species remain. Results are ordered from least
// to most fit.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	logger := orDiscard(s.Logger)
	ordered := make([]*Species, 0, len(speciesSet.Species))
	for _, sid := range sortedKeys(speciesSet.Species) {
		sp := speciesSet.Species[sid]
		previousBest := MaxFloat(sp.FitnessHistory)
		if fitnesses := sp.GetFitnesses(); len(fitnesses) > 0 {
			sp.Fitness = s.SpeciesFitnessFunc(fitnesses)
		} else {
			sp.Fitness = math.Inf(-1)
		}
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0
		if sp.Fitness > previousBest {
			sp.LastImproved = generation
		}
		ordered = append(ordered, sp)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Fitness < ordered[j].Fitness
	})

	result := make([]StagnationInfo, len(ordered))
	nonStagnant := len(ordered)
	for i, sp := range ordered {
		stale := generation-sp.LastImproved >= s.Config.MaxStagnation
		elite := len(ordered)-i <= s.Config.SpeciesElitism
		stagnant := stale && !elite && nonStagnant > s.Config.SpeciesElitism
		if stagnant {
			nonStagnant--
		} else if stale {
			logger.Printf("species %d spared from stagnation by elitism (fitness %.3f)", sp.Key, sp.Fitness)
		}
		result[i] = StagnationInfo{SpeciesID: sp.Key, Species: sp, IsStagnant: stagnant}
	}
	return result
}
