package neat

import (
	"fmt"
	"io"
	"log"
	"time"
)

// FitnessFunc evaluates a generation and sets each genome's Fitness.
type FitnessFunc func(genomes map[int]*Genome) error

// Population is a NEAT population evolving towards a fitness threshold.
type Population struct {
	Config       *Config
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Generation   int
	BestGenome   *Genome
	Logger       *log.Logger
}

var discardLogger = log.New(io.Discard, "", 0)

// orDiscard returns l, or a logger that drops everything when l is nil.
func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return discardLogger
	}
	return l
}

// NewPopulation creates the initial generation described by config.
func NewPopulation(config *Config) (*Population, error) {
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}
	reproduction := NewReproduction(&config.Reproduction, stagnation)
	return &Population{
		Config:       config,
		Population:   reproduction.CreateNewPopulation(&config.Genome, config.Neat.PopSize),
		SpeciesSet:   NewSpeciesSet(&config.SpeciesSet),
		Reproduction: reproduction,
		Stagnation:   stagnation,
	}, nil
}

// SetLogger routes the progress output of the population and its helpers.
func (p *Population) SetLogger(l *log.Logger) {
	p.Logger = l
	p.SpeciesSet.Logger = l
	p.Reproduction.Logger = l
	p.Stagnation.Logger = l
}

// Best returns the fittest genome seen so far, or nil before the first
// evaluation.
func (p *Population) Best() *Genome {
	return p.BestGenome
}

// RunGeneration evaluates, speciates and reproduces once. It returns the
// overall best genome when it meets the fitness threshold, otherwise nil.
// The evaluated genomes stay in p.Population until reproduction replaces
// them, so a winner is always one of the genomes just evaluated.
func (p *Population) RunGeneration(fitnessFunc FitnessFunc) (*Genome, error) {
	logger := orDiscard(p.Logger)
	p.Generation++
	start := time.Now()
	logger.Printf("****** generation %d ******", p.Generation)

	if err := fitnessFunc(p.Population); err != nil {
		return nil, fmt.Errorf("fitness evaluation failed in generation %d: %w", p.Generation, err)
	}

	if current := p.findBestGenome(); current != nil {
		if p.BestGenome == nil || current.Fitness > p.BestGenome.Fitness {
			p.BestGenome = current
			logger.Printf("new best genome %d, fitness %.4f", current.Key, current.Fitness)
		}
	}

	if !p.Config.Neat.NoFitnessTermination && p.BestGenome != nil &&
		p.BestGenome.Fitness >= p.Config.Neat.FitnessThreshold {
		return p.BestGenome, nil
	}

	p.SpeciesSet.Speciate(p.Population, p.Generation)
	logger.Printf("population divided into %d species", len(p.SpeciesSet.Species))

	next := p.Reproduction.Reproduce(p.Config, p.SpeciesSet, p.Config.Neat.PopSize, p.Generation)
	if len(next) == 0 {
		if !p.Config.Neat.ResetOnExtinction {
			return nil, fmt.Errorf("population extinct in generation %d", p.Generation)
		}
		logger.Printf("resetting extinct population")
		next = p.Reproduction.CreateNewPopulation(&p.Config.Genome, p.Config.Neat.PopSize)
		p.SpeciesSet = NewSpeciesSet(&p.Config.SpeciesSet)
		p.SpeciesSet.Logger = p.Logger
	}
	p.Population = next

	logger.Printf("generation %d finished in %s", p.Generation, time.Since(start))
	return nil, nil
}

// findBestGenome returns the fittest genome of the current generation,
// breaking ties by the lowest key.
func (p *Population) findBestGenome() *Genome {
	var best *Genome
	for _, key := range sortedKeys(p.Population) {
		g := p.Population[key]
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}
