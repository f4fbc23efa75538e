package neat

import (
	"log"
	"math"
	"sort"
)

// Species is a group of genetically similar genomes.
type Species struct {
	Key             int
	Created         int // Generation the species first appeared.
	LastImproved    int
	Representative  *Genome
	Members         map[int]*Genome
	Fitness         float64
	AdjustedFitness float64
	FitnessHistory  []float64
}

// NewSpecies creates an empty species.
func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		LastImproved: generation,
		Members:      make(map[int]*Genome),
	}
}

// Update replaces the representative and the member set.
func (s *Species) Update(representative *Genome, members map[int]*Genome) {
	s.Representative = representative
	s.Members = members
}

// GetFitnesses returns the member fitness values.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.Members {
		fitnesses = append(fitnesses, g.Fitness)
	}
	return fitnesses
}

// sortedMembers returns the members by descending fitness, ties by key.
func (s *Species) sortedMembers() []*Genome {
	members := make([]*Genome, 0, len(s.Members))
	for _, g := range s.Members {
		members = append(members, g)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Fitness != members[j].Fitness {
			return members[i].Fitness > members[j].Fitness
		}
		return members[i].Key < members[j].Key
	})
	return members
}

// --------------------------- distance cache ---------------------------

type genomePair struct{ a, b int }

// distanceCache memoises genome distances for one speciation pass.
type distanceCache struct {
	distances map[genomePair]float64
	hits      int
	misses    int
}

func newDistanceCache() *distanceCache {
	return &distanceCache{distances: make(map[genomePair]float64)}
}

func (dc *distanceCache) distance(g1, g2 *Genome) float64 {
	key := genomePair{g1.Key, g2.Key}
	if key.a > key.b {
		key.a, key.b = key.b, key.a
	}
	if d, ok := dc.distances[key]; ok {
		dc.hits++
		return d
	}
	dc.misses++
	d := g1.Distance(g2)
	dc.distances[key] = d
	return d
}

func (dc *distanceCache) values() []float64 {
	out := make([]float64, 0, len(dc.distances))
	for _, d := range dc.distances {
		out = append(out, d)
	}
	return out
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet partitions a population into species.
type SpeciesSet struct {
	Species         map[int]*Species
	GenomeToSpecies map[int]int
	Indexer         int
	Config          *SpeciesSetConfig
	Logger          *log.Logger
}

// NewSpeciesSet creates an empty species set. Species keys start at 1.
func NewSpeciesSet(config *SpeciesSetConfig) *SpeciesSet {
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		Config:          config,
	}
}

// Speciate assigns every genome of the population to a species. Each
// surviving species first adopts the genome closest to its old
// representative; the remaining genomes, in key order, join the nearest
// species within the compatibility threshold or found a new one.
func (ss *SpeciesSet) Speciate(population map[int]*Genome, generation int) {
	logger := orDiscard(ss.Logger)
	if len(population) == 0 {
		ss.Species = make(map[int]*Species)
		ss.GenomeToSpecies = make(map[int]int)
		return
	}

	cache := newDistanceCache()
	unspeciated := make(map[int]*Genome, len(population))
	for k, g := range population {
		unspeciated[k] = g
	}
	representatives := make(map[int]*Genome)
	members := make(map[int][]int)

	for _, sid := range sortedKeys(ss.Species) {
		s := ss.Species[sid]
		if len(unspeciated) == 0 || s.Representative == nil {
			continue
		}
		var closest *Genome
		best := math.Inf(1)
		for _, key := range sortedKeys(unspeciated) {
			g := unspeciated[key]
			if d := cache.distance(s.Representative, g); d < best {
				best, closest = d, g
			}
		}
		representatives[sid] = closest
		members[sid] = []int{closest.Key}
		delete(unspeciated, closest.Key)
	}

	for _, gid := range sortedKeys(unspeciated) {
		g := unspeciated[gid]
		bestSID := -1
		best := math.Inf(1)
		for _, sid := range sortedKeys(representatives) {
			d := cache.distance(representatives[sid], g)
			if d < ss.Config.CompatibilityThreshold && d < best {
				best, bestSID = d, sid
			}
		}
		if bestSID == -1 {
			bestSID = ss.Indexer
			ss.Indexer++
			representatives[bestSID] = g
		}
		members[bestSID] = append(members[bestSID], gid)
	}

	species := make(map[int]*Species, len(representatives))
	genomeToSpecies := make(map[int]int, len(population))
	for sid, rep := range representatives {
		s := ss.Species[sid]
		if s == nil {
			s = NewSpecies(sid, generation)
			logger.Printf("created species %d represented by genome %d", sid, rep.Key)
		}
		memberMap := make(map[int]*Genome, len(members[sid]))
		for _, gid := range members[sid] {
			memberMap[gid] = population[gid]
			genomeToSpecies[gid] = sid
		}
		s.Update(rep, memberMap)
		species[sid] = s
	}
	for sid := range ss.Species {
		if _, ok := species[sid]; !ok {
			logger.Printf("species %d died out", sid)
		}
	}
	ss.Species = species
	ss.GenomeToSpecies = genomeToSpecies

	if d := cache.values(); len(d) > 0 {
		logger.Printf("mean genetic distance %.3f, stdev %.3f", Mean(d), Stdev(d))
	}
}

// GetSpeciesID returns the species key of a genome.
func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	return sid, ok
}

// GetSpecies returns the species a genome belongs to.
func (ss *SpeciesSet) GetSpecies(genomeID int) (*Species, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	if !ok {
		return nil, false
	}
	s, ok := ss.Species[sid]
	return s, ok
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
