package mcc

import (
	"fmt"
	"math"

	"github.com/baldhumanity/mcc-maze/config"
)

// Assignment selects the species an admitted individual joins.
type Assignment int

const (
	// AssignNearest joins the species whose centroid is closest.
	AssignNearest Assignment = iota
	// AssignFarthest joins the species whose centroid is farthest away.
	AssignFarthest
)

// ParseAssignment maps the config names nearest and farthest.
func ParseAssignment(s string) (Assignment, error) {
	switch s {
	case config.AssignNearest, "":
		return AssignNearest, nil
	case config.AssignFarthest:
		return AssignFarthest, nil
	}
	return AssignNearest, fmt.Errorf("unknown species assignment '%s'", s)
}

func (a Assignment) String() string {
	if a == AssignFarthest {
		return config.AssignFarthest
	}
	return config.AssignNearest
}

// Species is a queue grouped around a centroid. The centroid is a copy of
// the founder and is never mutated.
type Species[T Individual[T]] struct {
	ID       int
	Centroid T
	Queue    *Queue[T]
}

func newSpecies[T Individual[T]](id int, founder T, capacity, selection int, ids *IDCounter) (*Species[T], error) {
	q, err := NewQueue([]T{founder}, capacity, selection, ids)
	if err != nil {
		return nil, err
	}
	return &Species[T]{ID: id, Centroid: founder.Clone(), Queue: q}, nil
}

// Distance is the distance from the centroid to x.
func (s *Species[T]) Distance(x T) float64 {
	return s.Centroid.Distance(x)
}

func (s *Species[T]) Len() int { return s.Queue.Len() }

// OverallScore ranks species for the population controllers.
func (s *Species[T]) OverallScore() float64 { return s.Queue.OverallScore() }

// SpeciatedQueue splits a population into species, one per founder, with
// equal capacities.
type SpeciatedQueue[T Individual[T]] struct {
	species      []*Species[T]
	selection    int
	assignment   Assignment
	ids          *IDCounter
	speciesIDs   *IDCounter
	sizeBaseline *float64
}

// NewSpeciatedQueue creates one species per founder, each holding
// totalCapacity/len(founders) individuals.
func NewSpeciatedQueue[T Individual[T]](founders []T, totalCapacity, selection int, assignment Assignment, ids *IDCounter) (*SpeciatedQueue[T], error) {
	if len(founders) == 0 {
		return nil, ErrNoFounders
	}
	if selection <= 0 {
		return nil, ErrZeroSelection
	}
	capacity := totalCapacity / len(founders)
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d founders share a capacity of %d", ErrZeroCapacity, len(founders), totalCapacity)
	}

	q := &SpeciatedQueue[T]{
		selection:  selection,
		assignment: assignment,
		ids:        ids,
		speciesIDs: NewIDCounter(0),
	}
	for _, f := range founders {
		s, err := newSpecies(q.speciesIDs.Next(), f, capacity, selection, ids)
		if err != nil {
			return nil, err
		}
		q.species = append(q.species, s)
	}
	return q, nil
}

// Species returns the species in order. The slice is a copy; the species
// are shared.
func (q *SpeciatedQueue[T]) Species() []*Species[T] {
	return append([]*Species[T](nil), q.species...)
}

// Assignment reports the admission rule.
func (q *SpeciatedQueue[T]) Assignment() Assignment { return q.assignment }

// Push admits x into the species chosen by the assignment rule. Ties go to
// the lowest index.
func (q *SpeciatedQueue[T]) Push(x T) {
	q.species[q.assign(x)].Queue.Push(x)
}

func (q *SpeciatedQueue[T]) assign(x T) int {
	best := 0
	bestDist := math.Inf(1)
	if q.assignment == AssignFarthest {
		bestDist = math.Inf(-1)
	}
	for i, s := range q.species {
		d := s.Distance(x)
		if (q.assignment == AssignFarthest && d > bestDist) || (q.assignment != AssignFarthest && d < bestDist) {
			best, bestDist = i, d
		}
	}
	return best
}

// Children takes max(1, selection/len(species)) children from every
// species.
func (q *SpeciatedQueue[T]) Children() []T {
	per := max(1, q.selection/len(q.species))
	var children []T
	for _, s := range q.species {
		children = append(children, s.Queue.GetChildren(per)...)
	}
	return children
}

// ReplaceSpecies swaps the species at index for a new one founded by
// founder. The new species has a fresh id and the old capacity.
func (q *SpeciatedQueue[T]) ReplaceSpecies(index int, founder T) error {
	if index < 0 || index >= len(q.species) {
		return fmt.Errorf("species index %d out of range [0, %d)", index, len(q.species))
	}
	old := q.species[index]
	s, err := newSpecies(q.speciesIDs.Next(), founder, old.Queue.Capacity(), q.selection, q.ids)
	if err != nil {
		return err
	}
	if q.sizeBaseline != nil {
		s.Queue.SetSizeBaseline(*q.sizeBaseline)
	}
	q.species[index] = s
	return nil
}

func (q *SpeciatedQueue[T]) Len() int {
	n := 0
	for _, s := range q.species {
		n += s.Len()
	}
	return n
}

// Capacity is the sum of the species capacities.
func (q *SpeciatedQueue[T]) Capacity() int {
	n := 0
	for _, s := range q.species {
		n += s.Queue.Capacity()
	}
	return n
}

// Items returns every individual, species by species.
func (q *SpeciatedQueue[T]) Items() []T {
	var items []T
	for _, s := range q.species {
		items = append(items, s.Queue.items...)
	}
	return items
}

// SetSizeBaseline sets the first-increase reference of every current and
// future species.
func (q *SpeciatedQueue[T]) SetSizeBaseline(b float64) {
	q.sizeBaseline = &b
	for _, s := range q.species {
		s.Queue.SetSizeBaseline(b)
	}
}

// SaveState records the statistics of every species.
func (q *SpeciatedQueue[T]) SaveState() {
	for _, s := range q.species {
		s.Queue.SaveState()
	}
}

// Largest, Smallest and Average aggregate over all species. They panic when
// the population is empty.
func (q *SpeciatedQueue[T]) Largest() int { return summarize(q.Items(), sizeOf[T]).Largest }

func (q *SpeciatedQueue[T]) Smallest() int { return summarize(q.Items(), sizeOf[T]).Smallest }

func (q *SpeciatedQueue[T]) Average() float64 { return summarize(q.Items(), sizeOf[T]).Average }

// SizeIncrease averages the species' mean and last size increases.
func (q *SpeciatedQueue[T]) SizeIncrease() (overall, last float64) {
	for _, s := range q.species {
		o, l := s.Queue.SizeIncrease()
		overall += o
		last += l
	}
	n := float64(len(q.species))
	return overall / n, last / n
}

// ComplexityIncrease averages the species' mean and last complexity
// increases.
func (q *SpeciatedQueue[T]) ComplexityIncrease() (overall, last float64) {
	for _, s := range q.species {
		o, l := s.Queue.ComplexityIncrease()
		overall += o
		last += l
	}
	n := float64(len(q.species))
	return overall / n, last / n
}
