package mcc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/baldhumanity/mcc-maze/maze"
)

var errNotSpeciated = errors.New("population controllers need speciated populations")

func speciated(e *Engine) (*SpeciatedQueue[*Agent], *SpeciatedQueue[*Maze], error) {
	agents, ok := e.SpeciatedAgents()
	if !ok {
		return nil, nil, errNotSpeciated
	}
	mazes, ok := e.SpeciatedMazes()
	if !ok {
		return nil, nil, errNotSpeciated
	}
	return agents, mazes, nil
}

// emptySpecies lists the species that have nothing left but their founder.
func emptySpecies[T Individual[T]](q *SpeciatedQueue[T]) []int {
	var idx []int
	for i, s := range q.species {
		if s.Len() <= 1 {
			idx = append(idx, i)
		}
	}
	return idx
}

// worstSpecies is the index of the species with the lowest overall score,
// the lowest index on ties.
func worstSpecies[T Individual[T]](q *SpeciatedQueue[T]) int {
	worst := 0
	for i, s := range q.species {
		if s.OverallScore() < q.species[worst].OverallScore() {
			worst = i
		}
	}
	return worst
}

// rankSpecies orders species indices by ascending overall score.
func rankSpecies[T Individual[T]](q *SpeciatedQueue[T]) []int {
	idx := make([]int, len(q.species))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return q.species[idx[a]].OverallScore() < q.species[idx[b]].OverallScore()
	})
	return idx
}

// ReplacementController replaces species that stopped producing viable
// offspring:
//
//  1. pairs of empty maze and agent species get fresh seed pairs,
//  2. a remaining empty agent species is refounded by an agent evolved for
//     the smallest maze,
//  3. the maze species with the lowest overall score is refounded by a
//     random maze of default size.
//
// Failed seed searches are logged and skipped.
type ReplacementController struct {
	Finder *SeedFinder
	Logger *log.Logger
}

func (c *ReplacementController) Update(ctx context.Context, e *Engine) error {
	logger := orDiscard(c.Logger)
	agents, mazes, err := speciated(e)
	if err != nil {
		return err
	}

	refounded, err := c.replacePairs(ctx, agents, mazes, logger)
	if err != nil {
		return err
	}
	if err := c.replaceEmptyAgent(ctx, agents, mazes, refounded, logger); err != nil {
		return err
	}
	return c.replaceWorstMaze(mazes, logger)
}

// replacePairs returns the indices of the refounded agent species.
func (c *ReplacementController) replacePairs(ctx context.Context, agents *SpeciatedQueue[*Agent], mazes *SpeciatedQueue[*Maze], logger *log.Logger) (map[int]bool, error) {
	emptyMazes := emptySpecies(mazes)
	emptyAgents := emptySpecies(agents)
	pairs := min(len(emptyMazes), len(emptyAgents))
	if pairs == 0 {
		return nil, nil
	}

	seeds, err := c.Finder.Find(ctx, pairs, 1)
	if errors.Is(err, ErrSeedSearchExhausted) {
		logger.Printf("keeping %d empty species pairs: %v", pairs, err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	refounded := make(map[int]bool, len(seeds))
	for i, seed := range seeds {
		if err := mazes.ReplaceSpecies(emptyMazes[i], seed.Maze); err != nil {
			return nil, err
		}
		if err := agents.ReplaceSpecies(emptyAgents[i], seed.Agents[0]); err != nil {
			return nil, err
		}
		refounded[emptyAgents[i]] = true
	}
	logger.Printf("replaced %d empty species pairs", len(seeds))
	return refounded, nil
}

func (c *ReplacementController) replaceEmptyAgent(ctx context.Context, agents *SpeciatedQueue[*Agent], mazes *SpeciatedQueue[*Maze], skip map[int]bool, logger *log.Logger) error {
	target := -1
	for _, i := range emptySpecies(agents) {
		if !skip[i] {
			target = i
			break
		}
	}
	if target < 0 {
		return nil
	}
	items := mazes.Items()
	if len(items) == 0 {
		return nil
	}
	smallest := items[0]
	for _, m := range items[1:] {
		if m.Size() < smallest.Size() {
			smallest = m
		}
	}

	agent, err := c.Finder.FindAgentForMaze(ctx, smallest)
	if errors.Is(err, ErrSeedSearchExhausted) {
		logger.Printf("keeping empty agent species: %v", err)
		return nil
	}
	if err != nil {
		return err
	}
	if err := agents.ReplaceSpecies(target, agent); err != nil {
		return err
	}
	logger.Printf("refounded agent species with agent %d for maze %d", agent.ID, smallest.ID)
	return nil
}

func (c *ReplacementController) replaceWorstMaze(mazes *SpeciatedQueue[*Maze], logger *log.Logger) error {
	cfg := c.Finder.Config
	size := cfg.MCC.DefaultMazeSize
	g, err := maze.Random(size, size)
	if err != nil {
		return fmt.Errorf("replacement maze: %w", err)
	}
	worst := worstSpecies(mazes)
	old := mazes.species[worst]
	m := NewMaze(c.Finder.IDs.Mazes.Next(), g, &cfg.Maze)
	if err := mazes.ReplaceSpecies(worst, m); err != nil {
		return err
	}
	logger.Printf("replaced maze species %d (score %.4f) with a random maze", old.ID, old.OverallScore())
	return nil
}

// VariedSizeController moves capacity from weak species to strong ones.
// Species are ranked by overall score and each species in the worst half
// lends up to the borrow amount to its mirror in the best half. A species
// keeps a capacity of at least 1.
type VariedSizeController struct {
	AgentBorrowAmount int
	MazeBorrowAmount  int
	Logger            *log.Logger
}

func (c *VariedSizeController) Update(_ context.Context, e *Engine) error {
	agents, mazes, err := speciated(e)
	if err != nil {
		return err
	}
	logger := orDiscard(c.Logger)
	if moved, err := borrowCapacity(agents, c.AgentBorrowAmount); err != nil {
		return err
	} else if moved > 0 {
		logger.Printf("moved %d agent slots to stronger species", moved)
	}
	if moved, err := borrowCapacity(mazes, c.MazeBorrowAmount); err != nil {
		return err
	} else if moved > 0 {
		logger.Printf("moved %d maze slots to stronger species", moved)
	}
	return nil
}

// borrowCapacity returns the number of slots moved.
func borrowCapacity[T Individual[T]](q *SpeciatedQueue[T], amount int) (int, error) {
	if amount <= 0 {
		return 0, nil
	}
	ranked := rankSpecies(q)
	n := len(ranked)
	moved := 0
	for i := 0; i < n/2; i++ {
		from := q.species[ranked[i]].Queue
		to := q.species[ranked[n-1-i]].Queue
		lend := min(amount, from.Capacity()-1)
		if lend <= 0 {
			continue
		}
		if err := from.SetCapacity(from.Capacity() - lend); err != nil {
			return moved, err
		}
		if err := to.SetCapacity(to.Capacity() + lend); err != nil {
			return moved, err
		}
		moved += lend
	}
	return moved, nil
}
