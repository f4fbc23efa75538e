// Package mcc implements minimal criterion coevolution of mazes and
// maze-navigating agents: bounded round-robin population queues, species
// built around fixed centroids, the cross-product evaluation that gates
// admission, seed discovery and the generation loop.
package mcc

import (
	"fmt"

	"github.com/baldhumanity/mcc-maze/maze"
	"github.com/baldhumanity/mcc-maze/neat"
)

// Individual is the contract a kind must meet to live in a Queue. T is the
// concrete pointer type itself.
type Individual[T any] interface {
	Clone() T
	Mutate()
	Distance(other T) float64
	Size() int
	SetID(id int)
	SetViable(viable bool)
	IsViable() bool
}

// Complex is implemented by kinds that report a structural complexity next
// to their size. Queues keep a separate history for it.
type Complex interface {
	Complexity() int
}

// IDCounter hands out increasing ids. One counter is shared by all queues
// of a kind. It is not safe for concurrent use.
type IDCounter struct {
	NextID int
}

// NewIDCounter returns a counter whose first id is start.
func NewIDCounter(start int) *IDCounter {
	return &IDCounter{NextID: start}
}

// Next returns a fresh id.
func (c *IDCounter) Next() int {
	id := c.NextID
	c.NextID++
	return id
}

// --------------------------- Maze ---------------------------

// Maze is a maze individual. SolverID is the id of the first agent that
// solved it during evaluation, or -1.
type Maze struct {
	ID       int
	Genome   *maze.Genome
	Viable   bool
	SolverID int
	// Config drives mutation. A nil config uses maze.DefaultConfig.
	Config *maze.Config `json:"-"`
}

// NewMaze wraps a genome.
func NewMaze(id int, g *maze.Genome, cfg *maze.Config) *Maze {
	return &Maze{ID: id, Genome: g, SolverID: -1, Config: cfg}
}

// Clone copies the genome. The solver record is not carried over.
func (m *Maze) Clone() *Maze {
	return &Maze{
		ID:       m.ID,
		Genome:   m.Genome.Clone(),
		Viable:   m.Viable,
		SolverID: -1,
		Config:   m.Config,
	}
}

func (m *Maze) Mutate() {
	if m.Config == nil {
		cfg := maze.DefaultConfig()
		m.Config = &cfg
	}
	m.Genome.Mutate(m.Config)
}

func (m *Maze) Distance(other *Maze) float64 { return m.Genome.Distance(other.Genome) }

// Size is the maze width.
func (m *Maze) Size() int { return m.Genome.Size() }

// Complexity is the number of junctures on the solution path.
func (m *Maze) Complexity() int { return m.Genome.Junctures() }

func (m *Maze) SetID(id int)          { m.ID = id }
func (m *Maze) SetViable(viable bool) { m.Viable = viable }
func (m *Maze) IsViable() bool        { return m.Viable }

func (m *Maze) String() string {
	return fmt.Sprintf("Maze %d %s", m.ID, m.Genome)
}

// --------------------------- Agent ---------------------------

// Agent is a NEAT controller individual. SolvedMazeID is the id of the first
// maze it solved during evaluation, or -1.
type Agent struct {
	ID           int
	Genome       *neat.Genome
	Viable       bool
	SolvedMazeID int
}

// NewAgent wraps a genome. The genome key follows the agent id.
func NewAgent(id int, g *neat.Genome) *Agent {
	g.Key = id
	return &Agent{ID: id, Genome: g, SolvedMazeID: -1}
}

// Clone copies the genome, which keeps sharing its GenomeConfig.
func (a *Agent) Clone() *Agent {
	return &Agent{
		ID:           a.ID,
		Genome:       a.Genome.Copy(),
		Viable:       a.Viable,
		SolvedMazeID: -1,
	}
}

func (a *Agent) Mutate() { a.Genome.Mutate() }

func (a *Agent) Distance(other *Agent) float64 { return a.Genome.Distance(other.Genome) }

// Size counts nodes and connections.
func (a *Agent) Size() int { return a.Genome.Size() }

func (a *Agent) SetID(id int) {
	a.ID = id
	a.Genome.Key = id
}

func (a *Agent) SetViable(viable bool) { a.Viable = viable }
func (a *Agent) IsViable() bool        { return a.Viable }

func (a *Agent) String() string {
	return fmt.Sprintf("Agent %d (nodes: %d, connections: %d)", a.ID, len(a.Genome.Nodes), len(a.Genome.Connections))
}
