package maze

import (
	"errors"
	"fmt"
)

// Subdivision is a rectangle of free cells. StartY is the top row; rows run
// down to EndY.
type Subdivision struct {
	StartX int
	StartY int
	EndX   int
	EndY   int
	Width  int
	Height int
}

func newSubdivision(startX, startY, endX, endY int) Subdivision {
	return Subdivision{
		StartX: startX,
		StartY: startY,
		EndX:   endX,
		EndY:   endY,
		Width:  endX - startX + 1,
		Height: startY - endY + 1,
	}
}

// Contains reports whether (x, y) lies inside the rectangle.
func (s Subdivision) Contains(x, y int) bool {
	return x >= s.StartX && x <= s.EndX && y <= s.StartY && y >= s.EndY
}

// Phenotype is a compiled, fully walled maze.
type Phenotype struct {
	Width        int
	Height       int
	Grid         *Grid
	Subdivisions []Subdivision // Free-space rectangles before bisection.
}

// Cell returns the cell at (x, y).
func (p *Phenotype) Cell(x, y int) *Cell {
	return p.Grid.At(x, y)
}

// Entrance returns the path start.
func (p *Phenotype) Entrance() Point {
	return Point{X: 0, Y: p.Height - 1}
}

// Exit returns the path end.
func (p *Phenotype) Exit() Point {
	return Point{X: p.Width - 1, Y: 0}
}

// WalkPath follows the carved directions from the entrance. It returns the
// visited cells and whether the walk ended on the exit.
func (p *Phenotype) WalkPath() ([]Point, bool) {
	exit := p.Exit()
	cur := p.Entrance()
	visited := []Point{cur}
	for steps := 0; steps < p.Width*p.Height; steps++ {
		d := p.Cell(cur.X, cur.Y).PathDirection
		if cur == exit {
			return visited, d == South
		}
		if d == None {
			return visited, false
		}
		cur = cur.Step(d)
		if !p.Grid.In(cur.X, cur.Y) {
			return visited, false
		}
		visited = append(visited, cur)
	}
	return visited, false
}

// ToPhenotype compiles the genome. It is shorthand for Compile(g).
func (g *Genome) ToPhenotype() (*Phenotype, error) {
	return Compile(g)
}

// Compile turns a genome into a walled maze:
//
//  1. carve the solution path,
//  2. wall the outer edge and enclose the path corridor,
//  3. tile the remaining free cells with maximal rectangles,
//  4. wall every rectangle and open exactly one passage into it,
//  5. recursively bisect each rectangle with the wall genes.
//
// The output depends only on the genome.
func Compile(g *Genome) (*Phenotype, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	grid := NewGrid(g.Width, g.Height)
	if !carve(grid, g.FirstDirection, g.PathGenes) {
		return nil, fmt.Errorf("compile %s: solution path overlaps itself", g)
	}

	c := &compiler{grid: grid, genes: g.WallGenes}
	c.encloseBorder()
	c.enclosePath(g.Points())
	c.partition()
	c.wallSubdivisions()
	if err := c.openSubdivisions(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", g, err)
	}
	for i, sub := range c.subdivisions {
		c.bisect(sub, i%len(c.genes))
	}

	return &Phenotype{
		Width:        g.Width,
		Height:       g.Height,
		Grid:         grid,
		Subdivisions: c.subdivisions,
	}, nil
}

var errUnreachableSubdivision = errors.New("subdivision has no open neighbour")

type compiler struct {
	grid         *Grid
	genes        []WallGene
	subdivisions []Subdivision
	owner        []int // Subdivision index per cell, -1 for path cells.
	opened       []bool
}

func (c *compiler) encloseBorder() {
	g := c.grid
	for x := 0; x < g.Width; x++ {
		g.SetWall(x, 0, South)
		g.SetWall(x, g.Height-1, North)
	}
	for y := 0; y < g.Height; y++ {
		g.SetWall(0, y, West)
		g.SetWall(g.Width-1, y, East)
	}
}

// enclosePath walls every path cell on all sides except the ones joining it to
// its predecessor and successor.
func (c *compiler) enclosePath(points []Point) {
	g := c.grid
	var prev Direction
	cur := points[0]
	exit := points[len(points)-1]
	for {
		cell := g.At(cur.X, cur.Y)
		out := cell.PathDirection
		if cur == exit {
			out = None
		}
		for _, d := range Directions {
			if d == out || (prev != None && d == prev.Opposite()) {
				continue
			}
			g.SetWall(cur.X, cur.Y, d)
		}
		if out == None {
			return
		}
		prev = out
		cur = cur.Step(out)
	}
}

func (c *compiler) free(x, y int) bool {
	return c.owner[y*c.grid.Width+x] == -1 && !c.grid.At(x, y).OnPath() && !c.grid.At(x, y).IsWaypoint
}

// partition tiles the free cells top-down, left to right. Each rectangle grows
// east along its first row, then south until a row within its columns holds a
// path cell or an already claimed cell.
func (c *compiler) partition() {
	g := c.grid
	c.owner = make([]int, g.Width*g.Height)
	for i := range c.owner {
		c.owner[i] = -1
	}

	for y := g.Height - 1; y >= 0; y-- {
		for x := 0; x < g.Width; x++ {
			if !c.free(x, y) {
				continue
			}
			endX := x
			for endX+1 < g.Width && c.free(endX+1, y) {
				endX++
			}
			endY := y
		grow:
			for endY-1 >= 0 {
				for cx := x; cx <= endX; cx++ {
					if !c.free(cx, endY-1) {
						break grow
					}
				}
				endY--
			}

			idx := len(c.subdivisions)
			c.subdivisions = append(c.subdivisions, newSubdivision(x, y, endX, endY))
			for cy := endY; cy <= y; cy++ {
				for cx := x; cx <= endX; cx++ {
					c.owner[cy*g.Width+cx] = idx
				}
			}
		}
	}
	c.opened = make([]bool, len(c.subdivisions))
}

func (c *compiler) wallSubdivisions() {
	for _, s := range c.subdivisions {
		for x := s.StartX; x <= s.EndX; x++ {
			c.grid.SetWall(x, s.StartY, North)
			c.grid.SetWall(x, s.EndY, South)
		}
		for y := s.EndY; y <= s.StartY; y++ {
			c.grid.SetWall(s.StartX, y, West)
			c.grid.SetWall(s.EndX, y, East)
		}
	}
}

// open reports whether (x, y) is already reachable: a path cell or a cell of a
// subdivision that has been given its opening.
func (c *compiler) open(x, y int) bool {
	if !c.grid.In(x, y) {
		return false
	}
	owner := c.owner[y*c.grid.Width+x]
	if owner == -1 {
		return true
	}
	return c.opened[owner]
}

// sideCells returns the cells along side d of s, in scan order.
func sideCells(s Subdivision, d Direction) []Point {
	var cells []Point
	switch d {
	case North, South:
		y := s.StartY
		if d == South {
			y = s.EndY
		}
		for x := s.StartX; x <= s.EndX; x++ {
			cells = append(cells, Point{X: x, Y: y})
		}
	case East, West:
		x := s.StartX
		if d == East {
			x = s.EndX
		}
		for y := s.StartY; y >= s.EndY; y-- {
			cells = append(cells, Point{X: x, Y: y})
		}
	}
	return cells
}

func (c *compiler) openNeighbours(s Subdivision, d Direction) int {
	n := 0
	for _, p := range sideCells(s, d) {
		q := p.Step(d)
		if c.open(q.X, q.Y) {
			n++
		}
	}
	return n
}

// chooseSide picks the side to open: the gene's preferred side when it touches
// something open, then north, then south, then the better of west and east.
func (c *compiler) chooseSide(s Subdivision, preferred Direction) Direction {
	counts := map[Direction]int{}
	for _, d := range Directions {
		counts[d] = c.openNeighbours(s, d)
	}
	switch {
	case counts[preferred] > 0:
		return preferred
	case counts[North] > 0:
		return North
	case counts[South] > 0:
		return South
	case counts[West] > 0 && counts[West] >= counts[East]:
		return West
	case counts[East] > 0:
		return East
	}
	return None
}

// openSubdivisions gives every rectangle exactly one passage to an open
// neighbour. Rectangles with nothing open around them yet wait for a later
// pass; the grid is connected, so each pass opens at least one.
func (c *compiler) openSubdivisions() error {
	remaining := len(c.subdivisions)
	for remaining > 0 {
		progress := false
		for i, s := range c.subdivisions {
			if c.opened[i] {
				continue
			}
			gene := c.genes[i%len(c.genes)]
			side := c.chooseSide(s, gene.OpeningLocation.Direction())
			if side == None {
				continue
			}
			cells := sideCells(s, side)
			offset := fraction(len(cells), gene.PassagePosition)
			for k := 0; k < len(cells); k++ {
				p := cells[(offset+k)%len(cells)]
				q := p.Step(side)
				if c.open(q.X, q.Y) {
					c.grid.OpenWall(p.X, p.Y, side)
					break
				}
			}
			c.opened[i] = true
			remaining--
			progress = true
		}
		if !progress {
			return errUnreachableSubdivision
		}
	}
	return nil
}

// bisect splits s with gene idx and recurses into both halves with the next
// gene. Rectangles one cell wide or tall are left as corridors.
func (c *compiler) bisect(s Subdivision, idx int) {
	if s.Width <= 1 || s.Height <= 1 {
		return
	}
	gene := c.genes[idx]
	next := (idx + 1) % len(c.genes)

	if gene.Orientation == Horizontal {
		wallY := s.EndY + fraction(s.Height, gene.WallPosition)
		if wallY < s.EndY+1 {
			wallY = s.EndY + 1
		}
		gap := s.StartX + fraction(s.Width, gene.PassagePosition)
		for x := s.StartX; x <= s.EndX; x++ {
			if x != gap {
				c.grid.SetWall(x, wallY, South)
			}
		}
		c.bisect(newSubdivision(s.StartX, s.StartY, s.EndX, wallY), next)
		c.bisect(newSubdivision(s.StartX, wallY-1, s.EndX, s.EndY), next)
		return
	}

	wallX := s.StartX + fraction(s.Width, gene.WallPosition)
	if wallX > s.EndX-1 {
		wallX = s.EndX - 1
	}
	gap := s.EndY + fraction(s.Height, gene.PassagePosition)
	for y := s.EndY; y <= s.StartY; y++ {
		if y != gap {
			c.grid.SetWall(wallX, y, East)
		}
	}
	c.bisect(newSubdivision(s.StartX, s.StartY, wallX, s.EndY), next)
	c.bisect(newSubdivision(wallX+1, s.StartY, s.EndX, s.EndY), next)
}

// fraction maps f in [0, 1) onto an index in [0, n).
func fraction(n int, f float64) int {
	i := int(float64(n) * f)
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
