package maze

// Cell is one square of a compiled maze.
type Cell struct {
	North bool
	East  bool
	South bool
	West  bool

	IsWaypoint    bool
	IsJuncture    bool
	PathDirection Direction // Direction of travel out of this cell along the solution path.
}

// OnPath reports whether the solution path passes through the cell.
func (c *Cell) OnPath() bool {
	return c.PathDirection != None
}

// Wall reports the wall flag for side d.
func (c *Cell) Wall(d Direction) bool {
	switch d {
	case North:
		return c.North
	case East:
		return c.East
	case South:
		return c.South
	case West:
		return c.West
	}
	return false
}

func (c *Cell) setWall(d Direction, v bool) {
	switch d {
	case North:
		c.North = v
	case East:
		c.East = v
	case South:
		c.South = v
	case West:
		c.West = v
	}
}

// Grid is a flat, row-major cell buffer. Cell (x, y) lives at y*Width+x.
type Grid struct {
	Width  int
	Height int
	Cells  []Cell
}

// NewGrid allocates an empty grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Cells:  make([]Cell, width*height),
	}
}

// In reports whether (x, y) lies inside the grid.
func (g *Grid) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the cell at (x, y). It panics outside the grid.
func (g *Grid) At(x, y int) *Cell {
	return &g.Cells[y*g.Width+x]
}

// SetWall places a wall on side d of (x, y) and on the facing side of the
// neighbour, when there is one.
func (g *Grid) SetWall(x, y int, d Direction) {
	g.At(x, y).setWall(d, true)
	dx, dy := d.Delta()
	if g.In(x+dx, y+dy) {
		g.At(x+dx, y+dy).setWall(d.Opposite(), true)
	}
}

// OpenWall removes the wall between (x, y) and its neighbour in direction d.
func (g *Grid) OpenWall(x, y int, d Direction) {
	g.At(x, y).setWall(d, false)
	dx, dy := d.Delta()
	if g.In(x+dx, y+dy) {
		g.At(x+dx, y+dy).setWall(d.Opposite(), false)
	}
}

// HasWall reports whether side d of (x, y) is walled. Sides facing out of the
// grid count as walled only when the flag is set.
func (g *Grid) HasWall(x, y int, d Direction) bool {
	return g.At(x, y).Wall(d)
}
