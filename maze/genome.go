package maze

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyWallGenes is returned when a genome has no wall genes to compile with.
	ErrEmptyWallGenes = errors.New("maze genome has no wall genes")
	// ErrInvalidDimensions is returned for genomes narrower or shorter than two cells.
	ErrInvalidDimensions = errors.New("maze dimensions must be at least 2x2")
)

// PathGene is a waypoint the solution path must pass through.
type PathGene struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Point returns the waypoint as a grid point.
func (p PathGene) Point() Point {
	return Point{X: p.X, Y: p.Y}
}

// WallGene drives one opening and one bisection during compilation.
// WallPosition and PassagePosition are fractions in [0, 1).
type WallGene struct {
	WallPosition    float64         `json:"wall_position"`
	PassagePosition float64         `json:"passage_position"`
	Orientation     Orientation     `json:"orientation"`
	OpeningLocation OpeningLocation `json:"opening_location"`
}

// Genome is the maze genotype.
type Genome struct {
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	FirstDirection Orientation `json:"first_direction"` // Fixed at creation.
	PathGenes      []PathGene  `json:"path_genes"`
	WallGenes      []WallGene  `json:"wall_genes"`
}

// Entrance is the path start, the top-left cell.
func (g *Genome) Entrance() Point {
	return Point{X: 0, Y: g.Height - 1}
}

// Exit is the path end, the bottom-right cell.
func (g *Genome) Exit() Point {
	return Point{X: g.Width - 1, Y: 0}
}

// Points returns entrance, waypoints and exit in traversal order.
func (g *Genome) Points() []Point {
	return pathPoints(g.Width, g.Height, g.PathGenes)
}

func pathPoints(width, height int, genes []PathGene) []Point {
	points := make([]Point, 0, len(genes)+2)
	points = append(points, Point{X: 0, Y: height - 1})
	for _, pg := range genes {
		points = append(points, pg.Point())
	}
	return append(points, Point{X: width - 1, Y: 0})
}

// Clone returns a deep copy of the genome.
func (g *Genome) Clone() *Genome {
	c := &Genome{
		Width:          g.Width,
		Height:         g.Height,
		FirstDirection: g.FirstDirection,
		PathGenes:      make([]PathGene, len(g.PathGenes)),
		WallGenes:      make([]WallGene, len(g.WallGenes)),
	}
	copy(c.PathGenes, g.PathGenes)
	copy(c.WallGenes, g.WallGenes)
	return c
}

// Size is the maze width, the measure used for growth statistics.
func (g *Genome) Size() int {
	return g.Width
}

// SolutionLength is the number of cells on the carved path.
func (g *Genome) SolutionLength() int {
	points := g.Points()
	length := 1
	for i := 0; i+1 < len(points); i++ {
		length += abs(points[i+1].X-points[i].X) + abs(points[i+1].Y-points[i].Y)
	}
	return length
}

// Junctures counts the segments whose L shape has a corner.
func (g *Genome) Junctures() int {
	points := g.Points()
	n := 0
	for i := 0; i+1 < len(points); i++ {
		if points[i].X != points[i+1].X && points[i].Y != points[i+1].Y {
			n++
		}
	}
	return n
}

// Validate checks the structural preconditions for compilation.
func (g *Genome) Validate() error {
	if g.Width < 2 || g.Height < 2 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, g.Width, g.Height)
	}
	if len(g.WallGenes) == 0 {
		return ErrEmptyWallGenes
	}
	for i, pg := range g.PathGenes {
		if pg.X < 0 || pg.Y < 0 || pg.X >= g.Width || pg.Y >= g.Height {
			return fmt.Errorf("path gene %d at (%d,%d) lies outside %dx%d maze", i, pg.X, pg.Y, g.Width, g.Height)
		}
	}
	return nil
}

func (g *Genome) String() string {
	return fmt.Sprintf("Maze(%dx%d, first: %s, waypoints: %d, walls: %d)",
		g.Width, g.Height, g.FirstDirection, len(g.PathGenes), len(g.WallGenes))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
