package maze

// carve lays the solution path into grid: entrance, each waypoint in order,
// then the exit, joined pairwise by L-shaped segments whose first leg follows
// first. Each carved cell records the direction of travel out of it. Carving
// fails as soon as a cell would be written twice, which is what keeps the path
// free of branches and self-crossings.
func carve(grid *Grid, first Orientation, genes []PathGene) bool {
	points := pathPoints(grid.Width, grid.Height, genes)
	for _, p := range points {
		if !grid.In(p.X, p.Y) {
			return false
		}
	}

	for i := 0; i+1 < len(points); i++ {
		if !carveSegment(grid, points[i], points[i+1], first) {
			return false
		}
	}

	exit := points[len(points)-1]
	c := grid.At(exit.X, exit.Y)
	if c.OnPath() {
		return false
	}
	c.PathDirection = South

	for _, pg := range genes {
		grid.At(pg.X, pg.Y).IsWaypoint = true
	}
	return true
}

func carveSegment(grid *Grid, from, to Point, first Orientation) bool {
	corner := Point{X: to.X, Y: from.Y}
	if first == Vertical {
		corner = Point{X: from.X, Y: to.Y}
	}
	if !carveLine(grid, from, corner) || !carveLine(grid, corner, to) {
		return false
	}
	if corner != from && corner != to {
		grid.At(corner.X, corner.Y).IsJuncture = true
	}
	return true
}

// carveLine marks every cell from from (inclusive) to to (exclusive). The two
// points must share a row or a column.
func carveLine(grid *Grid, from, to Point) bool {
	d := directionTowards(from, to)
	for p := from; p != to; p = p.Step(d) {
		c := grid.At(p.X, p.Y)
		if c.OnPath() {
			return false
		}
		c.PathDirection = d
	}
	return true
}

func directionTowards(from, to Point) Direction {
	switch {
	case to.X > from.X:
		return East
	case to.X < from.X:
		return West
	case to.Y > from.Y:
		return North
	case to.Y < from.Y:
		return South
	}
	return None
}

// ValidatePath reports whether the given waypoints produce a non-overlapping
// path in a width x height maze. It carves into a throwaway grid and has no
// other side effects.
func ValidatePath(width, height int, first Orientation, genes []PathGene) bool {
	if width < 2 || height < 2 {
		return false
	}
	return carve(NewGrid(width, height), first, genes)
}

// IsValid runs ValidatePath against the genome's own dimensions and waypoints.
func (g *Genome) IsValid() bool {
	return ValidatePath(g.Width, g.Height, g.FirstDirection, g.PathGenes)
}
