package maze

import (
	"fmt"
	"math/rand"
)

const randomWaypointAttempts = 100

// RandomWallGene draws a wall gene with uniform fractions, orientation and
// opening side.
func RandomWallGene() WallGene {
	return WallGene{
		WallPosition:    rand.Float64(),
		PassagePosition: rand.Float64(),
		Orientation:     Orientation(rand.Intn(2)),
		OpeningLocation: OpeningLocation(rand.Intn(4)),
	}
}

// Random generates a width x height maze with one waypoint and one wall gene.
// Both dimensions must be at least 3.
func Random(width, height int) (*Genome, error) {
	if width < 3 || height < 3 {
		return nil, fmt.Errorf("%w: random mazes need 3x3, got %dx%d", ErrInvalidDimensions, width, height)
	}
	g := &Genome{
		Width:          width,
		Height:         height,
		FirstDirection: Orientation(rand.Intn(2)),
		WallGenes:      []WallGene{RandomWallGene()},
	}

	for i := 0; i < randomWaypointAttempts; i++ {
		var pg PathGene
		if g.FirstDirection == Horizontal {
			pg = PathGene{X: 1 + rand.Intn(width-2), Y: rand.Intn(height)}
		} else {
			pg = PathGene{X: rand.Intn(width), Y: 1 + rand.Intn(height-1)}
		}
		if pg.Point() == g.Entrance() || pg.Point() == g.Exit() {
			continue
		}
		if ValidatePath(width, height, g.FirstDirection, []PathGene{pg}) {
			g.PathGenes = []PathGene{pg}
			return g, nil
		}
	}
	return nil, fmt.Errorf("no valid waypoint found for %dx%d maze after %d attempts", width, height, randomWaypointAttempts)
}
