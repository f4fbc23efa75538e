package sim

import (
	"math"

	"github.com/baldhumanity/mcc-maze/maze"
)

// Rangefinder offsets relative to the heading, in degrees.
var rangefinderAngles = [...]float64{0, 45, 90, 180, 270, 315}

const (
	rangefinderCount = len(rangefinderAngles)
	radarCount       = 4

	// InputCount is the number of controller inputs: the rangefinders
	// followed by the radar slices.
	InputCount = rangefinderCount + radarCount
	// OutputCount is the number of controller outputs read per step.
	OutputCount = 2
)

// castRay walks the grid from (x, y) along angle (degrees) and returns the
// distance in cells to the first wall, capped at limit. The grid edge
// counts as a wall.
func castRay(grid *maze.Grid, x, y, angle, limit float64) float64 {
	rad := angle * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)
	cx, cy := int(math.Floor(x)), int(math.Floor(y))
	travelled := 0.0

	for grid.In(cx, cy) {
		tx, ty := math.Inf(1), math.Inf(1)
		var sideX, sideY maze.Direction
		switch {
		case dx > 1e-12:
			tx, sideX = (float64(cx+1)-x)/dx, maze.East
		case dx < -1e-12:
			tx, sideX = (float64(cx)-x)/dx, maze.West
		}
		switch {
		case dy > 1e-12:
			ty, sideY = (float64(cy+1)-y)/dy, maze.North
		case dy < -1e-12:
			ty, sideY = (float64(cy)-y)/dy, maze.South
		}

		t, side := tx, sideX
		if ty < tx {
			t, side = ty, sideY
		}
		if t >= limit {
			return limit
		}
		if grid.HasWall(cx, cy, side) {
			return t
		}
		ddx, ddy := side.Delta()
		cx, cy = cx+ddx, cy+ddy
		travelled = t
	}
	return travelled
}

// rangefinders writes the normalised wall distances into out.
func (s *state) rangefinders(grid *maze.Grid, out []float64) {
	for i, offset := range rangefinderAngles {
		d := castRay(grid, s.x, s.y, normalizeAngle(s.heading+offset), s.cfg.RangefinderRange)
		out[i] = math.Min(d/s.cfg.RangefinderRange, 1)
	}
}

// radar sets exactly one of the forward, left, back and right slices,
// whichever contains the bearing to the exit cell centre.
func (s *state) radar(width int, out []float64) {
	for i := range out[:radarCount] {
		out[i] = 0
	}
	gx, gy := float64(width)-0.5, 0.5
	bearing := math.Atan2(gy-s.y, gx-s.x) * 180 / math.Pi
	diff := normalizeAngle(bearing - s.heading)
	switch {
	case diff < 45 || diff >= 315:
		out[0] = 1
	case diff < 135:
		out[1] = 1
	case diff < 225:
		out[2] = 1
	default:
		out[3] = 1
	}
}

// normalizeAngle maps degrees into [0, 360).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
