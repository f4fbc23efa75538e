// Package sim steps a neural controller through a compiled maze.
//
// The agent is a disc moving in continuous cell coordinates: cell (x, y)
// covers [x, x+1) × [y, y+1), north is +y, the agent starts in the centre
// of the entrance cell and completes the run once it is past the centre of
// the exit cell towards its south-east corner.
package sim

import (
	"fmt"
	"math"

	"github.com/baldhumanity/mcc-maze/maze"
)

// Controller maps sensor inputs to motor outputs. *nn.FeedForwardNetwork
// satisfies it.
type Controller interface {
	Activate(inputs []float64) ([]float64, error)
}

// Point is a position in cell units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// Result is the outcome of one simulation.
type Result struct {
	ReachedEnd    bool
	FinalPosition *Point
	Steps         int
	Path          []Point // Position after every step, only when traced.
}

type state struct {
	cfg             Config
	x, y            float64
	heading         float64
	velocity        float64
	angularVelocity float64
}

func newState(m *maze.Phenotype, cfg Config) *state {
	return &state{
		cfg:     cfg,
		x:       0.5,
		y:       float64(m.Height) - 0.5,
		heading: normalizeAngle(cfg.StartHeading),
	}
}

// steer adds the controller outputs to the velocities and clamps them.
func (s *state) steer(dv, dw float64) {
	s.velocity = clamp(s.velocity+dv, -s.cfg.MaxSpeed, s.cfg.MaxSpeed)
	s.angularVelocity = clamp(s.angularVelocity+dw, -s.cfg.MaxAngularVelocity, s.cfg.MaxAngularVelocity)
}

// move turns, then advances along the new heading. A move that would bring
// the agent's body into a wall of its destination cell is dropped and the
// agent stays put.
func (s *state) move(grid *maze.Grid) {
	s.heading = normalizeAngle(s.heading + s.angularVelocity)
	rad := s.heading * math.Pi / 180
	step := s.velocity / s.cfg.CellDimension
	nx := s.x + math.Cos(rad)*step
	ny := s.y + math.Sin(rad)*step
	if s.collides(grid, nx, ny) {
		return
	}
	s.x, s.y = nx, ny
}

func (s *state) collides(grid *maze.Grid, x, y float64) bool {
	cx, cy := int(math.Floor(x)), int(math.Floor(y))
	if x < 0 || y < 0 || !grid.In(cx, cy) {
		return true
	}
	r := s.cfg.AgentRadius / s.cfg.CellDimension
	fx, fy := x-float64(cx), y-float64(cy)
	cell := grid.At(cx, cy)
	return (cell.North && 1-fy < r) ||
		(cell.South && fy < r) ||
		(cell.East && 1-fx < r) ||
		(cell.West && fx < r)
}

func (s *state) completed(width int) bool {
	return s.x > float64(width)-0.5 && s.y < 0.5
}

// Simulate runs ctrl through m for at most maxSteps steps. Each step reads
// the sensors, activates the controller, steers and moves. Output 0
// accelerates, output 1 turns.
func Simulate(ctrl Controller, m *maze.Phenotype, maxSteps int, trace bool, cfg Config) (Result, error) {
	var res Result
	if m == nil || m.Grid == nil {
		return res, fmt.Errorf("simulate: nil maze")
	}

	s := newState(m, cfg)
	inputs := make([]float64, InputCount)
	for res.Steps < maxSteps {
		s.rangefinders(m.Grid, inputs[:rangefinderCount])
		s.radar(m.Width, inputs[rangefinderCount:])

		out, err := ctrl.Activate(inputs)
		if err != nil {
			return res, fmt.Errorf("simulate step %d: %w", res.Steps, err)
		}
		if len(out) < OutputCount {
			return res, fmt.Errorf("simulate: controller returned %d outputs, need %d", len(out), OutputCount)
		}
		s.steer(out[0], out[1])
		s.move(m.Grid)
		res.Steps++

		if trace {
			res.Path = append(res.Path, Point{X: s.x, Y: s.y})
		}
		if s.completed(m.Width) {
			res.ReachedEnd = true
			break
		}
	}
	if res.Steps > 0 {
		res.FinalPosition = &Point{X: s.x, Y: s.y}
	}
	return res, nil
}

// Proximity scores how close p is to the exit centre of m: 1 at the
// centre, 0 at the far corner of the maze.
func Proximity(p Point, m *maze.Phenotype) float64 {
	gx, gy := float64(m.Width)-0.5, 0.5
	worst := math.Hypot(float64(m.Width), float64(m.Height))
	d := math.Hypot(gx-p.X, gy-p.Y)
	return clamp(1-d/worst, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
