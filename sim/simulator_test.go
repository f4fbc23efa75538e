package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/mcc-maze/maze"
)

type scripted struct {
	out   []float64
	err   error
	calls int
}

func (c *scripted) Activate(inputs []float64) ([]float64, error) {
	c.calls++
	if len(inputs) != InputCount {
		return nil, errors.New("bad input count")
	}
	return c.out, c.err
}

// openMaze returns a maze with only its border walled.
func openMaze(w, h int) *maze.Phenotype {
	grid := maze.NewGrid(w, h)
	for x := 0; x < w; x++ {
		grid.SetWall(x, 0, maze.South)
		grid.SetWall(x, h-1, maze.North)
	}
	for y := 0; y < h; y++ {
		grid.SetWall(0, y, maze.West)
		grid.SetWall(w-1, y, maze.East)
	}
	return &maze.Phenotype{Width: w, Height: h, Grid: grid}
}

func TestSimulateReachesExit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartHeading = 315
	ctrl := &scripted{out: []float64{1, 0}}

	res, err := Simulate(ctrl, openMaze(2, 2), 100, true, cfg)
	require.NoError(t, err)
	assert.True(t, res.ReachedEnd)
	assert.Equal(t, 12, res.Steps)
	assert.Equal(t, res.Steps, ctrl.calls)
	assert.Len(t, res.Path, res.Steps)
	require.NotNil(t, res.FinalPosition)
	assert.Greater(t, res.FinalPosition.X, 1.5)
	assert.Less(t, res.FinalPosition.Y, 0.5)
	assert.Equal(t, *res.FinalPosition, res.Path[len(res.Path)-1])
}

func TestSimulateWallsConfineAgent(t *testing.T) {
	m := openMaze(2, 2)
	m.Grid.SetWall(0, 1, maze.East)
	m.Grid.SetWall(0, 1, maze.South)
	ctrl := &scripted{out: []float64{1, 0.7}}

	res, err := Simulate(ctrl, m, 300, true, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, res.ReachedEnd)
	assert.Equal(t, 300, res.Steps)
	assert.Len(t, res.Path, 300)
	for _, p := range res.Path {
		assert.Equal(t, 0, int(math.Floor(p.X)))
		assert.Equal(t, 1, int(math.Floor(p.Y)))
	}
}

func TestSimulateWithoutTrace(t *testing.T) {
	res, err := Simulate(&scripted{out: []float64{0, 0}}, openMaze(3, 3), 10, false, DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, res.Path)
	require.NotNil(t, res.FinalPosition)
	assert.Equal(t, Point{X: 0.5, Y: 2.5}, *res.FinalPosition)

	res, err = Simulate(&scripted{out: []float64{0, 0}}, openMaze(3, 3), 0, false, DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, res.FinalPosition)
}

func TestSimulateErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Simulate(&scripted{err: boom}, openMaze(2, 2), 10, false, DefaultConfig())
	assert.ErrorIs(t, err, boom)

	_, err = Simulate(&scripted{out: []float64{1}}, openMaze(2, 2), 10, false, DefaultConfig())
	assert.Error(t, err)

	_, err = Simulate(&scripted{out: []float64{1, 1}}, nil, 10, false, DefaultConfig())
	assert.Error(t, err)
}

func TestRangefinders(t *testing.T) {
	s := &state{cfg: DefaultConfig(), x: 0.5, y: 0.5}
	out := make([]float64, rangefinderCount)
	s.rangefinders(openMaze(3, 1).Grid, out)

	diag := math.Sqrt2 / 2 / 8
	expected := []float64{2.5 / 8, diag, 0.5 / 8, 0.5 / 8, 0.5 / 8, diag}
	for i := range expected {
		assert.InDelta(t, expected[i], out[i], 1e-9, "rangefinder %d", i)
	}

	// Readings saturate at the configured range.
	s = &state{cfg: DefaultConfig(), x: 0.5, y: 0.5}
	s.cfg.RangefinderRange = 1
	s.rangefinders(openMaze(3, 1).Grid, out)
	assert.Equal(t, 1.0, out[0])
}

func TestRadar(t *testing.T) {
	cases := []struct {
		heading float64
		slice   int
	}{
		{315, 0},
		{225, 1},
		{135, 2},
		{45, 3},
		{10, 3},
		{280, 0},
	}
	for _, tc := range cases {
		s := &state{cfg: DefaultConfig(), x: 0.5, y: 1.5, heading: tc.heading}
		out := make([]float64, radarCount)
		s.radar(2, out)
		expected := make([]float64, radarCount)
		expected[tc.slice] = 1
		assert.Equal(t, expected, out, "heading %.0f", tc.heading)
	}
}

func TestSteerClampsVelocities(t *testing.T) {
	s := &state{cfg: DefaultConfig()}
	for i := 0; i < 50; i++ {
		s.steer(1, -1)
	}
	assert.Equal(t, 5.0, s.velocity)
	assert.Equal(t, -15.0, s.angularVelocity)
}

func TestTracedPathsStayClearOfWalls(t *testing.T) {
	cfg := DefaultConfig()
	for i := 0; i < 20; i++ {
		g, err := maze.Random(6, 6)
		require.NoError(t, err)
		m, err := maze.Compile(g)
		require.NoError(t, err)

		ctrl := &scripted{out: []float64{rand.Float64()*2 - 1, rand.Float64()*2 - 1}}
		res, err := Simulate(ctrl, m, cfg.StepBudget(g.SolutionLength()), true, cfg)
		require.NoError(t, err)
		s := &state{cfg: cfg}
		for _, p := range res.Path {
			assert.False(t, s.collides(m.Grid, p.X, p.Y), "position %s", p)
		}
	}
}

func TestProximity(t *testing.T) {
	m := openMaze(4, 4)
	assert.Equal(t, 1.0, Proximity(Point{X: 3.5, Y: 0.5}, m))
	start := Proximity(Point{X: 0.5, Y: 3.5}, m)
	mid := Proximity(Point{X: 2, Y: 2}, m)
	assert.Greater(t, start, 0.0)
	assert.Less(t, start, mid)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, 320, DefaultConfig().StepBudget(10))

	bad := DefaultConfig()
	bad.AgentRadius = 20
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MaxSpeed = 9
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.RangefinderRange = 0
	assert.Error(t, bad.Validate())
}
