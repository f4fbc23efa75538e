package mcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func speciesSizes(q *SpeciatedQueue[*fake]) [][]int {
	var out [][]int
	for _, s := range q.Species() {
		out = append(out, sizes(s.Queue.Items()))
	}
	return out
}

func TestParseAssignment(t *testing.T) {
	a, err := ParseAssignment("farthest")
	require.NoError(t, err)
	assert.Equal(t, AssignFarthest, a)
	assert.Equal(t, "farthest", a.String())

	a, err = ParseAssignment("")
	require.NoError(t, err)
	assert.Equal(t, AssignNearest, a)

	_, err = ParseAssignment("random")
	assert.Error(t, err)
}

func TestNearestAssignment(t *testing.T) {
	q, err := NewSpeciatedQueue(fakes(0, 10), 10, 2, AssignNearest, NewIDCounter(0))
	require.NoError(t, err)

	q.Push(&fake{size: 3})
	q.Push(&fake{size: 8})
	q.Push(&fake{size: 5}) // Equidistant: lowest index wins.
	assert.Equal(t, [][]int{{0, 3, 5}, {10, 8}}, speciesSizes(q))
	assert.Equal(t, 5, q.Len())
}

func TestFarthestAssignment(t *testing.T) {
	q, err := NewSpeciatedQueue(fakes(0, 10), 10, 2, AssignFarthest, NewIDCounter(0))
	require.NoError(t, err)

	q.Push(&fake{size: 3})
	q.Push(&fake{size: 8})
	q.Push(&fake{size: 5})
	assert.Equal(t, [][]int{{0, 8, 5}, {10, 3}}, speciesSizes(q))
}

func TestCentroidIsFixed(t *testing.T) {
	founders := fakes(0, 10)
	q, err := NewSpeciatedQueue(founders, 4, 2, AssignNearest, NewIDCounter(0))
	require.NoError(t, err)

	founders[0].size = 9
	q.Push(&fake{size: 4})
	q.Push(&fake{size: 4})
	q.Push(&fake{size: 4})
	assert.Equal(t, 0, q.Species()[0].Centroid.size)
	assert.Equal(t, [][]int{{4, 4}, {10}}, speciesSizes(q))
}

func TestSpeciatedCapacity(t *testing.T) {
	q, err := NewSpeciatedQueue(fakes(0, 5, 10), 10, 3, AssignNearest, NewIDCounter(0))
	require.NoError(t, err)
	assert.Equal(t, 9, q.Capacity())
	for _, s := range q.Species() {
		assert.Equal(t, 3, s.Queue.Capacity())
	}

	_, err = NewSpeciatedQueue(fakes(0, 5, 10), 2, 3, AssignNearest, NewIDCounter(0))
	assert.ErrorIs(t, err, ErrZeroCapacity)
	_, err = NewSpeciatedQueue[*fake](nil, 2, 3, AssignNearest, NewIDCounter(0))
	assert.ErrorIs(t, err, ErrNoFounders)
	_, err = NewSpeciatedQueue(fakes(0), 2, 0, AssignNearest, NewIDCounter(0))
	assert.ErrorIs(t, err, ErrZeroSelection)
}

func TestSpeciatedChildren(t *testing.T) {
	ids := NewIDCounter(50)
	q, err := NewSpeciatedQueue(fakes(0, 5, 10), 30, 7, AssignNearest, ids)
	require.NoError(t, err)

	children := q.Children()
	assert.Equal(t, []int{1, 1, 6, 6, 11, 11}, sizes(children))
	assert.Equal(t, 56, ids.NextID)

	small, err := NewSpeciatedQueue(fakes(0, 5, 10), 30, 2, AssignNearest, NewIDCounter(0))
	require.NoError(t, err)
	assert.Len(t, small.Children(), 3)
}

func TestReplaceSpecies(t *testing.T) {
	q, err := NewSpeciatedQueue(fakes(0, 10), 8, 2, AssignNearest, NewIDCounter(0))
	require.NoError(t, err)
	q.SetSizeBaseline(1)
	q.Push(&fake{size: 9})
	require.NoError(t, q.Species()[1].Queue.SetCapacity(6))

	require.NoError(t, q.ReplaceSpecies(1, &fake{size: 20}))
	s := q.Species()[1]
	assert.Equal(t, 2, s.ID)
	assert.Equal(t, 20, s.Centroid.size)
	assert.Equal(t, []int{20}, sizes(s.Queue.Items()))
	assert.Equal(t, 6, s.Queue.Capacity())
	require.NotNil(t, s.Queue.Sizes.Baseline)
	assert.Equal(t, 1.0, *s.Queue.Sizes.Baseline)

	q.Push(&fake{size: 18})
	assert.Equal(t, []int{20, 18}, sizes(q.Species()[1].Queue.Items()))

	assert.Error(t, q.ReplaceSpecies(2, &fake{}))
	assert.Error(t, q.ReplaceSpecies(-1, &fake{}))
}

func TestSpeciatedIncreasesAreAveraged(t *testing.T) {
	q, err := NewSpeciatedQueue(fakes(0, 10), 8, 2, AssignNearest, NewIDCounter(0))
	require.NoError(t, err)
	q.SaveState()
	q.Push(&fake{size: 2})
	q.Push(&fake{size: 14})
	q.SaveState()

	overall, last := q.SizeIncrease()
	assert.InDelta(t, 1.5, overall, 1e-9)
	assert.InDelta(t, 1.5, last, 1e-9)
	overall, _ = q.ComplexityIncrease()
	assert.InDelta(t, 3.0, overall, 1e-9)

	assert.Equal(t, 14, q.Largest())
	assert.Equal(t, 0, q.Smallest())
	assert.InDelta(t, 6.5, q.Average(), 1e-9)
}
