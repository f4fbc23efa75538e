package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/mcc-maze/maze"
)

func testGenome() *maze.Genome {
	return &maze.Genome{
		Width:          5,
		Height:         4,
		FirstDirection: maze.Vertical,
		PathGenes:      []maze.PathGene{{X: 2, Y: 1}},
		WallGenes: []maze.WallGene{
			{WallPosition: 0.25, PassagePosition: 0.5, Orientation: maze.Horizontal, OpeningLocation: maze.OpenSouth},
		},
	}
}

// exerciseStore runs the same round trip against every backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	runID := NewRunID()
	run := RunRecord{
		ID:          runID,
		Experiment:  "speciated",
		ConfigPath:  "configs/mcc.ini",
		StartedAt:   time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		Generations: 100,
	}
	require.NoError(t, store.SaveRun(ctx, run))
	run.Finished = true
	require.NoError(t, store.SaveRun(ctx, run))

	got, ok, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run, got)

	_, ok, err = store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, g := range []int{2, 0, 1} {
		require.NoError(t, store.SaveGeneration(ctx, GenerationRecord{
			RunID: runID, Generation: g, Agents: 10 + g, Mazes: 5, AverageMazeSize: 10.5, Line: "line",
		}))
	}
	require.NoError(t, store.SaveGeneration(ctx, GenerationRecord{RunID: runID, Generation: 1, Agents: 99}))
	gens, err := store.ListGenerations(ctx, runID)
	require.NoError(t, err)
	require.Len(t, gens, 3)
	assert.Equal(t, 0, gens[0].Generation)
	assert.Equal(t, 99, gens[1].Agents)
	assert.Equal(t, 12, gens[2].Agents)
	assert.InDelta(t, 10.5, gens[2].AverageMazeSize, 1e-9)

	require.NoError(t, store.SaveMaze(ctx, MazeRecord{RunID: runID, MazeID: 7, Generation: 3, SolverID: 12, Genome: testGenome()}))
	require.NoError(t, store.SaveMaze(ctx, MazeRecord{RunID: runID, MazeID: 2, Generation: 1, SolverID: 4, Genome: testGenome()}))
	mazes, err := store.ListMazes(ctx, runID)
	require.NoError(t, err)
	require.Len(t, mazes, 2)
	assert.Equal(t, 2, mazes[0].MazeID)
	assert.Equal(t, 12, mazes[1].SolverID)
	assert.Equal(t, testGenome(), mazes[1].Genome)

	empty, err := store.ListMazes(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "mcc.db"))
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mcc.db")

	first := NewSQLiteStore(path)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.SaveRun(ctx, RunRecord{ID: "r1", Experiment: "regular", StartedAt: time.Unix(0, 0)}))
	require.NoError(t, first.Close())

	second := NewSQLiteStore(path)
	require.NoError(t, second.Init(ctx))
	t.Cleanup(func() { _ = second.Close() })
	run, ok, err := second.GetRun(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "regular", run.Experiment)
}

func TestUninitializedStores(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewMemoryStore().SaveRun(ctx, RunRecord{ID: "r"}))
	assert.Error(t, NewSQLiteStore("unused.db").SaveRun(ctx, RunRecord{ID: "r"}))
	assert.Error(t, NewSQLiteStore("").Init(ctx))
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, CloseIfSupported(s))

	s, err = NewStore("sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	assert.NoError(t, CloseIfSupported(s))

	_, err = NewStore("sqlite", "")
	assert.Error(t, err)
	_, err = NewStore("postgres", "")
	assert.Error(t, err)
}

func TestNewRunIDIsUnique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
