package mcc

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"log"
	"os"

	"github.com/baldhumanity/mcc-maze/config"
	"github.com/baldhumanity/mcc-maze/maze"
	"github.com/baldhumanity/mcc-maze/neat"
)

// Checkpoints hold only the evolving state. Configuration is reloaded from
// the run's config file, and every restored individual is relinked to it.

type agentState struct {
	ID           int
	Viable       bool
	SolvedMazeID int
	Nodes        map[int]*neat.NodeGene
	Connections  map[neat.ConnectionKey]*neat.ConnectionGene
}

type mazeState struct {
	ID       int
	Viable   bool
	SolverID int
	Genome   *maze.Genome
}

// groupState is one queue: the whole population of a non-speciated run, or
// one species.
type groupState[S any] struct {
	ID           int
	Centroid     S
	Members      []S
	Capacity     int
	Cursor       int
	Selection    int
	Sizes        SizeHistory
	Complexities SizeHistory
}

type populationState[S any] struct {
	Speciated    bool
	Assignment   Assignment
	Selection    int
	NextSpecies  int
	SizeBaseline *float64
	Groups       []groupState[S]
}

type checkpoint struct {
	Generation   int
	NextMazeID   int
	NextAgentID  int
	NodeKeyIndex int
	Mazes        populationState[mazeState]
	Agents       populationState[agentState]
}

func init() {
	gob.Register(map[int]*neat.NodeGene{})
	gob.Register(map[neat.ConnectionKey]*neat.ConnectionGene{})
}

// SaveCheckpoint writes the engine state to path as gzipped gob.
func SaveCheckpoint(path string, e *Engine) error {
	cp := checkpoint{
		Generation:   e.Generation,
		NextMazeID:   e.MazeIDs.NextID,
		NextAgentID:  e.AgentIDs.NextID,
		NodeKeyIndex: e.Config.Neat.Genome.NodeKeyIndex,
	}
	var err error
	if cp.Mazes, err = capturePopulation(e.Mazes, saveMaze); err != nil {
		return fmt.Errorf("capture mazes: %w", err)
	}
	if cp.Agents, err = capturePopulation(e.Agents, saveAgent); err != nil {
		return fmt.Errorf("capture agents: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", path, err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	if err := gob.NewEncoder(gz).Encode(cp); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint '%s': %w", path, err)
	}
	orDiscard(e.Logger).Printf("checkpoint saved to %s (generation %d)", path, e.Generation)
	return nil
}

// LoadCheckpoint restores an engine saved by SaveCheckpoint. cfg must be the
// configuration the run was started with.
func LoadCheckpoint(path string, cfg *config.Config, logger *log.Logger) (*Engine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", path, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gz.Close()

	var cp checkpoint
	if err := gob.NewDecoder(gz).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint '%s': %w", path, err)
	}

	e := &Engine{
		Config:     cfg,
		AgentIDs:   NewIDCounter(cp.NextAgentID),
		MazeIDs:    NewIDCounter(cp.NextMazeID),
		Logger:     logger,
		Generation: cp.Generation,
	}
	genomeConfig := &cfg.Neat.Genome
	genomeConfig.EnsureNodeKeyAbove(cp.NodeKeyIndex - 1)
	loadMaze := func(s mazeState) *Maze {
		return &Maze{ID: s.ID, Genome: s.Genome, Viable: s.Viable, SolverID: s.SolverID, Config: &cfg.Maze}
	}
	loadAgent := func(s agentState) *Agent {
		g := neat.NewGenome(s.ID, genomeConfig)
		for k, n := range s.Nodes {
			g.Nodes[k] = n
		}
		for k, c := range s.Connections {
			g.Connections[k] = c
		}
		genomeConfig.EnsureNodeKeyAbove(g.MaxNodeKey())
		return &Agent{ID: s.ID, Genome: g, Viable: s.Viable, SolvedMazeID: s.SolvedMazeID}
	}

	if e.Mazes, err = restorePopulation(cp.Mazes, loadMaze, e.MazeIDs); err != nil {
		return nil, fmt.Errorf("restore mazes: %w", err)
	}
	if e.Agents, err = restorePopulation(cp.Agents, loadAgent, e.AgentIDs); err != nil {
		return nil, fmt.Errorf("restore agents: %w", err)
	}
	if cfg.MCC.Speciated() != cp.Mazes.Speciated {
		return nil, fmt.Errorf("checkpoint '%s' does not match experiment %s", path, cfg.MCC.Experiment)
	}
	if cfg.MCC.Speciated() {
		finder := NewSeedFinder(cfg, &SeedIDs{Mazes: e.MazeIDs, Agents: e.AgentIDs}, logger)
		if err := e.attachController(finder); err != nil {
			return nil, err
		}
	}
	orDiscard(logger).Printf("checkpoint loaded from %s (generation %d)", path, e.Generation)
	return e, nil
}

func saveMaze(m *Maze) mazeState {
	return mazeState{ID: m.ID, Viable: m.Viable, SolverID: m.SolverID, Genome: m.Genome}
}

func saveAgent(a *Agent) agentState {
	return agentState{
		ID:           a.ID,
		Viable:       a.Viable,
		SolvedMazeID: a.SolvedMazeID,
		Nodes:        a.Genome.Nodes,
		Connections:  a.Genome.Connections,
	}
}

func captureQueue[T Individual[T], S any](q *Queue[T], save func(T) S) groupState[S] {
	g := groupState[S]{
		Capacity:     q.Capacity(),
		Cursor:       q.Cursor(),
		Selection:    q.Selection(),
		Sizes:        q.Sizes,
		Complexities: q.Complexities,
	}
	for _, x := range q.items {
		g.Members = append(g.Members, save(x))
	}
	return g
}

func capturePopulation[T Individual[T], S any](p Population[T], save func(T) S) (populationState[S], error) {
	switch p := p.(type) {
	case *Queue[T]:
		return populationState[S]{
			Selection: p.Selection(),
			Groups:    []groupState[S]{captureQueue(p, save)},
		}, nil
	case *SpeciatedQueue[T]:
		st := populationState[S]{
			Speciated:    true,
			Assignment:   p.Assignment(),
			Selection:    p.selection,
			NextSpecies:  p.speciesIDs.NextID,
			SizeBaseline: p.sizeBaseline,
		}
		for _, s := range p.species {
			g := captureQueue(s.Queue, save)
			g.ID = s.ID
			g.Centroid = save(s.Centroid)
			st.Groups = append(st.Groups, g)
		}
		return st, nil
	}
	return populationState[S]{}, fmt.Errorf("unsupported population %T", p)
}

func restoreGroup[T Individual[T], S any](g groupState[S], load func(S) T, ids *IDCounter) (*Queue[T], error) {
	if len(g.Members) == 0 {
		return nil, ErrNoFounders
	}
	if g.Capacity <= 0 {
		return nil, ErrZeroCapacity
	}
	items := make([]T, 0, len(g.Members))
	for _, s := range g.Members {
		items = append(items, load(s))
	}
	q := restoreQueue(items, g.Capacity, g.Selection, g.Cursor, ids)
	q.Sizes = g.Sizes
	q.Complexities = g.Complexities
	return q, nil
}

func restorePopulation[T Individual[T], S any](st populationState[S], load func(S) T, ids *IDCounter) (Population[T], error) {
	if len(st.Groups) == 0 {
		return nil, ErrNoFounders
	}
	if !st.Speciated {
		q, err := restoreGroup(st.Groups[0], load, ids)
		if err != nil {
			return nil, err
		}
		return q, nil
	}
	q := &SpeciatedQueue[T]{
		selection:    st.Selection,
		assignment:   st.Assignment,
		ids:          ids,
		speciesIDs:   NewIDCounter(st.NextSpecies),
		sizeBaseline: st.SizeBaseline,
	}
	for _, g := range st.Groups {
		queue, err := restoreGroup(g, load, ids)
		if err != nil {
			return nil, fmt.Errorf("species %d: %w", g.ID, err)
		}
		q.species = append(q.species, &Species[T]{ID: g.ID, Centroid: load(g.Centroid), Queue: queue})
	}
	return q, nil
}
