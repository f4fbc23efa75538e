package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]RunRecord
	generations map[string]map[int]GenerationRecord
	mazes       map[string]map[int]MazeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]RunRecord)
	s.generations = make(map[string]map[int]GenerationRecord)
	s.mazes = make(map[string]map[int]MazeRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, rec GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	byGen := s.generations[rec.RunID]
	if byGen == nil {
		byGen = make(map[int]GenerationRecord)
		s.generations[rec.RunID] = byGen
	}
	byGen[rec.Generation] = rec
	return nil
}

// ListGenerations returns the records of a run in generation order.
func (s *MemoryStore) ListGenerations(_ context.Context, runID string) ([]GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]GenerationRecord, 0, len(s.generations[runID]))
	for _, rec := range s.generations[runID] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Generation < out[j].Generation })
	return out, nil
}

func (s *MemoryStore) SaveMaze(_ context.Context, rec MazeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}

	byID := s.mazes[rec.RunID]
	if byID == nil {
		byID = make(map[int]MazeRecord)
		s.mazes[rec.RunID] = byID
	}
	if rec.Genome != nil {
		rec.Genome = rec.Genome.Clone()
	}
	byID[rec.MazeID] = rec
	return nil
}

// ListMazes returns the mazes of a run ordered by maze id.
func (s *MemoryStore) ListMazes(_ context.Context, runID string) ([]MazeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MazeRecord, 0, len(s.mazes[runID]))
	for _, rec := range s.mazes[runID] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MazeID < out[j].MazeID })
	return out, nil
}
