package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/baldhumanity/mcc-maze/maze"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, experiment, config_path, started_at, generations, finished)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			experiment = excluded.experiment,
			config_path = excluded.config_path,
			started_at = excluded.started_at,
			generations = excluded.generations,
			finished = excluded.finished
	`, run.ID, run.Experiment, run.ConfigPath, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Generations, run.Finished)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return RunRecord{}, false, err
	}

	run := RunRecord{ID: id}
	var startedAt string
	err = db.QueryRowContext(ctx, `
		SELECT experiment, config_path, started_at, generations, finished FROM runs WHERE id = ?
	`, id).Scan(&run.Experiment, &run.ConfigPath, &startedAt, &run.Generations, &run.Finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, false, nil
		}
		return RunRecord{}, false, err
	}

	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("decode run %s start time: %w", id, err)
	}
	return run, true, nil
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, rec GenerationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, agents, mazes, average_maze_size, average_path_complexity, average_agent_size, line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			agents = excluded.agents,
			mazes = excluded.mazes,
			average_maze_size = excluded.average_maze_size,
			average_path_complexity = excluded.average_path_complexity,
			average_agent_size = excluded.average_agent_size,
			line = excluded.line
	`, rec.RunID, rec.Generation, rec.Agents, rec.Mazes, rec.AverageMazeSize, rec.AveragePathComplexity, rec.AverageAgentSize, rec.Line)
	return err
}

func (s *SQLiteStore) ListGenerations(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, agents, mazes, average_maze_size, average_path_complexity, average_agent_size, line
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		rec := GenerationRecord{RunID: runID}
		if err := rows.Scan(&rec.Generation, &rec.Agents, &rec.Mazes, &rec.AverageMazeSize,
			&rec.AveragePathComplexity, &rec.AverageAgentSize, &rec.Line); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveMaze(ctx context.Context, rec MazeRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(rec.Genome)
	if err != nil {
		return fmt.Errorf("encode maze %d: %w", rec.MazeID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO mazes (run_id, maze_id, generation, solver_id, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, maze_id) DO UPDATE SET
			generation = excluded.generation,
			solver_id = excluded.solver_id,
			payload = excluded.payload
	`, rec.RunID, rec.MazeID, rec.Generation, rec.SolverID, payload)
	return err
}

func (s *SQLiteStore) ListMazes(ctx context.Context, runID string) ([]MazeRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT maze_id, generation, solver_id, payload FROM mazes WHERE run_id = ? ORDER BY maze_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MazeRecord
	for rows.Next() {
		rec := MazeRecord{RunID: runID}
		var payload []byte
		if err := rows.Scan(&rec.MazeID, &rec.Generation, &rec.SolverID, &payload); err != nil {
			return nil, err
		}
		var g *maze.Genome
		if err := json.Unmarshal(payload, &g); err != nil {
			return nil, fmt.Errorf("decode maze %d: %w", rec.MazeID, err)
		}
		rec.Genome = g
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			experiment TEXT NOT NULL,
			config_path TEXT NOT NULL,
			started_at TEXT NOT NULL,
			generations INTEGER NOT NULL,
			finished INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			mazes INTEGER NOT NULL,
			average_maze_size REAL NOT NULL,
			average_path_complexity REAL NOT NULL,
			average_agent_size REAL NOT NULL,
			line TEXT NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS mazes (
			run_id TEXT NOT NULL,
			maze_id INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			solver_id INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, maze_id)
		);
	`)
	return err
}
