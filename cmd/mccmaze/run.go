package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/mcc-maze/analytics"
	"github.com/baldhumanity/mcc-maze/config"
	"github.com/baldhumanity/mcc-maze/mcc"
	"github.com/baldhumanity/mcc-maze/storage"
)

var (
	resumePath  string
	sampleCount int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a coevolution experiment",
	Long: `Finds seed mazes and agents, then runs [MCC] generations of the configured experiment.
Statistics, checkpoints, a growth plot and rendered solutions are written to the output directory.
An interrupted run stops at the end of the current generation and still writes its results.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runExperiment(cmd.Context(), cfg, newLogger())
	},
}

func init() {
	runCmd.Flags().StringVar(&resumePath, "resume", "", "continue from a checkpoint file")
	runCmd.Flags().IntVar(&sampleCount, "samples", 5, "number of final mazes to render with their solver")
	rootCmd.AddCommand(runCmd)
}

func checkpointPath(cfg *config.Config, generation int) string {
	return filepath.Join(cfg.Output.Directory, "checkpoints", fmt.Sprintf("generation-%04d.gob.gz", generation))
}

func runExperiment(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)

	var e *mcc.Engine
	if resumePath != "" {
		e, err = mcc.LoadCheckpoint(resumePath, cfg, logger)
		if err != nil {
			return err
		}
		logger.Printf("resumed from '%s' at generation %d", resumePath, e.Generation)
	} else {
		ids := mcc.NewSeedIDs()
		finder := mcc.NewSeedFinder(cfg, ids, logger)
		seeds, err := finder.Find(ctx, cfg.MCC.MazeSeedAmount, cfg.MCC.AgentsPerMaze())
		if err != nil {
			return fmt.Errorf("find seeds: %w", err)
		}
		e, err = mcc.NewEngine(cfg, seeds, finder, ids, logger)
		if err != nil {
			return err
		}
	}

	run := storage.RunRecord{
		ID:          storage.NewRunID(),
		Experiment:  cfg.MCC.Experiment,
		ConfigPath:  configPath,
		StartedAt:   time.Now().UTC(),
		Generations: cfg.MCC.Generations,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}
	logger.Printf("run %s: %s experiment, %d generations", run.ID, run.Experiment, run.Generations)

	analyzer, err := analytics.NewAnalyzer(cfg.Output.Directory, store, run.ID)
	if err != nil {
		return err
	}
	defer analyzer.Close()
	analyzer.NoPlot = !cfg.Output.Plot

	e.Observer = analyzer
	e.Saver = func(ctx context.Context, eng *mcc.Engine) error {
		if err := analyzer.RecordMazes(ctx, eng.Generation-1, eng.Mazes.Items()); err != nil {
			return err
		}
		if !cfg.Output.Checkpoint {
			return nil
		}
		return saveCheckpoint(cfg, eng, logger)
	}

	err = e.Run(ctx)
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return err
	}

	// The signal context is done on interrupt, so the results are written
	// under a fresh one.
	finishCtx := context.WithoutCancel(ctx)
	if interrupted && cfg.Output.Checkpoint {
		if err := saveCheckpoint(cfg, e, logger); err != nil {
			return err
		}
	}
	if err := analyzer.Finish(finishCtx, e.Agents.Items(), e.Mazes.Items()); err != nil {
		return err
	}
	if err := renderSolutions(e, filepath.Join(cfg.Output.Directory, "mazes"), sampleCount, logger); err != nil {
		return err
	}
	if interrupted {
		logger.Printf("run %s interrupted at generation %d", run.ID, e.Generation)
		return nil
	}
	run.Finished = true
	return store.SaveRun(finishCtx, run)
}

func saveCheckpoint(cfg *config.Config, e *mcc.Engine, logger *log.Logger) error {
	path := checkpointPath(cfg, e.Generation)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}
	if err := mcc.SaveCheckpoint(path, e); err != nil {
		return err
	}
	logger.Printf("saved checkpoint '%s'", path)
	return nil
}

// renderSolutions draws the newest count mazes of the engine with the
// trajectory of their solver. A maze whose solver has been evicted is
// drawn with the first surviving agent that solves it, or without a
// trajectory.
func renderSolutions(e *mcc.Engine, dir string, count int, logger *log.Logger) error {
	mazes := e.Mazes.Items()
	if count <= 0 || len(mazes) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create maze directory '%s': %w", dir, err)
	}
	agents := e.Agents.Items()
	byID := make(map[int]*mcc.Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}

	if count > len(mazes) {
		count = len(mazes)
	}
	for _, m := range mazes[len(mazes)-count:] {
		candidates := agents
		if a, ok := byID[m.SolverID]; ok {
			candidates = append([]*mcc.Agent{a}, agents...)
		}
		if err := renderMazeWithSolver(m, candidates, e.Config, dir, logger); err != nil {
			return err
		}
	}
	return nil
}

func renderMazeWithSolver(m *mcc.Maze, candidates []*mcc.Agent, cfg *config.Config, dir string, logger *log.Logger) error {
	caption := fmt.Sprintf("maze %d  %dx%d", m.ID, m.Genome.Width, m.Genome.Height)
	ph, err := m.Genome.ToPhenotype()
	if err != nil {
		return fmt.Errorf("maze %d: %w", m.ID, err)
	}
	for _, a := range candidates {
		_, res, err := analytics.Trace(a, m, cfg.Simulator)
		if err != nil {
			logger.Printf("trace agent %d in maze %d: %v", a.ID, m.ID, err)
			continue
		}
		if !res.ReachedEnd {
			continue
		}
		img := analytics.RenderMaze(ph, res.Path, cfg.Output.RenderScale, fmt.Sprintf("%s  agent %d", caption, a.ID))
		return analytics.SavePNG(img, filepath.Join(dir, fmt.Sprintf("maze-%d.png", m.ID)))
	}

	logger.Printf("no surviving agent solves maze %d", m.ID)
	img := analytics.RenderMaze(ph, nil, cfg.Output.RenderScale, caption)
	return analytics.SavePNG(img, filepath.Join(dir, fmt.Sprintf("maze-%d.png", m.ID)))
}
