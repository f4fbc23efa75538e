package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/mcc-maze/config"
	"github.com/baldhumanity/mcc-maze/mcc"
)

var seedMazes int

var seedsCmd = &cobra.Command{
	Use:   "seeds",
	Short: "Search for seed mazes and render them with a solver",
	Long: `Runs only the seed search of an experiment. Every seed maze is written as a PNG
with the trajectory of its first solver.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if seedMazes > 0 {
			cfg.MCC.MazeSeedAmount = seedMazes
		}
		return findSeeds(cmd.Context(), cfg, newLogger())
	},
}

func init() {
	seedsCmd.Flags().IntVar(&seedMazes, "mazes", 0, "number of seed mazes, overrides [MCC] maze_seed_amount")
	rootCmd.AddCommand(seedsCmd)
}

func findSeeds(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	finder := mcc.NewSeedFinder(cfg, mcc.NewSeedIDs(), logger)
	seeds, err := finder.Find(ctx, cfg.MCC.MazeSeedAmount, cfg.MCC.AgentsPerMaze())
	if err != nil {
		return fmt.Errorf("find seeds: %w", err)
	}

	dir := filepath.Join(cfg.Output.Directory, "seeds")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create seed directory '%s': %w", dir, err)
	}
	for _, s := range seeds {
		if err := renderMazeWithSolver(s.Maze, s.Agents, cfg, dir, logger); err != nil {
			return err
		}
		logger.Printf("seed maze %d (%dx%d) solved by %d agents", s.Maze.ID, s.Maze.Genome.Width, s.Maze.Genome.Height, len(s.Agents))
	}
	logger.Printf("wrote %d seed mazes to '%s'", len(seeds), dir)
	return nil
}
