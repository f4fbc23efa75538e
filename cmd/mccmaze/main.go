// Command mccmaze coevolves mazes and maze-solving NEAT agents with minimal
// criterion coevolution.
//
//	mccmaze run --config configs/mcc.ini --out output
//	mccmaze seeds
//	mccmaze render --width 12 --height 12 --output maze.png
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/mcc-maze/config"
	"github.com/baldhumanity/mcc-maze/storage"
)

var (
	configPath string
	outDir     string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "mccmaze",
	Short:         "Coevolve mazes and NEAT agents",
	Long:          `Runs minimal criterion coevolution of procedurally generated mazes and the NEAT agents that solve them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/mcc.ini", "path to the experiment configuration")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "", "output directory, overrides [Output] directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "do not log progress")
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mccmaze:", err)
		os.Exit(1)
	}
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func newLogger() *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "mccmaze: ", log.LstdFlags)
}

// loadConfig reads --config and applies --out.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if outDir != "" {
		cfg.Output.Directory = outDir
	}
	return cfg, nil
}

// openStore creates the configured store and its tables. A relative
// sqlite path is taken relative to the output directory.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory '%s': %w", cfg.Output.Directory, err)
	}
	path := cfg.Output.SQLitePath
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Output.Directory, path)
	}
	store, err := storage.NewStore(cfg.Output.Store, path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return store, nil
}
