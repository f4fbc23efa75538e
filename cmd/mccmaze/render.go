package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/mcc-maze/analytics"
	"github.com/baldhumanity/mcc-maze/maze"
)

var (
	renderWidth  int
	renderHeight int
	renderGenome string
	renderOutput string
	renderScale  int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a maze genome as a PNG",
	Long: `Compiles a maze genome and draws it. The genome is read from a JSON file given with --genome,
in the format the store keeps, or generated at random with --width and --height.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		g, err := renderSource()
		if err != nil {
			return err
		}
		if err := renderGenomeTo(g, renderOutput, renderScale); err != nil {
			return err
		}
		newLogger().Printf("wrote %dx%d maze to '%s'", g.Width, g.Height, renderOutput)
		return nil
	},
}

func init() {
	renderCmd.Flags().IntVar(&renderWidth, "width", 10, "width of a random maze")
	renderCmd.Flags().IntVar(&renderHeight, "height", 10, "height of a random maze")
	renderCmd.Flags().StringVar(&renderGenome, "genome", "", "JSON file holding a maze genome")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "maze.png", "image file to write")
	renderCmd.Flags().IntVar(&renderScale, "scale", 4, "pixel scale factor")
	rootCmd.AddCommand(renderCmd)
}

func renderSource() (*maze.Genome, error) {
	if renderGenome == "" {
		return maze.Random(renderWidth, renderHeight)
	}
	return readGenome(renderGenome)
}

func readGenome(path string) (*maze.Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genome '%s': %w", path, err)
	}
	var g maze.Genome
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode genome '%s': %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("genome '%s': %w", path, err)
	}
	return &g, nil
}

func renderGenomeTo(g *maze.Genome, path string, scale int) error {
	ph, err := maze.Compile(g)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory '%s': %w", dir, err)
		}
	}
	caption := fmt.Sprintf("%dx%d  %d waypoints  %d walls", g.Width, g.Height, len(g.PathGenes), len(g.WallGenes))
	return analytics.SavePNG(analytics.RenderMaze(ph, nil, scale, caption), path)
}
