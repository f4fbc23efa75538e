package analytics

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/baldhumanity/mcc-maze/mcc"
)

// PlotGenerations draws average maze size, average path complexity and
// average agent size against the generation and saves the chart to path.
// The image format follows the file extension.
func PlotGenerations(stats []mcc.GenerationStatistics, path string) error {
	if len(stats) == 0 {
		return fmt.Errorf("no generations to plot")
	}
	p := plot.New()
	p.Title.Text = "Population growth"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Average"

	mazeSize := make(plotter.XYs, len(stats))
	complexity := make(plotter.XYs, len(stats))
	agentSize := make(plotter.XYs, len(stats))
	for i, s := range stats {
		g := float64(s.Generation)
		mazeSize[i] = plotter.XY{X: g, Y: s.AverageMazeSize}
		complexity[i] = plotter.XY{X: g, Y: s.AveragePathComplexity}
		agentSize[i] = plotter.XY{X: g, Y: s.AverageAgentSize}
	}

	series := []struct {
		name string
		xys  plotter.XYs
	}{
		{"maze size", mazeSize},
		{"path complexity", complexity},
		{"agent size", agentSize},
	}
	for i, s := range series {
		line, err := plotter.NewLine(s.xys)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot '%s': %w", path, err)
	}
	return nil
}
