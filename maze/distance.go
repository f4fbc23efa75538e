package maze

import "math"

// Distance is a non-negative, symmetric genetic distance between two maze
// genomes. It adds the size difference, the displacement of index-aligned
// waypoints relative to maze size, the share of genes without a counterpart,
// and the attribute difference of index-aligned wall genes.
func (g *Genome) Distance(other *Genome) float64 {
	d := math.Abs(float64(g.Width-other.Width)) + math.Abs(float64(g.Height-other.Height))

	scale := float64(max(g.Width+g.Height, other.Width+other.Height))
	matched := min(len(g.PathGenes), len(other.PathGenes))
	for i := 0; i < matched; i++ {
		a, b := g.PathGenes[i], other.PathGenes[i]
		d += float64(abs(a.X-b.X)+abs(a.Y-b.Y)) / scale
	}
	if longest := max(len(g.PathGenes), len(other.PathGenes)); longest > 0 {
		d += float64(longest-matched) / float64(longest)
	}

	matched = min(len(g.WallGenes), len(other.WallGenes))
	if matched > 0 {
		sum := 0.0
		for i := 0; i < matched; i++ {
			a, b := g.WallGenes[i], other.WallGenes[i]
			sum += math.Abs(a.WallPosition-b.WallPosition) + math.Abs(a.PassagePosition-b.PassagePosition)
			if a.Orientation != b.Orientation {
				sum++
			}
			if a.OpeningLocation != b.OpeningLocation {
				sum++
			}
		}
		d += sum / float64(matched)
	}
	if longest := max(len(g.WallGenes), len(other.WallGenes)); longest > 0 {
		d += float64(longest-matched) / float64(longest)
	}
	return d
}
