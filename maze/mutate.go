package maze

import "math/rand"

// Mutate applies one round of mutation. With probability MutateStructure the
// structural operators each fire by their own probability and one waypoint is
// nudged; otherwise a single wall gene fraction is resampled. Operators that
// would break the path leave the genome untouched.
func (g *Genome) Mutate(cfg *Config) {
	if rand.Float64() < cfg.MutateStructure {
		if rand.Float64() < cfg.AddWall {
			g.AddWall()
		}
		if rand.Float64() < cfg.DeleteWall {
			g.DeleteWall()
		}
		if rand.Float64() < cfg.AddWaypoint {
			g.AddWaypoint()
		}
		if rand.Float64() < cfg.DeleteWaypoint {
			g.DeleteWaypoint()
		}
		if rand.Float64() < cfg.IncreaseSize {
			g.IncreaseSize()
		}
		g.MutateWaypoint()
		return
	}

	if rand.Float64() < 0.5 {
		g.MutateWallPosition()
	} else {
		g.MutatePassagePosition()
	}
}

// MutateWallPosition resamples the wall position of one random wall gene.
func (g *Genome) MutateWallPosition() bool {
	if len(g.WallGenes) == 0 {
		return false
	}
	g.WallGenes[rand.Intn(len(g.WallGenes))].WallPosition = rand.Float64()
	return true
}

// MutatePassagePosition resamples the passage position of one random wall gene.
func (g *Genome) MutatePassagePosition() bool {
	if len(g.WallGenes) == 0 {
		return false
	}
	g.WallGenes[rand.Intn(len(g.WallGenes))].PassagePosition = rand.Float64()
	return true
}

// AddWall appends a random wall gene.
func (g *Genome) AddWall() bool {
	g.WallGenes = append(g.WallGenes, RandomWallGene())
	return true
}

// DeleteWall removes a random wall gene, keeping at least one.
func (g *Genome) DeleteWall() bool {
	if len(g.WallGenes) <= 1 {
		return false
	}
	i := rand.Intn(len(g.WallGenes))
	g.WallGenes = append(g.WallGenes[:i], g.WallGenes[i+1:]...)
	return true
}

// AddWaypoint proposes a random cell as a new final waypoint. The candidate is
// rejected when it shares a row or column with the previous waypoint, sits on
// the entrance, exit or an existing waypoint, or would make the path overlap.
func (g *Genome) AddWaypoint() bool {
	candidate := PathGene{X: rand.Intn(g.Width), Y: rand.Intn(g.Height)}
	p := candidate.Point()

	last := g.Entrance()
	if n := len(g.PathGenes); n > 0 {
		last = g.PathGenes[n-1].Point()
	}
	if p.X == last.X || p.Y == last.Y {
		return false
	}
	if p == g.Entrance() || p == g.Exit() {
		return false
	}
	for _, pg := range g.PathGenes {
		if pg == candidate {
			return false
		}
	}

	genes := make([]PathGene, len(g.PathGenes), len(g.PathGenes)+1)
	copy(genes, g.PathGenes)
	genes = append(genes, candidate)
	if !ValidatePath(g.Width, g.Height, g.FirstDirection, genes) {
		return false
	}
	g.PathGenes = genes
	return true
}

// MutateWaypoint moves one random waypoint a single cell. Up to four shuffled
// directions are tried. A horizontal move may not land on a column used by
// either neighbouring point, and a vertical move may not land on a row used
// by either of them.
func (g *Genome) MutateWaypoint() bool {
	if len(g.PathGenes) == 0 {
		return false
	}
	i := rand.Intn(len(g.PathGenes))
	prev := g.Entrance()
	if i > 0 {
		prev = g.PathGenes[i-1].Point()
	}
	next := g.Exit()
	if i < len(g.PathGenes)-1 {
		next = g.PathGenes[i+1].Point()
	}

	dirs := Directions
	rand.Shuffle(len(dirs), func(a, b int) { dirs[a], dirs[b] = dirs[b], dirs[a] })

	for _, d := range dirs {
		moved := g.PathGenes[i].Point().Step(d)
		if moved.X < 0 || moved.Y < 0 || moved.X >= g.Width || moved.Y >= g.Height {
			continue
		}
		if moved == g.Entrance() || moved == g.Exit() {
			continue
		}
		if d == East || d == West {
			if moved.X == prev.X || moved.X == next.X {
				continue
			}
		} else if moved.Y == prev.Y || moved.Y == next.Y {
			continue
		}

		genes := make([]PathGene, len(g.PathGenes))
		copy(genes, g.PathGenes)
		genes[i] = PathGene{X: moved.X, Y: moved.Y}
		if ValidatePath(g.Width, g.Height, g.FirstDirection, genes) {
			g.PathGenes = genes
			return true
		}
	}
	return false
}

// DeleteWaypoint removes a random waypoint, keeping at least one, when the
// shortened path is still valid.
func (g *Genome) DeleteWaypoint() bool {
	if len(g.PathGenes) <= 1 {
		return false
	}
	i := rand.Intn(len(g.PathGenes))
	genes := make([]PathGene, 0, len(g.PathGenes)-1)
	genes = append(genes, g.PathGenes[:i]...)
	genes = append(genes, g.PathGenes[i+1:]...)
	if !ValidatePath(g.Width, g.Height, g.FirstDirection, genes) {
		return false
	}
	g.PathGenes = genes
	return true
}

// IncreaseSize grows the maze by one column and one row. The entrance and exit
// move with the edges; the change is reverted if the path no longer validates.
func (g *Genome) IncreaseSize() bool {
	if !ValidatePath(g.Width+1, g.Height+1, g.FirstDirection, g.PathGenes) {
		return false
	}
	g.Width++
	g.Height++
	return true
}
