package mcc

import (
	"fmt"
	"strings"
)

// GenerationStatistics summarises both populations after a generation.
type GenerationStatistics struct {
	Generation int
	Agents     int
	Mazes      int

	AverageMazeSize  float64
	LargestMazeSize  int
	SmallestMazeSize int

	AveragePathComplexity  float64
	LargestPathComplexity  int
	SmallestPathComplexity int

	AverageAgentSize  float64
	LargestAgentSize  int
	SmallestAgentSize int

	MazeSizeIncrease           float64
	PathComplexityIncrease     float64
	LastMazeSizeIncrease       float64
	LastPathComplexityIncrease float64
	AgentSizeIncrease          float64
	LastAgentSizeIncrease      float64

	// Viable children admitted this generation. Not part of String.
	AdmittedAgents int
	AdmittedMazes  int
}

// CollectStatistics reads the aggregates of both populations. Neither may
// be empty.
func CollectStatistics(generation int, agents Population[*Agent], mazes Population[*Maze]) GenerationStatistics {
	agentItems := agents.Items()
	mazeItems := mazes.Items()
	sizes := summarize(mazeItems, (*Maze).Size)
	paths := summarize(mazeItems, (*Maze).Complexity)
	agentSizes := summarize(agentItems, (*Agent).Size)

	s := GenerationStatistics{
		Generation:             generation,
		Agents:                 len(agentItems),
		Mazes:                  len(mazeItems),
		AverageMazeSize:        sizes.Average,
		LargestMazeSize:        sizes.Largest,
		SmallestMazeSize:       sizes.Smallest,
		AveragePathComplexity:  paths.Average,
		LargestPathComplexity:  paths.Largest,
		SmallestPathComplexity: paths.Smallest,
		AverageAgentSize:       agentSizes.Average,
		LargestAgentSize:       agentSizes.Largest,
		SmallestAgentSize:      agentSizes.Smallest,
	}
	s.MazeSizeIncrease, s.LastMazeSizeIncrease = mazes.SizeIncrease()
	s.PathComplexityIncrease, s.LastPathComplexityIncrease = mazes.ComplexityIncrease()
	s.AgentSizeIncrease, s.LastAgentSizeIncrease = agents.SizeIncrease()
	return s
}

// String renders the whitespace separated statistics line.
func (s GenerationStatistics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d %d %.2f %d %d %.2f %d %d %.2f %d %d",
		s.Generation, s.Agents, s.Mazes,
		s.AverageMazeSize, s.LargestMazeSize, s.SmallestMazeSize,
		s.AveragePathComplexity, s.LargestPathComplexity, s.SmallestPathComplexity,
		s.AverageAgentSize, s.LargestAgentSize, s.SmallestAgentSize)
	fmt.Fprintf(&b, " %.5f %.5f %.5f %.5f %.5f %.5f",
		s.MazeSizeIncrease, s.PathComplexityIncrease,
		s.LastMazeSizeIncrease, s.LastPathComplexityIncrease,
		s.AgentSizeIncrease, s.LastAgentSizeIncrease)
	return b.String()
}
