package neat

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

// parseBoolAttribute reads true/yes/on/1 as true. "random" and "none" draw a
// fresh coin flip on every call.
func parseBoolAttribute(valStr string) bool {
	switch strings.ToLower(strings.TrimSpace(valStr)) {
	case "true", "yes", "on", "1":
		return true
	case "random", "none":
		return rand.Float64() < 0.5
	}
	return false
}

// --- Statistical functions ---

// Mean is the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Stdev is the sample standard deviation, 0 for fewer than two values.
func Stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Sum adds the values.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// MaxFloat returns the largest value, or -Inf for an empty slice.
func MaxFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(values)
}

// MinFloat returns the smallest value, or +Inf for an empty slice.
func MinFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(1)
	}
	return floats.Min(values)
}

// Median averages the two middle values of an even-length slice. It returns
// NaN for an empty slice and leaves the input untouched.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// StatFunctions maps species_fitness_func names to reducers.
var StatFunctions = map[string]func([]float64) float64{
	"mean":   Mean,
	"stdev":  Stdev,
	"sum":    Sum,
	"max":    MaxFloat,
	"min":    MinFloat,
	"median": Median,
}
