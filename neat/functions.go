package neat

import (
	"fmt"
	"math"
)

// ActivationType is a neuron transfer function. The node response has
// already been applied to x.
type ActivationType func(x float64) float64

// AggregationType folds the weighted inputs of a node into one value.
type AggregationType func(inputs []float64) float64

// ActivationFunctions maps activation_options names to functions.
var ActivationFunctions = map[string]ActivationType{
	"sigmoid":  Sigmoid,
	"tanh":     math.Tanh,
	"relu":     ReLU,
	"identity": Identity,
	"clamped":  Clamped,
	"gaussian": Gaussian,
	"abs":      math.Abs,
	"absolute": math.Abs,
	"sin":      math.Sin,
	"sine":     math.Sin,
	"cos":      math.Cos,
	"inv":      Inv,
	"log":      Log,
	"exp":      Exp,
	"hat":      Hat,
	"square":   Square,
	"cube":     Cube,
}

// AggregationFunctions maps aggregation_options names to functions.
var AggregationFunctions = map[string]AggregationType{
	"sum":     Sum,
	"product": Product,
	"min":     MinFloat,
	"max":     MaxFloat,
	"mean":    Mean,
	"average": Mean,
	"median":  Median,
	"maxabs":  MaxAbs,
}

// GetActivation looks up an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// GetAggregation looks up an aggregation function by name.
func GetAggregation(name string) (AggregationType, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// Sigmoid is the logistic function with slope 4.9, clamped against overflow.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-4.9*clamp(x, -60, 60)))
}

func ReLU(x float64) float64 {
	return math.Max(0, x)
}

func Identity(x float64) float64 {
	return x
}

// Clamped limits x to [-1, 1].
func Clamped(x float64) float64 {
	return clamp(x, -1, 1)
}

func Gaussian(x float64) float64 {
	x = clamp(x, -3.4, 3.4)
	return math.Exp(-5.0 * x * x)
}

// Inv returns 1/x, or 0 at x == 0.
func Inv(x float64) float64 {
	if x == 0 {
		return 0
	}
	return 1.0 / x
}

func Log(x float64) float64 {
	return math.Log(math.Max(1e-7, x))
}

func Exp(x float64) float64 {
	return math.Exp(clamp(x, -60, 60))
}

// Hat is a triangular pulse of width 2 centred on 0.
func Hat(x float64) float64 {
	return math.Max(0, 1-math.Abs(x))
}

func Square(x float64) float64 {
	return x * x
}

func Cube(x float64) float64 {
	return x * x * x
}

// Product multiplies the inputs; an empty product is 1.
func Product(inputs []float64) float64 {
	p := 1.0
	for _, v := range inputs {
		p *= v
	}
	return p
}

// MaxAbs returns the input with the largest magnitude, sign preserved.
func MaxAbs(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	best := inputs[0]
	for _, v := range inputs[1:] {
		if math.Abs(v) > math.Abs(best) {
			best = v
		}
	}
	return best
}
