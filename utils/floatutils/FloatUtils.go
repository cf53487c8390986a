// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// Ones returns a slice of n 1.0's
func Ones(n int) []float64 {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1.0
	}
	return ones
}

// Full returns a slice of n copies of value
func Full(n int, value float64) []float64 {
	full := make([]float64, n)
	for i := range full {
		full[i] = value
	}
	return full
}

// Logs returns the element-wise natural logarithm of values in a new
// slice
func Logs(values []float64) []float64 {
	logs := make([]float64, len(values))
	for i, value := range values {
		logs[i] = math.Log(value)
	}
	return logs
}

// Exps returns the element-wise exponential of values in a new slice
func Exps(values []float64) []float64 {
	exps := make([]float64, len(values))
	for i, value := range values {
		exps[i] = math.Exp(value)
	}
	return exps
}
