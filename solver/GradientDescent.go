package solver

import "gonum.org/v1/gonum/optimize"

// GradientDescentConfig describes a configuration of the gradient
// descent solver
type GradientDescentConfig struct {
	MaxIterations     int
	GradientTolerance float64
}

// NewGradientDescent returns a new gradient descent Solver
func NewGradientDescent(maxIterations int,
	gradientTolerance float64) (*Solver, error) {
	config := GradientDescentConfig{
		MaxIterations:     maxIterations,
		GradientTolerance: gradientTolerance,
	}

	return newSolver(GradientDescent, config)
}

// Create returns a new gonum gradient descent Method as described by
// the GradientDescentConfig
func (g GradientDescentConfig) Create() optimize.Method {
	return &optimize.GradientDescent{}
}

// Settings returns the optimization settings described by the
// GradientDescentConfig
func (g GradientDescentConfig) Settings() *optimize.Settings {
	return &optimize.Settings{
		MajorIterations:   g.MaxIterations,
		GradientThreshold: g.GradientTolerance,
	}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (g GradientDescentConfig) ValidType(t Type) bool {
	return t == GradientDescent
}
