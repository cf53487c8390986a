package solver

import "gonum.org/v1/gonum/optimize"

// LBFGSConfig describes a configuration of the L-BFGS solver
type LBFGSConfig struct {
	MaxIterations     int
	GradientTolerance float64
	Store             int // history size for the curvature approximation
}

// NewDefaultLBFGS returns a new L-BFGS Solver with default
// hyperparameters and the given major iteration budget
func NewDefaultLBFGS(maxIterations int) (*Solver, error) {
	return NewLBFGS(maxIterations, 1e-6, 15)
}

// NewLBFGS returns a new L-BFGS Solver
func NewLBFGS(maxIterations int, gradientTolerance float64,
	store int) (*Solver, error) {
	lbfgs := LBFGSConfig{
		MaxIterations:     maxIterations,
		GradientTolerance: gradientTolerance,
		Store:             store,
	}

	return newSolver(LBFGS, lbfgs)
}

// Create returns a new gonum L-BFGS Method as described by the
// LBFGSConfig
func (l LBFGSConfig) Create() optimize.Method {
	return &optimize.LBFGS{Store: l.Store}
}

// Settings returns the optimization settings described by the
// LBFGSConfig
func (l LBFGSConfig) Settings() *optimize.Settings {
	return &optimize.Settings{
		MajorIterations:   l.MaxIterations,
		GradientThreshold: l.GradientTolerance,
	}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (l LBFGSConfig) ValidType(t Type) bool {
	return t == LBFGS
}
