// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gopilco/timestep"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() mat.Vector
}

// Task implements the reward scheme for taking actions in some environment
type Task interface {
	GetReward(state, action, nextState mat.Vector) float64
	AtGoal(state mat.Vector) bool
}

// Environment implements a simulated environment, which includes a Task to
// complete
type Environment interface {
	Task
	Starter

	Reset() timestep.TimeStep
	Step(action mat.Vector) (timestep.TimeStep, bool, error)

	ObservationDims() int
	ActionDims() int

	// MaxAction returns the largest action magnitude the environment
	// accepts; actions outside [-MaxAction, MaxAction] are clipped.
	MaxAction() float64
}
