// Package policy defines the controller contracts consumed by the
// belief-propagation rollout and the restart controller
package policy

import "gonum.org/v1/gonum/mat"

// Policy maps an uncertain Gaussian state distribution to an uncertain
// action distribution.
//
// ComputeAction takes the state mean (1×stateDims) and covariance
// (stateDims×stateDims) and returns the action mean (1×actionDims),
// the action covariance (actionDims×actionDims), and the state-action
// cross-covariance premultiplied by the inverse state covariance
// (stateDims×actionDims): the true cross-covariance is the state
// covariance times the returned matrix. A policy is stochastic in its
// output only through propagated state uncertainty, never through
// independent noise.
type Policy interface {
	ComputeAction(m, s *mat.Dense) (actionMean, actionCov,
		crossCov *mat.Dense, err error)

	// Params returns a flat deep copy of all tunable parameters. The
	// returned slice is the atomic snapshot unit for checkpointing
	// and rollback.
	Params() []float64

	// SetParams overwrites all tunable parameters from a flat vector
	// previously produced by Params (or optimized from one)
	SetParams(params []float64) error

	StateDims() int
	ActionDims() int
}

// Group is one mutable parameter sub-component of a policy: a set of
// basis-function inputs, their targets, and kernel lengthscales. The
// fields are live references into the policy; mutating them mutates
// the policy.
type Group struct {
	Inputs       *mat.Dense    // n×stateDims
	Targets      *mat.VecDense // n
	Lengthscales *mat.VecDense // stateDims
}

// Perturbable is a Policy whose parameter sub-components can be
// randomly perturbed or reinitialized by the restart controller
type Perturbable interface {
	Policy

	// Groups returns the policy's live parameter sub-components, one
	// per action dimension
	Groups() []*Group
}
