// Package model defines the probabilistic dynamics model contract
package model

import "gonum.org/v1/gonum/mat"

// Hyperparameters holds the learned kernel hyperparameters of a single
// output dimension of a dynamics model, for diagnostic inspection
type Hyperparameters struct {
	Lengthscales   []float64
	SignalVariance float64
	NoiseVariance  float64
}

// Model is a probabilistic dynamics model. It maps an uncertain
// Gaussian input distribution over (state, action) to an uncertain
// Gaussian output distribution over state deltas via moment matching.
//
// Predict takes the joint input mean (1×(stateDims+actionDims)) and
// covariance and returns the delta mean (1×stateDims), the delta
// covariance (stateDims×stateDims), and the input-delta
// cross-covariance premultiplied by the inverse input covariance
// ((stateDims+actionDims)×stateDims), so that the true cross-covariance
// is inputCov times the returned matrix.
type Model interface {
	Predict(m, s *mat.Dense) (deltaMean, deltaCov,
		crossCov *mat.Dense, err error)

	// Fit optimizes the model's hyperparameters against its current
	// training data. It is invoked once before each round of policy
	// optimization; the model's parameters are held fixed afterwards.
	Fit() error

	// SetData replaces the model's training set with inputs x
	// (n×(stateDims+actionDims)) and targets y (n×stateDims)
	SetData(x, y *mat.Dense) error

	// Hyperparameters reports the model's learned kernel
	// hyperparameters per output dimension. Informational only.
	Hyperparameters() []Hyperparameters

	InputDims() int
	OutputDims() int
}
