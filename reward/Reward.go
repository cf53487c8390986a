// Package reward defines the reward functional contract consumed by
// the belief-propagation rollout
package reward

import "gonum.org/v1/gonum/mat"

// Reward maps an uncertain Gaussian state distribution to the expected
// value and variance of an immediate reward.
//
// ComputeReward takes the state mean (1×stateDims) and covariance
// (stateDims×stateDims) and returns the expected reward and its
// variance, each as a 1×1 matrix.
type Reward interface {
	ComputeReward(m, s *mat.Dense) (expected, variance *mat.Dense, err error)
}
