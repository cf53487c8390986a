// Package pilco implements model-based policy search by propagating
// Gaussian state beliefs through a learned probabilistic dynamics
// model and a policy, and maximizing the expected cumulative reward of
// the resulting rollouts.
package pilco

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gopilco/model"
	"github.com/samuelfneumann/gopilco/policy"
	"github.com/samuelfneumann/gopilco/reward"
	"github.com/samuelfneumann/gopilco/solver"
	"github.com/samuelfneumann/gopilco/utils/matutils"
)

// Tracker records restart-trial outcomes for later inspection.
// Tracking is informational only and never affects control flow.
type Tracker interface {
	TrackTrial(trial int, strategy string, oldReward, newReward float64,
		accepted bool)
}

// PILCO composes a probabilistic dynamics model, a policy, and a
// reward functional into an uncertainty-propagating rollout, and
// optimizes the policy's parameters against the rollout's expected
// cumulative reward.
//
// All operations run strictly sequentially: the optimizer and the
// restart controller are the only mutators of policy parameters, one
// trial at a time.
type PILCO struct {
	model  model.Model
	policy policy.Policy
	reward reward.Reward

	mInit   *mat.Dense // 1×stateDims
	sInit   *mat.Dense // stateDims×stateDims
	horizon int

	stateDims  int
	actionDims int

	// Live optimizer state, created on first use and threaded through
	// successive optimization calls so that accumulated curvature
	// information is not discarded between restarts
	solver *solver.Solver

	rng     *rand.Rand
	tracker Tracker
}

// New validates the collaborators' dimensions against each other and
// returns a new PILCO. The horizon is the number of belief-propagation
// steps per rollout and must be positive.
func New(m model.Model, p policy.Policy, r reward.Reward, mInit,
	sInit *mat.Dense, horizon int, seed uint64) (*PILCO, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("new: horizon must be positive, got %v",
			horizon)
	}

	stateDims := p.StateDims()
	actionDims := p.ActionDims()
	if m.InputDims() != stateDims+actionDims {
		return nil, fmt.Errorf("new: model has %v input dimensions, policy "+
			"wants %v state + %v action", m.InputDims(), stateDims, actionDims)
	}
	if m.OutputDims() != stateDims {
		return nil, fmt.Errorf("new: model has %v output dimensions, "+
			"expected %v state deltas", m.OutputDims(), stateDims)
	}

	mr, mc := mInit.Dims()
	if mr != 1 || mc != stateDims {
		return nil, fmt.Errorf("new: initial mean must be 1×%v, got %v×%v",
			stateDims, mr, mc)
	}
	sr, sc := sInit.Dims()
	if sr != stateDims || sc != stateDims {
		return nil, fmt.Errorf("new: initial covariance must be %v×%v, got "+
			"%v×%v", stateDims, stateDims, sr, sc)
	}
	if !matutils.IsSymmetric(sInit, 1e-10) {
		return nil, fmt.Errorf("new: initial covariance is not symmetric")
	}

	return &PILCO{
		model:      m,
		policy:     p,
		reward:     r,
		mInit:      mat.DenseCopyOf(mInit),
		sInit:      mat.DenseCopyOf(sInit),
		horizon:    horizon,
		stateDims:  stateDims,
		actionDims: actionDims,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Track registers a tracker to record restart-trial outcomes
func (p *PILCO) Track(t Tracker) { p.tracker = t }

// Horizon returns the rollout horizon
func (p *PILCO) Horizon() int { return p.horizon }

// Model returns the dynamics model
func (p *PILCO) Model() model.Model { return p.model }

// Policy returns the policy
func (p *PILCO) Policy() policy.Policy { return p.policy }

// InitialBelief returns copies of the initial state belief
func (p *PILCO) InitialBelief() (*mat.Dense, *mat.Dense) {
	return mat.DenseCopyOf(p.mInit), mat.DenseCopyOf(p.sInit)
}

// Propagate advances an uncertain state belief N(m, s) by one time
// step: the policy maps the state belief to an action belief, the two
// are joined into a joint Gaussian over (state, action), and the
// dynamics model maps that joint belief to a state-delta belief, which
// is folded back into the next state belief.
//
// The returned mean is 1×stateDims and the returned covariance is
// stateDims×stateDims; these shapes never change across iterations.
func (p *PILCO) Propagate(m, s *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	actionMean, actionCov, actionCross, err := p.policy.ComputeAction(m, s)
	if err != nil {
		return nil, nil, fmt.Errorf("propagate: %v", err)
	}

	// Cov(x, u) = s·actionCross
	crossSA := mat.NewDense(p.stateDims, p.actionDims, nil)
	crossSA.Mul(s, actionCross)

	jointMean, err := matutils.HStack(m, actionMean)
	if err != nil {
		return nil, nil, fmt.Errorf("propagate: %v", err)
	}
	jointCov, err := matutils.Block2x2(s, crossSA, crossSA.T(), actionCov)
	if err != nil {
		return nil, nil, fmt.Errorf("propagate: %v", err)
	}

	deltaMean, deltaCov, deltaCross, err := p.model.Predict(jointMean,
		jointCov)
	if err != nil {
		return nil, nil, fmt.Errorf("propagate: %v", err)
	}

	nextMean := mat.NewDense(1, p.stateDims, nil)
	nextMean.Add(m, deltaMean)

	// Only the state block-row of the joint covariance correlates
	// forward into the next state's uncertainty
	stateRow, err := matutils.HStack(s, crossSA)
	if err != nil {
		return nil, nil, fmt.Errorf("propagate: %v", err)
	}
	crossTerm := mat.NewDense(p.stateDims, p.stateDims, nil)
	crossTerm.Mul(stateRow, deltaCross)

	nextCov := mat.NewDense(p.stateDims, p.stateDims, nil)
	nextCov.Add(deltaCov, s)
	nextCov.Add(nextCov, crossTerm)
	nextCov.Add(nextCov, crossTerm.T())

	if err := matutils.Symmetrize(nextCov); err != nil {
		return nil, nil, fmt.Errorf("propagate: %v", err)
	}

	return nextMean, nextCov, nil
}

// Predict rolls an uncertain state belief N(m, s) forward for exactly
// horizon steps, evaluating the reward functional on each post-step
// belief and accumulating the expected rewards. It returns the final
// belief and the cumulative expected reward. A horizon of 0 is a no-op
// rollout; a negative horizon is rejected.
func (p *PILCO) Predict(m, s *mat.Dense, horizon int) (*mat.Dense,
	*mat.Dense, float64, error) {
	if horizon < 0 {
		return nil, nil, 0, fmt.Errorf("predict: horizon must be "+
			"non-negative, got %v", horizon)
	}

	mean := mat.DenseCopyOf(m)
	cov := mat.DenseCopyOf(s)
	total := 0.0

	for i := 0; i < horizon; i++ {
		var err error
		mean, cov, err = p.Propagate(mean, cov)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("predict: step %v: %v", i, err)
		}

		expected, _, err := p.reward.ComputeReward(mean, cov)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("predict: step %v: %v", i, err)
		}
		total += expected.At(0, 0)
	}

	return mean, cov, total, nil
}

// Return computes the expected cumulative reward of a rollout from the
// initial belief under the current policy and model parameters. It is
// the training objective: the policy optimizer minimizes its negation.
func (p *PILCO) Return() (float64, error) {
	_, _, total, err := p.Predict(p.mInit, p.sInit, p.horizon)
	if err != nil {
		return 0, fmt.Errorf("return: %v", err)
	}
	return total, nil
}
