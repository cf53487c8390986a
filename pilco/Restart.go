package pilco

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/gopilco/policy"
	"github.com/samuelfneumann/gopilco/utils/progressbar"
)

// perturbation scale for all restart strategies
const perturbScale float64 = 0.1

// minimum lengthscale after an in-place perturbation; additive noise
// must not drive a lengthscale through zero
const minLengthscale float64 = 1e-3

// strategy is one of the three mutually exclusive restart perturbation
// strategies
type strategy int

const (
	// reinitialize replaces each parameter group with fresh draws from
	// a zero-mean scaled Gaussian
	reinitialize strategy = iota

	// reinitializeNearInit is reinitialize with the basis inputs
	// centered on the rollout's initial-state mean
	reinitializeNearInit

	// perturbInPlace adds scaled Gaussian noise to the current
	// parameter values
	perturbInPlace
)

func (s strategy) String() string {
	switch s {
	case reinitialize:
		return "reinitialize"
	case reinitializeNearInit:
		return "reinitializeNearInit"
	default:
		return "perturbInPlace"
	}
}

// strategyFor selects the perturbation strategy for a uniform random
// draw in [0, 1). The comparisons are strict: a draw of exactly 0.33
// selects reinitializeNearInit and a draw of exactly 0.67 selects
// perturbInPlace.
func strategyFor(draw float64) strategy {
	if draw < 0.33 {
		return reinitialize
	}
	if draw < 0.67 {
		return reinitializeNearInit
	}
	return perturbInPlace
}

// ImproveWithRestarts attempts to escape local optima of the policy
// objective by running numRestarts perturbation trials. Each trial
// snapshots the policy parameters, perturbs every parameter group with
// one randomly selected strategy, re-optimizes with the live solver,
// and keeps the result only if the reward did not decrease; otherwise
// the exact pre-trial snapshot is restored. All trials run: there is
// no early stopping.
//
// The policy must implement policy.Perturbable. The dynamics model is
// never touched.
func (p *PILCO) ImproveWithRestarts(numRestarts int) error {
	perturbable, ok := p.policy.(policy.Perturbable)
	if !ok {
		return fmt.Errorf("improveWithRestarts: policy of type %T has no "+
			"perturbable parameter groups", p.policy)
	}
	if p.solver == nil {
		return fmt.Errorf("improveWithRestarts: no solver; call Optimize " +
			"first")
	}

	snapshot := p.policy.Params()
	oldReward, err := p.Return()
	if err != nil {
		return fmt.Errorf("improveWithRestarts: %v", err)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: p.rng}
	bar := progressbar.New(25, numRestarts)

	for trial := 0; trial < numRestarts; trial++ {
		strat := strategyFor(p.rng.Float64())
		for _, group := range perturbable.Groups() {
			p.perturb(strat, group, normal)
		}

		newReward, err := p.reoptimize()
		accepted := err == nil && oldReward <= newReward

		if accepted {
			snapshot = p.policy.Params()
			oldReward = newReward
			log.Printf("restart %v (%v): accepted, reward %v", trial, strat,
				newReward)
		} else {
			// Roll back to the exact pre-trial snapshot
			if restoreErr := p.policy.SetParams(snapshot); restoreErr != nil {
				return fmt.Errorf("improveWithRestarts: trial %v: restore: "+
					"%v", trial, restoreErr)
			}
			log.Printf("restart %v (%v): rejected, reward %v -> %v", trial,
				strat, oldReward, newReward)
		}

		if p.tracker != nil {
			p.tracker.TrackTrial(trial, strat.String(), oldReward, newReward,
				accepted)
		}

		bar.Increment()
		bar.Display()
	}
	fmt.Println()

	return nil
}

// reoptimize re-optimizes the perturbed policy with the live solver
// and recomputes the rollout reward. A numerical failure is fatal for
// the trial, not for the controller.
func (p *PILCO) reoptimize() (float64, error) {
	if _, err := p.optimizePolicy(); err != nil {
		return 0, err
	}
	return p.Return()
}

// perturb applies one perturbation strategy to one parameter group.
// The same strategy applies uniformly to every group within a trial.
func (p *PILCO) perturb(strat strategy, group *policy.Group,
	normal distuv.Normal) {
	inputs := group.Inputs.RawMatrix()
	_, cols := group.Inputs.Dims()

	switch strat {
	case reinitialize, reinitializeNearInit:
		for i := range inputs.Data {
			inputs.Data[i] = perturbScale * normal.Rand()
			if strat == reinitializeNearInit {
				inputs.Data[i] += p.mInit.At(0, i%cols)
			}
		}
		for i := 0; i < group.Targets.Len(); i++ {
			group.Targets.SetVec(i, perturbScale*normal.Rand())
		}
		for i := 0; i < group.Lengthscales.Len(); i++ {
			group.Lengthscales.SetVec(i, 1+perturbScale*normal.Rand())
		}

	case perturbInPlace:
		for i := range inputs.Data {
			inputs.Data[i] += perturbScale * normal.Rand()
		}
		for i := 0; i < group.Targets.Len(); i++ {
			group.Targets.SetVec(i,
				group.Targets.AtVec(i)+perturbScale*normal.Rand())
		}
		for i := 0; i < group.Lengthscales.Len(); i++ {
			l := group.Lengthscales.AtVec(i) + perturbScale*normal.Rand()
			if l < minLengthscale {
				l = minLengthscale
			}
			group.Lengthscales.SetVec(i, l)
		}
	}
}
