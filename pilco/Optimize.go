package pilco

import (
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/logrusorgru/aurora"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/samuelfneumann/gopilco/solver"
)

// objectivePenalty is the objective value reported for parameter
// vectors under which the rollout fails numerically, steering the
// optimizer away from degenerate regions
const objectivePenalty = 1e10

// Optimize runs the two sequential optimization stages: first the
// dynamics model's hyperparameters are fit to its training data, then
// the policy's parameters are optimized against the expected
// cumulative rollout reward with the model held fixed. maxIterations
// bounds the policy optimizer's major iterations; exhausting the
// budget is not an error.
//
// After completion the learned dynamics hyperparameters are reported
// for diagnostic inspection.
func (p *PILCO) Optimize(maxIterations int) error {
	start := time.Now()
	if err := p.model.Fit(); err != nil {
		return fmt.Errorf("optimize: %v", err)
	}
	log.Printf("finished dynamics model optimization in %v",
		time.Since(start).Truncate(time.Millisecond))

	if p.solver == nil {
		s, err := solver.NewDefaultLBFGS(maxIterations)
		if err != nil {
			return fmt.Errorf("optimize: %v", err)
		}
		p.solver = s
	}

	start = time.Now()
	if _, err := p.optimizePolicy(); err != nil {
		return fmt.Errorf("optimize: %v", err)
	}
	log.Printf("finished policy optimization in %v",
		time.Since(start).Truncate(time.Millisecond))

	p.report()
	return nil
}

// optimizePolicy minimizes the negative expected cumulative reward
// with respect to the policy parameters, reusing the live solver. The
// policy parameters are mutated in place to the best point found; the
// dynamics model parameters are untouched. Returns the reward at the
// optimum.
func (p *PILCO) optimizePolicy() (float64, error) {
	if p.solver == nil {
		return 0, fmt.Errorf("optimizePolicy: no solver; call Optimize first")
	}

	objective := p.objective()
	gradient := func(grad, params []float64) {
		fd.Gradient(grad, objective, params, &fd.Settings{
			Formula: fd.Central,
		})
	}

	result, err := p.solver.Minimize(solver.Objective{
		Func: objective,
		Grad: gradient,
	}, p.policy.Params())
	if err != nil {
		return 0, fmt.Errorf("optimizePolicy: %v", err)
	}

	if err := p.policy.SetParams(result.X); err != nil {
		return 0, fmt.Errorf("optimizePolicy: %v", err)
	}

	log.Printf("policy optimization: %v objective evaluations, %v major "+
		"iterations", humanize.Comma(int64(result.Stats.FuncEvaluations)),
		humanize.Comma(int64(result.Stats.MajorIterations)))

	return -result.F, nil
}

// objective returns the minimization objective over flat policy
// parameter vectors: the negated expected cumulative reward. A
// numerically failed rollout yields a large penalty value rather than
// an error, so that line searches back away from degenerate regions.
func (p *PILCO) objective() func([]float64) float64 {
	return func(params []float64) float64 {
		if err := p.policy.SetParams(params); err != nil {
			return objectivePenalty
		}
		total, err := p.Return()
		if err != nil {
			return objectivePenalty
		}
		return -total
	}
}

// report prints the learned dynamics model hyperparameters. Reporting
// is informational only and never affects control flow.
func (p *PILCO) report() {
	hypers := p.model.Hyperparameters()
	if len(hypers) == 0 {
		return
	}

	fmt.Println(aurora.Bold("----- Learned dynamics model -----"))
	for i, h := range hypers {
		fmt.Printf("%v %v\n", aurora.Cyan(fmt.Sprintf("GP%d", i)),
			aurora.Sprintf("lengthscales: %.3f  signal variance: %.3f  "+
				"noise variance: %.3f", h.Lengthscales, h.SignalVariance,
				h.NoiseVariance))
	}
}
