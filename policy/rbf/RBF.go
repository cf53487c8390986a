// Package rbf implements an RBF-network controller represented as a
// deterministic Gaussian process, with bounded-action squashing
package rbf

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/gopilco/model/gp"
	"github.com/samuelfneumann/gopilco/policy"
)

// controller kernel constants. The signal variance is fixed at 1 and
// the noise variance is a small jitter: an RBF controller is a
// deterministic function, not a regression model.
const (
	signalVariance float64 = 1.0
	noiseVariance  float64 = 1e-4
)

// RBF is an RBF-network controller: a deterministic GP whose basis
// centers, targets, and lengthscales are the tunable policy
// parameters. Gaussian state beliefs propagate through it by moment
// matching. If maxAction is positive, actions are squashed through a
// bounded sine function with exact Gaussian moments, so that action
// means stay within [-maxAction, maxAction].
//
// RBF implements policy.Policy and policy.Perturbable.
type RBF struct {
	models     *gp.MGPR
	maxAction  float64
	stateDims  int
	actionDims int
	numBasis   int
}

// New returns a new RBF controller with numBasis basis functions,
// centers drawn from a standard normal distribution and targets from a
// scaled-down normal distribution
func New(stateDims, actionDims, numBasis int, maxAction float64,
	seed uint64) (*RBF, error) {
	if stateDims <= 0 || actionDims <= 0 {
		return nil, fmt.Errorf("new: dimensions must be positive, got "+
			"(%v, %v)", stateDims, actionDims)
	}
	if numBasis <= 0 {
		return nil, fmt.Errorf("new: numBasis must be positive, got %v",
			numBasis)
	}

	src := rand.NewSource(seed)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	centers := mat.NewDense(numBasis, stateDims, nil)
	for i := 0; i < numBasis; i++ {
		for j := 0; j < stateDims; j++ {
			centers.Set(i, j, normal.Rand())
		}
	}
	targets := mat.NewDense(numBasis, actionDims, nil)
	for i := 0; i < numBasis; i++ {
		for j := 0; j < actionDims; j++ {
			targets.Set(i, j, 0.1*normal.Rand())
		}
	}

	models, err := gp.NewMGPR(centers, targets)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	for _, g := range models.GPs() {
		ones := make([]float64, stateDims)
		for i := range ones {
			ones[i] = 1.0
		}
		if err := g.SetKernel(signalVariance, noiseVariance, ones); err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}

	return &RBF{
		models:     models,
		maxAction:  maxAction,
		stateDims:  stateDims,
		actionDims: actionDims,
		numBasis:   numBasis,
	}, nil
}

// ComputeAction propagates a Gaussian state belief through the RBF
// network by moment matching, then through the bounded squashing
// function if maxAction is positive
func (r *RBF) ComputeAction(m, s *mat.Dense) (*mat.Dense, *mat.Dense,
	*mat.Dense, error) {
	// Parameters mutate between calls during optimization, so the
	// cached factorizations are always recomputed
	r.models.Invalidate()

	mean, cov, cross, err := r.models.PredictDeterministic(m, s)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("computeAction: %v", err)
	}

	if r.maxAction <= 0 {
		return mean, cov, cross, nil
	}

	sqMean, sqCov, sqCross := squashSin(mean, cov, r.maxAction)

	// Chain the premultiplied cross-covariances through the squashing
	chained := mat.NewDense(r.stateDims, r.actionDims, nil)
	chained.Mul(cross, sqCross)

	return sqMean, sqCov, chained, nil
}

// squashSin maps a Gaussian action belief through
// u -> e·sin(u) exactly: the mean, covariance, and premultiplied
// input-output cross-covariance of the squashed variable have closed
// forms for Gaussian inputs.
func squashSin(m, s *mat.Dense, e float64) (*mat.Dense, *mat.Dense,
	*mat.Dense) {
	_, k := m.Dims()

	mean := mat.NewDense(1, k, nil)
	for i := 0; i < k; i++ {
		mean.Set(0, i, e*math.Exp(-s.At(i, i)/2)*math.Sin(m.At(0, i)))
	}

	cov := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			lq := -(s.At(i, i) + s.At(j, j)) / 2
			q := math.Exp(lq)
			v := (math.Exp(lq+s.At(i, j))-q)*
				math.Cos(m.At(0, i)-m.At(0, j)) -
				(math.Exp(lq-s.At(i, j))-q)*
					math.Cos(m.At(0, i)+m.At(0, j))
			cov.Set(i, j, e*e/2*v)
		}
	}

	cross := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		cross.Set(i, i, e*math.Exp(-s.At(i, i)/2)*math.Cos(m.At(0, i)))
	}

	return mean, cov, cross
}

// Params returns a flat deep copy of all tunable parameters: per
// action dimension, the basis centers, the targets, and the log
// lengthscales. Lengthscales live in log space so that unconstrained
// gradient steps cannot drive them through zero.
func (r *RBF) Params() []float64 {
	params := make([]float64, 0,
		r.actionDims*(r.numBasis*r.stateDims+r.numBasis+r.stateDims))

	for _, g := range r.models.GPs() {
		params = append(params, g.X().RawMatrix().Data...)
		params = append(params, g.Y().RawVector().Data...)
		for i := 0; i < g.Lengthscales().Len(); i++ {
			params = append(params, math.Log(g.Lengthscales().AtVec(i)))
		}
	}
	return params
}

// SetParams overwrites all tunable parameters from a flat vector
// previously produced by Params
func (r *RBF) SetParams(params []float64) error {
	perModel := r.numBasis*r.stateDims + r.numBasis + r.stateDims
	expected := r.actionDims * perModel
	if len(params) != expected {
		return fmt.Errorf("setParams: expected %v parameters, got %v",
			expected, len(params))
	}

	for _, g := range r.models.GPs() {
		centers := params[:r.numBasis*r.stateDims]
		targets := params[r.numBasis*r.stateDims : r.numBasis*r.stateDims+
			r.numBasis]
		lengths := params[r.numBasis*r.stateDims+r.numBasis : perModel]

		copy(g.X().RawMatrix().Data, centers)
		copy(g.Y().RawVector().Data, targets)
		for i, l := range lengths {
			g.Lengthscales().SetVec(i, math.Exp(l))
		}
		g.Invalidate()

		params = params[perModel:]
	}
	return nil
}

// Groups returns the live parameter sub-components, one per action
// dimension
func (r *RBF) Groups() []*policy.Group {
	groups := make([]*policy.Group, r.actionDims)
	for i, g := range r.models.GPs() {
		groups[i] = &policy.Group{
			Inputs:       g.X(),
			Targets:      g.Y(),
			Lengthscales: g.Lengthscales(),
		}
	}
	return groups
}

// StateDims returns the number of state dimensions
func (r *RBF) StateDims() int { return r.stateDims }

// ActionDims returns the number of action dimensions
func (r *RBF) ActionDims() int { return r.actionDims }

// MaxAction returns the action bound, or 0 if actions are unbounded
func (r *RBF) MaxAction() float64 { return r.maxAction }
