// Package linear implements a linear-Gaussian controller
package linear

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Linear is a linear controller u = xWᵀ + b. Because the mapping is
// linear, a Gaussian state belief maps to an exactly Gaussian action
// belief with closed-form moments.
//
// Linear implements the policy.Policy interface
type Linear struct {
	w          *mat.Dense    // actionDims×stateDims
	b          *mat.VecDense // actionDims
	stateDims  int
	actionDims int
}

// New returns a new Linear controller with weights drawn from a
// standard normal distribution
func New(stateDims, actionDims int, seed uint64) (*Linear, error) {
	if stateDims <= 0 || actionDims <= 0 {
		return nil, fmt.Errorf("new: dimensions must be positive, got "+
			"(%v, %v)", stateDims, actionDims)
	}

	src := rand.NewSource(seed)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	w := mat.NewDense(actionDims, stateDims, nil)
	for i := 0; i < actionDims; i++ {
		for j := 0; j < stateDims; j++ {
			w.Set(i, j, normal.Rand())
		}
	}
	b := mat.NewVecDense(actionDims, nil)
	for i := 0; i < actionDims; i++ {
		b.SetVec(i, normal.Rand())
	}

	return &Linear{w: w, b: b, stateDims: stateDims,
		actionDims: actionDims}, nil
}

// ComputeAction propagates a Gaussian state belief through the linear
// mapping: mean mWᵀ + b, covariance WSWᵀ, premultiplied
// cross-covariance Wᵀ.
func (l *Linear) ComputeAction(m, s *mat.Dense) (*mat.Dense, *mat.Dense,
	*mat.Dense, error) {
	if err := l.validateBelief(m, s); err != nil {
		return nil, nil, nil, fmt.Errorf("computeAction: %v", err)
	}

	mean := mat.NewDense(1, l.actionDims, nil)
	mean.Mul(m, l.w.T())
	for i := 0; i < l.actionDims; i++ {
		mean.Set(0, i, mean.At(0, i)+l.b.AtVec(i))
	}

	cov := mat.NewDense(l.actionDims, l.actionDims, nil)
	ws := mat.NewDense(l.actionDims, l.stateDims, nil)
	ws.Mul(l.w, s)
	cov.Mul(ws, l.w.T())

	cross := mat.DenseCopyOf(l.w.T())

	return mean, cov, cross, nil
}

// Params returns a flat deep copy of the weights and biases
func (l *Linear) Params() []float64 {
	params := make([]float64, 0, l.actionDims*l.stateDims+l.actionDims)
	params = append(params, l.w.RawMatrix().Data...)
	params = append(params, l.b.RawVector().Data...)
	return params
}

// SetParams overwrites the weights and biases from a flat vector
func (l *Linear) SetParams(params []float64) error {
	expected := l.actionDims*l.stateDims + l.actionDims
	if len(params) != expected {
		return fmt.Errorf("setParams: expected %v parameters, got %v",
			expected, len(params))
	}

	split := l.actionDims * l.stateDims
	copy(l.w.RawMatrix().Data, params[:split])
	copy(l.b.RawVector().Data, params[split:])
	return nil
}

// StateDims returns the number of state dimensions
func (l *Linear) StateDims() int { return l.stateDims }

// ActionDims returns the number of action dimensions
func (l *Linear) ActionDims() int { return l.actionDims }

func (l *Linear) validateBelief(m, s *mat.Dense) error {
	mr, mc := m.Dims()
	if mr != 1 || mc != l.stateDims {
		return fmt.Errorf("state mean must be 1×%v, got %v×%v", l.stateDims,
			mr, mc)
	}
	sr, sc := s.Dims()
	if sr != l.stateDims || sc != l.stateDims {
		return fmt.Errorf("state covariance must be %v×%v, got %v×%v",
			l.stateDims, l.stateDims, sr, sc)
	}
	return nil
}
