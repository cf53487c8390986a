package reward

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Exponential is a saturating exponential reward
// r(x) = exp(-(x-t)ᵀW(x-t)/2), which is 1 at the target state t and
// decays towards 0 with squared distance from it. Its expectation and
// variance under a Gaussian state belief have closed forms.
//
// Exponential implements the Reward interface
type Exponential struct {
	stateDims int
	target    *mat.Dense // 1×stateDims
	w         *mat.Dense // stateDims×stateDims weight matrix
}

// NewExponential returns a new Exponential reward centered on target
// with an identity weight matrix
func NewExponential(stateDims int, target []float64) (*Exponential, error) {
	if stateDims <= 0 {
		return nil, fmt.Errorf("newExponential: stateDims must be positive, "+
			"got %v", stateDims)
	}
	if len(target) != stateDims {
		return nil, fmt.Errorf("newExponential: target has %v dimensions, "+
			"expected %v", len(target), stateDims)
	}

	w := mat.NewDense(stateDims, stateDims, nil)
	for i := 0; i < stateDims; i++ {
		w.Set(i, i, 1)
	}

	t := mat.NewDense(1, stateDims, nil)
	t.SetRow(0, target)

	return &Exponential{stateDims: stateDims, target: t, w: w}, nil
}

// SetWeights replaces the reward's weight matrix, which controls how
// quickly the reward saturates along each state direction
func (e *Exponential) SetWeights(w *mat.Dense) error {
	r, c := w.Dims()
	if r != e.stateDims || c != e.stateDims {
		return fmt.Errorf("setWeights: weights must be %v×%v, got %v×%v",
			e.stateDims, e.stateDims, r, c)
	}
	e.w.Copy(w)
	return nil
}

// ComputeReward returns the expected reward and reward variance under
// the Gaussian state belief N(m, s)
func (e *Exponential) ComputeReward(m, s *mat.Dense) (*mat.Dense, *mat.Dense,
	error) {
	if err := e.validateBelief(m, s); err != nil {
		return nil, nil, fmt.Errorf("computeReward: %v", err)
	}

	d := e.stateDims
	diff := mat.NewDense(1, d, nil)
	diff.Sub(m, e.target)

	muR, err := e.gaussianExpectation(diff, s, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("computeReward: %v", err)
	}

	r2, err := e.gaussianExpectation(diff, s, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("computeReward: %v", err)
	}

	expected := mat.NewDense(1, 1, []float64{muR})
	variance := mat.NewDense(1, 1, []float64{r2 - muR*muR})
	return expected, variance, nil
}

// gaussianExpectation computes
// E[exp(-scale·(x-t)ᵀW(x-t)/2)] = exp(-scale·diff·W(I+scale·SW)⁻¹·diffᵀ/2)
// / sqrt(det(I+scale·SW)) for x ~ N(m, s) and diff = m - t
func (e *Exponential) gaussianExpectation(diff, s *mat.Dense,
	scale float64) (float64, error) {
	d := e.stateDims

	sw := mat.NewDense(d, d, nil)
	sw.Mul(s, e.w)
	sw.Scale(scale, sw)
	for i := 0; i < d; i++ {
		sw.Set(i, i, sw.At(i, i)+1)
	}

	var lu mat.LU
	lu.Factorize(sw)
	det := lu.Det()
	if det <= 0 || math.IsNaN(det) {
		return 0, fmt.Errorf("state covariance is degenerate (det %v)", det)
	}

	// ispw = W(I + scale·SW)⁻¹, solved as ispwᵀ = (I + scale·SW)⁻ᵀWᵀ
	ispwT := mat.NewDense(d, d, nil)
	if err := lu.SolveTo(ispwT, true, e.w.T()); err != nil {
		return 0, err
	}

	quad := 0.0
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			quad += diff.At(0, i) * ispwT.At(j, i) * diff.At(0, j)
		}
	}

	return math.Exp(-scale*quad/2) / math.Sqrt(det), nil
}

func (e *Exponential) validateBelief(m, s *mat.Dense) error {
	mr, mc := m.Dims()
	if mr != 1 || mc != e.stateDims {
		return fmt.Errorf("state mean must be 1×%v, got %v×%v", e.stateDims,
			mr, mc)
	}
	sr, sc := s.Dims()
	if sr != e.stateDims || sc != e.stateDims {
		return fmt.Errorf("state covariance must be %v×%v, got %v×%v",
			e.stateDims, e.stateDims, sr, sc)
	}
	return nil
}
