package gp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gopilco/model"
	"github.com/samuelfneumann/gopilco/solver"
	"github.com/samuelfneumann/gopilco/utils/matutils"
)

// default major iteration budget for hyperparameter fitting
const fitIterations int = 100

// MGPR is multi-output Gaussian process regression: one independent
// single-output GP per output dimension, each with its own kernel
// hyperparameters and its own copy of the training inputs.
//
// MGPR implements the model.Model interface. Predict implements exact
// moment matching of a Gaussian input distribution through the GP
// posterior, including the full cross-output covariance.
type MGPR struct {
	gps        []*GP
	inputDims  int
	outputDims int
}

// NewMGPR creates multi-output GP regression on training inputs x
// (n×inputDims) and targets y (n×outputDims)
func NewMGPR(x, y *mat.Dense) (*MGPR, error) {
	n, d := x.Dims()
	yn, e := y.Dims()
	if n != yn {
		return nil, fmt.Errorf("newMGPR: %v training inputs but %v targets",
			n, yn)
	}

	gps := make([]*GP, e)
	for a := 0; a < e; a++ {
		target := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			target.SetVec(i, y.At(i, a))
		}

		gp, err := New(x, target)
		if err != nil {
			return nil, fmt.Errorf("newMGPR: output %v: %v", a, err)
		}
		gps[a] = gp
	}

	return &MGPR{gps: gps, inputDims: d, outputDims: e}, nil
}

// GPs returns the live per-output-dimension GPs
func (m *MGPR) GPs() []*GP { return m.gps }

// InputDims returns the number of input dimensions
func (m *MGPR) InputDims() int { return m.inputDims }

// OutputDims returns the number of output dimensions
func (m *MGPR) OutputDims() int { return m.outputDims }

// Invalidate marks every output GP's cached factorization stale
func (m *MGPR) Invalidate() {
	for _, gp := range m.gps {
		gp.Invalidate()
	}
}

// SetData replaces the training set of every output GP, keeping the
// current hyperparameters
func (m *MGPR) SetData(x, y *mat.Dense) error {
	n, d := x.Dims()
	yn, e := y.Dims()
	if n != yn {
		return fmt.Errorf("setData: %v training inputs but %v targets", n, yn)
	}
	if d != m.inputDims || e != m.outputDims {
		return fmt.Errorf("setData: data is %v->%v dimensional, model is "+
			"%v->%v dimensional", d, e, m.inputDims, m.outputDims)
	}

	for a, gp := range m.gps {
		gp.x = mat.DenseCopyOf(x)
		gp.y = mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			gp.y.SetVec(i, y.At(i, a))
		}
		gp.Invalidate()
	}
	return nil
}

// Fit optimizes each output GP's kernel hyperparameters by maximizing
// its log marginal likelihood
func (m *MGPR) Fit() error {
	for a, gp := range m.gps {
		s, err := solver.NewDefaultLBFGS(fitIterations)
		if err != nil {
			return fmt.Errorf("fit: output %v: %v", a, err)
		}
		if err := gp.Fit(s); err != nil {
			return fmt.Errorf("fit: output %v: %v", a, err)
		}
	}
	return nil
}

// Hyperparameters reports the learned kernel hyperparameters of every
// output dimension
func (m *MGPR) Hyperparameters() []model.Hyperparameters {
	hypers := make([]model.Hyperparameters, len(m.gps))
	for a, gp := range m.gps {
		ls := make([]float64, gp.lengthscales.Len())
		copy(ls, gp.lengthscales.RawVector().Data)
		hypers[a] = model.Hyperparameters{
			Lengthscales:   ls,
			SignalVariance: gp.signalVar,
			NoiseVariance:  gp.noiseVar,
		}
	}
	return hypers
}

// Predict propagates a Gaussian input belief N(mIn, sIn) through the
// GP posterior by moment matching. It returns the predictive mean
// (1×outputDims), the predictive covariance (outputDims×outputDims,
// including model uncertainty and signal variance), and the
// input-output cross-covariance premultiplied by the inverse input
// covariance (inputDims×outputDims).
func (m *MGPR) Predict(mIn, sIn *mat.Dense) (*mat.Dense, *mat.Dense,
	*mat.Dense, error) {
	return m.predictMoments(mIn, sIn, false)
}

// PredictDeterministic is Predict for a deterministic GP: model
// uncertainty and signal variance are excluded from the predictive
// covariance, leaving only the variance induced by the uncertain
// input (plus a small jitter). Used by RBF-network policies, which
// are deterministic functions represented as GPs.
func (m *MGPR) PredictDeterministic(mIn, sIn *mat.Dense) (*mat.Dense,
	*mat.Dense, *mat.Dense, error) {
	return m.predictMoments(mIn, sIn, true)
}

// perOutput caches the intermediate quantities of one output GP needed
// by the moment-matching formulas
type perOutput struct {
	inp  *mat.Dense // training inputs centered on the input mean, n×d
	in   *mat.Dense // inp scaled by inverse lengthscales, n×d
	logk []float64  // log σ² - |in_i|²/2 per training point
	lb   []float64  // exp(-iN·t/2)·β per training point
}

func (m *MGPR) predictMoments(mIn, sIn *mat.Dense,
	deterministic bool) (*mat.Dense, *mat.Dense, *mat.Dense, error) {
	if err := m.validateBelief(mIn, sIn); err != nil {
		return nil, nil, nil, fmt.Errorf("predict: %v", err)
	}

	d, e := m.inputDims, m.outputDims
	mean := mat.NewDense(1, e, nil)
	cov := mat.NewDense(e, e, nil)
	cross := mat.NewDense(d, e, nil)

	caches := make([]*perOutput, e)
	for a, gp := range m.gps {
		if err := gp.factorize(); err != nil {
			return nil, nil, nil, fmt.Errorf("predict: output %v: %v", a, err)
		}

		cache, meanA, crossA, err := m.outputMoments(gp, mIn, sIn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("predict: output %v: %v", a, err)
		}
		caches[a] = cache

		mean.Set(0, a, meanA)
		for i := 0; i < d; i++ {
			cross.Set(i, a, crossA.AtVec(i))
		}
	}

	for a := 0; a < e; a++ {
		for b := a; b < e; b++ {
			v, err := m.outputCovariance(a, b, caches, sIn, deterministic)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("predict: outputs "+
					"(%v, %v): %v", a, b, err)
			}
			cov.Set(a, b, v)
			cov.Set(b, a, v)
		}
	}

	for a := 0; a < e; a++ {
		if deterministic {
			cov.Set(a, a, cov.At(a, a)+1e-6)
		} else {
			cov.Set(a, a, cov.At(a, a)+m.gps[a].signalVar)
		}
	}
	for a := 0; a < e; a++ {
		for b := 0; b < e; b++ {
			cov.Set(a, b, cov.At(a, b)-mean.At(0, a)*mean.At(0, b))
		}
	}

	return mean, cov, cross, nil
}

// outputMoments computes the predictive mean and premultiplied
// cross-covariance of a single output GP, together with the cached
// intermediates the pairwise covariance computation reuses
func (m *MGPR) outputMoments(gp *GP, mIn, sIn *mat.Dense) (*perOutput,
	float64, *mat.VecDense, error) {
	n, d := gp.Dims()

	inp, err := matutils.SubRow(gp.x, mIn.RawRowView(0))
	if err != nil {
		return nil, 0, nil, err
	}

	il := make([]float64, d)
	for i := 0; i < d; i++ {
		il[i] = 1 / gp.lengthscales.AtVec(i)
	}
	in, err := matutils.ScaleCols(inp, il)
	if err != nil {
		return nil, 0, nil, err
	}

	// b = Λ^{-1/2} S Λ^{-1/2} + I
	b := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			v := sIn.At(i, j) * il[i] * il[j]
			if i == j {
				v++
			}
			b.SetSym(i, j, v)
		}
	}

	var cholB mat.Cholesky
	if ok := cholB.Factorize(b); !ok {
		return nil, 0, nil, fmt.Errorf("input covariance is degenerate")
	}

	// t = iN b⁻¹, solved as tᵀ = b⁻¹ iNᵀ
	tT := mat.NewDense(d, n, nil)
	if err := cholB.SolveTo(tT, in.T()); err != nil {
		return nil, 0, nil, err
	}
	t := mat.DenseCopyOf(tT.T())

	// lb_i = exp(-iN_i·t_i/2)·β_i and logk_i = log σ² - |iN_i|²/2
	lb := make([]float64, n)
	logk := make([]float64, n)
	for i := 0; i < n; i++ {
		quad, sq := 0.0, 0.0
		for j := 0; j < d; j++ {
			quad += in.At(i, j) * t.At(i, j)
			sq += in.At(i, j) * in.At(i, j)
		}
		lb[i] = math.Exp(-quad/2) * gp.beta.AtVec(i)
		logk[i] = math.Log(gp.signalVar) - sq/2
	}

	c := gp.signalVar / math.Exp(cholB.LogDet()/2)

	meanA := 0.0
	for i := 0; i < n; i++ {
		meanA += lb[i]
	}
	meanA *= c

	// cross = c · (tΛ^{-1})ᵀ lb == Λ^{-1}(S+Λ)⁻¹-weighted input deviations
	til, err := matutils.ScaleCols(t, il)
	if err != nil {
		return nil, 0, nil, err
	}
	crossA := mat.NewVecDense(d, nil)
	crossA.MulVec(til.T(), mat.NewVecDense(n, lb))
	crossA.ScaleVec(c, crossA)

	return &perOutput{inp: inp, in: in, logk: logk, lb: lb}, meanA, crossA,
		nil
}

// outputCovariance computes the (a, b) entry of the predictive
// covariance before the signal-variance and mean-product corrections
func (m *MGPR) outputCovariance(a, b int, caches []*perOutput,
	sIn *mat.Dense, deterministic bool) (float64, error) {
	d := m.inputDims
	gpA, gpB := m.gps[a], m.gps[b]
	ca, cb := caches[a], caches[b]
	na, _ := gpA.Dims()
	nb, _ := gpB.Dims()

	ila2 := make([]float64, d)
	ilb2 := make([]float64, d)
	negIlb2 := make([]float64, d)
	for i := 0; i < d; i++ {
		la := gpA.lengthscales.AtVec(i)
		lb := gpB.lengthscales.AtVec(i)
		ila2[i] = 1 / (la * la)
		ilb2[i] = 1 / (lb * lb)
		negIlb2[i] = -ilb2[i]
	}

	// r = S(Λa⁻¹ + Λb⁻¹) + I
	r := mat.NewDense(d, d, nil)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			v := sIn.At(i, j) * (ila2[j] + ilb2[j])
			if i == j {
				v++
			}
			r.Set(i, j, v)
		}
	}

	var lu mat.LU
	lu.Factorize(r)
	detR := lu.Det()
	if detR <= 0 || math.IsNaN(detR) {
		return 0, fmt.Errorf("covariance determinant %v is degenerate", detR)
	}

	// q = r⁻¹ S / 2
	q := mat.NewDense(d, d, nil)
	if err := lu.SolveTo(q, false, sIn); err != nil {
		return 0, err
	}
	q.Scale(0.5, q)

	xa, err := matutils.ScaleCols(ca.inp, ila2)
	if err != nil {
		return 0, err
	}
	xb, err := matutils.ScaleCols(cb.inp, negIlb2)
	if err != nil {
		return 0, err
	}

	xaQ := mat.NewDense(na, d, nil)
	xaQ.Mul(xa, q)
	xbQ := mat.NewDense(nb, d, nil)
	xbQ.Mul(xb, q)

	xaS := make([]float64, na)
	for i := 0; i < na; i++ {
		for j := 0; j < d; j++ {
			xaS[i] += xaQ.At(i, j) * xa.At(i, j)
		}
	}
	xbS := make([]float64, nb)
	for i := 0; i < nb; i++ {
		for j := 0; j < d; j++ {
			xbS[i] += xbQ.At(i, j) * xb.At(i, j)
		}
	}

	crossTerm := mat.NewDense(na, nb, nil)
	crossTerm.Mul(xaQ, xb.T())

	total := 0.0
	traceTerm := 0.0
	for i := 0; i < na; i++ {
		for j := 0; j < nb; j++ {
			maha := -2*crossTerm.At(i, j) + xaS[i] + xbS[j]
			l := math.Exp(ca.logk[i] + cb.logk[j] + maha)

			total += gpA.beta.AtVec(i) * l * gpB.beta.AtVec(j)
			if a == b && !deterministic {
				traceTerm += gpA.ik.At(i, j) * l
			}
		}
	}

	return (total - traceTerm) / math.Sqrt(detR), nil
}

func (m *MGPR) validateBelief(mIn, sIn *mat.Dense) error {
	mr, mc := mIn.Dims()
	if mr != 1 || mc != m.inputDims {
		return fmt.Errorf("mean must be 1×%v, got %v×%v", m.inputDims, mr, mc)
	}
	sr, sc := sIn.Dims()
	if sr != m.inputDims || sc != m.inputDims {
		return fmt.Errorf("covariance must be %v×%v, got %v×%v", m.inputDims,
			m.inputDims, sr, sc)
	}
	return nil
}
