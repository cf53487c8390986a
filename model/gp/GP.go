// Package gp implements Gaussian process regression with a squared
// exponential kernel, including closed-form moment matching for
// Gaussian-distributed inputs.
package gp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gopilco/solver"
	"github.com/samuelfneumann/gopilco/utils/floatutils"
)

// nllPenalty is returned as the negative log likelihood whenever the
// kernel matrix cannot be factorized, steering the hyperparameter
// search away from degenerate regions.
const nllPenalty = 1e10

// GP is a single-output Gaussian process conditioned on a fixed set of
// training inputs and targets, with a squared exponential kernel with
// per-dimension (ARD) lengthscales.
//
// The training inputs, targets and lengthscales are deliberately
// exposed as live references: random-restart perturbation mutates them
// in place. Mutators must call Invalidate afterwards so that the
// cached factorization is recomputed.
type GP struct {
	x            *mat.Dense    // n×d training inputs
	y            *mat.VecDense // n training targets
	lengthscales *mat.VecDense // d
	signalVar    float64
	noiseVar     float64

	chol  mat.Cholesky
	beta  *mat.VecDense // (K + σₙ²I)⁻¹ y
	ik    *mat.SymDense // (K + σₙ²I)⁻¹
	stale bool
}

// New returns a new GP on the given training set with unit
// lengthscales, unit signal variance and noise variance 0.1
func New(x *mat.Dense, y *mat.VecDense) (*GP, error) {
	n, d := x.Dims()
	if n == 0 || d == 0 {
		return nil, fmt.Errorf("new: empty training inputs")
	}
	if y.Len() != n {
		return nil, fmt.Errorf("new: %v training inputs but %v targets", n,
			y.Len())
	}

	g := &GP{
		x:            mat.DenseCopyOf(x),
		y:            mat.VecDenseCopyOf(y),
		lengthscales: mat.NewVecDense(d, floatutils.Ones(d)),
		signalVar:    1.0,
		noiseVar:     0.1,
		stale:        true,
	}
	return g, nil
}

// X returns the live training input matrix
func (g *GP) X() *mat.Dense { return g.x }

// Y returns the live training target vector
func (g *GP) Y() *mat.VecDense { return g.y }

// Lengthscales returns the live kernel lengthscale vector
func (g *GP) Lengthscales() *mat.VecDense { return g.lengthscales }

// SignalVariance returns the kernel signal variance
func (g *GP) SignalVariance() float64 { return g.signalVar }

// NoiseVariance returns the kernel noise variance
func (g *GP) NoiseVariance() float64 { return g.noiseVar }

// SetKernel sets the kernel hyperparameters
func (g *GP) SetKernel(signalVar, noiseVar float64,
	lengthscales []float64) error {
	if signalVar <= 0 || noiseVar <= 0 {
		return fmt.Errorf("setKernel: variances must be positive")
	}
	if len(lengthscales) != g.lengthscales.Len() {
		return fmt.Errorf("setKernel: expected %v lengthscales, got %v",
			g.lengthscales.Len(), len(lengthscales))
	}
	for _, l := range lengthscales {
		if l <= 0 {
			return fmt.Errorf("setKernel: lengthscales must be positive")
		}
	}

	g.signalVar = signalVar
	g.noiseVar = noiseVar
	copy(g.lengthscales.RawVector().Data, lengthscales)
	g.Invalidate()
	return nil
}

// Invalidate marks the cached kernel factorization stale. It must be
// called after mutating the training set, targets, or lengthscales
// through the live references.
func (g *GP) Invalidate() { g.stale = true }

// Dims returns the number of training points and input dimensions
func (g *GP) Dims() (n, d int) { return g.x.Dims() }

// kernel evaluates the squared exponential kernel between two points
func (g *GP) kernel(a, b []float64) float64 {
	dist := 0.0
	for i := range a {
		diff := (a[i] - b[i]) / g.lengthscales.AtVec(i)
		dist += diff * diff
	}
	return g.signalVar * math.Exp(-dist/2)
}

// factorize computes and caches the Cholesky factorization of
// K + σₙ²I together with beta and the kernel matrix inverse. It is a
// no-op when the cache is current.
func (g *GP) factorize() error {
	if !g.stale {
		return nil
	}

	n, _ := g.x.Dims()
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := g.kernel(g.x.RawRowView(i), g.x.RawRowView(j))
			if i == j {
				v += g.noiseVar
			}
			k.SetSym(i, j, v)
		}
	}

	if ok := g.chol.Factorize(k); !ok {
		return fmt.Errorf("factorize: kernel matrix is not positive definite")
	}

	g.beta = mat.NewVecDense(n, nil)
	if err := g.chol.SolveVecTo(g.beta, g.y); err != nil {
		return fmt.Errorf("factorize: %v", err)
	}

	g.ik = mat.NewSymDense(n, nil)
	if err := g.chol.InverseTo(g.ik); err != nil {
		return fmt.Errorf("factorize: %v", err)
	}

	g.stale = false
	return nil
}

// NegLogLikelihood returns the negative log marginal likelihood of the
// training targets under the current hyperparameters
func (g *GP) NegLogLikelihood() (float64, error) {
	if err := g.factorize(); err != nil {
		return 0, fmt.Errorf("negLogLikelihood: %v", err)
	}

	n, _ := g.x.Dims()
	dataFit := mat.Dot(g.y, g.beta) / 2
	complexity := g.chol.LogDet() / 2
	normalizer := float64(n) / 2 * math.Log(2*math.Pi)

	return dataFit + complexity + normalizer, nil
}

// hypers returns the kernel hyperparameters as a flat log-space vector
// [log lengthscales..., log signal variance, log noise variance]
func (g *GP) hypers() []float64 {
	d := g.lengthscales.Len()
	h := make([]float64, d+2)
	for i := 0; i < d; i++ {
		h[i] = math.Log(g.lengthscales.AtVec(i))
	}
	h[d] = math.Log(g.signalVar)
	h[d+1] = math.Log(g.noiseVar)
	return h
}

// setHypers sets the kernel hyperparameters from a flat log-space
// vector
func (g *GP) setHypers(h []float64) {
	d := g.lengthscales.Len()
	for i := 0; i < d; i++ {
		g.lengthscales.SetVec(i, math.Exp(h[i]))
	}
	g.signalVar = math.Exp(h[d])
	g.noiseVar = math.Exp(h[d+1])
	g.Invalidate()
}

// Fit maximizes the log marginal likelihood of the training targets
// with respect to the kernel hyperparameters, using the given solver
func (g *GP) Fit(s *solver.Solver) error {
	objective := func(h []float64) float64 {
		g.setHypers(h)
		nll, err := g.NegLogLikelihood()
		if err != nil {
			return nllPenalty
		}
		return nll
	}
	gradient := func(grad, h []float64) {
		fd.Gradient(grad, objective, h, &fd.Settings{Formula: fd.Central})
	}

	result, err := s.Minimize(solver.Objective{Func: objective,
		Grad: gradient}, g.hypers())
	if err != nil {
		return fmt.Errorf("fit: %v", err)
	}

	g.setHypers(result.X)
	if err := g.factorize(); err != nil {
		return fmt.Errorf("fit: %v", err)
	}
	return nil
}
