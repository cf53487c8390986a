// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// Symmetrize replaces a square matrix with (S + Sᵀ)/2 in place.
// Repeated belief propagation can accumulate tiny asymmetries in
// covariance matrices, which break downstream factorizations.
func Symmetrize(s *mat.Dense) error {
	r, c := s.Dims()
	if r != c {
		return fmt.Errorf("symmetrize: matrix is %v×%v, not square", r, c)
	}

	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			mean := (s.At(i, j) + s.At(j, i)) / 2
			s.Set(i, j, mean)
			s.Set(j, i, mean)
		}
	}
	return nil
}

// IsSymmetric returns whether a square matrix is symmetric to within
// an absolute tolerance
func IsSymmetric(s mat.Matrix, tol float64) bool {
	r, c := s.Dims()
	if r != c {
		return false
	}

	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if math.Abs(s.At(i, j)-s.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// HStack returns the horizontal concatenation [a | b] of two matrices
// with equal row counts
func HStack(a, b mat.Matrix) (*mat.Dense, error) {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb {
		return nil, fmt.Errorf("hStack: row mismatch %v != %v", ra, rb)
	}

	stacked := mat.NewDense(ra, ca+cb, nil)
	stacked.Slice(0, ra, 0, ca).(*mat.Dense).Copy(a)
	stacked.Slice(0, ra, ca, ca+cb).(*mat.Dense).Copy(b)
	return stacked, nil
}

// VStack returns the vertical concatenation of two matrices with equal
// column counts
func VStack(a, b mat.Matrix) (*mat.Dense, error) {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ca != cb {
		return nil, fmt.Errorf("vStack: column mismatch %v != %v", ca, cb)
	}

	stacked := mat.NewDense(ra+rb, ca, nil)
	stacked.Slice(0, ra, 0, ca).(*mat.Dense).Copy(a)
	stacked.Slice(ra, ra+rb, 0, ca).(*mat.Dense).Copy(b)
	return stacked, nil
}

// Block2x2 assembles the block matrix [[a, b], [c, d]]
func Block2x2(a, b, c, d mat.Matrix) (*mat.Dense, error) {
	top, err := HStack(a, b)
	if err != nil {
		return nil, fmt.Errorf("block2x2: %v", err)
	}
	bottom, err := HStack(c, d)
	if err != nil {
		return nil, fmt.Errorf("block2x2: %v", err)
	}
	return VStack(top, bottom)
}

// SubRow returns x with the row vector m subtracted from every row
func SubRow(x *mat.Dense, m []float64) (*mat.Dense, error) {
	r, c := x.Dims()
	if c != len(m) {
		return nil, fmt.Errorf("subRow: row has %v columns, matrix has %v",
			len(m), c)
	}

	centered := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			centered.Set(i, j, x.At(i, j)-m[j])
		}
	}
	return centered, nil
}

// ScaleCols returns x with column j multiplied by scale[j]
func ScaleCols(x *mat.Dense, scale []float64) (*mat.Dense, error) {
	r, c := x.Dims()
	if c != len(scale) {
		return nil, fmt.Errorf("scaleCols: %v scales for %v columns",
			len(scale), c)
	}

	scaled := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			scaled.Set(i, j, x.At(i, j)*scale[j])
		}
	}
	return scaled, nil
}
