package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewValidates(t *testing.T) {
	if _, err := New(0, 1, 1); err == nil {
		t.Error("expected error for zero state dimensions")
	}
	if _, err := New(2, -1, 1); err == nil {
		t.Error("expected error for negative action dimensions")
	}
}

func TestComputeActionExactMoments(t *testing.T) {
	l, err := New(2, 1, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// u = 2x₀ - x₁ + 0.5
	if err := l.SetParams([]float64{2, -1, 0.5}); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}

	m := mat.NewDense(1, 2, []float64{1, 3})
	s := mat.NewDense(2, 2, []float64{0.5, 0.1, 0.1, 0.2})

	mean, cov, cross, err := l.ComputeAction(m, s)
	if err != nil {
		t.Fatalf("ComputeAction failed: %v", err)
	}

	// mean: 2·1 - 3 + 0.5
	if got := mean.At(0, 0); math.Abs(got+0.5) > 1e-12 {
		t.Errorf("action mean = %v, want -0.5", got)
	}

	// cov: wSwᵀ = 4·0.5 - 2·2·0.1 + 1·0.2
	want := 4*0.5 - 2*2*0.1 + 0.2
	if got := cov.At(0, 0); math.Abs(got-want) > 1e-12 {
		t.Errorf("action covariance = %v, want %v", got, want)
	}

	// premultiplied cross-covariance is wᵀ
	if cross.At(0, 0) != 2 || cross.At(1, 0) != -1 {
		t.Errorf("cross-covariance = [%v %v], want [2 -1]", cross.At(0, 0),
			cross.At(1, 0))
	}
}

func TestComputeActionZeroCovarianceInZeroCovarianceOut(t *testing.T) {
	l, err := New(3, 2, 7)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	m := mat.NewDense(1, 3, []float64{1, -1, 2})
	s := mat.NewDense(3, 3, nil)

	_, cov, _, err := l.ComputeAction(m, s)
	if err != nil {
		t.Fatalf("ComputeAction failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if cov.At(i, j) != 0 {
				t.Errorf("cov(%v, %v) = %v, want 0", i, j, cov.At(i, j))
			}
		}
	}
}

func TestComputeActionValidatesBeliefShapes(t *testing.T) {
	l, err := New(2, 1, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, _, _, err := l.ComputeAction(mat.NewDense(1, 3, nil),
		mat.NewDense(2, 2, nil)); err == nil {
		t.Error("expected error for wrong mean width")
	}
	if _, _, _, err := l.ComputeAction(mat.NewDense(1, 2, nil),
		mat.NewDense(3, 3, nil)); err == nil {
		t.Error("expected error for wrong covariance shape")
	}
}

func TestParamsRoundTrip(t *testing.T) {
	l, err := New(3, 2, 11)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	params := l.Params()
	if len(params) != 3*2+2 {
		t.Fatalf("expected 8 parameters, got %v", len(params))
	}

	want := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	if err := l.SetParams(want); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}

	got := l.Params()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parameter %v = %v, want %v", i, got[i], want[i])
		}
	}

	// Params is a deep copy
	got[0] = -100
	if l.Params()[0] == -100 {
		t.Error("Params returned a live reference")
	}

	if err := l.SetParams([]float64{1, 2}); err == nil {
		t.Error("expected error for wrong parameter count")
	}
}
