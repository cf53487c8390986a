package matutils

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSymmetrize(t *testing.T) {
	s := mat.NewDense(2, 2, []float64{1, 0.4, 0.6, 2})
	if err := Symmetrize(s); err != nil {
		t.Fatalf("Symmetrize failed: %v", err)
	}

	want := mat.NewDense(2, 2, []float64{1, 0.5, 0.5, 2})
	if !mat.EqualApprox(s, want, 1e-12) {
		t.Errorf("got %v", Format(s))
	}

	if err := Symmetrize(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("expected error for a non-square matrix")
	}
}

func TestIsSymmetric(t *testing.T) {
	if !IsSymmetric(mat.NewDense(2, 2, []float64{1, 0.5, 0.5, 2}), 1e-12) {
		t.Error("symmetric matrix reported asymmetric")
	}
	if IsSymmetric(mat.NewDense(2, 2, []float64{1, 0.4, 0.6, 2}), 1e-12) {
		t.Error("asymmetric matrix reported symmetric")
	}
	if !IsSymmetric(mat.NewDense(2, 2, []float64{1, 0.5, 0.500001, 2}), 1e-3) {
		t.Error("tolerance not honored")
	}
	if IsSymmetric(mat.NewDense(2, 3, nil), 1) {
		t.Error("non-square matrix reported symmetric")
	}
}

func TestHStack(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 1, []float64{5, 6})

	got, err := HStack(a, b)
	if err != nil {
		t.Fatalf("HStack failed: %v", err)
	}

	want := mat.NewDense(2, 3, []float64{1, 2, 5, 3, 4, 6})
	if !mat.EqualApprox(got, want, 0) {
		t.Errorf("got %v", Format(got))
	}

	if _, err := HStack(a, mat.NewDense(3, 1, nil)); err == nil {
		t.Error("expected error for mismatched row counts")
	}
}

func TestVStack(t *testing.T) {
	a := mat.NewDense(1, 2, []float64{1, 2})
	b := mat.NewDense(2, 2, []float64{3, 4, 5, 6})

	got, err := VStack(a, b)
	if err != nil {
		t.Fatalf("VStack failed: %v", err)
	}

	want := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	if !mat.EqualApprox(got, want, 0) {
		t.Errorf("got %v", Format(got))
	}

	if _, err := VStack(a, mat.NewDense(1, 3, nil)); err == nil {
		t.Error("expected error for mismatched column counts")
	}
}

func TestBlock2x2(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 1, []float64{5, 6})
	c := mat.NewDense(1, 2, []float64{7, 8})
	d := mat.NewDense(1, 1, []float64{9})

	got, err := Block2x2(a, b, c, d)
	if err != nil {
		t.Fatalf("Block2x2 failed: %v", err)
	}

	want := mat.NewDense(3, 3, []float64{
		1, 2, 5,
		3, 4, 6,
		7, 8, 9,
	})
	if !mat.EqualApprox(got, want, 0) {
		t.Errorf("got %v", Format(got))
	}
}

func TestSubRow(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	got, err := SubRow(x, []float64{1, 1})
	if err != nil {
		t.Fatalf("SubRow failed: %v", err)
	}

	want := mat.NewDense(2, 2, []float64{0, 1, 2, 3})
	if !mat.EqualApprox(got, want, 0) {
		t.Errorf("got %v", Format(got))
	}
	// The input is untouched
	if x.At(0, 0) != 1 {
		t.Error("SubRow mutated its input")
	}

	if _, err := SubRow(x, []float64{1}); err == nil {
		t.Error("expected error for mismatched row length")
	}
}

func TestScaleCols(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	got, err := ScaleCols(x, []float64{2, 0.5})
	if err != nil {
		t.Fatalf("ScaleCols failed: %v", err)
	}

	want := mat.NewDense(2, 2, []float64{2, 1, 6, 2})
	if !mat.EqualApprox(got, want, 0) {
		t.Errorf("got %v", Format(got))
	}

	if _, err := ScaleCols(x, []float64{1}); err == nil {
		t.Error("expected error for mismatched scale length")
	}
}
