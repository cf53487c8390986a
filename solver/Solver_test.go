package solver

import (
	"encoding/json"
	"math"
	"testing"
)

// quadratic is the objective |x - c|² with its analytic gradient
func quadratic(c []float64) Objective {
	return Objective{
		Func: func(x []float64) float64 {
			total := 0.0
			for i := range x {
				d := x[i] - c[i]
				total += d * d
			}
			return total
		},
		Grad: func(grad, x []float64) {
			for i := range x {
				grad[i] = 2 * (x[i] - c[i])
			}
		},
	}
}

func TestLBFGSMinimizesQuadratic(t *testing.T) {
	s, err := NewDefaultLBFGS(100)
	if err != nil {
		t.Fatalf("NewDefaultLBFGS failed: %v", err)
	}

	c := []float64{3, -2, 0.5}
	result, err := s.Minimize(quadratic(c), []float64{0, 0, 0})
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}

	for i := range c {
		if math.Abs(result.X[i]-c[i]) > 1e-4 {
			t.Errorf("x[%v] = %v, want %v", i, result.X[i], c[i])
		}
	}
	if result.F > 1e-6 {
		t.Errorf("objective at optimum = %v, want near 0", result.F)
	}
}

func TestGradientDescentMinimizesQuadratic(t *testing.T) {
	s, err := NewGradientDescent(500, 1e-6)
	if err != nil {
		t.Fatalf("NewGradientDescent failed: %v", err)
	}

	c := []float64{1, 1}
	result, err := s.Minimize(quadratic(c), []float64{-2, 3})
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}

	for i := range c {
		if math.Abs(result.X[i]-c[i]) > 1e-3 {
			t.Errorf("x[%v] = %v, want %v", i, result.X[i], c[i])
		}
	}
}

func TestMinimizeReusableAcrossCalls(t *testing.T) {
	s, err := NewDefaultLBFGS(100)
	if err != nil {
		t.Fatalf("NewDefaultLBFGS failed: %v", err)
	}

	first, err := s.Minimize(quadratic([]float64{1, 2}), []float64{0, 0})
	if err != nil {
		t.Fatalf("first Minimize failed: %v", err)
	}
	second, err := s.Minimize(quadratic([]float64{-4, 0}), []float64{0, 0})
	if err != nil {
		t.Fatalf("second Minimize failed: %v", err)
	}

	if math.Abs(first.X[0]-1) > 1e-4 || math.Abs(second.X[0]+4) > 1e-4 {
		t.Error("reused solver did not reach both optima")
	}
}

func TestMinimizeValidates(t *testing.T) {
	s, err := NewDefaultLBFGS(10)
	if err != nil {
		t.Fatalf("NewDefaultLBFGS failed: %v", err)
	}

	if _, err := s.Minimize(Objective{}, []float64{0}); err == nil {
		t.Error("expected error for missing objective function")
	}
	if _, err := s.Minimize(quadratic([]float64{0}), nil); err == nil {
		t.Error("expected error for empty initial parameters")
	}
}

func TestSolverJSONRoundTrip(t *testing.T) {
	s, err := NewLBFGS(50, 1e-5, 10)
	if err != nil {
		t.Fatalf("NewLBFGS failed: %v", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var restored Solver
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if restored.Type != LBFGS {
		t.Errorf("restored type = %v, want %v", restored.Type, LBFGS)
	}

	result, err := restored.Minimize(quadratic([]float64{2}), []float64{0})
	if err != nil {
		t.Fatalf("Minimize on restored solver failed: %v", err)
	}
	if math.Abs(result.X[0]-2) > 1e-4 {
		t.Errorf("restored solver found %v, want 2", result.X[0])
	}
}
