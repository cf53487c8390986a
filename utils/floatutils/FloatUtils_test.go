package floatutils

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	if got := Clip(5, -1, 1); got != 1 {
		t.Errorf("Clip(5, -1, 1) = %v, want 1", got)
	}
	if got := Clip(-5, -1, 1); got != -1 {
		t.Errorf("Clip(-5, -1, 1) = %v, want -1", got)
	}
	if got := Clip(0.5, -1, 1); got != 0.5 {
		t.Errorf("Clip(0.5, -1, 1) = %v, want 0.5", got)
	}

	interval := r1.Interval{Min: -2, Max: 2}
	if got := ClipInterval(3, interval); got != 2 {
		t.Errorf("ClipInterval(3) = %v, want 2", got)
	}
}

func TestOnesAndFull(t *testing.T) {
	for _, v := range Ones(4) {
		if v != 1 {
			t.Errorf("Ones produced %v", v)
		}
	}
	for _, v := range Full(3, -0.5) {
		if v != -0.5 {
			t.Errorf("Full produced %v", v)
		}
	}
	if len(Ones(0)) != 0 {
		t.Error("Ones(0) is not empty")
	}
}

func TestLogsExpsInverse(t *testing.T) {
	values := []float64{0.1, 1, 2.5, 100}
	back := Exps(Logs(values))
	for i := range values {
		if math.Abs(back[i]-values[i]) > 1e-12 {
			t.Errorf("exp(log(%v)) = %v", values[i], back[i])
		}
	}
}
