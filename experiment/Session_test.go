package experiment

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/gopilco/environment"
	"github.com/samuelfneumann/gopilco/environment/pendulum"
)

func testSession(t *testing.T) *Session {
	t.Helper()

	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -0.5, Max: 0.5},
		{Min: -0.5, Max: 0.5},
	}, 23)

	env, _, err := pendulum.New(starter, 50)
	if err != nil {
		t.Fatalf("pendulum.New failed: %v", err)
	}
	return NewSession(env, 23)
}

func TestCollectRandomAccumulatesTransitions(t *testing.T) {
	s := testSession(t)

	if err := s.CollectRandom(10); err != nil {
		t.Fatalf("CollectRandom failed: %v", err)
	}
	if s.Transitions() != 10 {
		t.Errorf("expected 10 transitions, got %v", s.Transitions())
	}

	// Collections accumulate rather than replace
	if err := s.CollectRandom(5); err != nil {
		t.Fatalf("CollectRandom failed: %v", err)
	}
	if s.Transitions() != 15 {
		t.Errorf("expected 15 transitions, got %v", s.Transitions())
	}
}

func TestCollectRandomRejectsNonPositiveSteps(t *testing.T) {
	s := testSession(t)

	if err := s.CollectRandom(0); err == nil {
		t.Error("expected error for zero steps")
	}
}

func TestCollectRandomStopsAtEpisodeEnd(t *testing.T) {
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -0.5, Max: 0.5},
		{Min: -0.5, Max: 0.5},
	}, 23)

	env, _, err := pendulum.New(starter, 4)
	if err != nil {
		t.Fatalf("pendulum.New failed: %v", err)
	}
	s := NewSession(env, 23)

	if err := s.CollectRandom(100); err != nil {
		t.Fatalf("CollectRandom failed: %v", err)
	}
	if s.Transitions() != 4 {
		t.Errorf("expected the 4-step episode to bound collection, got %v "+
			"transitions", s.Transitions())
	}
}

func TestDataShapesAndDeltas(t *testing.T) {
	s := testSession(t)

	if _, _, err := s.Data(); err == nil {
		t.Error("expected error for an empty dataset")
	}

	if err := s.CollectRandom(8); err != nil {
		t.Fatalf("CollectRandom failed: %v", err)
	}

	x, y, err := s.Data()
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}

	if r, c := x.Dims(); r != 8 || c != 3 {
		t.Fatalf("inputs are %v×%v, want 8×3 (state, action)", r, c)
	}
	if r, c := y.Dims(); r != 8 || c != 2 {
		t.Fatalf("targets are %v×%v, want 8×2 (state deltas)", r, c)
	}

	// Targets are deltas: state + target = next state = next input row
	for i := 0; i < 7; i++ {
		for j := 0; j < 2; j++ {
			next := x.At(i, j) + y.At(i, j)
			if math.Abs(next-x.At(i+1, j)) > 1e-12 {
				t.Errorf("row %v feature %v: delta does not chain to the "+
					"next state", i, j)
			}
		}
	}

	// Actions stay within the environment's bounds
	for i := 0; i < 8; i++ {
		if a := x.At(i, 2); math.Abs(a) > pendulum.TorqueBound {
			t.Errorf("action %v exceeds the torque bound", a)
		}
	}
}

func TestCollectRequiresAgent(t *testing.T) {
	s := testSession(t)

	if err := s.Collect(5); err == nil {
		t.Error("expected error when no agent is attached")
	}
	if err := s.Iterate(10, 0, 5); err == nil {
		t.Error("expected error when no agent is attached")
	}
}

func TestDatasetTransitionsAreIndependentCopies(t *testing.T) {
	s := testSession(t)

	if err := s.CollectRandom(6); err != nil {
		t.Fatalf("CollectRandom failed: %v", err)
	}

	x1, y1, err := s.Data()
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	x2, y2, err := s.Data()
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}

	// Data builds fresh matrices each call
	x1.Set(0, 0, 1e9)
	y1.Set(0, 0, 1e9)
	if x2.At(0, 0) == 1e9 || y2.At(0, 0) == 1e9 {
		t.Error("Data returned shared backing storage")
	}
}
