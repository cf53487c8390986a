package tracker

import (
	"path/filepath"
	"testing"
)

func TestTrackTrialRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer s.Close()

	if s.RunID() == "" {
		t.Fatal("empty run identifier")
	}

	s.TrackTrial(0, "reinitialize", 1.5, 2.5, true)
	s.TrackTrial(1, "perturbInPlace", 2.5, 1.0, false)

	trials, err := s.Trials()
	if err != nil {
		t.Fatalf("Trials failed: %v", err)
	}
	if len(trials) != 2 {
		t.Fatalf("expected 2 trials, got %v", len(trials))
	}

	first := trials[0]
	if first.Trial != 0 || first.Strategy != "reinitialize" ||
		first.OldReward != 1.5 || first.NewReward != 2.5 || !first.Accepted {
		t.Errorf("first trial round-tripped as %+v", first)
	}

	second := trials[1]
	if second.Trial != 1 || second.Strategy != "perturbInPlace" ||
		second.Accepted {
		t.Errorf("second trial round-tripped as %+v", second)
	}
}

func TestRunsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.db")

	first, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	first.TrackTrial(0, "reinitialize", 0, 1, true)
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A second run on the same database starts with no trials of its own
	second, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer second.Close()

	if first.RunID() == second.RunID() {
		t.Error("two runs share a run identifier")
	}

	trials, err := second.Trials()
	if err != nil {
		t.Fatalf("Trials failed: %v", err)
	}
	if len(trials) != 0 {
		t.Errorf("new run sees %v trials from the previous run", len(trials))
	}
}
