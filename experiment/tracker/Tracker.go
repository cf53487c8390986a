// Package tracker records policy-search runs and restart-trial
// outcomes to a sqlite database for later inspection
package tracker

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trials (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	trial       INTEGER NOT NULL,
	strategy    TEXT NOT NULL,
	old_reward  REAL NOT NULL,
	new_reward  REAL NOT NULL,
	accepted    INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);
`

// Trial is one recorded restart-trial outcome
type Trial struct {
	Trial     int
	Strategy  string
	OldReward float64
	NewReward float64
	Accepted  bool
}

// SQLite records runs and restart trials into a sqlite database.
// Recording failures are logged and swallowed: tracking is
// informational and must never affect the policy search's control
// flow.
//
// SQLite implements the pilco.Tracker interface.
type SQLite struct {
	db    *sql.DB
	runID string
}

// NewSQLite opens (creating if necessary) the sqlite database at path
// and starts a new run in it
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("newSQLite: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("newSQLite: create schema: %v", err)
	}

	runID := uuid.NewString()
	_, err = db.Exec("INSERT INTO runs (id, started_at) VALUES (?, ?)",
		runID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("newSQLite: start run: %v", err)
	}

	return &SQLite{db: db, runID: runID}, nil
}

// RunID returns the identifier of the current run
func (s *SQLite) RunID() string { return s.runID }

// TrackTrial records one restart-trial outcome
func (s *SQLite) TrackTrial(trial int, strategy string, oldReward,
	newReward float64, accepted bool) {
	_, err := s.db.Exec(
		`INSERT INTO trials
			(run_id, trial, strategy, old_reward, new_reward, accepted,
			recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.runID, trial, strategy, oldReward, newReward, accepted,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		log.Printf("trackTrial: %v", err)
	}
}

// Trials returns all recorded trials of the current run in order
func (s *SQLite) Trials() ([]Trial, error) {
	rows, err := s.db.Query(
		`SELECT trial, strategy, old_reward, new_reward, accepted
		FROM trials WHERE run_id = ? ORDER BY trial`, s.runID)
	if err != nil {
		return nil, fmt.Errorf("trials: %v", err)
	}
	defer rows.Close()

	var trials []Trial
	for rows.Next() {
		var t Trial
		if err := rows.Scan(&t.Trial, &t.Strategy, &t.OldReward,
			&t.NewReward, &t.Accepted); err != nil {
			return nil, fmt.Errorf("trials: %v", err)
		}
		trials = append(trials, t)
	}
	return trials, rows.Err()
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	return s.db.Close()
}
