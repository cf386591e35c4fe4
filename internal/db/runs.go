package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("detection run not found")

// Run is one persisted segmentation of a trial.
type Run struct {
	RunID         string          `json:"run_id"`
	Subject       string          `json:"subject"`
	Trial         int             `json:"trial"`
	Method        gaze.Method     `json:"method"`
	ParamsJSON    json.RawMessage `json:"params_json,omitempty"`
	SummaryJSON   json.RawMessage `json:"summary_json,omitempty"`
	SampleCount   int             `json:"sample_count"`
	FixationCount int             `json:"fixation_count"`
	CreatedAt     int64           `json:"created_at"`
}

// RunStore provides persistence for detection runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB}
}

// Insert persists a run and its fixations in one transaction. If RunID is
// empty, a UUID is generated. FixationCount is set from fixations.
func (s *RunStore) Insert(run *Run, fixations []gaze.Fixation) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	run.FixationCount = len(fixations)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO detection_runs (
			run_id, subject, trial, method, params_json, summary_json,
			sample_count, fixation_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Subject, run.Trial, string(run.Method),
		nullableJSON(run.ParamsJSON), nullableJSON(run.SummaryJSON),
		run.SampleCount, run.FixationCount, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO fixations (
			run_id, seq, x, y, time_start, time_end,
			duration_seconds, duration_samples, start_index, end_index
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare fixation insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range fixations {
		if _, err := stmt.Exec(run.RunID, i, f.X, f.Y, f.TimeStart, f.TimeEnd,
			f.DurationSeconds, f.DurationSamples, f.StartIndex, f.EndIndex); err != nil {
			return fmt.Errorf("insert fixation %d: %w", i, err)
		}
	}
	return tx.Commit()
}

const runColumns = `run_id, subject, trial, method, params_json, summary_json,
		       sample_count, fixation_count, created_at`

// Get returns a single run by ID.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM detection_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *RunStore) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM detection_runs
		ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Fixations returns the fixations of a run in detection order.
func (s *RunStore) Fixations(runID string) ([]gaze.Fixation, error) {
	if _, err := s.Get(runID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT x, y, time_start, time_end, duration_seconds, duration_samples,
		       start_index, end_index
		FROM fixations
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query fixations: %w", err)
	}
	defer rows.Close()

	out := []gaze.Fixation{}
	for rows.Next() {
		var f gaze.Fixation
		if err := rows.Scan(&f.X, &f.Y, &f.TimeStart, &f.TimeEnd, &f.DurationSeconds,
			&f.DurationSamples, &f.StartIndex, &f.EndIndex); err != nil {
			return nil, fmt.Errorf("scan fixation row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes a run and its fixations.
func (s *RunStore) Delete(runID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM fixations WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete fixations: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM detection_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var method string
	var params, summary sql.NullString
	err := row.Scan(&r.RunID, &r.Subject, &r.Trial, &method, &params, &summary,
		&r.SampleCount, &r.FixationCount, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run row: %w", err)
	}
	r.Method = gaze.Method(method)
	if params.Valid {
		r.ParamsJSON = json.RawMessage(params.String)
	}
	if summary.Valid {
		r.SummaryJSON = json.RawMessage(summary.String)
	}
	return &r, nil
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
