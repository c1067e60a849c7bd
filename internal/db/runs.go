package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/behavior.report/internal/config"
	"github.com/banshee-data/behavior.report/internal/motion/replay"
	"github.com/banshee-data/behavior.report/internal/motion/validate"
)

// ErrRunNotFound is returned when a validation run ID has no record.
var ErrRunNotFound = errors.New("validation run not found")

// ValidationRun is one scored replay of a session batch under one
// configuration, stored so later candidates can be compared against it.
type ValidationRun struct {
	ID            string                  `json:"id"`
	Label         string                  `json:"label"`
	Config        *config.DetectionConfig `json:"config"`
	RateThreshold float64                 `json:"rate_threshold"`
	Metrics       *validate.MetricsReport `json:"metrics"`
	CreatedAt     string                  `json:"created_at"`

	Results []*replay.SessionTestResult `json:"results,omitempty"`
}

// SaveValidationRun stores a run and its per-session results in one
// transaction, minting the run ID.
func (db *DB) SaveValidationRun(run *ValidationRun) (string, error) {
	if run.Metrics == nil {
		return "", fmt.Errorf("run %q has no metrics", run.Label)
	}

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run config: %w", err)
	}
	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run metrics: %w", err)
	}

	id := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO validation_runs (id, label, config, rate_threshold, metrics)
		 VALUES (?, ?, ?, ?, ?)`,
		id, run.Label, string(configJSON), run.RateThreshold, string(metricsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, r := range run.Results {
		resultJSON, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("failed to marshal result for %q: %w", r.SessionName, err)
		}
		_, err = tx.Exec(
			`INSERT INTO session_results
			 (run_id, session_name, ground_truth, violations, violations_per_min, data_quality, result)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, r.SessionName, r.GroundTruth, r.Violations, r.ViolationsPerMin, r.DataQuality, string(resultJSON),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert result for %q: %w", r.SessionName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	return id, nil
}

// GetValidationRun loads a run and its session results.
func (db *DB) GetValidationRun(id string) (*ValidationRun, error) {
	var run ValidationRun
	var configJSON, metricsJSON string
	err := db.QueryRow(
		`SELECT id, label, config, rate_threshold, metrics, created_at
		 FROM validation_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Label, &configJSON, &run.RateThreshold, &metricsJSON, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("run %s config is corrupt: %w", id, err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &run.Metrics); err != nil {
		return nil, fmt.Errorf("run %s metrics are corrupt: %w", id, err)
	}

	rows, err := db.Query(
		`SELECT result FROM session_results WHERE run_id = ? ORDER BY session_name ASC`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load results for run %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		var r replay.SessionTestResult
		if err := json.Unmarshal([]byte(resultJSON), &r); err != nil {
			return nil, fmt.Errorf("run %s has a corrupt result: %w", id, err)
		}
		run.Results = append(run.Results, &r)
	}
	return &run, rows.Err()
}

// ListValidationRuns returns run summaries, newest first. Results are
// not loaded; fetch a run by ID for the full record.
func (db *DB) ListValidationRuns(limit int) ([]*ValidationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT id, label, config, rate_threshold, metrics, created_at
		 FROM validation_runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*ValidationRun
	for rows.Next() {
		var run ValidationRun
		var configJSON, metricsJSON string
		if err := rows.Scan(&run.ID, &run.Label, &configJSON, &run.RateThreshold, &metricsJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
			return nil, fmt.Errorf("run %s config is corrupt: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(metricsJSON), &run.Metrics); err != nil {
			return nil, fmt.Errorf("run %s metrics are corrupt: %w", run.ID, err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
