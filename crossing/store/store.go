// Package store keeps a log of cost sweeps in SQLite so that the samples
// behind a cost curve can be inspected or refit later.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/autocross/autocross/crossing/costcurve"
)

// schema.sql defines one row per sweep run and one row per sampled crossing time.
//
//go:embed schema.sql
var schemaSQL string

// Run describes one cost sweep.
type Run struct {
	RunID       string
	VehicleFile string
	Direction   string
	CreatedAt   int64 // unix nanoseconds
}

// SweepStore persists sweep runs and their samples.
type SweepStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the sweep log at path. ":memory:" gives a
// private in-memory store.
func Open(path string) (*SweepStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sweep store: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize sweep store schema: %w", err)
	}
	logrus.Debugf("store: opened sweep log %s", path)
	return &SweepStore{db: db}, nil
}

// Close releases the database.
func (s *SweepStore) Close() error {
	return s.db.Close()
}

// StartRun records a new sweep and returns its generated id.
func (s *SweepStore) StartRun(ctx context.Context, vehicleFile, direction string) (*Run, error) {
	run := &Run{
		RunID:       uuid.New().String(),
		VehicleFile: vehicleFile,
		Direction:   direction,
		CreatedAt:   time.Now().UnixNano(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sweep_runs (run_id, vehicle_file, direction, created_at)
		VALUES (?, ?, ?, ?)`,
		run.RunID, run.VehicleFile, run.Direction, run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert sweep run: %w", err)
	}
	return run, nil
}

// RecordSample stores the outcome of one solve. A nil cost records "no solution".
func (s *SweepStore) RecordSample(ctx context.Context, runID string, sample costcurve.Sample, iterations int) error {
	var cost sql.NullFloat64
	if sample.Cost != nil {
		cost = sql.NullFloat64{Float64: *sample.Cost, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sweep_samples (run_id, crossing_time, cost, iterations)
		VALUES (?, ?, ?, ?)`,
		runID, sample.Time, cost, iterations)
	if err != nil {
		return fmt.Errorf("insert sweep sample t=%g: %w", sample.Time, err)
	}
	return nil
}

// Samples returns the samples of a run ordered by crossing time.
func (s *SweepStore) Samples(ctx context.Context, runID string) ([]costcurve.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT crossing_time, cost
		FROM sweep_samples
		WHERE run_id = ?
		ORDER BY crossing_time ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query sweep samples: %w", err)
	}
	defer rows.Close()

	var samples []costcurve.Sample
	for rows.Next() {
		var (
			t    float64
			cost sql.NullFloat64
		)
		if err := rows.Scan(&t, &cost); err != nil {
			return nil, fmt.Errorf("scan sweep sample: %w", err)
		}
		sample := costcurve.Sample{Time: t}
		if cost.Valid {
			c := cost.Float64
			sample.Cost = &c
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// Runs lists runs for a vehicle file, newest first. An empty vehicleFile lists all runs.
func (s *SweepStore) Runs(ctx context.Context, vehicleFile string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, vehicle_file, direction, created_at
		FROM sweep_runs
		WHERE ? = '' OR vehicle_file = ?
		ORDER BY created_at DESC`, vehicleFile, vehicleFile)
	if err != nil {
		return nil, fmt.Errorf("query sweep runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.VehicleFile, &r.Direction, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sweep run: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}
