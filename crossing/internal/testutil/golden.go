// Package testutil provides shared test infrastructure for the crossing
// packages: the golden scheduling dataset and float assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Orderings []GoldenOrdering `json:"orderings"`
	Schedules []GoldenSchedule `json:"schedules"`
}

// GoldenOrdering is a NonDecreasing ranking case.
type GoldenOrdering struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Order  []int     `json:"order"`
}

// GoldenSchedule is a serial start-time case.
type GoldenSchedule struct {
	Name          string    `json:"name"`
	Order         []int     `json:"order"`
	CrossingTimes []float64 `json:"crossing_times"`
	StartTimes    []float64 `json:"start_times"`
	ClearingTime  float64   `json:"clearing_time"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: crossing/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// Quadratic returns (t-center)² + floor, a convex cost with its minimum at center.
func Quadratic(center, floor float64) func(float64) float64 {
	return func(t float64) float64 {
		d := t - center
		return d*d + floor
	}
}
