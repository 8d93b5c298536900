package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocross/autocross/crossing"
	"github.com/autocross/autocross/crossing/costcurve"
)

func setupTestStore(t *testing.T) *SweepStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSweepStore_RecordAndReadSamples(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	// GIVEN a run with solved and unsolved samples recorded out of order
	run, err := s.StartRun(ctx, "car.yaml", "left")
	require.NoError(t, err)
	_, err = uuid.Parse(run.RunID)
	require.NoError(t, err)

	require.NoError(t, s.RecordSample(ctx, run.RunID, costcurve.Sample{Time: 3, Cost: crossing.Float(12.5)}, 40))
	require.NoError(t, s.RecordSample(ctx, run.RunID, costcurve.Sample{Time: 1}, 0))
	require.NoError(t, s.RecordSample(ctx, run.RunID, costcurve.Sample{Time: 2, Cost: crossing.Float(9)}, 31))

	// WHEN read back
	samples, err := s.Samples(ctx, run.RunID)

	// THEN they come back ordered by time with NULL as no solution
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, 1.0, samples[0].Time)
	assert.Nil(t, samples[0].Cost)
	require.NotNil(t, samples[1].Cost)
	assert.Equal(t, 9.0, *samples[1].Cost)
	assert.Equal(t, 12.5, *samples[2].Cost)

	// and can be refit into the same domain as the sweep
	c, err := costcurve.Build(samples, costcurve.Options{})
	require.NoError(t, err)
	assert.Equal(t, crossing.Domain{Min: 2, Max: 3}, c.Domain())
}

func TestSweepStore_RecordReplacesSameTime(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	run, err := s.StartRun(ctx, "car.yaml", "straight")
	require.NoError(t, err)

	require.NoError(t, s.RecordSample(ctx, run.RunID, costcurve.Sample{Time: 1}, 0))
	require.NoError(t, s.RecordSample(ctx, run.RunID, costcurve.Sample{Time: 1, Cost: crossing.Float(4)}, 10))

	samples, err := s.Samples(ctx, run.RunID)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.NotNil(t, samples[0].Cost)
	assert.Equal(t, 4.0, *samples[0].Cost)
}

func TestSweepStore_Runs(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	a, err := s.StartRun(ctx, "a.yaml", "straight")
	require.NoError(t, err)
	_, err = s.StartRun(ctx, "b.yaml", "right")
	require.NoError(t, err)

	all, err := s.Runs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyA, err := s.Runs(ctx, "a.yaml")
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, a.RunID, onlyA[0].RunID)
	assert.Equal(t, "straight", onlyA[0].Direction)
}

func TestSweepStore_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sweeps.db")

	s, err := Open(path)
	require.NoError(t, err)
	run, err := s.StartRun(ctx, "car.yaml", "straight")
	require.NoError(t, err)
	require.NoError(t, s.RecordSample(ctx, run.RunID, costcurve.Sample{Time: 5, Cost: crossing.Float(1)}, 3))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	samples, err := reopened.Samples(ctx, run.RunID)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestSweepStore_UnknownRunIsEmpty(t *testing.T) {
	s := setupTestStore(t)
	samples, err := s.Samples(context.Background(), uuid.New().String())
	require.NoError(t, err)
	assert.Empty(t, samples)
}
