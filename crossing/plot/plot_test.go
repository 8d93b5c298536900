package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocross/autocross/crossing"
	"github.com/autocross/autocross/crossing/costcurve"
	"github.com/autocross/autocross/crossing/reference"
	"github.com/autocross/autocross/crossing/trajectory"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", path)
}

func TestCurves_WritesPNG(t *testing.T) {
	c, err := costcurve.Build([]costcurve.Sample{
		{Time: 1, Cost: crossing.Float(4)},
		{Time: 2, Cost: crossing.Float(1)},
		{Time: 3, Cost: crossing.Float(2)},
	}, costcurve.Options{})
	require.NoError(t, err)
	single, err := costcurve.Build([]costcurve.Sample{{Time: 2, Cost: crossing.Float(3)}}, costcurve.Options{})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "curves.png")

	err = Curves(path, "cost", []NamedCurve{{Name: "car", Curve: c}, {Name: "bus", Curve: single}})

	require.NoError(t, err)
	assertPNG(t, path)
}

func TestCurves_Empty(t *testing.T) {
	assert.Error(t, Curves(filepath.Join(t.TempDir(), "x.png"), "", nil))
}

func TestTrajectory_WritesPNG(t *testing.T) {
	tr := &trajectory.Trajectory{
		States: [][]float64{{0, 0, 0}, {1, 0.1, 0}, {2, 0.3, 0}},
		Inputs: [][]float64{{0, 1}, {0, 1}},
		DeltaT: 1,
	}
	ref := reference.Straight(3, 2)
	path := filepath.Join(t.TempDir(), "path.png")

	require.NoError(t, Trajectory(path, "car", tr, &ref))
	assertPNG(t, path)
}

func TestTrajectory_RejectsScalarState(t *testing.T) {
	tr := &trajectory.Trajectory{States: [][]float64{{0}, {1}}, Inputs: [][]float64{{1}}}
	assert.Error(t, Trajectory(filepath.Join(t.TempDir(), "x.png"), "", tr, nil))
	assert.Error(t, Trajectory(filepath.Join(t.TempDir(), "x.png"), "", nil, nil))
}

func TestSampleCurve_SpansDomain(t *testing.T) {
	c, err := costcurve.Build([]costcurve.Sample{
		{Time: 2, Cost: crossing.Float(1)},
		{Time: 6, Cost: crossing.Float(3)},
	}, costcurve.Options{Kind: costcurve.KindLinear})
	require.NoError(t, err)

	pts := sampleCurve(c, 5)
	require.Len(t, pts, 5)
	assert.Equal(t, 2.0, pts[0].X)
	assert.Equal(t, 6.0, pts[4].X)
	assert.InDelta(t, 2, pts[2].Y, 1e-12)
}
