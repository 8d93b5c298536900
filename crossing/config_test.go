package crossing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unicycleYAML = `
state_bounds:
  initial: [0.0, 0.0, 0.0]
  final: [10.0, null, null]
  lower: [null, -2.0, null]
  upper: [null, 2.0, null]
input_bounds:
  initial: [null, null]
  final: [null, null]
  lower: [-1.0, 0.0]
  upper: [1.0, 5.0]
preferences:
  state: [1.0, 1.0, 0.0]
  input: [1.0, 0.5]
  time: 2.0
wait_factor: 3.0
`

func TestLoadVehicleConfig_ValidYAML_BuildsVehicle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "car.yaml")
	require.NoError(t, os.WriteFile(path, []byte(unicycleYAML), 0644))

	v, err := LoadVehicle(path)
	require.NoError(t, err)

	assert.Equal(t, UnicycleModelName, v.Kinematics().Name())
	sb := v.StateBounds()
	require.NotNil(t, sb.Final[0])
	assert.Equal(t, 10.0, *sb.Final[0])
	assert.Nil(t, sb.Final[1])
	assert.Nil(t, sb.Lower[0])
	assert.Equal(t, -2.0, *sb.Lower[1])
	assert.Equal(t, 3.0, v.Preferences().WaitFactor)
	assert.Equal(t, 2.0, v.Preferences().Time)
}

func TestParseVehicleConfig_UnknownField_Rejected(t *testing.T) {
	data := unicycleYAML + "wait_factr: 1.0\n"
	_, err := ParseVehicleConfig([]byte(data))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "wait_factr"), "error should name the typo: %v", err)
}

func TestVehicleConfig_Build_DimensionMismatch_ReturnsValidationError(t *testing.T) {
	data := strings.Replace(unicycleYAML, "initial: [0.0, 0.0, 0.0]", "initial: [0.0, 0.0]", 1)
	cfg, err := ParseVehicleConfig([]byte(data))
	require.NoError(t, err)

	_, err = cfg.Build()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVehicleConfig_Build_Bicycle(t *testing.T) {
	data := "model: bicycle\nwheelbase: 2.7\n" + unicycleYAML
	cfg, err := ParseVehicleConfig([]byte(data))
	require.NoError(t, err)

	v, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, Bicycle{Wheelbase: 2.7}, v.Kinematics())
}

func TestVehicleConfig_Validate_NegativeWeights(t *testing.T) {
	tests := []struct {
		name string
		cfg  VehicleConfig
	}{
		{"wait factor", VehicleConfig{WaitFactor: -1}},
		{"time weight", VehicleConfig{Preferences: PreferencesConfig{Time: -1}}},
		{"state weight", VehicleConfig{Preferences: PreferencesConfig{State: []float64{1, -1}}}},
		{"input weight", VehicleConfig{Preferences: PreferencesConfig{Input: []float64{-0.1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), ErrValidation)
		})
	}
}

func TestLoadVehicleConfig_MissingFile(t *testing.T) {
	_, err := LoadVehicleConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
