package crossing

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// VehicleConfig is the on-disk vehicle description.
// Loaded from YAML via LoadVehicleConfig(path).
type VehicleConfig struct {
	Model       string            `yaml:"model,omitempty"`
	Wheelbase   float64           `yaml:"wheelbase,omitempty"`
	StateBounds Bounds            `yaml:"state_bounds"`
	InputBounds Bounds            `yaml:"input_bounds"`
	Preferences PreferencesConfig `yaml:"preferences"`
	WaitFactor  float64           `yaml:"wait_factor"`
}

// PreferencesConfig mirrors Preferences without the wait factor, which sits
// at the top level of vehicle files.
type PreferencesConfig struct {
	State []float64 `yaml:"state"`
	Input []float64 `yaml:"input"`
	Time  float64   `yaml:"time"`
}

// LoadVehicleConfig reads and parses a YAML vehicle file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadVehicleConfig(path string) (*VehicleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vehicle file: %w", err)
	}
	return ParseVehicleConfig(data)
}

// ParseVehicleConfig decodes a vehicle description from YAML bytes.
func ParseVehicleConfig(data []byte) (*VehicleConfig, error) {
	var cfg VehicleConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing vehicle file: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields that do not depend on the model's dimensions.
func (c *VehicleConfig) Validate() error {
	if c.WaitFactor < 0 {
		return NewValidationError("wait_factor", "must be non-negative, got %g", c.WaitFactor)
	}
	if c.Preferences.Time < 0 {
		return NewValidationError("preferences.time", "must be non-negative, got %g", c.Preferences.Time)
	}
	for i, w := range c.Preferences.State {
		if w < 0 {
			return NewValidationError(fmt.Sprintf("preferences.state[%d]", i), "must be non-negative, got %g", w)
		}
	}
	for i, w := range c.Preferences.Input {
		if w < 0 {
			return NewValidationError(fmt.Sprintf("preferences.input[%d]", i), "must be non-negative, got %g", w)
		}
	}
	return nil
}

// Build constructs the validated Vehicle described by the config.
func (c *VehicleConfig) Build() (*Vehicle, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	k, err := NewKinematics(c.Model, KinematicsParams{Wheelbase: c.Wheelbase})
	if err != nil {
		return nil, err
	}
	if c.Model == "" {
		logrus.Debugf("vehicle model not set; defaulting to %q", k.Name())
	}
	prefs := Preferences{
		State:      c.Preferences.State,
		Input:      c.Preferences.Input,
		Time:       c.Preferences.Time,
		WaitFactor: c.WaitFactor,
	}
	return NewVehicle(k, c.StateBounds, c.InputBounds, prefs)
}

// LoadVehicle reads a vehicle file and builds the Vehicle it describes.
func LoadVehicle(path string) (*Vehicle, error) {
	cfg, err := LoadVehicleConfig(path)
	if err != nil {
		return nil, err
	}
	v, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("vehicle file %s: %w", path, err)
	}
	return v, nil
}
