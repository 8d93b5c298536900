// Package artifact reads and writes the files exchanged between the
// calculate, schedule, analyze and plot commands. All artifacts are YAML and
// are decoded strictly: unknown keys are rejected.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/autocross/autocross/crossing"
	"github.com/autocross/autocross/crossing/costcurve"
	"github.com/autocross/autocross/crossing/reference"
	"github.com/autocross/autocross/crossing/schedule"
	"github.com/autocross/autocross/crossing/trajectory"
)

// File suffixes written by the calculate command.
const (
	CostSuffix   = ".cost"
	WaitSuffix   = ".wait"
	SystemSuffix = ".system"
)

// CurveFile is the persisted form of a cost curve.
type CurveFile struct {
	Kind          string    `yaml:"kind"`
	Extrapolation string    `yaml:"extrapolation,omitempty"` // absent means clamp
	Knots         []float64 `yaml:"knots"`
	Values        []float64 `yaml:"values"`
	DomainMin     float64   `yaml:"domain_min"`
	DomainMax     float64   `yaml:"domain_max"`
}

// ScheduleFile is the persisted result of the schedule command.
type ScheduleFile struct {
	CrossingOrder []int     `yaml:"crossing_order"`
	CrossingTimes []float64 `yaml:"crossing_times"`
	CrossingCosts []float64 `yaml:"crossing_costs,omitempty"`
	ScheduleType  string    `yaml:"schedule_type,omitempty"`
}

// SystemFile is a solved trajectory, optionally with the tracked reference.
type SystemFile struct {
	States    [][]float64    `yaml:"states"`
	Inputs    [][]float64    `yaml:"inputs"`
	DeltaT    float64        `yaml:"delta_t"`
	Reference *ReferenceFile `yaml:"reference,omitempty"`
}

// ReferenceFile is a persisted reference path.
type ReferenceFile struct {
	X []float64 `yaml:"x"`
	Y []float64 `yaml:"y"`
}

// WriteCurve stores c at path.
func WriteCurve(path string, c *costcurve.Curve) error {
	r := c.Representation()
	f := CurveFile{
		Kind:      string(r.Kind),
		Knots:     r.Knots,
		Values:    r.Values,
		DomainMin: r.Min,
		DomainMax: r.Max,
	}
	if r.Extrapolation != costcurve.ExtrapolateClamp {
		f.Extrapolation = string(r.Extrapolation)
	}
	return writeYAML(path, f)
}

// ReadCurve loads and refits the curve stored at path.
func ReadCurve(path string) (*costcurve.Curve, error) {
	f, err := readYAML[CurveFile](path)
	if err != nil {
		return nil, err
	}
	c, err := costcurve.FromRepresentation(costcurve.Representation{
		Kind:          costcurve.Kind(f.Kind),
		Extrapolation: costcurve.Extrapolation(f.Extrapolation),
		Knots:         f.Knots,
		Values:        f.Values,
		Min:           f.DomainMin,
		Max:           f.DomainMax,
	})
	if err != nil {
		return nil, fmt.Errorf("curve %s: %w", path, err)
	}
	return c, nil
}

// ReadCurves loads several curve files in order.
func ReadCurves(paths []string) ([]*costcurve.Curve, error) {
	out := make([]*costcurve.Curve, len(paths))
	for i, p := range paths {
		c, err := ReadCurve(p)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// NewScheduleFile captures s with optional per-vehicle costs.
func NewScheduleFile(s schedule.Schedule, costs []float64, scheduleType string) ScheduleFile {
	return ScheduleFile{
		CrossingOrder: s.Order,
		CrossingTimes: s.CrossingTimes,
		CrossingCosts: costs,
		ScheduleType:  scheduleType,
	}
}

// Schedule returns the order and times, validated.
func (f *ScheduleFile) Schedule() (schedule.Schedule, error) {
	if len(f.CrossingOrder) != len(f.CrossingTimes) {
		return schedule.Schedule{}, crossing.NewValidationError("crossing_times", "length %d does not match crossing_order length %d",
			len(f.CrossingTimes), len(f.CrossingOrder))
	}
	if err := schedule.ValidateOrder(f.CrossingOrder); err != nil {
		return schedule.Schedule{}, err
	}
	return schedule.Schedule{Order: f.CrossingOrder, CrossingTimes: f.CrossingTimes}, nil
}

// WriteSchedule stores f at path.
func WriteSchedule(path string, f ScheduleFile) error {
	return writeYAML(path, f)
}

// ReadSchedule loads a schedule file.
func ReadSchedule(path string) (*ScheduleFile, error) {
	return readYAML[ScheduleFile](path)
}

// NewSystemFile captures a solved trajectory and the reference it tracked.
func NewSystemFile(tr *trajectory.Trajectory, ref *reference.Path) SystemFile {
	f := SystemFile{States: tr.States, Inputs: tr.Inputs, DeltaT: tr.DeltaT}
	if ref != nil {
		f.Reference = &ReferenceFile{X: ref.X, Y: ref.Y}
	}
	return f
}

// Trajectory converts f back into a trajectory and optional reference.
func (f *SystemFile) Trajectory() (*trajectory.Trajectory, *reference.Path) {
	tr := &trajectory.Trajectory{States: f.States, Inputs: f.Inputs, DeltaT: f.DeltaT}
	if f.Reference == nil {
		return tr, nil
	}
	return tr, &reference.Path{X: f.Reference.X, Y: f.Reference.Y}
}

// WriteSystem stores f at path.
func WriteSystem(path string, f SystemFile) error {
	return writeYAML(path, f)
}

// ReadSystem loads a system file.
func ReadSystem(path string) (*SystemFile, error) {
	f, err := readYAML[SystemFile](path)
	if err != nil {
		return nil, err
	}
	if tr, _ := f.Trajectory(); len(tr.States) != tr.Samples()+1 {
		return nil, crossing.NewValidationError("states", "have %d samples for %d inputs", len(tr.States), tr.Samples())
	}
	return f, nil
}

// WriteCostTable writes one "time cost" line per sample; unsolved samples
// are written as "nan".
func WriteCostTable(w io.Writer, samples []costcurve.Sample) error {
	for _, s := range samples {
		cost := "nan"
		if s.Cost != nil {
			cost = fmt.Sprintf("%g", *s.Cost)
		}
		if _, err := fmt.Fprintf(w, "%g %s\n", s.Time, cost); err != nil {
			return err
		}
	}
	return nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readYAML[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var v T
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, crossing.NewValidationError(path, "file is empty")
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &v, nil
}
