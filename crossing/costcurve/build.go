package costcurve

import (
	"fmt"
	"math"

	"github.com/autocross/autocross/crossing"
)

// Sample is the trajectory cost at one candidate crossing time.
// A nil Cost marks a time with no solution.
type Sample struct {
	Time float64
	Cost *float64
}

func (s Sample) valid() bool {
	return s.Cost != nil && !math.IsNaN(*s.Cost) && !math.IsInf(*s.Cost, 0)
}

// GapPolicy decides what Build does with unsolved samples strictly inside
// the solved range.
type GapPolicy string

const (
	GapError       GapPolicy = "error"       // fail with *crossing.InteriorGapError
	GapInterpolate GapPolicy = "interpolate" // drop them and fit across the gap
	GapLongestRun  GapPolicy = "longest-run" // keep only the longest solved run
)

// ParseGapPolicy accepts a policy name. Empty selects GapInterpolate.
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch GapPolicy(s) {
	case "":
		return GapInterpolate, nil
	case GapError, GapInterpolate, GapLongestRun:
		return GapPolicy(s), nil
	}
	return "", fmt.Errorf("unknown gap policy %q; valid: %s, %s, %s", s, GapError, GapInterpolate, GapLongestRun)
}

// Options configures curve fitting. The zero value fits a natural cubic
// spline, interpolates across interior gaps and clamps outside the domain.
type Options struct {
	Kind          Kind
	Gaps          GapPolicy
	Extrapolation Extrapolation
}

// Build fits a curve through the solved samples. Leading and trailing
// unsolved samples are trimmed, so the domain is [first solved, last solved].
// samples must be ordered by strictly increasing time.
func Build(samples []Sample, opts Options) (*Curve, error) {
	for i, s := range samples {
		if math.IsNaN(s.Time) || math.IsInf(s.Time, 0) {
			return nil, crossing.NewValidationError(fmt.Sprintf("samples[%d].time", i), "must be finite, got %v", s.Time)
		}
		if i > 0 && s.Time <= samples[i-1].Time {
			return nil, crossing.NewValidationError(fmt.Sprintf("samples[%d].time", i), "%g is not greater than %g", s.Time, samples[i-1].Time)
		}
	}

	first, last := -1, -1
	for i, s := range samples {
		if s.valid() {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil, &crossing.EmptyDomainError{Samples: len(samples)}
	}
	kept := samples[first : last+1]

	switch opts.Gaps {
	case GapError:
		for i, s := range kept {
			if !s.valid() {
				return nil, &crossing.InteriorGapError{Index: first + i, Time: s.Time}
			}
		}
	case GapLongestRun:
		kept = longestRun(kept)
	case GapInterpolate, "":
	default:
		return nil, crossing.NewValidationError("gaps", "unknown gap policy %q", opts.Gaps)
	}

	var knots, values []float64
	for _, s := range kept {
		if s.valid() {
			knots = append(knots, s.Time)
			values = append(values, *s.Cost)
		}
	}
	c, err := newCurve(opts.Kind, knots, values)
	if err != nil {
		return nil, err
	}
	return c.withExtrapolation(opts.Extrapolation)
}

// longestRun returns the longest contiguous run of solved samples, the
// earliest one on ties.
func longestRun(samples []Sample) []Sample {
	bestStart, bestLen := 0, 0
	start := -1
	for i := 0; i <= len(samples); i++ {
		if i < len(samples) && samples[i].valid() {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start > bestLen {
			bestStart, bestLen = start, i-start
		}
		start = -1
	}
	return samples[bestStart : bestStart+bestLen]
}

// BuildWait fits the waiting-cost curve waitFactor*t on the half-open grid
// [lo, hi) with the given step. When the grid has fewer than two points
// the curve runs through lo and hi (lo and lo+step when they coincide).
// The curve extrapolates linearly and equals waitFactor*t at any time.
func BuildWait(waitFactor, lo, hi, step float64, opts Options) (*Curve, error) {
	if hi < lo {
		return nil, crossing.NewValidationError("wait", "max %g is below min %g", hi, lo)
	}
	times, err := Arange(lo, hi, step)
	if err != nil {
		return nil, err
	}
	if len(times) < 2 {
		end := hi
		if end == lo {
			end = lo + step
		}
		times = []float64{lo, end}
	}
	samples := make([]Sample, len(times))
	for i, t := range times {
		samples[i] = Sample{Time: t, Cost: crossing.Float(waitFactor * t)}
	}
	opts.Extrapolation = ExtrapolateLinear
	return Build(samples, opts)
}

// Arange returns start, start+step, ... strictly below stop.
func Arange(start, stop, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, crossing.NewValidationError("step", "must be positive and finite, got %v", step)
	}
	if stop <= start {
		return nil, nil
	}
	n := int(math.Ceil((stop - start) / step))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start+float64(i)*step)
	}
	return out, nil
}

// InclusiveGrid returns start, start+step, ... up to and including stop
// when stop lies on the grid.
func InclusiveGrid(start, stop, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, crossing.NewValidationError("step", "must be positive and finite, got %v", step)
	}
	if stop < start {
		return nil, crossing.NewValidationError("stop", "%g is below start %g", stop, start)
	}
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}
