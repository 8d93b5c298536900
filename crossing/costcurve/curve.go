// Package costcurve turns per-time trajectory costs into continuous cost
// curves over the feasible crossing-time domain.
package costcurve

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/interp"

	"github.com/autocross/autocross/crossing"
)

// Kind names an interpolation scheme.
type Kind string

const (
	KindNatural        Kind = "natural"         // natural cubic spline
	KindAkima          Kind = "akima"           // Akima spline, less overshoot
	KindFritschButland Kind = "fritsch-butland" // monotone piecewise cubic
	KindLinear         Kind = "linear"
	KindConstant       Kind = "constant" // single-sample curves only
)

// validKinds maps accepted names to whether users may request them.
var validKinds = map[Kind]bool{
	KindNatural:        true,
	KindAkima:          true,
	KindFritschButland: true,
	KindLinear:         true,
	KindConstant:       false,
}

// ParseKind accepts a user-facing interpolant name. Empty selects natural.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindNatural, nil
	}
	if validKinds[Kind(s)] {
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown interpolant %q; valid: %s", s, KindNames())
}

// KindNames returns the user-selectable interpolant names, sorted.
func KindNames() []string {
	names := make([]string, 0, len(validKinds))
	for k, selectable := range validKinds {
		if selectable {
			names = append(names, string(k))
		}
	}
	sort.Strings(names)
	return names
}

// Extrapolation decides how a curve is evaluated outside [Min, Max].
type Extrapolation string

const (
	ExtrapolateClamp  Extrapolation = "clamp"  // hold the end values
	ExtrapolateLinear Extrapolation = "linear" // continue along the end slopes
)

// Curve is an immutable interpolated cost function of crossing time.
type Curve struct {
	kind   Kind
	extrap Extrapolation
	knots  []float64
	values []float64
	pred   interp.Predictor

	// end slopes, set for linear extrapolation
	lowSlope, highSlope float64
}

// Representation is the persistable form of a Curve. Refitting it with
// FromRepresentation reproduces the curve exactly.
type Representation struct {
	Kind          Kind
	Extrapolation Extrapolation // empty means clamp
	Knots         []float64
	Values        []float64
	Min           float64
	Max           float64
}

// newCurve fits kind through (knots, values). knots must be strictly
// increasing and finite; callers check that.
func newCurve(kind Kind, knots, values []float64) (*Curve, error) {
	c := &Curve{
		kind:   kind,
		extrap: ExtrapolateClamp,
		knots:  slices.Clone(knots),
		values: slices.Clone(values),
	}
	if len(knots) == 1 {
		c.kind = KindConstant
		c.pred = interp.Constant(values[0])
		return c, nil
	}

	var fp interp.FittablePredictor
	switch kind {
	case KindNatural, "":
		c.kind = KindNatural
		fp = &interp.NaturalCubic{}
	case KindAkima:
		fp = &interp.AkimaSpline{}
	case KindFritschButland:
		fp = &interp.FritschButland{}
	case KindLinear:
		fp = &interp.PiecewiseLinear{}
	case KindConstant:
		return nil, crossing.NewValidationError("kind", "constant curves take exactly one knot, got %d", len(knots))
	default:
		return nil, crossing.NewValidationError("kind", "unknown interpolant %q", kind)
	}
	if err := fp.Fit(c.knots, c.values); err != nil {
		return nil, fmt.Errorf("costcurve: fitting %s interpolant: %w", kind, err)
	}
	c.pred = fp
	return c, nil
}

// FromRepresentation refits a persisted curve.
func FromRepresentation(r Representation) (*Curve, error) {
	if len(r.Knots) == 0 {
		return nil, &crossing.EmptyDomainError{}
	}
	if len(r.Knots) != len(r.Values) {
		return nil, crossing.NewValidationError("values", "length %d does not match %d knots", len(r.Values), len(r.Knots))
	}
	if err := checkKnots(r.Knots, r.Values); err != nil {
		return nil, err
	}
	if r.Min != r.Knots[0] || r.Max != r.Knots[len(r.Knots)-1] {
		return nil, crossing.NewValidationError("domain", "[%g, %g] does not match knots [%g, %g]",
			r.Min, r.Max, r.Knots[0], r.Knots[len(r.Knots)-1])
	}
	c, err := newCurve(r.Kind, r.Knots, r.Values)
	if err != nil {
		return nil, err
	}
	return c.withExtrapolation(r.Extrapolation)
}

// withExtrapolation sets the out-of-domain behaviour of a freshly fitted c.
func (c *Curve) withExtrapolation(e Extrapolation) (*Curve, error) {
	switch e {
	case ExtrapolateClamp, "":
		c.extrap = ExtrapolateClamp
	case ExtrapolateLinear:
		c.extrap = ExtrapolateLinear
		c.lowSlope, c.highSlope = c.endSlopes()
	default:
		return nil, crossing.NewValidationError("extrapolation", "unknown mode %q", e)
	}
	return c, nil
}

// endSlopes returns the slopes at Min and Max. Interpolants without an
// analytic derivative use the secant of the outermost interval.
func (c *Curve) endSlopes() (low, high float64) {
	n := len(c.knots)
	if n == 1 {
		return 0, 0
	}
	if dp, ok := c.pred.(interp.DerivativePredictor); ok {
		return dp.PredictDerivative(c.knots[0]), dp.PredictDerivative(c.knots[n-1])
	}
	low = (c.values[1] - c.values[0]) / (c.knots[1] - c.knots[0])
	high = (c.values[n-1] - c.values[n-2]) / (c.knots[n-1] - c.knots[n-2])
	return low, high
}

func checkKnots(knots, values []float64) error {
	for i, t := range knots {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return crossing.NewValidationError(fmt.Sprintf("knots[%d]", i), "must be finite, got %v", t)
		}
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return crossing.NewValidationError(fmt.Sprintf("values[%d]", i), "must be finite, got %v", values[i])
		}
		if i > 0 && t <= knots[i-1] {
			return crossing.NewValidationError(fmt.Sprintf("knots[%d]", i), "%g is not greater than %g", t, knots[i-1])
		}
	}
	return nil
}

func (c *Curve) Kind() Kind                   { return c.kind }
func (c *Curve) Extrapolation() Extrapolation { return c.extrap }
func (c *Curve) Min() float64                 { return c.knots[0] }
func (c *Curve) Max() float64                 { return c.knots[len(c.knots)-1] }

// Domain returns [Min, Max].
func (c *Curve) Domain() crossing.Domain {
	return crossing.Domain{Min: c.Min(), Max: c.Max()}
}

// Knots returns copies of the fitted sample times and values.
func (c *Curve) Knots() (times, values []float64) {
	return slices.Clone(c.knots), slices.Clone(c.values)
}

// Eval returns the cost at t. Outside the domain the curve either holds
// its end values or continues linearly, per its Extrapolation.
func (c *Curve) Eval(t float64) float64 {
	if c.extrap == ExtrapolateLinear {
		switch {
		case t < c.Min():
			return c.values[0] + c.lowSlope*(t-c.Min())
		case t > c.Max():
			return c.values[len(c.values)-1] + c.highSlope*(t-c.Max())
		}
	}
	return c.pred.Predict(c.clamp(t))
}

// Derivative returns d cost / d t. Outside the domain it is zero for
// clamped curves and the end slope for linearly extrapolated ones.
func (c *Curve) Derivative(t float64) float64 {
	switch {
	case t < c.Min():
		return c.lowSlope
	case t > c.Max():
		return c.highSlope
	case len(c.knots) == 1:
		return 0
	}
	if dp, ok := c.pred.(interp.DerivativePredictor); ok {
		return dp.PredictDerivative(t)
	}
	return fd.Derivative(c.Eval, t, &fd.Settings{Formula: fd.Central})
}

// Representation returns the persistable form of c.
func (c *Curve) Representation() Representation {
	return Representation{
		Kind:          c.kind,
		Extrapolation: c.extrap,
		Knots:         slices.Clone(c.knots),
		Values:        slices.Clone(c.values),
		Min:           c.Min(),
		Max:           c.Max(),
	}
}

func (c *Curve) clamp(t float64) float64 {
	return math.Max(c.Min(), math.Min(c.Max(), t))
}

func (c *Curve) String() string {
	return fmt.Sprintf("%s curve over [%g, %g] (%d knots)", c.kind, c.Min(), c.Max(), len(c.knots))
}
