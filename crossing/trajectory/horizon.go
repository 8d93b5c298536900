package trajectory

import (
	"fmt"
	"math"

	"github.com/autocross/autocross/crossing"
)

type horizonKind int

const (
	horizonUnset horizonKind = iota
	horizonSamples
	horizonPeriod
)

// Horizon fixes either the number of samples or the sampling period of a
// discretization. The other quantity is derived from the crossing duration.
type Horizon struct {
	kind    horizonKind
	samples int
	period  float64
}

// BySampleCount discretizes T into n intervals of length T/n.
func BySampleCount(n int) Horizon {
	return Horizon{kind: horizonSamples, samples: n}
}

// ByPeriod discretizes T into ceil(T/dt) intervals of length dt.
func ByPeriod(dt float64) Horizon {
	return Horizon{kind: horizonPeriod, period: dt}
}

// periodSlack absorbs representation error so that e.g. 8/0.1 yields 80, not 81.
const periodSlack = 1e-9

// Resolve returns the interval count N and period Δt for duration T.
func (h Horizon) Resolve(duration float64) (n int, dt float64, err error) {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return 0, 0, crossing.NewValidationError("duration", "must be positive and finite, got %v", duration)
	}
	switch h.kind {
	case horizonSamples:
		if h.samples < 1 {
			return 0, 0, crossing.NewValidationError("horizon.samples", "must be >= 1, got %d", h.samples)
		}
		return h.samples, duration / float64(h.samples), nil
	case horizonPeriod:
		if !(h.period > 0) || math.IsInf(h.period, 0) {
			return 0, 0, crossing.NewValidationError("horizon.period", "must be positive and finite, got %v", h.period)
		}
		n = int(math.Ceil(duration/h.period - periodSlack))
		if n < 1 {
			n = 1
		}
		return n, h.period, nil
	}
	return 0, 0, crossing.NewValidationError("horizon", "neither sample count nor period set")
}

func (h Horizon) String() string {
	switch h.kind {
	case horizonSamples:
		return fmt.Sprintf("N=%d", h.samples)
	case horizonPeriod:
		return fmt.Sprintf("dt=%g", h.period)
	}
	return "unset"
}
