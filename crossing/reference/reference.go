// Package reference generates the geometric paths a vehicle tracks while
// crossing. All paths start at the origin heading along +x; callers translate
// them to the vehicle's initial position.
package reference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Path is a sampled planar path of shape (2, n).
type Path struct {
	X []float64
	Y []float64
}

// Len returns the number of samples.
func (p Path) Len() int { return len(p.X) }

// Translate returns a copy of p shifted by (dx, dy).
func (p Path) Translate(dx, dy float64) Path {
	out := Path{X: make([]float64, len(p.X)), Y: make([]float64, len(p.Y))}
	for i := range p.X {
		out.X[i] = p.X[i] + dx
		out.Y[i] = p.Y[i] + dy
	}
	return out
}

// Straight runs from 0 to distance along x with y held at 0.
func Straight(numSteps int, distance float64) Path {
	return Path{X: linspace(0, distance, numSteps), Y: make([]float64, numSteps)}
}

// LeftTurn is a quarter circle of the given radius bending toward +y.
func LeftTurn(numSteps int, radius float64) Path {
	x := linspace(0, radius, numSteps)
	y := make([]float64, numSteps)
	for i, xi := range x {
		y[i] = radius - arcHeight(radius, xi)
	}
	return Path{X: x, Y: y}
}

// RightTurn mirrors LeftTurn about the x axis.
func RightTurn(numSteps int, radius float64) Path {
	x := linspace(0, radius, numSteps)
	y := make([]float64, numSteps)
	for i, xi := range x {
		y[i] = arcHeight(radius, xi) - radius
	}
	return Path{X: x, Y: y}
}

// arcHeight is sqrt(r² - x²), clamped at zero against rounding at x == r.
func arcHeight(r, x float64) float64 {
	return math.Sqrt(math.Max(0, r*r-x*x))
}

func linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Direction selects one of the standard crossing manoeuvres.
type Direction string

const (
	DirectionStraight Direction = "straight"
	DirectionLeft     Direction = "left"
	DirectionRight    Direction = "right"
)

// Standard geometry of the intersection used by ForDirection.
const (
	StraightDistance = 10.0
	LeftTurnRadius   = 10.0
	RightTurnRadius  = 5.0
)

// ParseDirection accepts "straight", "left" or "right"; empty means straight.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionStraight, "":
		return DirectionStraight, nil
	case DirectionLeft, DirectionRight:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown direction %q; valid: straight, left, right", s)
}

// ForDirection returns the standard path for dir with numSteps samples.
func ForDirection(dir Direction, numSteps int) Path {
	switch dir {
	case DirectionLeft:
		return LeftTurn(numSteps, LeftTurnRadius)
	case DirectionRight:
		return RightTurn(numSteps, RightTurnRadius)
	default:
		return Straight(numSteps, StraightDistance)
	}
}
