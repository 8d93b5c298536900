// Package schedule orders vehicles through the intersection and evaluates
// the cost of a crossing schedule.
//
// An order maps each vehicle index to its crossing slot: order[v] == 0 means
// vehicle v crosses first. Valid orders are bijections onto {0..n-1}.
package schedule

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/autocross/autocross/crossing"
)

// Schedule is a crossing order together with each vehicle's crossing time.
// Both slices are indexed by vehicle.
type Schedule struct {
	Order         []int
	CrossingTimes []float64
}

// NonDecreasing ranks values: the smallest value gets slot 0. Ties keep
// index order.
func NonDecreasing(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})
	order := make([]int, len(values))
	for slot, v := range idx {
		order[v] = slot
	}
	return order
}

// FirstComeFirstServed lets the earliest arrival cross first.
func FirstComeFirstServed(arrivals []float64) []int {
	return NonDecreasing(arrivals)
}

// FastestCrossingFirst lets the vehicle with the shortest crossing time go first.
func FastestCrossingFirst(times []float64) []int {
	return NonDecreasing(times)
}

// Fixed is the identity order: vehicles cross in index order.
func Fixed(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// Random draws a uniformly random order from rng. Equal seeds give equal orders.
func Random(n int, rng *rand.Rand) []int {
	return rng.Perm(n)
}

// ValidateOrder checks that order is a bijection onto {0..len(order)-1}.
func ValidateOrder(order []int) error {
	seen := make([]bool, len(order))
	for v, slot := range order {
		if slot < 0 || slot >= len(order) {
			return crossing.NewValidationError(fmt.Sprintf("order[%d]", v), "slot %d out of range [0, %d)", slot, len(order))
		}
		if seen[slot] {
			return crossing.NewValidationError(fmt.Sprintf("order[%d]", v), "slot %d assigned twice", slot)
		}
		seen[slot] = true
	}
	return nil
}

// Sequence returns the vehicles in crossing order, the inverse of order.
func Sequence(order []int) []int {
	seq := make([]int, len(order))
	for v, slot := range order {
		seq[slot] = v
	}
	return seq
}
