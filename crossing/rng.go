package crossing

import (
	"hash/fnv"
	"math/rand"
)

// RunKey is the seed behind a scheduling run. The same key and the same
// cost curves give the same random and first-come-first-served orders.
type RunKey int64

// NewRunKey creates a RunKey from a --seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// Subsystems drawing from a PartitionedRNG.
const (
	// SubsystemOrder shuffles vehicles in the rand schedule mode. It is
	// seeded with the run key itself.
	SubsystemOrder = "order"

	// SubsystemArrivals draws the synthetic arrival times that fcfs sorts.
	SubsystemArrivals = "arrivals"
)

// PartitionedRNG hands each subsystem its own source, so drawing arrivals
// never shifts the random crossing order and vice versa. Subsystems other
// than order are seeded with key XOR fnv1a64(name).
//
// Not safe for concurrent use; the planner calls it from one goroutine.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the source for name, creating it on first use.
// Later calls return the same *rand.Rand, continuing its sequence.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	seed := int64(p.key)
	if name != SubsystemOrder {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the run key.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
