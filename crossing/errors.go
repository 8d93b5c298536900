package crossing

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error below matches exactly one of these via errors.Is.
var (
	// ErrValidation indicates malformed bounds, dimensions or configuration.
	ErrValidation = errors.New("crossing: validation failed")

	// ErrNoSolution indicates a single trajectory solve did not converge.
	ErrNoSolution = errors.New("crossing: no solution")

	// ErrAssignmentInfeasible indicates the joint crossing-time problem has no feasible point.
	ErrAssignmentInfeasible = errors.New("crossing: assignment infeasible")

	// ErrEmptyDomain indicates no valid cost sample remained after trimming.
	ErrEmptyDomain = errors.New("crossing: empty cost domain")

	// ErrInteriorGap indicates an unsolved sample strictly inside the valid domain.
	ErrInteriorGap = errors.New("crossing: interior gap in cost samples")
)

// ValidationError reports which field failed construction-time checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("crossing: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SolveError wraps a trajectory solve failure with the horizon it was attempted on.
type SolveError struct {
	Duration float64 // crossing time T
	Samples  int     // N
	Err      error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("crossing: no solution for T=%g (N=%d): %v", e.Duration, e.Samples, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }

func (e *SolveError) Is(target error) bool { return target == ErrNoSolution }

// Domain is a closed crossing-time interval.
type Domain struct {
	Min float64
	Max float64
}

func (d Domain) String() string {
	return fmt.Sprintf("[%g, %g]", d.Min, d.Max)
}

// AssignmentInfeasibleError carries enough context to diagnose a failed assignment.
// Vehicle is the index of the implicated vehicle, or -1 when the failure is joint.
type AssignmentInfeasibleError struct {
	Vehicle int
	Domains []Domain
	Budget  *float64
	Err     error
}

func (e *AssignmentInfeasibleError) Error() string {
	var b strings.Builder
	b.WriteString("crossing: cannot assign crossing times")
	if e.Vehicle >= 0 && e.Vehicle < len(e.Domains) {
		fmt.Fprintf(&b, ": vehicle %d domain %s", e.Vehicle, e.Domains[e.Vehicle])
	} else {
		fmt.Fprintf(&b, ": domains %v", e.Domains)
	}
	if e.Budget != nil {
		fmt.Fprintf(&b, ", budget %g", *e.Budget)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AssignmentInfeasibleError) Unwrap() error { return e.Err }

func (e *AssignmentInfeasibleError) Is(target error) bool { return target == ErrAssignmentInfeasible }

// EmptyDomainError reports a cost sweep with no solved sample.
type EmptyDomainError struct {
	Samples int
}

func (e *EmptyDomainError) Error() string {
	return fmt.Sprintf("crossing: none of %d cost samples has a solution", e.Samples)
}

func (e *EmptyDomainError) Is(target error) bool { return target == ErrEmptyDomain }

// InteriorGapError reports the first unsolved sample inside the trimmed domain.
type InteriorGapError struct {
	Index int
	Time  float64
}

func (e *InteriorGapError) Error() string {
	return fmt.Sprintf("crossing: sample %d (t=%g) has no solution inside the cost domain", e.Index, e.Time)
}

func (e *InteriorGapError) Is(target error) bool { return target == ErrInteriorGap }
