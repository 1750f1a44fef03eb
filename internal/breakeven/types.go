// Package breakeven finds the input value at which buying and renting
// finish the horizon with equal net worth.
package breakeven

import (
	"fmt"
)

// Target selects which input the solver varies.
type Target string

const (
	// TargetAppreciation varies home appreciation (percent per year).
	TargetAppreciation Target = "appreciation"
	// TargetRentInflation varies rent inflation (percent per year).
	TargetRentInflation Target = "rent_inflation"
	// TargetRent varies the starting monthly rent (dollars).
	TargetRent Target = "rent"
	// TargetRate varies the mortgage rate (percent points).
	TargetRate Target = "rate"
)

// Constraints bound the search interval. Nil bounds fall back to the
// per-target defaults.
type Constraints struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Bounds resolves the search interval for a target.
func (c Constraints) Bounds(target Target) (lo, hi float64, err error) {
	switch target {
	case TargetAppreciation:
		lo, hi = -10, 15
	case TargetRentInflation:
		lo, hi = -5, 15
	case TargetRent:
		lo, hi = 0, 20000
	case TargetRate:
		lo, hi = 0.1, 15
	default:
		return 0, 0, &Error{Operation: "bounds", Message: fmt.Sprintf("unsupported target: %s", target)}
	}
	if c.Min != nil {
		lo = *c.Min
	}
	if c.Max != nil {
		hi = *c.Max
	}
	if lo >= hi {
		return 0, 0, &Error{Operation: "bounds", Message: fmt.Sprintf("empty interval [%g, %g] for %s", lo, hi, target)}
	}
	return lo, hi, nil
}

// SolverOptions tune the bisection.
type SolverOptions struct {
	MaxIterations int
	// Tolerance is the terminal-delta magnitude (dollars) treated as equal.
	Tolerance float64
}

// DefaultSolverOptions returns sensible defaults.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		MaxIterations: 100,
		Tolerance:     1.0,
	}
}

// Result describes a completed search.
type Result struct {
	Target     Target  `json:"target"`
	Value      float64 `json:"value"`
	Delta      float64 `json:"delta"` // buyer minus renter at Value
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	// LowDelta and HighDelta are the terminal deltas at the interval ends,
	// kept for diagnostics when no root exists inside the interval.
	LowDelta  float64 `json:"low_delta"`
	HighDelta float64 `json:"high_delta"`
}

// Error wraps solver failures with the operation that produced them.
type Error struct {
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("breakeven %s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("breakeven %s: %s", e.Operation, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }
