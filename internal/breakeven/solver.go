package breakeven

import (
	"context"
	"math"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/engine"
)

// Solver bisects one scenario input until the horizon net-worth delta
// crosses zero. Runs are forced deterministic so the objective is smooth.
type Solver struct {
	Engine  *engine.Engine
	Options SolverOptions
}

// NewSolver creates a solver with explicit options.
func NewSolver(eng *engine.Engine, options SolverOptions) *Solver {
	return &Solver{Engine: eng, Options: options}
}

// NewDefaultSolver creates a solver with default options.
func NewDefaultSolver(eng *engine.Engine) *Solver {
	return NewSolver(eng, DefaultSolverOptions())
}

// Request is one search: the base scenario plus the knob to vary.
type Request struct {
	Config      domain.Configuration
	Scenario    domain.ScenarioParams
	Target      Target
	Constraints Constraints

	// Zero values fall back to the solver options.
	MaxIterations int
	Tolerance     float64
}

// Solve finds the target value where buyer and renter terminal net worth
// are equal. The delta must change sign across the search interval;
// otherwise the result reports the end-point deltas and Converged=false.
func (s *Solver) Solve(ctx context.Context, req Request) (*Result, error) {
	lo, hi, err := req.Constraints.Bounds(req.Target)
	if err != nil {
		return nil, err
	}
	maxIter := req.MaxIterations
	if maxIter == 0 {
		maxIter = s.Options.MaxIterations
	}
	tol := req.Tolerance
	if tol == 0 {
		tol = s.Options.Tolerance
	}

	dLo, err := s.delta(req, lo)
	if err != nil {
		return nil, err
	}
	dHi, err := s.delta(req, hi)
	if err != nil {
		return nil, err
	}

	res := &Result{Target: req.Target, LowDelta: dLo, HighDelta: dHi}

	if math.Abs(dLo) <= tol {
		res.Value, res.Delta, res.Converged = lo, dLo, true
		return res, nil
	}
	if math.Abs(dHi) <= tol {
		res.Value, res.Delta, res.Converged = hi, dHi, true
		return res, nil
	}
	if dLo*dHi > 0 {
		// No crossing inside the interval; report the better end.
		if math.Abs(dLo) < math.Abs(dHi) {
			res.Value, res.Delta = lo, dLo
		} else {
			res.Value, res.Delta = hi, dHi
		}
		return res, nil
	}

	for res.Iterations < maxIter {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res.Iterations++

		mid := (lo + hi) / 2
		dMid, err := s.delta(req, mid)
		if err != nil {
			return nil, err
		}
		res.Value, res.Delta = mid, dMid

		if math.Abs(dMid) <= tol {
			res.Converged = true
			return res, nil
		}
		if dLo*dMid < 0 {
			hi, dHi = mid, dMid
		} else {
			lo, dLo = mid, dMid
		}
		if hi-lo < 1e-12*math.Max(1, math.Abs(hi)) {
			res.Converged = true
			return res, nil
		}
	}
	return res, nil
}

// delta runs one deterministic simulation with the target set to v and
// returns the horizon buyer-minus-renter net worth.
func (s *Solver) delta(req Request, v float64) (float64, error) {
	cfg := req.Config
	sc := req.Scenario
	sc.ForceDeterministic = true

	switch req.Target {
	case TargetAppreciation:
		sc.AppreciationPct = v
	case TargetRentInflation:
		cfg.RentInflation = v / 100.0
	case TargetRent:
		cfg.Rent = v
	case TargetRate:
		cfg.RatePct = v
		cfg.Mortgage = 0 // re-derive the payment at the test rate
	}

	res, err := s.Engine.Run(cfg, sc, nil)
	if err != nil {
		return 0, &Error{Operation: "evaluate", Message: "simulation failed", Cause: err}
	}
	last := res.FinalRow()
	return last.BuyerNetWorth - last.RenterNetWorth, nil
}
