package compare

import (
	"context"
	"fmt"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/engine"
)

// Variant is a named mutation of the base inputs.
type Variant struct {
	Name        string
	Description string
	Apply       func(*domain.Configuration, *domain.ScenarioParams)
}

// BuiltInVariants are the standard sensitivity probes.
func BuiltInVariants() []Variant {
	return []Variant{
		{
			Name:        "rate+1pp",
			Description: "Mortgage rate one point higher",
			Apply: func(cfg *domain.Configuration, _ *domain.ScenarioParams) {
				cfg.RatePct += 1.0
				cfg.Mortgage = 0 // re-derive the payment
			},
		},
		{
			Name:        "appreciation-2pp",
			Description: "Home appreciation two points lower",
			Apply: func(_ *domain.Configuration, sc *domain.ScenarioParams) {
				sc.AppreciationPct -= 2.0
			},
		},
		{
			Name:        "renter_ret+2pp",
			Description: "Renter portfolio return two points higher",
			Apply: func(_ *domain.Configuration, sc *domain.ScenarioParams) {
				sc.RenterReturnPct += 2.0
			},
		},
		{
			Name:        "rent+20%",
			Description: "Starting rent 20% higher",
			Apply: func(cfg *domain.Configuration, _ *domain.ScenarioParams) {
				cfg.Rent *= 1.20
			},
		},
		{
			Name:        "no_sale_at_end",
			Description: "Hold the home past the horizon (no exit costs)",
			Apply: func(cfg *domain.Configuration, _ *domain.ScenarioParams) {
				cfg.AssumeSaleEnd = false
			},
		},
	}
}

// CompareEngine orchestrates scenario comparison
type CompareEngine struct {
	Engine *engine.Engine
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(eng *engine.Engine) *CompareEngine {
	return &CompareEngine{Engine: eng}
}

// Options configures a comparison run.
type Options struct {
	BaseScenarioName string // label for the unmodified inputs; "base" when empty
	Variants         []Variant
	ConfigPath       string
}

// Compare runs the base inputs and every variant, computing diffs against
// the base.
func (ce *CompareEngine) Compare(
	ctx context.Context,
	cfg domain.Configuration,
	sc domain.ScenarioParams,
	options Options,
) (*ComparisonSet, error) {
	baseName := options.BaseScenarioName
	if baseName == "" {
		baseName = "base"
	}
	variants := options.Variants
	if variants == nil {
		variants = BuiltInVariants()
	}

	baseRes, err := ce.Engine.Run(cfg, sc, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to run base scenario: %w", err)
	}
	base := newComparisonResult(baseName, "", baseRes)

	set := &ComparisonSet{
		BaseScenarioName:   baseName,
		BaseResult:         &base,
		AlternativeResults: make([]ComparisonResult, 0, len(variants)),
		ConfigPath:         options.ConfigPath,
	}

	for _, v := range variants {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		vCfg := cfg
		vSc := sc
		if v.Apply != nil {
			v.Apply(&vCfg, &vSc)
		}
		res, err := ce.Engine.Run(vCfg, vSc, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to run variant %s: %w", v.Name, err)
		}

		alt := newComparisonResult(v.Name, v.Description, res)
		alt.DeltaFromBase = alt.Delta - base.Delta
		if base.Delta != 0 {
			alt.DeltaPctFromBase = alt.DeltaFromBase / abs(base.Delta) * 100.0
		}
		set.AlternativeResults = append(set.AlternativeResults, alt)
	}

	set.buildRecommendations()
	return set, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
