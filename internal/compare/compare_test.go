package compare

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/engine"
)

func compareConfig() domain.Configuration {
	cfg := domain.DefaultConfiguration()
	cfg.Years = 10
	cfg.Price = 500000
	cfg.Down = 100000
	cfg.Mortgage = 400000
	cfg.Close = 10000
	cfg.RatePct = 5.0
	cfg.AmortizationMonths = 300
	cfg.Rent = 2200
	cfg.RentInflation = 0.03
	cfg.PropertyTaxRate = 0.008
	cfg.MaintenanceRate = 0.01
	cfg.GeneralInflation = 0.02
	cfg.SellCostRate = 0.05
	return cfg
}

func compareScenario() domain.ScenarioParams {
	return domain.ScenarioParams{
		BuyerReturnPct:   6.0,
		RenterReturnPct:  6.0,
		AppreciationPct:  3.0,
		InvestDifference: true,
	}
}

func TestCompareBaseAndVariants(t *testing.T) {
	ce := NewCompareEngine(engine.New(nil))
	set, err := ce.Compare(context.Background(), compareConfig(), compareScenario(), Options{
		ConfigPath: "scenario.yaml",
	})
	require.NoError(t, err)

	require.NotNil(t, set.BaseResult)
	assert.Equal(t, "base", set.BaseScenarioName)
	assert.Len(t, set.AlternativeResults, len(BuiltInVariants()))
	assert.Zero(t, set.BaseResult.DeltaFromBase)
	assert.NotEmpty(t, set.Recommendations)

	byName := map[string]ComparisonResult{}
	for _, alt := range set.AlternativeResults {
		byName[alt.ScenarioName] = alt
	}

	// Direction checks: worse appreciation and a stronger renter portfolio
	// both hurt the buyer; pricier rent helps.
	assert.Negative(t, byName["appreciation-2pp"].DeltaFromBase)
	assert.Negative(t, byName["renter_ret+2pp"].DeltaFromBase)
	assert.Positive(t, byName["rent+20%"].DeltaFromBase)
	assert.Negative(t, byName["rate+1pp"].DeltaFromBase)
}

func TestCompareCustomVariants(t *testing.T) {
	ce := NewCompareEngine(engine.New(nil))
	set, err := ce.Compare(context.Background(), compareConfig(), compareScenario(), Options{
		BaseScenarioName: "toronto",
		Variants: []Variant{
			{Name: "double_rent", Apply: func(cfg *domain.Configuration, _ *domain.ScenarioParams) {
				cfg.Rent *= 2
			}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "toronto", set.BaseScenarioName)
	require.Len(t, set.AlternativeResults, 1)
	assert.Positive(t, set.AlternativeResults[0].DeltaFromBase)
}

func TestCompareContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ce := NewCompareEngine(engine.New(nil))
	_, err := ce.Compare(ctx, compareConfig(), compareScenario(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBestAlternative(t *testing.T) {
	set := &ComparisonSet{
		AlternativeResults: []ComparisonResult{
			{ScenarioName: "a", Delta: -100},
			{ScenarioName: "b", Delta: 500},
			{ScenarioName: "c", Delta: 200},
		},
	}
	best := set.BestAlternative()
	require.NotNil(t, best)
	assert.Equal(t, "b", best.ScenarioName)

	assert.Nil(t, (&ComparisonSet{}).BestAlternative())
}

func TestTableFormatter(t *testing.T) {
	ce := NewCompareEngine(engine.New(nil))
	set, err := ce.Compare(context.Background(), compareConfig(), compareScenario(), Options{})
	require.NoError(t, err)

	out := (&TableFormatter{}).Format(set)
	assert.Contains(t, out, "RENT VS BUY SCENARIO COMPARISON")
	assert.Contains(t, out, "base")
	assert.Contains(t, out, "rate+1pp")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 120)
	}
}

func TestCSVAndJSONFormatters(t *testing.T) {
	ce := NewCompareEngine(engine.New(nil))
	set, err := ce.Compare(context.Background(), compareConfig(), compareScenario(), Options{})
	require.NoError(t, err)

	b, err := (&CSVFormatter{}).Format(set)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Len(t, lines, 2+len(BuiltInVariants())) // header + base + variants

	j, err := (&JSONFormatter{}).Format(set)
	require.NoError(t, err)
	var decoded ComparisonSet
	require.NoError(t, json.Unmarshal(j, &decoded))
	assert.Equal(t, set.BaseScenarioName, decoded.BaseScenarioName)
}
