package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/govprograms"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/mortgage"
)

// baseConfig supplies the derived purchase numbers directly so the tests
// stay self-contained arithmetic.
func baseConfig() domain.Configuration {
	cfg := domain.DefaultConfiguration()
	cfg.Years = 10
	cfg.Price = 500000
	cfg.Down = 100000
	cfg.Mortgage = 400000
	cfg.Close = 10000
	cfg.RatePct = 5.0
	cfg.AmortizationMonths = 300
	cfg.CanadianCompounding = true
	cfg.Rent = 2200
	cfg.RentInflation = 0.03
	cfg.RenterInsurance = 30
	cfg.RenterUtilities = 120
	cfg.MovingCost = 1500
	cfg.MovingFreqYears = 5
	cfg.PropertyTaxRate = 0.008
	cfg.MaintenanceRate = 0.01
	cfg.RepairRate = 0.005
	cfg.CondoFees = 400
	cfg.HomeInsurance = 120
	cfg.OwnerUtilities = 250
	cfg.GeneralInflation = 0.02
	cfg.SellCostRate = 0.05
	cfg.HomeSaleLegalFee = 1500
	return cfg
}

func baseScenario() domain.ScenarioParams {
	return domain.ScenarioParams{
		BuyerReturnPct:  6.0,
		RenterReturnPct: 6.0,
		AppreciationPct: 3.0,
		InvestDifference: true,
	}
}

func mustRun(t *testing.T, cfg domain.Configuration, sc domain.ScenarioParams, opts *RunOptions) *domain.Result {
	t.Helper()
	res, err := New(nil).Run(cfg, sc, opts)
	require.NoError(t, err)
	return res
}

func TestRunDeterministicBasics(t *testing.T) {
	cfg := baseConfig()
	sc := baseScenario()
	res := mustRun(t, cfg, sc, nil)

	require.Len(t, res.Rows, cfg.Years*12)
	assert.InDelta(t, 110000, res.CloseCash, 1e-9)

	mr := mortgage.AnnualNominalPctToMonthlyRate(5.0, true)
	wantPmt := mortgage.Payment(400000, mr, 300)
	assert.InDelta(t, wantPmt, res.MonthlyPayment, 1e-9)

	first := res.Rows[0]
	assert.Equal(t, 1, first.Month)
	assert.Equal(t, 1, first.Year)
	assert.InDelta(t, 400000*mr, first.Interest, 1e-6)

	// Month-one property tax, maintenance, and repairs are on the initial
	// price; the assessment base only moves afterwards.
	assert.InDelta(t, 500000*0.008/12, first.PropertyTax, 1e-6)
	assert.InDelta(t, 500000*0.01/12, first.Maintenance, 1e-6)
	assert.InDelta(t, 500000*0.005/12, first.Repairs, 1e-6)

	ownerOp := first.Interest + first.PropertyTax + first.Maintenance + first.Repairs +
		first.CondoFees + first.HomeInsurance + first.Utilities
	assert.InDelta(t, ownerOp+10000, first.BuyerUnrecoverable, 1e-6)
	assert.InDelta(t, 2200+30+120, first.RenterUnrecoverable, 1e-6)

	for i := 1; i < len(res.Rows); i++ {
		assert.GreaterOrEqual(t, res.Rows[i].BuyerUnrecoverable, res.Rows[i-1].BuyerUnrecoverable,
			"buyer unrecoverable must not shrink (month %d)", i+1)
		assert.GreaterOrEqual(t, res.Rows[i].RenterUnrecoverable, res.Rows[i-1].RenterUnrecoverable,
			"renter unrecoverable must not shrink (month %d)", i+1)
	}
}

func TestRunRejectsZeroHorizon(t *testing.T) {
	cfg := baseConfig()
	cfg.Years = 0
	_, err := New(nil).Run(cfg, baseScenario(), nil)
	assert.Error(t, err)
}

func TestRenterMovingCadence(t *testing.T) {
	cfg := baseConfig()
	cfg.Years = 5
	cfg.MovingFreqYears = 2
	cfg.AssumeSaleEnd = false
	res := mustRun(t, cfg, baseScenario(), nil)

	for i, row := range res.Rows {
		m := i + 1
		if m == 24 || m == 48 {
			assert.InDelta(t, 1500, row.Moving, 1e-9, "month %d", m)
		} else {
			assert.Zero(t, row.Moving, "month %d", m)
		}
	}
}

func TestRenterFinalMoveSkippedOnSale(t *testing.T) {
	cfg := baseConfig()
	cfg.Years = 2
	cfg.MovingFreqYears = 2
	cfg.AssumeSaleEnd = true
	res := mustRun(t, cfg, baseScenario(), nil)

	// The horizon move coincides with the sale month and is dropped.
	assert.Zero(t, res.Rows[23].Moving)
}

func TestRentStepCadence(t *testing.T) {
	cfg := baseConfig()
	cfg.Years = 8
	cfg.RentInflation = 0.04
	cfg.RentControlEnabled = true
	cfg.RentControlFrequencyYears = 3
	res := mustRun(t, cfg, baseScenario(), nil)

	// Rent is recorded before the step, so the new level first appears the
	// month after each 36-month boundary.
	for i := 0; i < 36; i++ {
		assert.InDelta(t, 2200, res.Rows[i].Rent, 1e-9, "month %d", i+1)
	}
	stepped := 2200 * math.Pow(1.04, 3)
	assert.InDelta(t, stepped, res.Rows[36].Rent, 1e-6)
	assert.InDelta(t, stepped, res.Rows[71].Rent, 1e-6)
}

func TestRentControlCapsInflation(t *testing.T) {
	cfg := baseConfig()
	cfg.Years = 2
	cfg.RentInflation = 0.10
	cfg.RentControlEnabled = true
	cap := 2.5 // percent points
	cfg.RentControlCapPct = &cap
	res := mustRun(t, cfg, baseScenario(), nil)

	assert.InDelta(t, 2200*1.025, res.Rows[12].Rent, 1e-6)
}

func TestRateResetRaisesInterest(t *testing.T) {
	cfg := baseConfig()
	cfg.RatePct = 4.0
	cfg.RateMode = domain.RateModeReset
	years := 5
	to := 8.0
	cfg.RateResetYears = &years
	cfg.RateResetToPct = &to
	res := mustRun(t, cfg, baseScenario(), nil)

	// Amortization pushes interest down month over month until the renewal
	// doubles the rate at month 61.
	assert.Less(t, res.Rows[59].Interest, res.Rows[58].Interest)
	assert.Greater(t, res.Rows[60].Interest, res.Rows[59].Interest)
}

func TestRateShockWindow(t *testing.T) {
	cfg := baseConfig()
	cfg.RateShockEnabled = true
	cfg.RateShockStartYear = 2
	cfg.RateShockDurationYears = 1
	cfg.RateShockPP = 2.0
	res := mustRun(t, cfg, baseScenario(), nil)

	// Months 25..36 carry the shock; interest jumps in and drops out.
	assert.Greater(t, res.Rows[24].Interest, res.Rows[23].Interest)
	assert.Less(t, res.Rows[36].Interest, res.Rows[35].Interest)
}

func TestSpecialAssessmentMonth(t *testing.T) {
	cfg := baseConfig()
	cfg.SpecialAssessmentAmount = 15000
	cfg.SpecialAssessmentMonth = 30
	res := mustRun(t, cfg, baseScenario(), nil)

	for i, row := range res.Rows {
		if i == 29 {
			assert.InDelta(t, 15000, row.SpecialAssessment, 1e-9)
		} else {
			assert.Zero(t, row.SpecialAssessment, "month %d", i+1)
		}
	}
	// The assessment flows into both outlay and unrecoverable totals.
	assert.Greater(t, res.Rows[29].BuyPayment, res.Rows[28].BuyPayment+14000)
}

func TestPropertyTaxGrowthModels(t *testing.T) {
	run := func(model domain.PropertyTaxGrowthModel) *domain.Result {
		cfg := baseConfig()
		cfg.PropTaxGrowthModel = model
		sc := baseScenario()
		sc.AppreciationPct = 6.0
		return mustRun(t, cfg, sc, nil)
	}
	market := run(domain.PropTaxMarket)
	inflation := run(domain.PropTaxInflation)
	hybrid := run(domain.PropTaxHybrid)

	// All models start from the same assessed value.
	assert.InDelta(t, market.Rows[0].PropertyTax, inflation.Rows[0].PropertyTax, 1e-9)
	assert.InDelta(t, market.Rows[0].PropertyTax, hybrid.Rows[0].PropertyTax, 1e-9)

	// With appreciation well above CPI the market model outruns the capped
	// hybrid, which in turn outruns pure CPI indexing.
	last := len(market.Rows) - 1
	assert.Greater(t, market.Rows[last].PropertyTax, hybrid.Rows[last].PropertyTax)
	assert.Greater(t, hybrid.Rows[last].PropertyTax, inflation.Rows[last].PropertyTax)
}

func TestBudgetSurplusInvested(t *testing.T) {
	cfg := baseConfig()
	cfg.BudgetEnabled = true
	cfg.MonthlyIncome = 12000
	cfg.MonthlyNonHousing = 3000
	cfg.IncomeGrowthPct = 2.0
	res := mustRun(t, cfg, baseScenario(), nil)

	first := res.Rows[0]
	require.NotNil(t, first.IncomeMonthly)
	require.NotNil(t, first.BuyerNetCash)
	require.NotNil(t, first.RenterNetCash)
	assert.InDelta(t, 12000, *first.IncomeMonthly, 1e-9)
	assert.Positive(t, *first.BuyerNetCash)
	assert.Positive(t, *first.RenterNetCash)
	assert.Zero(t, res.FinalRow().BuyerShortfallCum)
	assert.Zero(t, res.FinalRow().RenterShortfallCum)

	// Income compounds annually on a monthly schedule.
	last := res.FinalRow()
	require.NotNil(t, last.IncomeMonthly)
	months := float64(len(res.Rows))
	assert.InDelta(t, 12000*math.Pow(1.02, (months-1)/12), *last.IncomeMonthly, 1e-6)
}

func TestBudgetShortfallAccumulates(t *testing.T) {
	cfg := baseConfig()
	cfg.BudgetEnabled = true
	cfg.BudgetAllowWithdraw = false
	cfg.MonthlyIncome = 3000
	cfg.MonthlyNonHousing = 2000
	res := mustRun(t, cfg, baseScenario(), nil)

	last := res.FinalRow()
	assert.Positive(t, last.BuyerShortfallCum)
	for i := 1; i < len(res.Rows); i++ {
		assert.GreaterOrEqual(t, res.Rows[i].BuyerShortfallCum, res.Rows[i-1].BuyerShortfallCum)
	}
}

func TestSurplusCashEarnsNothingWhenNotInvested(t *testing.T) {
	sc := baseScenario()
	sc.InvestDifference = true
	invested := mustRun(t, baseConfig(), sc, nil)

	sc.InvestDifference = false
	cash := mustRun(t, baseConfig(), sc, nil)

	// Renting is cheaper here, so the renter banks the gap either way; only
	// the invested variant compounds it.
	assert.Positive(t, invested.Rows[0].Deficit)
	assert.Greater(t, invested.FinalRow().RenterNetWorth, cash.FinalRow().RenterNetWorth)
}

func TestLiquidationMatchesNetWorthWhenUntaxed(t *testing.T) {
	cfg := baseConfig()
	cfg.AssumeSaleEnd = true
	cfg.ShowLiquidationView = true
	cfg.IsPrincipalResidence = true
	cfg.CGTaxEndPct = 0
	res := mustRun(t, cfg, baseScenario(), nil)

	last := res.FinalRow()
	require.NotNil(t, last.BuyerLiquidationNW)
	require.NotNil(t, last.RenterLiquidationNW)
	assert.InDelta(t, last.BuyerNetWorth, *last.BuyerLiquidationNW, 1e-6)
	assert.InDelta(t, last.RenterNetWorth, *last.RenterLiquidationNW, 1e-6)
}

func TestLiquidationTaxReducesCashOut(t *testing.T) {
	cfg := baseConfig()
	cfg.AssumeSaleEnd = true
	cfg.ShowLiquidationView = true
	cfg.CGTaxEndPct = 25
	cfg.RegShelterEnabled = false
	res := mustRun(t, cfg, baseScenario(), nil)

	last := res.FinalRow()
	require.NotNil(t, last.RenterLiquidationNW)
	assert.Less(t, *last.RenterLiquidationNW, last.RenterNetWorth)
}

func TestShelterRoomAbsorbsGains(t *testing.T) {
	cfg := baseConfig()
	cfg.AssumeSaleEnd = true
	cfg.ShowLiquidationView = true
	cfg.CGTaxEndPct = 25
	cfg.RegShelterEnabled = true
	cfg.RegInitialRoom = 1e9
	res := mustRun(t, cfg, baseScenario(), nil)

	last := res.FinalRow()
	require.NotNil(t, last.RenterLiquidationNW)
	assert.InDelta(t, last.RenterNetWorth, *last.RenterLiquidationNW, 1e-6)
}

func TestCrisisReducesOutcomes(t *testing.T) {
	base := mustRun(t, baseConfig(), baseScenario(), nil)

	cfg := baseConfig()
	cfg.CrisisEnabled = true
	cfg.CrisisYear = 3
	cfg.CrisisStockDrawdown = 0.30
	cfg.CrisisHouseDrawdown = 0.20
	cfg.CrisisDurationMonths = 1
	hit := mustRun(t, cfg, baseScenario(), nil)

	assert.Less(t, hit.FinalRow().BuyerNetWorth, base.FinalRow().BuyerNetWorth)
	assert.Less(t, hit.FinalRow().RenterNetWorth, base.FinalRow().RenterNetWorth)
}

func TestUnitNormalizationDiagnostics(t *testing.T) {
	cfg := baseConfig()
	cfg.GeneralInflation = 2.0 // clearly percent points
	cfg.DiscountRate = 8.0
	res := mustRun(t, cfg, baseScenario(), nil)

	fields := map[string]bool{}
	for _, n := range res.Diagnostics.UnitNormalizations {
		fields[n.Field] = true
	}
	assert.True(t, fields["general_inf"])
	assert.True(t, fields["discount_rate"])
	assert.True(t, res.Diagnostics.DiscountRateAutoNormalized)
}

func TestPresentValueColumns(t *testing.T) {
	cfg := baseConfig()
	cfg.DiscountRate = 0.05
	res := mustRun(t, cfg, baseScenario(), nil)

	discMo := math.Pow(1.05, 1.0/12.0) - 1.0
	for _, m := range []int{1, 12, 60, len(res.Rows)} {
		row := res.Rows[m-1]
		f := math.Pow(1.0+discMo, float64(m))
		assert.InDelta(t, row.BuyerNetWorth/f, row.BuyerPVNetWorth, 1e-6, "month %d", m)
		assert.InDelta(t, row.RenterNetWorth/f, row.RenterPVNetWorth, 1e-6, "month %d", m)
		assert.InDelta(t, row.BuyerPVNetWorth-row.RenterPVNetWorth, row.PVDelta, 1e-9, "month %d", m)
	}
}

func TestPresentValueIdentityWithoutDiscounting(t *testing.T) {
	cfg := baseConfig()
	cfg.DiscountRate = 0
	res := mustRun(t, cfg, baseScenario(), nil)

	last := res.FinalRow()
	assert.Equal(t, last.BuyerNetWorth, last.BuyerPVNetWorth)
	assert.Equal(t, last.RenterNetWorth, last.RenterPVNetWorth)
}

func mcConfig() domain.Configuration {
	cfg := baseConfig()
	cfg.Years = 5
	cfg.UseVolatility = true
	cfg.NumSims = 64
	cfg.ReturnStd = 0.15
	cfg.ApprecStd = 0.10
	return cfg
}

func mcScenario(seed int64) domain.ScenarioParams {
	sc := baseScenario()
	sc.Seed = &seed
	sc.MarketCorrelation = 0.4
	return sc
}

func TestMonteCarloSeededReproducibility(t *testing.T) {
	a := mustRun(t, mcConfig(), mcScenario(42), nil)
	b := mustRun(t, mcConfig(), mcScenario(42), nil)

	require.NotNil(t, a.Bands)
	require.NotNil(t, b.Bands)
	assert.Equal(t, a.Bands.BuyerNWMean, b.Bands.BuyerNWMean)
	assert.Equal(t, a.Bands.RenterNWLow, b.Bands.RenterNWLow)
	require.NotNil(t, a.WinPct)
	require.NotNil(t, b.WinPct)
	assert.Equal(t, *a.WinPct, *b.WinPct)

	c := mustRun(t, mcConfig(), mcScenario(43), nil)
	require.NotNil(t, c.Bands)
	assert.NotEqual(t, a.Bands.BuyerNWMean, c.Bands.BuyerNWMean)
}

func TestMonteCarloDiagnosticsAndBounds(t *testing.T) {
	res := mustRun(t, mcConfig(), mcScenario(7), nil)

	assert.Equal(t, 64, res.Diagnostics.MCNumSims)
	require.NotNil(t, res.Diagnostics.MCSeed)
	assert.EqualValues(t, 7, *res.Diagnostics.MCSeed)
	assert.False(t, res.Diagnostics.MCDegenerate)
	require.NotNil(t, res.WinPct)
	assert.GreaterOrEqual(t, *res.WinPct, 0.0)
	assert.LessOrEqual(t, *res.WinPct, 100.0)

	// Bands bracket the mean.
	require.NotNil(t, res.Bands)
	for i := range res.Bands.BuyerNWMean {
		assert.LessOrEqual(t, res.Bands.BuyerNWLow[i], res.Bands.BuyerNWHigh[i], "month %d", i+1)
	}
}

func TestMonteCarloDegenerateMatchesDeterministic(t *testing.T) {
	cfg := mcConfig()
	cfg.ReturnStd = 0
	cfg.ApprecStd = 0
	sc := mcScenario(11)
	mc := mustRun(t, cfg, sc, nil)

	assert.True(t, mc.Diagnostics.MCDegenerate)
	require.NotNil(t, mc.Diagnostics.MCDeterministicEquivOK)
	assert.True(t, *mc.Diagnostics.MCDeterministicEquivOK)

	sc.ForceDeterministic = true
	det := mustRun(t, cfg, sc, nil)
	require.Len(t, mc.Rows, len(det.Rows))
	for i := range det.Rows {
		assert.InDelta(t, det.Rows[i].BuyerNetWorth, mc.Rows[i].BuyerNetWorth, 1.0, "month %d", i+1)
		assert.InDelta(t, det.Rows[i].RenterNetWorth, mc.Rows[i].RenterNetWorth, 1.0, "month %d", i+1)
	}
}

func TestMonteCarloProgressReporting(t *testing.T) {
	calls := 0
	var lastDone, lastTotal int
	opts := &RunOptions{Progress: func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	}}
	mustRun(t, mcConfig(), mcScenario(5), opts)

	assert.Positive(t, calls)
	assert.Equal(t, lastTotal, lastDone)
	assert.Equal(t, 64, lastTotal)
}

func TestForeignBuyerTaxAddedToClose(t *testing.T) {
	cfg := baseConfig()
	cfg.Province = "ON"
	cfg.IsForeignBuyer = true
	res := mustRun(t, cfg, baseScenario(), nil)

	fbt := res.Diagnostics.ForeignBuyerTax
	assert.Positive(t, fbt)
	assert.InDelta(t, 110000+fbt, res.CloseCash, 1e-6)
}

func TestHBPRepaymentInBuyerCashFlow(t *testing.T) {
	base := mustRun(t, baseConfig(), baseScenario(), nil)

	cfg := baseConfig()
	cfg.HBPEnabled = true
	cfg.HBPWithdrawal = 60000
	hbp := mustRun(t, cfg, baseScenario(), nil)

	monthly := govprograms.HBPMonthlyRepayment(60000)

	// Grace months are untouched; repayment months carry the extra outflow.
	for m := 0; m < 24; m++ {
		assert.InDelta(t, base.Rows[m].BuyPayment, hbp.Rows[m].BuyPayment, 1e-9, "month %d", m+1)
	}
	assert.InDelta(t, base.Rows[24].BuyPayment+monthly, hbp.Rows[24].BuyPayment, 1e-9)

	// The repayment refills the buyer's own RRSP, so it is cash flow, not an
	// unrecoverable cost.
	last := len(hbp.Rows) - 1
	assert.InDelta(t, base.Rows[last].BuyerUnrecoverable, hbp.Rows[last].BuyerUnrecoverable, 1e-6)

	// The extra outflow widens the gap in the renter's favour.
	baseGap := base.FinalRow().BuyerNetWorth - base.FinalRow().RenterNetWorth
	hbpGap := hbp.FinalRow().BuyerNetWorth - hbp.FinalRow().RenterNetWorth
	assert.Less(t, hbpGap, baseGap)
}

func TestIRDPenaltyOnEarlyExit(t *testing.T) {
	base := baseConfig()
	base.Years = 3
	res0 := mustRun(t, base, baseScenario(), nil)

	cfg := baseConfig()
	cfg.Years = 3
	cfg.IRDEnabled = true
	cfg.MortgageTermMonths = 60
	cfg.IRDRateDropPP = 1.5
	res := mustRun(t, cfg, baseScenario(), nil)

	penalty := res.Diagnostics.IRDPenalty
	assert.Positive(t, penalty)
	assert.InDelta(t, res0.FinalRow().BuyerNetWorth-penalty, res.FinalRow().BuyerNetWorth, 1e-6)
	assert.InDelta(t, res0.FinalRow().BuyerUnrecoverable+penalty, res.FinalRow().BuyerUnrecoverable, 1e-6)
	assert.Equal(t, res0.FinalRow().RenterNetWorth, res.FinalRow().RenterNetWorth)
}

func TestIRDNoPenaltyAtTermEnd(t *testing.T) {
	base := baseConfig()
	base.Years = 5
	res0 := mustRun(t, base, baseScenario(), nil)

	cfg := baseConfig()
	cfg.Years = 5
	cfg.IRDEnabled = true
	cfg.MortgageTermMonths = 60
	res := mustRun(t, cfg, baseScenario(), nil)

	// The horizon lands on the renewal date, so breaking costs nothing.
	assert.Zero(t, res.Diagnostics.IRDPenalty)
	assert.InDelta(t, res0.FinalRow().BuyerNetWorth, res.FinalRow().BuyerNetWorth, 1e-9)
}

func TestIRDPenaltyInLiquidationView(t *testing.T) {
	cfg := baseConfig()
	cfg.Years = 3
	cfg.IRDEnabled = true
	cfg.AssumeSaleEnd = true
	cfg.ShowLiquidationView = true
	cfg.IsPrincipalResidence = true
	cfg.CGTaxEndPct = 0
	res := mustRun(t, cfg, baseScenario(), nil)

	// The penalty hits net worth and cash-out alike, so the untaxed
	// liquidation identity still holds.
	last := res.FinalRow()
	require.NotNil(t, last.BuyerLiquidationNW)
	assert.InDelta(t, last.BuyerNetWorth, *last.BuyerLiquidationNW, 1e-6)
}

func TestFHSADiagnostics(t *testing.T) {
	cfg := baseConfig()
	cfg.FHSAEnabled = true
	cfg.FHSAAnnualContribution = 8000
	cfg.FHSAYearsContributed = 4
	cfg.FHSAReturnPct = 5.0
	cfg.FHSAMarginalTaxRatePct = 40
	res := mustRun(t, cfg, baseScenario(), nil)

	assert.Greater(t, res.Diagnostics.FHSABalance, 32000.0)
	assert.Equal(t, 12800.0, res.Diagnostics.FHSATaxSavings)

	// The projection is informational only; the walk itself is unchanged.
	plain := mustRun(t, baseConfig(), baseScenario(), nil)
	assert.Equal(t, plain.FinalRow().BuyerNetWorth, res.FinalRow().BuyerNetWorth)
}
