// Package engine runs the rent-vs-buy comparison: a deterministic monthly
// path or a Monte Carlo batch over correlated stock and housing shocks,
// plus the heatmap driver that sweeps scenario grids.
package engine

import (
	"errors"
	"math"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/govprograms"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/mortgage"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/policy"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/purchase"
)

// Engine evaluates scenarios. Stateless apart from its logger; safe for
// concurrent use.
type Engine struct {
	log Logger
}

// New returns an Engine. A nil logger is replaced with a no-op.
func New(log Logger) *Engine {
	if log == nil {
		log = nopLogger{}
	}
	return &Engine{log: log}
}

// RunOptions tweak a single Run beyond the scenario overlay.
type RunOptions struct {
	// Progress, when set, is called roughly 100 times over the run.
	Progress func(done, total int)
	// SummaryOnly skips the per-month series in Monte Carlo mode.
	SummaryOnly bool
	// Shocks supplies common random numbers; nil draws fresh ones.
	Shocks *ShockSet
	// RentInflationOverridePct replaces the configured rent inflation
	// (percent points per year). Used by the heatmap driver.
	RentInflationOverridePct *float64
	// RateOverridePct replaces the configured mortgage rate.
	RateOverridePct *float64
}

// Run evaluates one scenario: unit normalization, purchase derivation,
// then either a deterministic path or a Monte Carlo batch, with the
// present-value series appended.
func (e *Engine) Run(cfg domain.Configuration, sc domain.ScenarioParams, opts *RunOptions) (*domain.Result, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	if cfg.Years < 1 {
		return nil, errors.New("engine: horizon must be at least one year")
	}

	var diag domain.Diagnostics
	diag.UnitNormalizations = cfg.NormalizeUnits()
	for _, n := range diag.UnitNormalizations {
		if n.Field == "discount_rate" {
			diag.DiscountRateAutoNormalized = true
		}
		e.log.Warnf("normalized %s from %g to %g (looked like percent points)", n.Field, n.From, n.To)
	}

	cfg, err := purchase.Enrich(cfg, false)
	if err != nil {
		return nil, err
	}

	// Foreign-buyer surtax lands in closing costs so both net worth and
	// unrecoverable totals carry it.
	if cfg.IsForeignBuyer {
		fbt := policy.ForeignBuyerTaxAmount(cfg.Price, cfg.Province, cfg.AsOfOrNow())
		if fbt > 0 {
			cfg.Close += fbt
			diag.ForeignBuyerTax = fbt
			e.log.Infof("foreign-buyer tax of $%.0f added to closing costs", fbt)
		}
	}

	// FHSA is an informational projection alongside the run, not a monthly
	// cash flow: the saving happened before the purchase.
	if cfg.FHSAEnabled {
		bal, cum := govprograms.FHSABalance(
			cfg.FHSAAnnualContribution, cfg.FHSAYearsContributed, cfg.FHSAReturnPct, cfg.AsOfOrNow())
		diag.FHSABalance = bal
		diag.FHSATaxSavings = govprograms.FHSATaxSavings(cum, cfg.FHSAMarginalTaxRatePct)
	}

	s := newSimSpec(&cfg, &sc, opts.RentInflationOverridePct, opts.RateOverridePct)

	if s.irdEnabled {
		diag.IRDPenalty = mortgage.IRDPenaltyForSimulation(
			s.mort, s.rateNominalPct, s.nm, s.irdTermMonths, s.months,
			s.canadian, s.rateNominalPct-s.irdDropPP)
	}

	res := &domain.Result{
		CloseCash:      s.down + s.close,
		MonthlyPayment: s.pmtInit,
	}

	if s.isMC {
		mc := s.runMonteCarlo(opts.SummaryOnly, opts.Shocks, opts.Progress)
		res.Rows = mc.rows
		res.Bands = mc.bands
		res.Liquidation = mc.liquidation
		res.WinPct = mc.winPct
		diag.MCNumSims = max(1, s.numSims)
		diag.MCSeed = s.seed
		diag.MCDegenerate = mc.degenerate
		if mc.winPct == nil {
			diag.Notes = append(diag.Notes, "Win% unavailable (non-finite or invalid).")
		}
		if mc.degenerate && !opts.SummaryOnly {
			ok := s.deterministicEquivalent(mc.rows)
			diag.MCDeterministicEquivOK = &ok
			if !ok {
				diag.Notes = append(diag.Notes, "Degenerate MC mismatch vs deterministic path.")
				e.log.Errorf("degenerate Monte Carlo diverged from the deterministic path")
			}
		}
	} else {
		sink := &pathSink{rows: make([]domain.MonthRow, s.months)}
		s.walk(nil, sink)
		res.Rows = sink.rows
	}

	applyPresentValue(s, res, &diag)
	res.Diagnostics = diag
	return res, nil
}

// deterministicEquivalent checks a zero-volatility Monte Carlo median path
// against the plain deterministic walk.
func (s *simSpec) deterministicEquivalent(mcRows []domain.MonthRow) bool {
	sink := &pathSink{rows: make([]domain.MonthRow, s.months)}
	s.walk(nil, sink)
	if len(mcRows) != len(sink.rows) {
		return false
	}
	closeEnough := func(a, b float64) bool {
		return math.Abs(a-b) <= 1.0+1e-6*math.Abs(b)
	}
	for i := range mcRows {
		if !closeEnough(mcRows[i].BuyerNetWorth, sink.rows[i].BuyerNetWorth) ||
			!closeEnough(mcRows[i].RenterNetWorth, sink.rows[i].RenterNetWorth) {
			return false
		}
	}
	return true
}

// applyPresentValue fills the discounted net-worth columns in place.
func applyPresentValue(s *simSpec, res *domain.Result, diag *domain.Diagnostics) {
	diag.DiscountRateAutoNormalized = diag.DiscountRateAutoNormalized || s.discountAutoNormalized
	for i := range res.Rows {
		row := &res.Rows[i]
		f := 1.0
		if s.discMo > 0 {
			f = math.Pow(1.0+s.discMo, float64(row.Month))
		}
		row.BuyerPVNetWorth = row.BuyerNetWorth / f
		row.RenterPVNetWorth = row.RenterNetWorth / f
		row.PVDelta = row.BuyerPVNetWorth - row.RenterPVNetWorth
	}
	if res.Bands != nil {
		n := len(res.Bands.BuyerNWMean)
		res.Bands.BuyerPVNWMean = make([]float64, n)
		res.Bands.RenterPVNWMean = make([]float64, n)
		res.Bands.PVDeltaMean = make([]float64, n)
		for i := 0; i < n; i++ {
			f := 1.0
			if s.discMo > 0 {
				f = math.Pow(1.0+s.discMo, float64(i+1))
			}
			res.Bands.BuyerPVNWMean[i] = res.Bands.BuyerNWMean[i] / f
			res.Bands.RenterPVNWMean[i] = res.Bands.RenterNWMean[i] / f
			res.Bands.PVDeltaMean[i] = res.Bands.BuyerPVNWMean[i] - res.Bands.RenterPVNWMean[i]
		}
	}
}

// newSimSpec derives the flat, unit-converted simulation description from a
// configuration and scenario overlay.
func newSimSpec(cfg *domain.Configuration, sc *domain.ScenarioParams, rentInfOverridePct, rateOverridePct *float64) *simSpec {
	years := max(1, cfg.Years)

	// Annual return drag haircuts both portfolios' expected returns.
	drag := 1.0
	if cfg.InvestmentTaxMode.IsAnnualDrag() && cfg.TaxRatePct > 0 {
		drag = math.Max(0, 1.0-cfg.TaxRatePct/100.0)
	}

	rateNominal := cfg.RatePct
	if rateOverridePct != nil {
		rateNominal = *rateOverridePct
	}
	nm := max(1, cfg.AmortizationMonths)
	mr := mortgage.ClampMonthlyRate(mortgage.AnnualNominalPctToMonthlyRate(rateNominal, cfg.CanadianCompounding))
	pmt := 0.0
	if cfg.Mortgage > 0 {
		pmt = mortgage.Payment(cfg.Mortgage, mr, nm)
	}

	rentInf := cfg.RentInflation
	if rentInfOverridePct != nil {
		rentInf = *rentInfOverridePct / 100.0
	}
	if rentInf <= -1.0 {
		rentInf = -0.99
	}
	rentStepYears := 1
	if cfg.RentControlEnabled {
		if cfg.RentControlCapPct != nil {
			rentInf = math.Min(rentInf, *cfg.RentControlCapPct/100.0)
		}
		rentStepYears = min(10, max(1, cfg.RentControlFrequencyYears))
	}

	retStd, appStd := cfg.ReturnStd, cfg.ApprecStd
	retStdMo, appStdMo := 0.0, 0.0
	if retStd != 0 {
		retStdMo = retStd / math.Sqrt(12.0)
	}
	if appStd != 0 {
		appStdMo = appStd / math.Sqrt(12.0)
	}

	useVol := cfg.UseVolatility
	if sc.ForceVolatility != nil {
		useVol = *sc.ForceVolatility
	}
	numSims := cfg.NumSims
	if sc.NumSimsOverride != nil {
		numSims = *sc.NumSimsOverride
	}

	shockStart, shockDur := cfg.RateShockStartYear, cfg.RateShockDurationYears
	if cfg.RateShockEnabled {
		if shockStart <= 0 {
			shockStart = 5
		}
		if shockDur <= 0 {
			shockDur = 5
		}
	}

	crisisYear := cfg.CrisisYear
	if crisisYear < 1 {
		crisisYear = 5
	}

	disc := cfg.DiscountRate
	discNormalized := false
	if disc > 1.0 {
		disc = disc / 100.0
		discNormalized = true
	}

	movingFreq := cfg.MovingFreqYears
	if movingFreq <= 0 {
		movingFreq = 5
	}

	var hbpMonthly []float64
	if cfg.HBPEnabled && cfg.HBPWithdrawal > 0 {
		hbpMonthly = govprograms.HBPRepaymentMonthlySchedule(
			cfg.HBPWithdrawal, years*12, govprograms.HBPGraceYears)
	}
	irdTerm := cfg.MortgageTermMonths
	if irdTerm <= 0 {
		irdTerm = 60
	}
	irdDrop := cfg.IRDRateDropPP
	if irdDrop <= 0 {
		irdDrop = 1.5
	}

	return &simSpec{
		years:  years,
		months: years * 12,

		buyerMo:  annualEffPctToMonthlyLogMu(sc.BuyerReturnPct * drag),
		renterMo: annualEffPctToMonthlyLogMu(sc.RenterReturnPct * drag),
		homeMu0:  annualEffDecToMonthlyLogMu(sc.AppreciationPct / 100.0),

		mrInit:  mr,
		pmtInit: pmt,
		nm:      nm,

		down:  cfg.Down,
		close: cfg.Close,
		mort:  cfg.Mortgage,
		price: cfg.Price,
		rent:  cfg.Rent,

		pTaxRate:   cfg.PropertyTaxRate,
		maintRate:  cfg.MaintenanceRate,
		repairRate: cfg.RepairRate,
		condo:      cfg.CondoFees,
		hIns:       cfg.HomeInsurance,
		oUtil:      cfg.OwnerUtilities,
		rIns:       cfg.RenterInsurance,
		rUtil:      cfg.RenterUtilities,

		sellCost:         cfg.SellCostRate,
		rentInfEff:       rentInf,
		rentStepYears:    rentStepYears,
		movingCost:       cfg.MovingCost,
		movingFreqMonths: movingFreq * 12,

		infMo:      annualEffDecToMonthlyEff(cfg.GeneralInflation),
		condoInfMo: annualEffDecToMonthlyEff(cfg.CondoInflationOrDefault()),
		retStdMo:   retStdMo,
		appStdMo:   appStdMo,

		investDiff:  sc.InvestDifference,
		rentClosing: sc.RentClosingCosts,
		corr:        sc.MarketCorrelation,

		rateMode:        cfg.RateMode,
		rateResetYears:  cfg.RateResetYears,
		rateResetToPct:  cfg.RateResetToPct,
		rateResetStepPP: cfg.RateResetStepPP,
		rateNominalPct:  rateNominal,
		canadian:        cfg.CanadianCompounding,

		rateShockEnabled:   cfg.RateShockEnabled,
		rateShockStartYear: shockStart,
		rateShockDurYears:  shockDur,
		rateShockPP:        cfg.RateShockPP,

		crisisEnabled:   cfg.CrisisEnabled,
		crisisYear:      crisisYear,
		crisisStockDD:   cfg.CrisisStockDrawdown,
		crisisHouseDD:   cfg.CrisisHouseDrawdown,
		crisisDurMonths: cfg.CrisisDurationMonths,

		budgetEnabled:       cfg.BudgetEnabled,
		monthlyIncome:       cfg.MonthlyIncome,
		monthlyNonHousing:   cfg.MonthlyNonHousing,
		incomeGrowthPct:     cfg.IncomeGrowthPct,
		budgetAllowWithdraw: cfg.BudgetAllowWithdraw,

		assumeSaleEnd:      cfg.AssumeSaleEnd,
		showLiquidation:    cfg.ShowLiquidationView,
		principalResidence: cfg.IsPrincipalResidence,
		cgTaxEndPct:        cfg.CGTaxEndPct,
		homeSaleLegalFee:   cfg.HomeSaleLegalFee,
		investTaxMode:      cfg.InvestmentTaxMode,

		propTaxModel:   cfg.PropTaxGrowthModel,
		hybridAddonPct: cfg.PropTaxHybridAddonPct,

		saAmount: cfg.SpecialAssessmentAmount,
		saMonth:  cfg.SpecialAssessmentMonth,

		hbpMonthly: hbpMonthly,

		irdEnabled:    cfg.IRDEnabled,
		irdTermMonths: irdTerm,
		irdDropPP:     irdDrop,

		cgPolicy:       cfg.CGInclusionPolicy,
		cgThreshold:    cfg.CGInclusionThreshold,
		regEnabled:     cfg.RegShelterEnabled,
		regInitialRoom: cfg.RegInitialRoom,
		regAnnualRoom:  cfg.RegAnnualRoom,

		discMo:                 annualEffDecToMonthlyEff(disc),
		discountAutoNormalized: discNormalized,

		numSims: numSims,
		isMC:    useVol && !sc.ForceDeterministic && numSims > 1,
		seed:    sc.Seed,
	}
}
