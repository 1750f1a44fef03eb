package engine

import (
	"math"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/mortgage"
)

// expClip bounds the log-growth exponent so extreme volatility inputs never
// produce non-finite path values.
const expClip = 50.0

// annualEffDecToMonthlyLogMu converts an annual effective return (fraction)
// into the monthly log drift of the growth factor exp(mu - sigma^2/2 + sigma z),
// so the expected compounded monthly growth matches the annual input.
func annualEffDecToMonthlyLogMu(r float64) float64 {
	if r <= -0.999999 {
		r = -0.999999
	}
	return math.Log1p(r) / 12.0
}

// annualEffPctToMonthlyLogMu is the percent-points form.
func annualEffPctToMonthlyLogMu(pct float64) float64 {
	return annualEffDecToMonthlyLogMu(pct / 100.0)
}

// annualEffDecToMonthlyEff converts an annual effective rate (fraction) to
// its monthly effective equivalent.
func annualEffDecToMonthlyEff(r float64) float64 {
	if r <= -0.999999 {
		r = -0.999999
	}
	return math.Pow(1.0+r, 1.0/12.0) - 1.0
}

// shockStream yields the correlated stock and house shocks for a month
// (1-based). nil means a deterministic path.
type shockStream func(month int) (stock, house float64)

// simSpec is one fully-derived simulation: every percent converted, every
// override applied. Built by newSimSpec and treated as read-only by the
// walkers.
type simSpec struct {
	years  int
	months int

	buyerMo  float64 // monthly log drift, before the variance adjustment
	renterMo float64
	homeMu0  float64 // annualEffDecToMonthlyLogMu(apprec)

	mrInit  float64
	pmtInit float64
	nm      int

	down, close, mort, price, rent float64

	pTaxRate, maintRate, repairRate float64
	condo, hIns, oUtil, rIns, rUtil float64

	sellCost         float64
	rentInfEff       float64
	rentStepYears    int
	movingCost       float64
	movingFreqMonths float64

	infMo, condoInfMo  float64
	retStdMo, appStdMo float64

	investDiff, rentClosing bool
	corr                    float64

	rateMode        domain.RateMode
	rateResetYears  *int
	rateResetToPct  *float64
	rateResetStepPP float64
	rateNominalPct  float64
	canadian        bool

	rateShockEnabled   bool
	rateShockStartYear int
	rateShockDurYears  int
	rateShockPP        float64

	crisisEnabled   bool
	crisisYear      float64
	crisisStockDD   float64
	crisisHouseDD   float64
	crisisDurMonths int

	budgetEnabled       bool
	monthlyIncome       float64
	monthlyNonHousing   float64
	incomeGrowthPct     float64
	budgetAllowWithdraw bool

	assumeSaleEnd      bool
	showLiquidation    bool
	principalResidence bool
	cgTaxEndPct        float64
	homeSaleLegalFee   float64
	investTaxMode      domain.InvestmentTaxMode

	propTaxModel   domain.PropertyTaxGrowthModel
	hybridAddonPct float64

	saAmount float64
	saMonth  int

	// hbpMonthly is the month-indexed HBP repayment schedule, nil when the
	// program is off.
	hbpMonthly []float64

	irdEnabled    bool
	irdTermMonths int
	irdDropPP     float64

	cgPolicy       domain.CGInclusionPolicy
	cgThreshold    float64
	regEnabled     bool
	regInitialRoom float64
	regAnnualRoom  float64

	discMo                 float64
	discountAutoNormalized bool

	numSims int
	isMC    bool
	seed    *int64
}

// detSeries holds the per-month series that do not depend on the random
// draws. Filled once per Monte Carlo run.
type detSeries struct {
	interest, condoFees, homeIns, utilities  []float64
	special, rent, rentIns, rentUtil, moving []float64
	rentPmt, rentRecurring, renterUnrec      []float64
}

func newDetSeries(months int) *detSeries {
	alloc := func() []float64 { return make([]float64, months) }
	return &detSeries{
		interest: alloc(), condoFees: alloc(), homeIns: alloc(), utilities: alloc(),
		special: alloc(), rent: alloc(), rentIns: alloc(), rentUtil: alloc(), moving: alloc(),
		rentPmt: alloc(), rentRecurring: alloc(), renterUnrec: alloc(),
	}
}

// pathSink selects what a walk records. Any nil member is skipped; a
// summary-only Monte Carlo walk leaves everything nil and relies on the
// returned terminals.
type pathSink struct {
	rows []domain.MonthRow // full deterministic output, len months

	// Per-month random-dependent paths for Monte Carlo aggregation.
	buyerNW, renterNW, buyerUnrec           []float64
	propTax, maint, repair, buyPmt, deficit []float64

	det *detSeries
}

// pathResult carries the terminal state of one walk.
type pathResult struct {
	buyerFinal  float64
	renterFinal float64
	// Horizon liquidation values; NaN when the view is disabled.
	buyerLiq  float64
	renterLiq float64
}

func clipExp(x float64) float64 {
	if x > expClip {
		return expClip
	}
	if x < -expClip {
		return -expClip
	}
	return x
}

// walk simulates one monthly path. shocks may be nil for a deterministic
// path; sink selects which series get recorded.
func (s *simSpec) walk(shocks shockStream, sink *pathSink) pathResult {
	rNW := s.down
	if s.rentClosing {
		rNW += s.close
	}
	bNW := 0.0
	rBasis, bBasis := rNW, bNW
	rCash, bCash := 0.0, 0.0

	cMort := s.mort
	cHome := s.price
	cRent := s.rent
	taxBase := s.price

	cCondo, cHIns, cOUtil := s.condo, s.hIns, s.oUtil
	cRIns, cRUtil := s.rIns, s.rUtil

	curNominalPct := s.rateNominalPct
	mr := s.mrInit
	pmt := s.pmtInit
	shockWasActive := false

	cumBOp, cumROp := 0.0, 0.0
	bShortfall, rShortfall := 0.0, 0.0
	nextMove := s.movingFreqMonths

	stoch := shocks != nil && (s.retStdMo > 0 || s.appStdMo > 0)
	retVar := s.retStdMo * s.retStdMo
	appVar := s.appStdMo * s.appStdMo

	// Deterministic growth factors reused every month.
	bGrowth0 := math.Exp(s.buyerMo)
	rGrowth0 := math.Exp(s.renterMo)
	hGrowth0 := math.Exp(s.homeMu0)

	addonMo := math.Pow(1.0+s.hybridAddonPct/100.0, 1.0/12.0) - 1.0

	res := pathResult{buyerLiq: math.NaN(), renterLiq: math.NaN()}

	for m := 1; m <= s.months; m++ {
		bGrowth, rGrowth, homeGrowth := bGrowth0, rGrowth0, hGrowth0
		if stoch {
			stockShock, houseShock := shocks(m)
			bGrowth = math.Exp(clipExp(s.buyerMo - 0.5*retVar + s.retStdMo*stockShock))
			rGrowth = math.Exp(clipExp(s.renterMo - 0.5*retVar + s.retStdMo*stockShock))
			homeGrowth = math.Exp(clipExp(s.homeMu0 - 0.5*appVar + s.appStdMo*houseShock))
		}

		// Mortgage rate resets at renewal boundaries.
		rateChanged := false
		if s.rateMode == domain.RateModeReset && s.rateResetYears != nil && s.rateResetToPct != nil {
			resetMonths := *s.rateResetYears * 12
			if resetMonths > 0 && m > 1 && (m-1)%resetMonths == 0 {
				resetIdx := (m - 1) / resetMonths
				step := resetIdx - 1
				if step < 0 {
					step = 0
				}
				curNominalPct = *s.rateResetToPct + s.rateResetStepPP*float64(step)
				rateChanged = true
			}
		}

		shockActive := false
		if s.rateShockEnabled {
			startM := s.rateShockStartYear*12 + 1
			endM := startM + max(0, s.rateShockDurYears*12) - 1
			shockActive = startM <= m && m <= endM
		}

		effNominal := curNominalPct
		if shockActive {
			effNominal += s.rateShockPP
		}
		mr = mortgage.ClampMonthlyRate(mortgage.AnnualNominalPctToMonthlyRate(effNominal, s.canadian))

		if rateChanged || shockActive != shockWasActive {
			rem := max(1, s.nm-(m-1))
			pmt = mortgage.Payment(cMort, mr, rem)
		}
		shockWasActive = shockActive

		// Property tax assessment base.
		switch s.propTaxModel {
		case domain.PropTaxMarket:
			taxBase = cHome
		case domain.PropTaxInflation:
			taxBase *= 1.0 + s.infMo
		default:
			capMo := (1.0+s.infMo)*(1.0+addonMo) - 1.0
			if cHome >= taxBase {
				taxBase = math.Min(taxBase*(1.0+capMo), cHome)
			} else {
				taxBase = math.Max(taxBase/(1.0+capMo), cHome)
			}
		}

		mTax := taxBase * s.pTaxRate / 12.0
		mMaint := cHome * s.maintRate / 12.0
		mRepair := cHome * s.repairRate / 12.0

		mSpecial := 0.0
		if s.saMonth > 0 && m == s.saMonth {
			mSpecial = s.saAmount
		}

		// HBP repayment leaves the buyer's monthly cash flow but is not an
		// unrecoverable cost: it refills the buyer's own RRSP, which sits
		// outside the comparison like the withdrawal that funded the down
		// payment.
		mHBP := 0.0
		if len(s.hbpMonthly) >= m {
			mHBP = s.hbpMonthly[m-1]
		}

		inte, princ := 0.0, 0.0
		if cMort > 0 {
			inte = cMort * mr
			princ = pmt - inte
			if princ > cMort {
				princ = cMort
			}
		}

		bPmt := 0.0
		if cMort > 0 {
			bPmt = pmt
		}
		bOut := bPmt + mTax + mMaint + mRepair + cCondo + cHIns + cOUtil + mSpecial + mHBP
		bOp := inte + mTax + mMaint + mRepair + cCondo + cHIns + cOUtil + mSpecial

		rentPaid, condoPaid, hInsPaid, oUtilPaid := cRent, cCondo, cHIns, cOUtil
		rInsPaid, rUtilPaid := cRIns, cRUtil

		skipLastMove := s.assumeSaleEnd && m == s.months
		mMoving := 0.0
		atMove := float64(m) == nextMove
		if atMove && !skipLastMove {
			mMoving = s.movingCost
		}
		rOut := cRent + cRIns + cRUtil + mMoving
		rOutRecurring := cRent + cRIns + cRUtil
		if atMove {
			nextMove += s.movingFreqMonths
		}

		diff := bOut - rOut
		var incT, bBudgetNet, rBudgetNet float64
		if s.budgetEnabled {
			inc0 := math.Max(0, s.monthlyIncome)
			nonh := math.Max(0, s.monthlyNonHousing)
			g := math.Max(-0.99, s.incomeGrowthPct/100.0)
			incT = inc0
			if g != 0 {
				incT = inc0 * math.Pow(1.0+g, float64(m-1)/12.0)
			}
			bBudgetNet = incT - nonh - bOut
			rBudgetNet = incT - nonh - rOut

			if bBudgetNet >= 0 {
				bNW += bBudgetNet
				bBasis += bBudgetNet
			} else {
				need := -bBudgetNet
				if s.budgetAllowWithdraw {
					if bNW >= need {
						if bNW > 0 {
							bBasis *= math.Max(0, (bNW-need)/bNW)
						}
						bNW -= need
					} else {
						bShortfall += need - bNW
						bBasis = 0
						bNW = 0
					}
				} else {
					bShortfall += need
				}
			}

			if rBudgetNet >= 0 {
				rNW += rBudgetNet
				rBasis += rBudgetNet
			} else {
				need := -rBudgetNet
				if s.budgetAllowWithdraw {
					if rNW >= need {
						if rNW > 0 {
							rBasis *= math.Max(0, (rNW-need)/rNW)
						}
						rNW -= need
					} else {
						rShortfall += need - rNW
						rBasis = 0
						rNW = 0
					}
				} else {
					rShortfall += need
				}
			}
		} else if s.investDiff {
			if diff > 0 {
				rNW += diff
				rBasis += diff
			} else {
				bNW += -diff
				bBasis += -diff
			}
		} else {
			// Surplus investing off: the gap accrues as 0%-return cash so the
			// comparison still accounts for the money.
			if diff > 0 {
				rNW += diff
				rBasis += diff
				rCash += diff
			} else if diff < 0 {
				bNW += -diff
				bBasis += -diff
				bCash += -diff
			}
		}

		// Only the invested portion grows; cash earns nothing.
		rNW = (rNW-rCash)*rGrowth + rCash
		bNW = (bNW-bCash)*bGrowth + bCash
		cHome *= homeGrowth

		if s.crisisEnabled {
			startM := int(math.Max(1, s.crisisYear) * 12)
			dur := max(1, s.crisisDurMonths)
			if startM <= m && m < startM+dur {
				stockDD := clamp01(s.crisisStockDD, 0.95)
				houseDD := clamp01(s.crisisHouseDD, 0.95)
				bNW = (bNW-bCash)*(1.0-stockDD) + bCash
				rNW = (rNW-rCash)*(1.0-stockDD) + rCash
				cHome *= 1.0 - houseDD
			}
		}

		if cMort > 0 {
			cMort -= princ
		}
		if cMort < 0 {
			cMort = 0
		}

		if s.rentStepYears <= 1 {
			if m%12 == 0 {
				cRent *= 1.0 + s.rentInfEff
			}
		} else if m%(12*s.rentStepYears) == 0 {
			cRent *= math.Pow(1.0+s.rentInfEff, float64(s.rentStepYears))
		}

		cCondo *= 1.0 + s.condoInfMo
		cHIns *= 1.0 + s.infMo
		cOUtil *= 1.0 + s.infMo
		cRIns *= 1.0 + s.infMo
		cRUtil *= 1.0 + s.infMo

		exitCost, exitLegal := 0.0, 0.0
		if s.assumeSaleEnd && m == s.months {
			exitCost = cHome * s.sellCost
			exitLegal = s.homeSaleLegalFee
		}

		// Breaking the mortgage before the contract term ends charges the
		// IRD penalty at the horizon month.
		irdPenalty := 0.0
		if s.irdEnabled && m == s.months {
			irdPenalty = mortgage.IRDPenaltyForSimulation(
				s.mort, s.rateNominalPct, s.nm, s.irdTermMonths, s.months,
				s.canadian, s.rateNominalPct-s.irdDropPP)
		}

		bVal := (cHome - cMort) + bNW - s.close - exitCost - exitLegal - irdPenalty

		var bLiq, rLiq *float64
		if s.showLiquidation && m == s.months {
			l1, l2 := s.liquidate(bNW, rNW, bBasis, rBasis, cHome, cMort, exitCost, exitLegal)
			l1 -= irdPenalty
			bLiq, rLiq = &l1, &l2
			res.buyerLiq, res.renterLiq = l1, l2
		}

		cumBOp += bOp
		cumROp += rOut

		bUnrec := cumBOp + s.close + exitCost + exitLegal + irdPenalty

		idx := m - 1
		if sink != nil {
			if sink.rows != nil {
				row := domain.MonthRow{
					Month:               m,
					Year:                (m-1)/12 + 1,
					BuyerNetWorth:       bVal,
					RenterNetWorth:      rNW,
					BuyerUnrecoverable:  bUnrec,
					RenterUnrecoverable: cumROp,
					BuyerHomeEquity:     cHome - cMort,
					Interest:            inte,
					PropertyTax:         mTax,
					Maintenance:         mMaint,
					Repairs:             mRepair,
					SpecialAssessment:   mSpecial,
					CondoFees:           condoPaid,
					HomeInsurance:       hInsPaid,
					Utilities:           oUtilPaid,
					Rent:                rentPaid,
					RentInsurance:       rInsPaid,
					RentUtilities:       rUtilPaid,
					Moving:              mMoving,
					BuyPayment:          bOut,
					RentPayment:         rOut,
					RentCostRecurring:   rOutRecurring,
					Deficit:             diff,
					BuyerShortfallCum:   bShortfall,
					RenterShortfallCum:  rShortfall,
					BuyerLiquidationNW:  bLiq,
					RenterLiquidationNW: rLiq,
				}
				if s.budgetEnabled {
					inc, bc, rc := incT, bBudgetNet, rBudgetNet
					row.IncomeMonthly = &inc
					row.BuyerNetCash = &bc
					row.RenterNetCash = &rc
				}
				sink.rows[idx] = row
			}
			if sink.buyerNW != nil {
				sink.buyerNW[idx] = bVal
				sink.renterNW[idx] = rNW
				sink.buyerUnrec[idx] = bUnrec
				sink.propTax[idx] = mTax
				sink.maint[idx] = mMaint
				sink.repair[idx] = mRepair
				sink.buyPmt[idx] = bOut
				sink.deficit[idx] = diff
			}
			if sink.det != nil {
				d := sink.det
				d.interest[idx] = inte
				d.condoFees[idx] = condoPaid
				d.homeIns[idx] = hInsPaid
				d.utilities[idx] = oUtilPaid
				d.special[idx] = mSpecial
				d.rent[idx] = rentPaid
				d.rentIns[idx] = rInsPaid
				d.rentUtil[idx] = rUtilPaid
				d.moving[idx] = mMoving
				d.rentPmt[idx] = rOut
				d.rentRecurring[idx] = rOutRecurring
				d.renterUnrec[idx] = cumROp
			}
		}

		if m == s.months {
			res.buyerFinal = bVal
			res.renterFinal = rNW
		}
	}

	return res
}

// liquidate computes the horizon after-tax cash-out view for both sides.
func (s *simSpec) liquidate(bNW, rNW, bBasis, rBasis, cHome, cMort, exitCost, exitLegal float64) (buyer, renter float64) {
	effCG := math.Max(0, s.cgTaxEndPct/100.0)
	// Annual drag already taxed growth along the way.
	if s.investTaxMode.IsAnnualDrag() {
		effCG = 0
	}

	bGain := math.Max(0, bNW-bBasis)
	rGain := math.Max(0, rNW-rBasis)

	bTaxable := taxableGainAfterShelter(bGain, bBasis, s.years, s.regEnabled, s.regInitialRoom, s.regAnnualRoom)
	rTaxable := taxableGainAfterShelter(rGain, rBasis, s.years, s.regEnabled, s.regInitialRoom, s.regAnnualRoom)

	bPortAfterTax := bNW - cgTaxDue(bTaxable, effCG, s.cgPolicy, s.cgThreshold)
	rPortAfterTax := rNW - cgTaxDue(rTaxable, effCG, s.cgPolicy, s.cgThreshold)

	// Home gains are taxable only on a horizon sale of a non-principal
	// residence. ACB approximated as purchase price plus acquisition costs.
	effHomeCG := math.Max(0, s.cgTaxEndPct/100.0)
	homeTax := 0.0
	if s.assumeSaleEnd && !s.principalResidence && effHomeCG > 0 {
		homeACB := s.price + s.close
		proceedsNet := cHome - exitCost - exitLegal
		homeGain := math.Max(0, proceedsNet-homeACB)
		homeTax = cgTaxDue(homeGain, effHomeCG, s.cgPolicy, s.cgThreshold)
	}

	homeCash := 0.0
	if s.assumeSaleEnd {
		homeCash = (cHome - cMort) - exitCost - exitLegal - homeTax
	}
	return homeCash + bPortAfterTax - s.close, rPortAfterTax
}

func clamp01(v, hi float64) float64 {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
