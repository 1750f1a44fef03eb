// Package govprograms models two Canadian homebuyer programs as
// deterministic schedules: the RRSP Home Buyers' Plan (HBP) and the First
// Home Savings Account (FHSA).
//
// These are simulation-level approximations, not a tax engine: they capture
// the order-of-magnitude effect on the buy-vs-rent comparison.
package govprograms

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// HBP repayment terms mandated by the CRA: the withdrawal year and the
// following year require no repayment, then 1/15th per year for 15 years.
const (
	HBPRepaymentYears = 15
	HBPGraceYears     = 2
)

var (
	hbpLimitRaise = time.Date(2024, time.April, 16, 0, 0, 0, 0, time.UTC)
)

// HBPMaxWithdrawal returns the per-person HBP withdrawal limit at a date:
// $60,000 from April 16, 2024 (2024 Federal Budget), $35,000 before.
// The zero time means "today".
func HBPMaxWithdrawal(asOf time.Time) float64 {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	if !asOf.Before(hbpLimitRaise) {
		return 60_000
	}
	return 35_000
}

// HBPAnnualRepayment returns the required annual repayment, 1/15th of the
// withdrawal. The simulation models the full-repayment scenario; shortfall
// income inclusion is not modeled.
func HBPAnnualRepayment(withdrawal float64) float64 {
	if math.IsNaN(withdrawal) || withdrawal < 0 {
		withdrawal = 0
	}
	annual, _ := decimal.NewFromFloat(withdrawal).
		Div(decimal.NewFromInt(HBPRepaymentYears)).Float64()
	return annual
}

// HBPMonthlyRepayment spreads the annual repayment evenly over 12 months for
// cash-flow purposes.
func HBPMonthlyRepayment(withdrawal float64) float64 {
	monthly, _ := decimal.NewFromFloat(HBPAnnualRepayment(withdrawal)).
		Div(decimal.NewFromInt(12)).Float64()
	return monthly
}

// HBPRepaymentMonthlySchedule builds a month-indexed repayment schedule of
// length simMonths: zero through the grace period, then the flat monthly
// repayment for 15 years, then zero. Over a horizon covering the full
// grace+repayment window the schedule sums to the withdrawal.
func HBPRepaymentMonthlySchedule(withdrawal float64, simMonths, graceYears int) []float64 {
	if math.IsNaN(withdrawal) || withdrawal < 0 {
		withdrawal = 0
	}
	if simMonths < 1 {
		simMonths = 1
	}
	if graceYears < 0 {
		graceYears = 0
	}

	monthly := HBPMonthlyRepayment(withdrawal)
	graceMonths := graceYears * 12
	repayEnd := graceMonths + HBPRepaymentYears*12

	out := make([]float64, simMonths)
	for m := graceMonths; m < repayEnd && m < simMonths; m++ {
		out[m] = monthly
	}
	return out
}

// FHSA contribution limits per the CRA, and the program start date.
const (
	FHSAAnnualLimit   = 8_000.0
	FHSALifetimeLimit = 40_000.0
)

var fhsaStartDate = time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)

// FHSABalance estimates the FHSA balance and cumulative contributions after
// a saving period. The same amount (clamped to the $8,000 annual limit) is
// contributed at the start of each year until the $40,000 lifetime limit is
// reached — including a partial final-year top-up, so cumulative
// contributions land on the lifetime limit exactly — and the balance
// compounds at the given annual return.
//
// Returns (0, 0) for any as-of date before the program existed
// (April 1, 2023). The zero time means "today".
func FHSABalance(annualContribution float64, yearsContributed int, annualReturnPct float64, asOf time.Time) (balance, cumulative float64) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	if asOf.Before(fhsaStartDate) {
		return 0, 0
	}

	contrib := annualContribution
	if math.IsNaN(contrib) || contrib < 0 {
		contrib = 0
	}
	contrib = math.Min(contrib, FHSAAnnualLimit)
	if yearsContributed < 0 {
		yearsContributed = 0
	}
	r := annualReturnPct / 100.0
	if math.IsNaN(r) {
		r = 0
	}

	// The contribution-room walk runs in decimal so the cap lands on the
	// lifetime limit exactly; the market compounding stays float.
	annual := decimal.NewFromFloat(contrib)
	lifetime := decimal.NewFromFloat(FHSALifetimeLimit)
	cum := decimal.Zero
	for y := 0; y < yearsContributed; y++ {
		deposit := decimal.Min(annual, lifetime.Sub(cum))
		if deposit.IsNegative() {
			deposit = decimal.Zero
		}
		cum = cum.Add(deposit)
		dep, _ := deposit.Float64()
		balance = (balance + dep) * (1.0 + r)
	}
	cumulative, _ = cum.Float64()
	if math.Abs(r) < 1e-12 {
		balance = cumulative
	}
	return balance, cumulative
}

// FHSATaxSavings estimates the income-tax saving from deducting cumulative
// FHSA contributions at a flat combined marginal rate (percent points). A
// first-order estimate only; bracket effects are out of scope.
func FHSATaxSavings(cumulativeContributions, marginalTaxRatePct float64) float64 {
	c := cumulativeContributions
	if math.IsNaN(c) || c < 0 {
		c = 0
	}
	t := marginalTaxRatePct
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 100 {
		t = 100
	}
	saving, _ := decimal.NewFromFloat(c).
		Mul(decimal.NewFromFloat(t)).Div(decimal.NewFromInt(100)).Float64()
	return saving
}
