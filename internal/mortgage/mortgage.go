// Package mortgage implements Canadian mortgage rate conversions, the fixed
// amortizing payment formula, and prepayment (IRD) penalties.
//
// Rates cross this package boundary as nominal annual percent points
// (5.0 means 5%). Effective monthly rates are plain fractions.
package mortgage

import "math"

// Tolerances for rate edge cases. Negative nominal rates are allowed for
// stress scenarios; the compounding base is clamped strictly positive and the
// monthly rate is floored so (1+mr) stays positive for exponentiation.
const (
	CompoundingBaseFloor = 1e-12
	MonthlyRateFloor     = -0.999999
	ZeroRateEps          = 1e-12
)

// ClampMonthlyRate floors a monthly rate so (1+mr) remains strictly positive.
func ClampMonthlyRate(mr float64) float64 {
	if mr < MonthlyRateFloor {
		return MonthlyRateFloor
	}
	return mr
}

// AnnualNominalPctToMonthlyRate converts a quoted nominal annual rate
// (percent points) to an effective monthly rate.
//
// With canadian=true the nominal rate compounds semi-annually, the standard
// convention for Canadian fixed mortgages: mr = (1 + r/2)^(2/12) - 1.
// Otherwise the rate compounds monthly: mr = r/12.
func AnnualNominalPctToMonthlyRate(ratePct float64, canadian bool) float64 {
	r := ratePct / 100.0
	if !canadian {
		return ClampMonthlyRate(r / 12.0)
	}
	base := 1.0 + r/2.0
	if base < CompoundingBaseFloor {
		base = CompoundingBaseFloor
	}
	return ClampMonthlyRate(math.Pow(base, 2.0/12.0) - 1.0)
}

// MonthlyRateToAnnualNominalPct inverts AnnualNominalPctToMonthlyRate,
// recovering the quoted nominal annual rate in percent points.
func MonthlyRateToAnnualNominalPct(mr float64, canadian bool) float64 {
	mr = ClampMonthlyRate(mr)
	if !canadian {
		return mr * 12.0 * 100.0
	}
	return (math.Pow(1.0+mr, 6.0) - 1.0) * 2.0 * 100.0
}

// Payment returns the fixed monthly payment that amortizes principal over
// nMonths at the given effective monthly rate. A near-zero rate degrades to
// straight-line principal/nMonths; non-positive principal pays nothing.
func Payment(principal, monthlyRate float64, nMonths int) float64 {
	if principal <= 0 || nMonths <= 0 {
		return 0
	}
	if math.Abs(monthlyRate) < ZeroRateEps {
		return principal / float64(nMonths)
	}
	growth := math.Pow(1.0+monthlyRate, float64(nMonths))
	return principal * monthlyRate * growth / (growth - 1.0)
}

// IRDPrepaymentPenalty models the Canadian prepayment penalty on a fixed-rate
// mortgage: the greater of three months' interest at the contract rate and the
// interest rate differential over the remaining term.
//
// Rates are nominal annual percent points. Returns 0 when there is no balance
// or no remaining term.
func IRDPrepaymentPenalty(balance, contractRatePct, comparisonRatePct float64, remainingMonths int) float64 {
	if balance <= 0 || remainingMonths <= 0 {
		return 0
	}
	threeMonthInterest := balance * (contractRatePct / 100.0) / 12.0 * 3.0
	rateGap := (contractRatePct - comparisonRatePct) / 100.0
	if rateGap < 0 {
		rateGap = 0
	}
	ird := balance * rateGap * float64(remainingMonths) / 12.0
	return math.Max(threeMonthInterest, ird)
}

// IRDPenaltyForSimulation sizes the IRD penalty when a mortgage is broken
// elapsedMonths into a termMonths contract term. It walks the amortization
// schedule elapsedMonths payments forward from the initial principal to find
// the outstanding balance, then applies IRDPrepaymentPenalty over the months
// left in the term. Breaking at or after the term end costs nothing (the
// mortgage simply renews). A termMonths of 0 or less means the common
// 5-year (60-month) term.
//
// comparisonRatePct < 0 means "not supplied" and defaults to the contract
// rate minus 1.5 percent points, a rough posted-vs-discounted proxy.
func IRDPenaltyForSimulation(initialPrincipal, contractRatePct float64, amortMonths, termMonths, elapsedMonths int, canadian bool, comparisonRatePct float64) float64 {
	if initialPrincipal <= 0 || amortMonths <= 0 {
		return 0
	}
	if termMonths <= 0 {
		termMonths = 60
	}
	if termMonths > amortMonths {
		termMonths = amortMonths
	}
	if elapsedMonths < 0 {
		elapsedMonths = 0
	}
	if elapsedMonths >= termMonths {
		return 0
	}
	mr := AnnualNominalPctToMonthlyRate(contractRatePct, canadian)
	pmt := Payment(initialPrincipal, mr, amortMonths)
	balance := initialPrincipal
	for m := 0; m < elapsedMonths && balance > 0; m++ {
		interest := balance * mr
		principal := pmt - interest
		if principal > balance {
			principal = balance
		}
		balance -= principal
	}
	if balance <= 0 {
		return 0
	}
	if comparisonRatePct < 0 {
		comparisonRatePct = contractRatePct - 1.5
	}
	return IRDPrepaymentPenalty(balance, contractRatePct, comparisonRatePct, termMonths-elapsedMonths)
}
