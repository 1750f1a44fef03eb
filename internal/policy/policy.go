// Package policy implements Canada-wide mortgage policy rules: the insured
// purchase price cap, minimum down payments, CMHC premium tiers, insured
// amortization eligibility, the B-20 stress test, foreign-buyer taxes, and
// provincial sales tax on default-insurance premiums.
//
// Real rules changed over time, so every lookup is keyed by an as-of date.
// Rules are held as sorted (effective date, value) tables resolved by
// "latest effective date no later than the as-of date"; dates before the
// earliest entry resolve to the zero value, never an extrapolation.
package policy

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/mortgage"
)

// LTV boundary comparisons tolerate tiny float error so 80.000% and 95.000%
// land in the band a caller intended.
const LTVEps = 1e-9

// DownPaymentSource classifies where the down payment came from; borrowed
// ("non-traditional") funds attract a higher premium in the top LTV band.
type DownPaymentSource string

const (
	DownPaymentTraditional    DownPaymentSource = "Traditional"
	DownPaymentNonTraditional DownPaymentSource = "Non-traditional"
)

// scheduleEntry pairs a rule value with the date it took effect.
type scheduleEntry struct {
	effective time.Time
	value     float64
}

// schedule is an ascending list of rule changes.
type schedule []scheduleEntry

// valueAt returns the value of the latest entry effective on or before asOf,
// or 0 when asOf predates every entry.
func (s schedule) valueAt(asOf time.Time) float64 {
	v := 0.0
	for _, e := range s {
		if asOf.Before(e.effective) {
			break
		}
		v = e.value
	}
	return v
}

func ymd(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var insuredCapSchedule = schedule{
	{ymd(1990, time.January, 1), 1_000_000},
	{ymd(2024, time.December, 15), 1_500_000},
}

// InsuredMortgagePriceCap returns the insured-mortgage purchase price cap:
// $1.5M from December 15, 2024, $1.0M before.
func InsuredMortgagePriceCap(asOf time.Time) float64 {
	if cap := insuredCapSchedule.valueAt(asOf); cap > 0 {
		return cap
	}
	return 1_000_000
}

// MinDownPaymentCanada returns the legal minimum down payment:
// 5% of the first $500k, plus 10% of the portion between $500k and the
// insured cap, and 20% overall at or above the cap (where insurance is no
// longer available).
func MinDownPaymentCanada(price float64, asOf time.Time) float64 {
	p := decimal.NewFromFloat(math.Max(0, price))
	firstTier := decimal.NewFromInt(500_000)
	if p.LessThanOrEqual(firstTier) {
		dp, _ := p.Mul(decimal.NewFromFloat(0.05)).Float64()
		return dp
	}
	priceCap := decimal.NewFromFloat(InsuredMortgagePriceCap(asOf))
	if p.LessThan(priceCap) {
		dp, _ := firstTier.Mul(decimal.NewFromFloat(0.05)).
			Add(p.Sub(firstTier).Mul(decimal.NewFromFloat(0.10))).Float64()
		return dp
	}
	dp, _ := p.Mul(decimal.NewFromFloat(0.20)).Float64()
	return dp
}

// CMHCPremiumRate returns the approximate default-insurance premium rate for
// a loan-to-value ratio. No insurance is required at or below 80% LTV. Above
// 95% insurance is unavailable; the rate is 0 and the returned note says so,
// rather than failing the calculation. A non-traditional down-payment source
// raises the 90-95% band from 4.0% to 4.5%.
func CMHCPremiumRate(ltv float64, source DownPaymentSource) (rate float64, note string) {
	if math.IsNaN(ltv) || math.IsInf(ltv, 0) {
		return 0, ""
	}
	switch {
	case ltv <= 0.80+LTVEps:
		return 0, ""
	case ltv <= 0.85+LTVEps:
		return 0.028, ""
	case ltv <= 0.90+LTVEps:
		return 0.031, ""
	case ltv <= 0.95+LTVEps:
		if source == DownPaymentNonTraditional {
			return 0.045, ""
		}
		return 0.040, ""
	default:
		return 0, "Mortgage default insurance is unavailable above 95% LTV; premium set to 0."
	}
}

// AmortizationPolicyStage identifies which insured 30-year amortization
// regime applies at a date.
type AmortizationPolicyStage string

const (
	// StagePre20240801: insured mortgages capped at 25 years.
	StagePre20240801 AmortizationPolicyStage = "pre_2024_08_01"
	// StageFTBAndNewBuild: 30 years only for first-time buyers purchasing
	// new construction (Aug 1 to Dec 14, 2024).
	StageFTBAndNewBuild AmortizationPolicyStage = "ftb_and_new_build"
	// StageFTBOrNewBuild: 30 years for first-time buyers or new
	// construction (Dec 15, 2024 onward).
	StageFTBOrNewBuild AmortizationPolicyStage = "ftb_or_new_build"
)

var (
	amortStage1 = ymd(2024, time.August, 1)
	amortStage2 = ymd(2024, time.December, 15)
)

// Insured30YrAmortizationPolicyStage returns the policy stage for asOf.
func Insured30YrAmortizationPolicyStage(asOf time.Time) AmortizationPolicyStage {
	switch {
	case asOf.Before(amortStage1):
		return StagePre20240801
	case asOf.Before(amortStage2):
		return StageFTBAndNewBuild
	default:
		return StageFTBOrNewBuild
	}
}

// InsuredMaxAmortizationYears returns the maximum amortization for an
// insured mortgage given the buyer profile and as-of date.
func InsuredMaxAmortizationYears(asOf time.Time, firstTimeBuyer, newConstruction bool) int {
	switch Insured30YrAmortizationPolicyStage(asOf) {
	case StageFTBAndNewBuild:
		if firstTimeBuyer && newConstruction {
			return 30
		}
	case StageFTBOrNewBuild:
		if firstTimeBuyer || newConstruction {
			return 30
		}
	}
	return 25
}

// InsuredAmortizationRuleLabel describes the active insured amortization
// rule in plain language.
func InsuredAmortizationRuleLabel(asOf time.Time) string {
	switch Insured30YrAmortizationPolicyStage(asOf) {
	case StagePre20240801:
		return "Insured mortgages capped at 25-year amortization."
	case StageFTBAndNewBuild:
		return "30-year insured amortization available to first-time buyers purchasing new builds."
	default:
		return "30-year insured amortization available to first-time buyers or new-build purchases."
	}
}

// B20StressTestQualifyingRate returns the OSFI B-20 qualifying rate in
// percent points: the greater of the contract rate plus 2 points and the
// 5.25% floor.
func B20StressTestQualifyingRate(contractRatePct float64) float64 {
	return math.Max(contractRatePct+2.0, 5.25)
}

// B20MonthlyPaymentAtQualifyingRate computes the stress-test payment: it
// returns the qualifying rate in percent points together with the monthly
// payments at the qualifying and contract rates (Canadian semi-annual
// compounding).
func B20MonthlyPaymentAtQualifyingRate(principal, contractRatePct float64, nMonths int) (qualifyingRatePct, qualifyingPayment, contractPayment float64) {
	qualifyingRatePct = B20StressTestQualifyingRate(contractRatePct)
	qmr := mortgage.AnnualNominalPctToMonthlyRate(qualifyingRatePct, true)
	cmr := mortgage.AnnualNominalPctToMonthlyRate(contractRatePct, true)
	qualifyingPayment = mortgage.Payment(principal, qmr, nMonths)
	contractPayment = mortgage.Payment(principal, cmr, nMonths)
	return qualifyingRatePct, qualifyingPayment, contractPayment
}

// normalizeProvince reduces a province name or abbreviation to a lowercase
// canonical key.
func normalizeProvince(province string) string {
	raw := strings.ToLower(strings.TrimSpace(province))
	switch raw {
	case "on", "ont":
		return "ontario"
	case "bc", "b.c.":
		return "british columbia"
	case "ab", "alta":
		return "alberta"
	case "sk":
		return "saskatchewan"
	case "mb":
		return "manitoba"
	case "qc", "pq":
		return "quebec"
	case "ns":
		return "nova scotia"
	case "nb":
		return "new brunswick"
	case "pei", "pe", "p.e.i.":
		return "prince edward island"
	case "nl", "newfoundland":
		return "newfoundland and labrador"
	}
	return raw
}

// Foreign-buyer ("non-resident speculation") tax schedules, as fractions of
// the purchase price.
var foreignBuyerSchedules = map[string]schedule{
	"british columbia": {
		{ymd(2016, time.August, 2), 0.15},
		{ymd(2018, time.February, 21), 0.20},
	},
	"ontario": {
		{ymd(2017, time.April, 21), 0.15},
		{ymd(2022, time.March, 30), 0.20},
		{ymd(2022, time.October, 25), 0.25},
	},
}

// ForeignBuyerTaxRate returns the non-resident buyer tax rate (fraction) for
// a province at a date, or 0 where the province levies none.
func ForeignBuyerTaxRate(province string, asOf time.Time) float64 {
	s, ok := foreignBuyerSchedules[normalizeProvince(province)]
	if !ok {
		return 0
	}
	return s.valueAt(asOf)
}

// ForeignBuyerTaxAmount applies ForeignBuyerTaxRate to a purchase price.
func ForeignBuyerTaxAmount(price float64, province string, asOf time.Time) float64 {
	if math.IsNaN(price) || price <= 0 {
		return 0
	}
	amount, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(ForeignBuyerTaxRate(province, asOf))).Float64()
	return amount
}

// Provincial sales tax charged on the default-insurance premium itself
// (paid in cash at closing, not financed).
var insurancePSTSchedules = map[string]schedule{
	"ontario":      {{ymd(1990, time.January, 1), 0.08}},
	"manitoba":     {{ymd(1990, time.January, 1), 0.07}},
	"saskatchewan": {{ymd(1990, time.January, 1), 0.06}},
	"quebec": {
		{ymd(1990, time.January, 1), 0.09},
		{ymd(2027, time.January, 1), 0.09975},
	},
}

// MortgageInsuranceSalesTaxRate returns the provincial sales tax rate
// (fraction) applied to a mortgage default-insurance premium. Provinces
// without such a tax return 0.
func MortgageInsuranceSalesTaxRate(province string, asOf time.Time) float64 {
	s, ok := insurancePSTSchedules[normalizeProvince(province)]
	if !ok {
		return 0
	}
	return s.valueAt(asOf)
}
