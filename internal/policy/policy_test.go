package policy

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInsuredMortgagePriceCap(t *testing.T) {
	assert.Equal(t, 1_000_000.0, InsuredMortgagePriceCap(date(2024, 6, 1)))
	assert.Equal(t, 1_500_000.0, InsuredMortgagePriceCap(date(2025, 1, 1)))
	assert.Equal(t, 1_500_000.0, InsuredMortgagePriceCap(date(2024, 12, 15)))
	// Dates before the earliest rule fall back to the original cap.
	assert.Equal(t, 1_000_000.0, InsuredMortgagePriceCap(date(1980, 1, 1)))
}

func TestMinDownPaymentTiers(t *testing.T) {
	asOf := date(2025, 3, 1)
	// Tier amounts are exact dollar values, not float approximations.
	assert.Equal(t, 12_500.0, MinDownPaymentCanada(250_000, asOf))
	assert.Equal(t, 20_000.0, MinDownPaymentCanada(400_000, asOf))
	assert.Equal(t, 25_000.0, MinDownPaymentCanada(500_000, asOf))
	assert.Equal(t, 55_000.0, MinDownPaymentCanada(800_000, asOf))
	assert.Equal(t, 300_000.0, MinDownPaymentCanada(1_500_000, asOf))
	assert.Equal(t, 0.0, MinDownPaymentCanada(-5, asOf))
}

func TestMinDownPaymentCapChange(t *testing.T) {
	// $1.2M is above the old cap (20% down) but under the new one (tiered).
	assert.Equal(t, 240_000.0, MinDownPaymentCanada(1_200_000, date(2024, 6, 1)))
	assert.Equal(t, 95_000.0, MinDownPaymentCanada(1_200_000, date(2025, 1, 1)))
}

func TestMinDownPaymentMonotone(t *testing.T) {
	asOf := date(2025, 3, 1)
	prev := 0.0
	for price := 0.0; price <= 2_000_000; price += 12_500 {
		dp := MinDownPaymentCanada(price, asOf)
		assert.GreaterOrEqual(t, dp, prev, "price %.0f", price)
		prev = dp
	}
}

func TestCMHCPremiumTiers(t *testing.T) {
	premium := func(ltv float64, source DownPaymentSource) float64 {
		rate, _ := CMHCPremiumRate(ltv, source)
		return rate
	}
	assert.Equal(t, 0.0, premium(0.75, DownPaymentTraditional))
	assert.Equal(t, 0.0, premium(0.80, DownPaymentTraditional))
	assert.Equal(t, 0.028, premium(0.82, DownPaymentTraditional))
	assert.Equal(t, 0.031, premium(0.88, DownPaymentTraditional))
	assert.Equal(t, 0.040, premium(0.95, DownPaymentTraditional))
	assert.Equal(t, 0.045, premium(0.95, DownPaymentNonTraditional))
	// Non-traditional only changes the top band.
	assert.Equal(t, 0.031, premium(0.88, DownPaymentNonTraditional))
	// Above 95% insurance is unavailable; callers get 0, not a panic.
	assert.Equal(t, 0.0, premium(0.97, DownPaymentTraditional))
	assert.Equal(t, 0.0, premium(1.00, DownPaymentTraditional))
	assert.Equal(t, 0.0, premium(math.NaN(), DownPaymentTraditional))
}

func TestCMHCPremiumNote(t *testing.T) {
	// In-band ratios carry no note.
	for _, ltv := range []float64{0.75, 0.85, 0.90, 0.95} {
		_, note := CMHCPremiumRate(ltv, DownPaymentTraditional)
		assert.Empty(t, note, "ltv %.2f", ltv)
	}
	// Above 95% the zero rate comes with an explanation.
	rate, note := CMHCPremiumRate(0.97, DownPaymentTraditional)
	assert.Equal(t, 0.0, rate)
	assert.Contains(t, note, "unavailable above 95% LTV")
}

func TestCMHCBoundaryTolerance(t *testing.T) {
	// An LTV that is 80% up to float error still needs no insurance.
	ltv := 0.8 + 1e-12
	rate, note := CMHCPremiumRate(ltv, DownPaymentTraditional)
	assert.Equal(t, 0.0, rate)
	assert.Empty(t, note)
}

func TestAmortizationPolicyStages(t *testing.T) {
	assert.Equal(t, StagePre20240801, Insured30YrAmortizationPolicyStage(date(2024, 1, 1)))
	assert.Equal(t, StageFTBAndNewBuild, Insured30YrAmortizationPolicyStage(date(2024, 9, 1)))
	assert.Equal(t, StageFTBOrNewBuild, Insured30YrAmortizationPolicyStage(date(2025, 1, 1)))
}

func TestInsuredMaxAmortizationYears(t *testing.T) {
	pre := date(2024, 1, 1)
	assert.Equal(t, 25, InsuredMaxAmortizationYears(pre, false, false))
	assert.Equal(t, 25, InsuredMaxAmortizationYears(pre, true, false))
	assert.Equal(t, 25, InsuredMaxAmortizationYears(pre, false, true))

	mid := date(2024, 9, 1)
	assert.Equal(t, 30, InsuredMaxAmortizationYears(mid, true, true))
	assert.Equal(t, 25, InsuredMaxAmortizationYears(mid, true, false))
	assert.Equal(t, 25, InsuredMaxAmortizationYears(mid, false, true))

	post := date(2025, 1, 1)
	assert.Equal(t, 30, InsuredMaxAmortizationYears(post, true, false))
	assert.Equal(t, 30, InsuredMaxAmortizationYears(post, false, true))
	assert.Equal(t, 25, InsuredMaxAmortizationYears(post, false, false))
}

func TestInsuredAmortizationRuleLabels(t *testing.T) {
	assert.Contains(t, InsuredAmortizationRuleLabel(date(2024, 1, 1)), "25")
	assert.Contains(t, strings.ToLower(InsuredAmortizationRuleLabel(date(2024, 9, 1))), "new build")
	assert.Contains(t, strings.ToLower(InsuredAmortizationRuleLabel(date(2025, 1, 1))), "or")
}

func TestB20StressTest(t *testing.T) {
	assert.Equal(t, 5.25, B20StressTestQualifyingRate(2.0))
	assert.Equal(t, 7.0, B20StressTestQualifyingRate(5.0))

	qRate, pmtQ, pmtC := B20MonthlyPaymentAtQualifyingRate(640_000, 5.0, 300)
	assert.Equal(t, 7.0, qRate)
	assert.Greater(t, pmtQ, pmtC)
	assert.InDelta(t, 3722.27, pmtC, 0.01)
}

func TestForeignBuyerTaxRate(t *testing.T) {
	assert.Equal(t, 0.0, ForeignBuyerTaxRate("British Columbia", date(2015, 12, 31)))
	assert.Equal(t, 0.15, ForeignBuyerTaxRate("British Columbia", date(2017, 1, 1)))
	assert.Equal(t, 0.20, ForeignBuyerTaxRate("BC", date(2018, 3, 1)))

	assert.Equal(t, 0.0, ForeignBuyerTaxRate("Ontario", date(2016, 12, 31)))
	assert.Equal(t, 0.15, ForeignBuyerTaxRate("Ontario", date(2018, 1, 1)))
	assert.Equal(t, 0.20, ForeignBuyerTaxRate("Ontario", date(2022, 6, 1)))
	assert.Equal(t, 0.25, ForeignBuyerTaxRate("ON", date(2023, 6, 1)))

	assert.Equal(t, 0.0, ForeignBuyerTaxRate("Alberta", date(2026, 1, 1)))
}

func TestForeignBuyerTaxAmount(t *testing.T) {
	assert.Equal(t, 200_000.0, ForeignBuyerTaxAmount(1_000_000, "British Columbia", date(2026, 1, 1)))
	assert.Equal(t, 200_000.0, ForeignBuyerTaxAmount(800_000, "Ontario", date(2026, 1, 1)))
	assert.Equal(t, 0.0, ForeignBuyerTaxAmount(0, "BC", date(2026, 1, 1)))
	assert.Equal(t, 0.0, ForeignBuyerTaxAmount(math.NaN(), "BC", date(2026, 1, 1)))
}

func TestMortgageInsuranceSalesTax(t *testing.T) {
	asOf := date(2025, 1, 1)
	assert.Equal(t, 0.08, MortgageInsuranceSalesTaxRate("Ontario", asOf))
	assert.Equal(t, 0.08, MortgageInsuranceSalesTaxRate("ON", asOf))
	assert.Equal(t, 0.07, MortgageInsuranceSalesTaxRate("Manitoba", asOf))
	assert.Equal(t, 0.06, MortgageInsuranceSalesTaxRate("Saskatchewan", asOf))
	assert.Equal(t, 0.09, MortgageInsuranceSalesTaxRate("Quebec", date(2025, 6, 1)))
	assert.Equal(t, 0.09975, MortgageInsuranceSalesTaxRate("Quebec", date(2027, 3, 1)))
	assert.Equal(t, 0.0, MortgageInsuranceSalesTaxRate("Alberta", asOf))
	assert.Equal(t, 0.0, MortgageInsuranceSalesTaxRate("British Columbia", asOf))
}
