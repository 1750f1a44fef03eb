package mortgage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentCanadianWorkedExample(t *testing.T) {
	// $640,000 at 5% nominal, semi-annual compounding, 300 months.
	mr := AnnualNominalPctToMonthlyRate(5.0, true)
	pmt := Payment(640000, mr, 300)
	assert.InDelta(t, 3722.27, pmt, 0.01)
}

func TestAnnualNominalPctToMonthlyRate(t *testing.T) {
	tests := []struct {
		name     string
		ratePct  float64
		canadian bool
		want     float64
	}{
		{"standard 6%", 6.0, false, 0.005},
		{"standard 12%", 12.0, false, 0.01},
		{"canadian 5%", 5.0, true, math.Pow(1.025, 2.0/12.0) - 1.0},
		{"zero", 0.0, true, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualNominalPctToMonthlyRate(tt.ratePct, tt.canadian)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCanadianRateBelowStandard(t *testing.T) {
	// Semi-annual compounding yields a strictly lower effective monthly rate
	// than monthly compounding at the same quoted nominal rate.
	for _, pct := range []float64{0.25, 1, 3, 5, 7.5, 12, 20} {
		ca := AnnualNominalPctToMonthlyRate(pct, true)
		std := AnnualNominalPctToMonthlyRate(pct, false)
		assert.Less(t, ca, std, "nominal %.2f%%", pct)
	}
}

func TestRateConversionRoundTrip(t *testing.T) {
	for _, canadian := range []bool{true, false} {
		for _, pct := range []float64{0.1, 1, 2.5, 4.99, 5, 6.25, 10, 18} {
			mr := AnnualNominalPctToMonthlyRate(pct, canadian)
			back := MonthlyRateToAnnualNominalPct(mr, canadian)
			assert.InEpsilon(t, pct, back, 1e-8, "canadian=%v pct=%v", canadian, pct)
		}
	}
}

func TestNegativeNominalRateClamped(t *testing.T) {
	// Deeply negative nominal rates must not produce a monthly rate at or
	// below -100%.
	mr := AnnualNominalPctToMonthlyRate(-500.0, true)
	assert.Greater(t, 1.0+mr, 0.0)
	assert.GreaterOrEqual(t, mr, MonthlyRateFloor)

	mr = AnnualNominalPctToMonthlyRate(-5000.0, false)
	assert.GreaterOrEqual(t, mr, MonthlyRateFloor)
}

func TestPaymentEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, Payment(0, 0.004, 300))
	assert.Equal(t, 0.0, Payment(-100, 0.004, 300))
	assert.Equal(t, 0.0, Payment(100000, 0.004, 0))

	// Near-zero rate degrades to straight-line.
	assert.InDelta(t, 1000.0, Payment(300000, 0, 300), 1e-9)
	assert.InDelta(t, 1000.0, Payment(300000, 1e-15, 300), 1e-6)
}

func TestPaymentFullyAmortizes(t *testing.T) {
	principal := 480000.0
	mr := AnnualNominalPctToMonthlyRate(4.25, true)
	n := 300
	pmt := Payment(principal, mr, n)

	balance := principal
	for m := 0; m < n; m++ {
		interest := balance * mr
		balance -= pmt - interest
	}
	assert.InDelta(t, 0.0, balance, 0.01)
}

func TestIRDPrepaymentPenalty(t *testing.T) {
	// IRD dominates when the contract rate exceeds the comparison rate over a
	// long remaining term.
	penalty := IRDPrepaymentPenalty(400000, 5.0, 3.0, 36)
	ird := 400000 * 0.02 * 3.0
	assert.InDelta(t, ird, penalty, 1e-9)

	// Three months' interest dominates when rates have risen.
	penalty = IRDPrepaymentPenalty(400000, 5.0, 6.5, 36)
	threeMonth := 400000 * 0.05 / 12.0 * 3.0
	assert.InDelta(t, threeMonth, penalty, 1e-9)
}

func TestIRDPrepaymentPenaltyZeroCases(t *testing.T) {
	assert.Equal(t, 0.0, IRDPrepaymentPenalty(0, 5, 3, 36))
	assert.Equal(t, 0.0, IRDPrepaymentPenalty(-1, 5, 3, 36))
	assert.Equal(t, 0.0, IRDPrepaymentPenalty(400000, 5, 3, 0))
}

func TestIRDPenaltyForSimulation(t *testing.T) {
	principal := 500000.0
	// Two years into a five-year term, the balance should be below principal
	// and the penalty should match IRDPrepaymentPenalty on that balance over
	// the three years left in the term.
	mr := AnnualNominalPctToMonthlyRate(5.0, true)
	pmt := Payment(principal, mr, 300)
	balance := principal
	for m := 0; m < 24; m++ {
		interest := balance * mr
		balance -= pmt - interest
	}

	got := IRDPenaltyForSimulation(principal, 5.0, 300, 60, 24, true, -1)
	want := IRDPrepaymentPenalty(balance, 5.0, 3.5, 36)
	require.InDelta(t, want, got, 1e-6)
	assert.Greater(t, got, 0.0)
}

func TestIRDPenaltyForSimulationEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, IRDPenaltyForSimulation(0, 5, 300, 60, 12, true, -1))
	// At or past the term end the mortgage renews; no penalty.
	assert.Equal(t, 0.0, IRDPenaltyForSimulation(500000, 5, 300, 60, 60, true, -1))
	assert.Equal(t, 0.0, IRDPenaltyForSimulation(500000, 5, 300, 60, 90, true, -1))
	assert.Equal(t, 0.0, IRDPenaltyForSimulation(500000, 5, 0, 60, 0, true, -1))

	// Explicit comparison rate is honored.
	got := IRDPenaltyForSimulation(500000, 5, 300, 60, 0, true, 5.0)
	threeMonth := 500000 * 0.05 / 12.0 * 3.0
	assert.InDelta(t, threeMonth, got, 1e-6)

	// A zero term falls back to 60 months.
	assert.InDelta(t,
		IRDPenaltyForSimulation(500000, 5, 300, 60, 24, true, -1),
		IRDPenaltyForSimulation(500000, 5, 300, 0, 24, true, -1), 1e-9)
}

func TestIRDPenaltyRateDropSensitivity(t *testing.T) {
	// A wider gap between contract and comparison rates raises the penalty.
	p1 := IRDPenaltyForSimulation(500000, 4.5, 300, 60, 36, true, 3.5)
	p2 := IRDPenaltyForSimulation(500000, 4.5, 300, 60, 36, true, 2.0)
	assert.Greater(t, p2, p1)
}
