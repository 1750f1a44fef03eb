// Package validation surfaces configuration issues before a simulation
// runs. The checks are advisory: nothing here blocks a run, callers decide
// whether to prompt, log, or ignore.
package validation

import (
	"fmt"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/govprograms"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/policy"
)

// Warnings returns human-readable warnings for a simulation configuration.
// The slice is empty when no issues are detected; the configuration is
// never mutated and no check returns an error.
func Warnings(cfg domain.Configuration) []string {
	var warnings []string

	price := cfg.Price
	if price < 0 {
		price = 0
	}
	down := cfg.Down
	if down < 0 {
		down = 0
	}
	loan := price - down
	if loan < 0 {
		loan = 0
	}
	ltv := 0.0
	if price > 0 {
		ltv = loan / price
	}
	asOf := cfg.AsOfOrNow()

	// Uninsurable LTV. Only flagged below the insured price cap; above the
	// cap insurance is unavailable regardless of ratio.
	cap := policy.InsuredMortgagePriceCap(asOf)
	if price < cap && ltv > 0.95 {
		warnings = append(warnings,
			"Loan-to-value (LTV) exceeds 95% - mortgage insurance is unavailable for such high-ratio loans in Canada.")
	}

	minDown := policy.MinDownPaymentCanada(price, asOf)
	if down+1e-9 < minDown {
		warnings = append(warnings, fmt.Sprintf(
			"Down payment of $%.2f is below the legal minimum of $%.2f for a $%.0f home.",
			down, minDown, price))
	}

	// Insured amortization limit. Conventional mortgages may run longer, so
	// the check applies only when the loan would need insurance.
	if cfg.AmortizationMonths > 0 && price > 0 {
		amortYears := float64(cfg.AmortizationMonths) / 12.0
		maxInsured := policy.InsuredMaxAmortizationYears(asOf, cfg.FirstTimeBuyer, cfg.NewConstruction)
		if ltv > 0.80 && amortYears > float64(maxInsured) {
			warnings = append(warnings, fmt.Sprintf(
				"Requested amortization of %.1f years exceeds the maximum insured amortization of %d years for your buyer profile.",
				amortYears, maxInsured))
		}
	}

	// HBP withdrawals above the per-person CRA limit at the as-of date.
	if cfg.HBPEnabled {
		if limit := govprograms.HBPMaxWithdrawal(asOf); cfg.HBPWithdrawal > limit {
			warnings = append(warnings, fmt.Sprintf(
				"HBP withdrawal of $%.0f exceeds the per-person limit of $%.0f.",
				cfg.HBPWithdrawal, limit))
		}
	}

	return warnings
}
