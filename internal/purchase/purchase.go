// Package purchase derives the purchase-time fields an interactive caller
// would have pre-computed: the initial mortgage principal (base loan plus
// insured premium where applicable), the sales tax on that premium, and the
// total closing costs. Headless callers run through here so their economics
// match the interactive flow.
package purchase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/mortgage"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/policy"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/taxes"
)

// Default closing fees applied when the configuration leaves them unset.
const (
	DefaultLawyerFee     = 1800.0
	DefaultInspectionFee = 500.0
)

// downEps absorbs float error when comparing a down payment against the
// legal minimum.
const downEps = 1e-9

// Reason classifies an insured-mortgage eligibility violation.
type Reason string

const (
	ReasonDownBelowMinimum  Reason = "down_below_minimum"
	ReasonPriceAtOrAboveCap Reason = "price_at_or_above_cap"
	ReasonLTVTooHigh        Reason = "ltv_too_high"
)

// EligibilityError is returned in strict mode when an insured-mortgage
// request violates policy. In non-strict mode the same conditions are
// silently skipped and the mortgage is derived uninsured.
type EligibilityError struct {
	Reason  Reason
	Message string
}

func (e *EligibilityError) Error() string { return e.Message }

// Derived holds the purchase-time fields computed from a configuration.
type Derived struct {
	Mortgage         float64 // loan plus financed premium
	PST              float64 // sales tax on the premium, paid in cash
	Close            float64 // transfer tax + fees + PST
	MonthlyPayment   float64
	Loan             float64 // price minus down
	Premium          float64
	LTV              float64
	TransferTaxTotal float64
}

// Derive computes purchase-time fields from a possibly-incomplete
// configuration. Caller-supplied values are not consulted here; use Enrich
// to fill only what is missing.
func Derive(cfg domain.Configuration, strict bool) (Derived, error) {
	price := cfg.Price
	if price < 0 {
		price = 0
	}
	down := cfg.Down
	asOf := cfg.AsOfOrNow()

	nsRate := cfg.NSDeedTransferRate
	if nsRate != nil {
		r := *nsRate
		// Back-compat: percent-points input like 1.5 for 1.5%.
		if r > 1.0 {
			r = r / 100.0
		}
		nsRate = &r
	}

	tt := taxes.CalculateTransferTax(taxes.TransferTaxRequest{
		Province:           cfg.Province,
		Price:              decimal.NewFromFloat(price),
		FirstTimeBuyer:     cfg.FirstTimeBuyer,
		TorontoProperty:    cfg.TorontoProperty,
		OverrideAmount:     decimal.NewFromFloat(cfg.TransferTaxOverride),
		AsOfDate:           asOf,
		AssessedValue:      decimalPtr(cfg.AssessedValue),
		NSDeedTransferRate: decimalPtr(nsRate),
	})
	transferTaxTotal := tt.Total.InexactFloat64()

	lawyer := cfg.LawyerFee
	if lawyer <= 0 {
		lawyer = DefaultLawyerFee
	}
	inspection := cfg.InspectionFee
	if inspection <= 0 {
		inspection = DefaultInspectionFee
	}

	loan := price - down
	if loan < 0 {
		loan = 0
	}
	ltv := 0.0
	if price > 0 {
		ltv = loan / price
	}
	insuredAttempt := price > 0 && ltv > 0.80+policy.LTVEps

	premium := 0.0
	pst := 0.0
	mort := loan

	if insuredAttempt {
		minDown := policy.MinDownPaymentCanada(price, asOf)
		priceCap := policy.InsuredMortgagePriceCap(asOf)

		if err := checkEligibility(strict, down, minDown, price, priceCap, ltv, asOf); err != nil {
			return Derived{}, err
		}

		eligible := down+downEps >= minDown && price < priceCap && ltv <= 0.95+policy.LTVEps
		if eligible {
			rate, _ := policy.CMHCPremiumRate(ltv, policy.DownPaymentSource(cfg.DownPaymentSource))
			premiumD := decimal.NewFromFloat(loan).Mul(decimal.NewFromFloat(rate))
			pstD := premiumD.Mul(decimal.NewFromFloat(
				policy.MortgageInsuranceSalesTaxRate(cfg.Province, asOf)))
			premium, _ = premiumD.Float64()
			pst, _ = pstD.Float64()
			mort = loan + premium
		}
	}

	closing := transferTaxTotal + lawyer + inspection + cfg.OtherClosing + pst

	nm := cfg.AmortizationMonths
	if nm < 1 {
		nm = 300
	}
	mr := mortgage.AnnualNominalPctToMonthlyRate(cfg.RatePct, cfg.CanadianCompounding)
	pmt := mortgage.Payment(mort, mr, nm)

	return Derived{
		Mortgage:         mort,
		PST:              pst,
		Close:            closing,
		MonthlyPayment:   pmt,
		Loan:             loan,
		Premium:          premium,
		LTV:              ltv,
		TransferTaxTotal: transferTaxTotal,
	}, nil
}

func checkEligibility(strict bool, down, minDown, price, priceCap, ltv float64, asOf time.Time) error {
	if !strict {
		return nil
	}
	if down+downEps < minDown {
		return &EligibilityError{
			Reason: ReasonDownBelowMinimum,
			Message: fmt.Sprintf("minimum down payment is about $%.0f for price $%.0f as of %s",
				minDown, price, asOf.Format("2006-01-02")),
		}
	}
	if price >= priceCap {
		return &EligibilityError{
			Reason: ReasonPriceAtOrAboveCap,
			Message: fmt.Sprintf("insured mortgages are not available at/above $%.0f purchase price as of %s",
				priceCap, asOf.Format("2006-01-02")),
		}
	}
	if ltv > 0.95+policy.LTVEps {
		return &EligibilityError{
			Reason:  ReasonLTVTooHigh,
			Message: fmt.Sprintf("maximum LTV for insured mortgages is 95%% (ltv=%.4f)", ltv),
		}
	}
	return nil
}

// Enrich returns a copy of cfg with missing purchase-time fields filled in.
// Mortgage, PST, and Close are derived only when zero or negative — a
// caller-supplied value is never overwritten — and the policy as-of date is
// pinned so derived fields stay reproducible.
func Enrich(cfg domain.Configuration, strict bool) (domain.Configuration, error) {
	out := cfg
	out.AsOfDate = cfg.AsOfOrNow()

	needMort := out.Mortgage <= 0
	needClose := out.Close <= 0
	needPST := out.PST <= 0
	if !needMort && !needClose && !needPST {
		return out, nil
	}

	d, err := Derive(out, strict)
	if err != nil {
		return cfg, err
	}
	if needMort && d.Mortgage > 0 {
		out.Mortgage = d.Mortgage
	}
	if needPST && d.PST > 0 {
		out.PST = d.PST
	}
	if needClose && d.Close > 0 {
		out.Close = d.Close
	}
	return out, nil
}

func decimalPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
