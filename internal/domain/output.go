package domain

// MonthRow is one simulated month of output. In deterministic mode the
// values are the single path; in Monte Carlo mode they are the across-path
// medians (means and percentile bands live in Bands).
type MonthRow struct {
	Month int `json:"month"`
	Year  int `json:"year"`

	BuyerNetWorth       float64 `json:"buyer_net_worth"`
	RenterNetWorth      float64 `json:"renter_net_worth"`
	BuyerUnrecoverable  float64 `json:"buyer_unrecoverable"`
	RenterUnrecoverable float64 `json:"renter_unrecoverable"`
	BuyerHomeEquity     float64 `json:"buyer_home_equity"`

	// Buyer cost breakdown (dollars for the month).
	Interest          float64 `json:"interest"`
	PropertyTax       float64 `json:"property_tax"`
	Maintenance       float64 `json:"maintenance"`
	Repairs           float64 `json:"repairs"`
	SpecialAssessment float64 `json:"special_assessment"`
	CondoFees         float64 `json:"condo_fees"`
	HomeInsurance     float64 `json:"home_insurance"`
	Utilities         float64 `json:"utilities"`

	// Renter cost breakdown.
	Rent          float64 `json:"rent"`
	RentInsurance float64 `json:"rent_insurance"`
	RentUtilities float64 `json:"rent_utilities"`
	Moving        float64 `json:"moving"`

	// All-in monthly outflows and their gap.
	BuyPayment        float64 `json:"buy_payment"`
	RentPayment       float64 `json:"rent_payment"`
	RentCostRecurring float64 `json:"rent_cost_recurring"`
	Deficit           float64 `json:"deficit"`

	// Present-value view.
	BuyerPVNetWorth  float64 `json:"buyer_pv_net_worth"`
	RenterPVNetWorth float64 `json:"renter_pv_net_worth"`
	PVDelta          float64 `json:"pv_delta"`

	// Budget mode only; nil when budget constraints are disabled.
	IncomeMonthly      *float64 `json:"income_monthly,omitempty"`
	BuyerNetCash       *float64 `json:"buyer_net_cash,omitempty"`
	RenterNetCash      *float64 `json:"renter_net_cash,omitempty"`
	BuyerShortfallCum  float64  `json:"buyer_shortfall_cum"`
	RenterShortfallCum float64  `json:"renter_shortfall_cum"`

	// Liquidation view, horizon month only; nil otherwise.
	BuyerLiquidationNW  *float64 `json:"buyer_liquidation_nw,omitempty"`
	RenterLiquidationNW *float64 `json:"renter_liquidation_nw,omitempty"`
}

// Bands carries per-month across-path statistics from a Monte Carlo run,
// index-aligned with Result.Rows.
type Bands struct {
	BuyerNWMean  []float64 `json:"buyer_nw_mean"`
	RenterNWMean []float64 `json:"renter_nw_mean"`
	BuyerNWLow   []float64 `json:"buyer_nw_low"`  // 5th percentile
	BuyerNWHigh  []float64 `json:"buyer_nw_high"` // 95th percentile
	RenterNWLow  []float64 `json:"renter_nw_low"`
	RenterNWHigh []float64 `json:"renter_nw_high"`

	BuyerUnrecMean  []float64 `json:"buyer_unrec_mean"`
	RenterUnrecMean []float64 `json:"renter_unrec_mean"`

	BuyerPVNWMean  []float64 `json:"buyer_pv_nw_mean"`
	RenterPVNWMean []float64 `json:"renter_pv_nw_mean"`
	PVDeltaMean    []float64 `json:"pv_delta_mean"`
}

// LiquidationSummary aggregates the horizon after-tax cash-out view across
// Monte Carlo paths.
type LiquidationSummary struct {
	BuyerMedian  float64  `json:"buyer_median"`
	RenterMedian float64  `json:"renter_median"`
	BuyerMean    float64  `json:"buyer_mean"`
	RenterMean   float64  `json:"renter_mean"`
	BuyerLow     float64  `json:"buyer_low"`
	BuyerHigh    float64  `json:"buyer_high"`
	RenterLow    float64  `json:"renter_low"`
	RenterHigh   float64  `json:"renter_high"`
	WinPct       *float64 `json:"win_pct,omitempty"`
}

// Diagnostics carries non-fatal metadata about a run: substitutions made at
// the boundary, stochastic bookkeeping, and cash events applied.
type Diagnostics struct {
	MCNumSims                  int             `json:"mc_num_sims,omitempty"`
	MCSeed                     *int64          `json:"mc_seed,omitempty"`
	MCDegenerate               bool            `json:"mc_degenerate,omitempty"`
	MCDeterministicEquivOK     *bool           `json:"mc_det_equiv_ok,omitempty"`
	DiscountRateAutoNormalized bool            `json:"discount_rate_autonormalized,omitempty"`
	UnitNormalizations         []Normalization `json:"unit_normalizations,omitempty"`
	ForeignBuyerTax            float64         `json:"foreign_buyer_tax,omitempty"`
	IRDPenalty                 float64         `json:"ird_penalty,omitempty"`
	FHSABalance                float64         `json:"fhsa_balance,omitempty"`
	FHSATaxSavings             float64         `json:"fhsa_tax_savings,omitempty"`
	Notes                      []string        `json:"notes,omitempty"`
}

// Result is the full output of one engine invocation.
type Result struct {
	Rows  []MonthRow `json:"rows"`
	Bands *Bands     `json:"bands,omitempty"`

	Liquidation *LiquidationSummary `json:"liquidation,omitempty"`

	// CloseCash is the total upfront cash to close (down payment plus
	// closing costs); MonthlyPayment is the initial fixed mortgage payment.
	CloseCash      float64 `json:"close_cash"`
	MonthlyPayment float64 `json:"monthly_payment"`

	// WinPct is the percentage of Monte Carlo paths in which the buyer
	// finishes at or above the renter; nil for deterministic runs.
	WinPct *float64 `json:"win_pct,omitempty"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// FinalRow returns the horizon month, or a zero row for an empty series.
func (r *Result) FinalRow() MonthRow {
	if len(r.Rows) == 0 {
		return MonthRow{}
	}
	return r.Rows[len(r.Rows)-1]
}
