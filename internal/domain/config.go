// Package domain defines the typed configuration, scenario parameters, and
// output series exchanged between the simulation engine and its callers.
//
// Units are part of every field's contract: fields ending in Pct are percent
// points (4.5 means 4.5%), fields ending in Rate are annual fractions
// (0.045 means 4.5%), currency fields are nominal dollars, and durations are
// months unless the name says Years.
package domain

import (
	"strings"
	"time"
)

// PropertyTaxGrowthModel selects how the property-tax assessment base tracks
// the (possibly volatile) market value of the home.
type PropertyTaxGrowthModel string

const (
	// PropTaxMarket reassesses at full market value every month.
	PropTaxMarket PropertyTaxGrowthModel = "Market"
	// PropTaxInflation grows the assessment base at general CPI only.
	PropTaxInflation PropertyTaxGrowthModel = "Inflation"
	// PropTaxHybrid moves the base toward market value, capped at CPI plus a
	// small add-on, approximating municipal assessment lag.
	PropTaxHybrid PropertyTaxGrowthModel = "Hybrid"
)

// ParsePropertyTaxGrowthModel tolerates longer UI labels such as
// "Hybrid (recommended for Toronto)".
func ParsePropertyTaxGrowthModel(s string) PropertyTaxGrowthModel {
	switch {
	case strings.HasPrefix(s, "Market"):
		return PropTaxMarket
	case strings.HasPrefix(s, "Inflation"):
		return PropTaxInflation
	default:
		return PropTaxHybrid
	}
}

// RateMode selects the mortgage-rate dynamics over the horizon.
type RateMode string

const (
	RateModeFixed RateMode = "Fixed"
	// RateModeReset re-amortizes the remaining balance at each renewal.
	RateModeReset RateMode = "Reset every N years"
)

// InvestmentTaxMode selects how portfolio returns are taxed.
type InvestmentTaxMode string

const (
	// InvestmentTaxNone applies no tax to portfolio growth.
	InvestmentTaxNone InvestmentTaxMode = ""
	// InvestmentTaxAnnualDrag haircuts growth by a flat rate every period.
	InvestmentTaxAnnualDrag InvestmentTaxMode = "Annual drag"
	// InvestmentTaxDeferred taxes realized gains once at liquidation.
	InvestmentTaxDeferred InvestmentTaxMode = "Deferred capital gains"
)

// IsAnnualDrag reports whether the mode applies a per-period haircut.
// Longer UI labels starting with "Annual" count.
func (m InvestmentTaxMode) IsAnnualDrag() bool {
	return strings.HasPrefix(string(m), "Annual")
}

// CGInclusionPolicy selects the capital-gains inclusion-rate regime used at
// liquidation.
type CGInclusionPolicy string

const (
	CGInclusionCurrent CGInclusionPolicy = "current"
	// CGInclusionProposed applies the proposed two-thirds inclusion rate to
	// gains above the threshold (implemented as a 4/3 rate multiplier on the
	// excess).
	CGInclusionProposed CGInclusionPolicy = "proposed_2_3_over_250k"
)

// Configuration is the immutable-per-run description of a rent-vs-buy
// scenario. Constructed fresh per simulation request and never mutated
// during a run.
type Configuration struct {
	// Horizon.
	Years int `yaml:"years"`

	// Purchase and financing. Mortgage, Close and PST may be left zero and
	// derived from the rest (see the purchase package).
	Price               float64 `yaml:"price"`
	Down                float64 `yaml:"down"`
	Mortgage            float64 `yaml:"mort"`
	Close               float64 `yaml:"close"`
	PST                 float64 `yaml:"pst"`
	RatePct             float64 `yaml:"rate"`
	AmortizationMonths  int     `yaml:"nm"`
	CanadianCompounding bool    `yaml:"canadian_compounding"`

	// Renting.
	Rent            float64 `yaml:"rent"`
	RentInflation   float64 `yaml:"rent_inf"` // annual effective fraction
	RenterInsurance float64 `yaml:"r_ins"`    // monthly dollars
	RenterUtilities float64 `yaml:"r_util"`   // monthly dollars
	MovingCost      float64 `yaml:"moving_cost"`
	MovingFreqYears float64 `yaml:"moving_freq"`

	// Rent control.
	RentControlEnabled        bool     `yaml:"rent_control_enabled"`
	RentControlCapPct         *float64 `yaml:"rent_control_cap"` // percent points per year
	RentControlFrequencyYears int      `yaml:"rent_control_frequency_years"`

	// Recurring ownership costs. The *Rate fields are annual fractions of
	// the current home value; the dollar fields are monthly.
	PropertyTaxRate float64 `yaml:"p_tax_rate"`
	MaintenanceRate float64 `yaml:"maint_rate"`
	RepairRate      float64 `yaml:"repair_rate"`
	CondoFees       float64 `yaml:"condo"`
	HomeInsurance   float64 `yaml:"h_ins"`
	OwnerUtilities  float64 `yaml:"o_util"`

	// Inflation tracks (annual effective fractions). Condo fees follow their
	// own track; a nil CondoInflation falls back to GeneralInflation.
	GeneralInflation float64  `yaml:"general_inf"`
	CondoInflation   *float64 `yaml:"condo_inf"`

	// Property tax assessment model.
	PropTaxGrowthModel    PropertyTaxGrowthModel `yaml:"prop_tax_growth_model"`
	PropTaxHybridAddonPct float64                `yaml:"prop_tax_hybrid_addon_pct"`

	// Mortgage rate dynamics.
	RateMode               RateMode `yaml:"rate_mode"`
	RateResetYears         *int     `yaml:"rate_reset_years_eff"`
	RateResetToPct         *float64 `yaml:"rate_reset_to_eff"`
	RateResetStepPP        float64  `yaml:"rate_reset_step_pp_eff"`
	RateShockEnabled       bool     `yaml:"rate_shock_enabled_eff"`
	RateShockStartYear     int      `yaml:"rate_shock_start_year_eff"`
	RateShockDurationYears int      `yaml:"rate_shock_duration_years_eff"`
	RateShockPP            float64  `yaml:"rate_shock_pp_eff"`

	// Volatility (annual standard deviations as fractions).
	UseVolatility bool    `yaml:"use_volatility"`
	NumSims       int     `yaml:"num_sims"`
	ReturnStd     float64 `yaml:"ret_std"`
	ApprecStd     float64 `yaml:"apprec_std"`

	// Horizon sale and taxes.
	AssumeSaleEnd        bool              `yaml:"assume_sale_end"`
	SellCostRate         float64           `yaml:"sell_cost"` // fraction of sale price
	HomeSaleLegalFee     float64           `yaml:"home_sale_legal_fee"`
	ShowLiquidationView  bool              `yaml:"show_liquidation_view"`
	IsPrincipalResidence bool              `yaml:"is_principal_residence"`
	CGTaxEndPct          float64           `yaml:"cg_tax_end"` // percent points
	InvestmentTaxMode    InvestmentTaxMode `yaml:"investment_tax_mode"`
	TaxRatePct           float64           `yaml:"tax_r"` // annual-drag percent points
	CGInclusionPolicy    CGInclusionPolicy `yaml:"cg_inclusion_policy"`
	CGInclusionThreshold float64           `yaml:"cg_inclusion_threshold"`
	RegShelterEnabled    bool              `yaml:"reg_shelter_enabled"`
	RegInitialRoom       float64           `yaml:"reg_initial_room"`
	RegAnnualRoom        float64           `yaml:"reg_annual_room"`

	// One-time events.
	SpecialAssessmentAmount float64 `yaml:"special_assessment_amount"`
	SpecialAssessmentMonth  int     `yaml:"special_assessment_month"`

	// Government homebuyer programs. An enabled HBP withdrawal schedules the
	// mandated repayments as buyer-side cash outflows; FHSA inputs produce an
	// informational projection attached to the run diagnostics.
	HBPEnabled             bool    `yaml:"hbp_enabled"`
	HBPWithdrawal          float64 `yaml:"hbp_withdrawal"`
	FHSAEnabled            bool    `yaml:"fhsa_enabled"`
	FHSAAnnualContribution float64 `yaml:"fhsa_annual_contribution"`
	FHSAYearsContributed   int     `yaml:"fhsa_years_contributed"`
	FHSAReturnPct          float64 `yaml:"fhsa_return_pct"`
	FHSAMarginalTaxRatePct float64 `yaml:"fhsa_marginal_tax_rate_pct"`

	// Early-exit prepayment penalty: breaking the mortgage before the
	// contract term ends (horizon shorter than the term) charges an IRD
	// penalty at the horizon month.
	IRDEnabled         bool    `yaml:"ird_enabled"`
	MortgageTermMonths int     `yaml:"mortgage_term_months"` // 0 means 60
	IRDRateDropPP      float64 `yaml:"ird_rate_drop_pp"`     // 0 means 1.5

	// Budget constraints.
	BudgetEnabled       bool    `yaml:"budget_enabled"`
	MonthlyIncome       float64 `yaml:"monthly_income"`
	MonthlyNonHousing   float64 `yaml:"monthly_nonhousing"`
	IncomeGrowthPct     float64 `yaml:"income_growth_pct"`
	BudgetAllowWithdraw bool    `yaml:"budget_allow_withdraw"`

	// Crisis shock.
	CrisisEnabled        bool    `yaml:"crisis_enabled"`
	CrisisYear           float64 `yaml:"crisis_year"`
	CrisisStockDrawdown  float64 `yaml:"crisis_stock_dd"` // fraction, clamped 0..0.95
	CrisisHouseDrawdown  float64 `yaml:"crisis_house_dd"` // fraction, clamped 0..0.95
	CrisisDurationMonths int     `yaml:"crisis_duration_months"`

	// Present-value discounting (annual effective fraction).
	DiscountRate float64 `yaml:"discount_rate"`

	// Jurisdiction and purchase-time policy inputs.
	Province            string    `yaml:"province"`
	AsOfDate            time.Time `yaml:"asof_date"`
	FirstTimeBuyer      bool      `yaml:"first_time_buyer"`
	NewConstruction     bool      `yaml:"new_construction"`
	TorontoProperty     bool      `yaml:"toronto_property"`
	IsForeignBuyer      bool      `yaml:"is_foreign_buyer"`
	DownPaymentSource   string    `yaml:"down_payment_source"`
	TransferTaxOverride float64   `yaml:"transfer_tax_override"`
	AssessedValue       *float64  `yaml:"assessed_value"`
	NSDeedTransferRate  *float64  `yaml:"ns_deed_transfer_rate"` // fraction
	LawyerFee           float64   `yaml:"lawyer_fee"`
	InspectionFee       float64   `yaml:"inspection_fee"`
	OtherClosing        float64   `yaml:"other_closing"`
}

// DefaultConfiguration returns a Configuration with the engine's documented
// defaults filled in; zero values elsewhere are meaningful.
func DefaultConfiguration() Configuration {
	return Configuration{
		Years:                     1,
		AmortizationMonths:        1,
		CanadianCompounding:       true,
		MovingFreqYears:           5,
		RentControlFrequencyYears: 1,
		PropTaxGrowthModel:        PropTaxHybrid,
		PropTaxHybridAddonPct:     0.5,
		RateMode:                  RateModeFixed,
		IsPrincipalResidence:      true,
		CGInclusionPolicy:         CGInclusionCurrent,
		CGInclusionThreshold:      250_000,
		DownPaymentSource:         "Traditional",
	}
}

// ScenarioParams is the per-run overlay callers vary independently of the
// Configuration: expected returns, appreciation, surplus handling, and the
// stochastic controls.
type ScenarioParams struct {
	BuyerReturnPct     float64 // expected buyer portfolio return, percent points per year
	RenterReturnPct    float64 // expected renter portfolio return, percent points per year
	AppreciationPct    float64 // expected home appreciation, percent points per year
	InvestDifference   bool    // invest the cheaper side's monthly surplus
	RentClosingCosts   bool    // renter also invests the avoided down+closing cash
	MarketCorrelation  float64 // rho between home and portfolio shocks, -1..1

	// Stochastic controls. ForceDeterministic wins over everything; a
	// non-nil ForceVolatility overrides the Configuration's UseVolatility.
	Seed               *int64
	NumSimsOverride    *int
	ForceDeterministic bool
	ForceVolatility    *bool
}

// Normalization captures a defensive unit correction applied at the entry
// boundary (values that looked like percent points where a fraction was
// expected).
type Normalization struct {
	Field string
	From  float64
	To    float64
}

// NormalizeUnits applies the documented legacy-payload corrections once, at
// the boundary: annual fractions that arrive looking like percent points
// (general inflation above 1.0; volatility above 2.0; discount rate above
// 1.0) are divided by 100. Returns the list of corrections made so callers
// can surface them as diagnostics.
func (c *Configuration) NormalizeUnits() []Normalization {
	var notes []Normalization
	fix := func(field string, v *float64, limit float64) {
		if *v > limit {
			n := Normalization{Field: field, From: *v, To: *v / 100.0}
			*v = *v / 100.0
			notes = append(notes, n)
		}
	}
	fix("general_inf", &c.GeneralInflation, 1.0)
	fix("ret_std", &c.ReturnStd, 2.0)
	fix("apprec_std", &c.ApprecStd, 2.0)
	fix("discount_rate", &c.DiscountRate, 1.0)
	return notes
}

// CondoInflationOrDefault returns the condo-fee inflation track, falling
// back to general CPI when none is configured.
func (c *Configuration) CondoInflationOrDefault() float64 {
	if c.CondoInflation != nil {
		return *c.CondoInflation
	}
	return c.GeneralInflation
}

// AsOfOrNow returns the policy as-of date, defaulting to today.
func (c *Configuration) AsOfOrNow() time.Time {
	if c.AsOfDate.IsZero() {
		return time.Now()
	}
	return c.AsOfDate
}
