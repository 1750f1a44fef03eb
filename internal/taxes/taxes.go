// Package taxes implements Canadian land-transfer taxes and provincial
// registration fees for a home purchase.
//
// Every calculator takes the purchase price in dollars and returns dollars.
// Several rules are date-dependent (Toronto's luxury MLTT schedule, BC's
// first-time-buyer exemption thresholds, Quebec's indexed brackets), so the
// top-level entry accepts an as-of date; the zero time means "today".
package taxes

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provinces lists every region with a built-in rule, in display order.
var Provinces = []string{
	"Ontario",
	"British Columbia",
	"Alberta",
	"Quebec",
	"Manitoba",
	"Saskatchewan",
	"Nova Scotia",
	"New Brunswick",
	"Newfoundland and Labrador",
	"Prince Edward Island",
	"Northwest Territories",
	"Yukon",
	"Nunavut",
}

// Bracket is one marginal band: the Rate applies to the slice of the amount
// between the previous bracket's Upper and this one's.
type Bracket struct {
	Upper decimal.Decimal
	Rate  decimal.Decimal
}

// bracketCeiling stands in for an unbounded top bracket.
var bracketCeiling = decimal.NewFromInt(999_999_999_999)

// marginalTax applies successive marginal rates over ascending price bands.
func marginalTax(amount decimal.Decimal, brackets []Bracket) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	tax := decimal.Zero
	prev := decimal.Zero
	for _, b := range brackets {
		if amount.LessThanOrEqual(prev) {
			break
		}
		taxable := decimal.Min(amount, b.Upper).Sub(prev)
		if taxable.GreaterThan(decimal.Zero) {
			tax = tax.Add(taxable.Mul(b.Rate))
		}
		prev = b.Upper
	}
	return tax
}

// normalizeProvince maps names and common abbreviations to a canonical
// lowercase key.
func normalizeProvince(province string) string {
	raw := strings.ToLower(strings.TrimSpace(province))
	raw = strings.ReplaceAll(raw, "&", " and ")
	raw = strings.Join(strings.Fields(raw), " ")
	aliases := map[string]string{
		"on":           "ontario",
		"ont":          "ontario",
		"bc":           "british columbia",
		"b.c.":         "british columbia",
		"ab":           "alberta",
		"alta":         "alberta",
		"sk":           "saskatchewan",
		"mb":           "manitoba",
		"qc":           "quebec",
		"pq":           "quebec",
		"ns":           "nova scotia",
		"nb":           "new brunswick",
		"pei":          "prince edward island",
		"pe":           "prince edward island",
		"p.e.i.":       "prince edward island",
		"nl":           "newfoundland and labrador",
		"newfoundland": "newfoundland and labrador",
		"nwt":          "northwest territories",
		"nt":           "northwest territories",
		"yt":           "yukon",
		"nu":           "nunavut",
	}
	if canonical, ok := aliases[raw]; ok {
		return canonical
	}
	return raw
}

// clampPrice normalizes a price to non-negative dollars and cents.
func clampPrice(price decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	return price.Round(2)
}

// OntarioLTT computes the Ontario Land Transfer Tax (provincial portion),
// excluding rebates. Marginal schedule: 0.5% to $55k, 1.0% to $250k, 1.5% to
// $400k, 2.0% to $2M, 2.5% above.
func OntarioLTT(price decimal.Decimal) decimal.Decimal {
	p := clampPrice(price)
	return marginalTax(p, []Bracket{
		{decimal.NewFromInt(55_000), decimal.NewFromFloat(0.005)},
		{decimal.NewFromInt(250_000), decimal.NewFromFloat(0.01)},
		{decimal.NewFromInt(400_000), decimal.NewFromFloat(0.015)},
		{decimal.NewFromInt(2_000_000), decimal.NewFromFloat(0.02)},
		{bracketCeiling, decimal.NewFromFloat(0.025)},
	})
}

// torontoCutoff is when the higher Toronto luxury MLTT schedule takes effect.
var torontoCutoff = time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

// TorontoMLTT computes the Toronto Municipal Land Transfer Tax for
// residential properties. It mirrors the Ontario brackets up to $3,000,000
// and applies luxury brackets on the portion above; the asOf date selects
// between the schedules before and after April 1, 2026.
func TorontoMLTT(price decimal.Decimal, asOf time.Time) decimal.Decimal {
	p := clampPrice(price)
	baseCap := decimal.NewFromInt(3_000_000)
	base := OntarioLTT(decimal.Min(p, baseCap))
	if p.LessThanOrEqual(baseCap) {
		return base
	}

	if asOf.IsZero() {
		asOf = time.Now()
	}
	var luxury []Bracket
	if !asOf.Before(torontoCutoff) {
		luxury = []Bracket{
			{decimal.NewFromInt(4_000_000), decimal.NewFromFloat(0.0440)},
			{decimal.NewFromInt(5_000_000), decimal.NewFromFloat(0.0545)},
			{decimal.NewFromInt(10_000_000), decimal.NewFromFloat(0.0650)},
			{decimal.NewFromInt(20_000_000), decimal.NewFromFloat(0.0755)},
			{bracketCeiling, decimal.NewFromFloat(0.0860)},
		}
	} else {
		luxury = []Bracket{
			{decimal.NewFromInt(4_000_000), decimal.NewFromFloat(0.0350)},
			{decimal.NewFromInt(5_000_000), decimal.NewFromFloat(0.0450)},
			{decimal.NewFromInt(10_000_000), decimal.NewFromFloat(0.0550)},
			{decimal.NewFromInt(20_000_000), decimal.NewFromFloat(0.0650)},
			{bracketCeiling, decimal.NewFromFloat(0.0750)},
		}
	}

	extra := decimal.Zero
	prev := baseCap
	for _, b := range luxury {
		if p.LessThanOrEqual(prev) {
			break
		}
		taxable := decimal.Min(p, b.Upper).Sub(prev)
		if taxable.GreaterThan(decimal.Zero) {
			extra = extra.Add(taxable.Mul(b.Rate))
		}
		prev = b.Upper
	}
	return base.Add(extra)
}

// BCPropertyTransferTax computes the base BC Property Transfer Tax,
// excluding additional foreign-buyer/speculation taxes.
func BCPropertyTransferTax(price decimal.Decimal) decimal.Decimal {
	p := clampPrice(price)
	return marginalTax(p, []Bracket{
		{decimal.NewFromInt(200_000), decimal.NewFromFloat(0.01)},
		{decimal.NewFromInt(2_000_000), decimal.NewFromFloat(0.02)},
		{decimal.NewFromInt(3_000_000), decimal.NewFromFloat(0.03)},
		{bracketCeiling, decimal.NewFromFloat(0.05)},
	})
}

// bcFTHBCutoff is when BC's expanded first-time-buyer exemption thresholds
// took effect.
var bcFTHBCutoff = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

// BCFirstTimeBuyerExemption returns the amount by which the base PTT is
// reduced for an eligible first-time buyer. Simplified: eligibility criteria
// beyond price (residence, citizenship, prior ownership) are assumed met.
//
// Properties at or below $500k are fully exempt under both regimes. Above
// that, the maximum $8,000 exemption holds to a full-exemption threshold and
// phases out linearly to zero ($835k to $860k from April 1, 2024; $500k
// to $525k before).
func BCFirstTimeBuyerExemption(price decimal.Decimal, asOf time.Time) decimal.Decimal {
	p := clampPrice(price)
	if p.IsZero() {
		return decimal.Zero
	}
	if p.LessThanOrEqual(decimal.NewFromInt(500_000)) {
		return BCPropertyTransferTax(p)
	}

	if asOf.IsZero() {
		asOf = time.Now()
	}
	maxExemption := decimal.NewFromInt(8_000)
	var fullTo, phaseoutTo decimal.Decimal
	if !asOf.Before(bcFTHBCutoff) {
		fullTo = decimal.NewFromInt(835_000)
		phaseoutTo = decimal.NewFromInt(860_000)
	} else {
		fullTo = decimal.NewFromInt(500_000)
		phaseoutTo = decimal.NewFromInt(525_000)
	}

	if p.LessThanOrEqual(fullTo) {
		return maxExemption
	}
	if p.GreaterThanOrEqual(phaseoutTo) {
		return decimal.Zero
	}
	span := phaseoutTo.Sub(fullTo)
	frac := phaseoutTo.Sub(p).Div(span)
	ex := maxExemption.Mul(frac)
	if ex.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(ex, maxExemption)
}

// AlbertaLandTitleFee estimates the Alberta Transfer of Land registration fee
// (Land Titles Registration Levy, Oct 2024+): $50 base plus $5 per $5,000 or
// part thereof of property value. Mortgage registration is not included.
func AlbertaLandTitleFee(price decimal.Decimal) decimal.Decimal {
	p := clampPrice(price)
	if p.IsZero() {
		return decimal.Zero
	}
	portions := p.Div(decimal.NewFromInt(5_000)).Ceil()
	return decimal.NewFromInt(50).Add(decimal.NewFromInt(5).Mul(portions))
}

// SaskatchewanLandTitleFee estimates the Saskatchewan land title transfer
// fee: free to $500, $25 flat to $6,300, then $25 plus 0.4% of the excess.
func SaskatchewanLandTitleFee(price decimal.Decimal) decimal.Decimal {
	p := clampPrice(price)
	if p.LessThanOrEqual(decimal.NewFromInt(500)) {
		return decimal.Zero
	}
	if p.LessThanOrEqual(decimal.NewFromInt(6_300)) {
		return decimal.NewFromInt(25)
	}
	excess := p.Sub(decimal.NewFromInt(6_300))
	return decimal.NewFromInt(25).Add(excess.Mul(decimal.NewFromFloat(0.004)))
}

// ManitobaLTT computes the Manitoba land transfer tax.
func ManitobaLTT(price decimal.Decimal) decimal.Decimal {
	p := clampPrice(price)
	return marginalTax(p, []Bracket{
		{decimal.NewFromInt(30_000), decimal.Zero},
		{decimal.NewFromInt(90_000), decimal.NewFromFloat(0.005)},
		{decimal.NewFromInt(150_000), decimal.NewFromFloat(0.01)},
		{decimal.NewFromInt(200_000), decimal.NewFromFloat(0.015)},
		{bracketCeiling, decimal.NewFromFloat(0.02)},
	})
}

// QuebecTransferDuty computes the baseline Quebec "welcome tax" (droits sur
// les mutations immobilières) with annually indexed thresholds. Many
// municipalities adopt higher top-bracket rates; callers needing precision
// should use the override.
func QuebecTransferDuty(price decimal.Decimal, asOf time.Time) decimal.Decimal {
	p := clampPrice(price)
	if asOf.IsZero() {
		asOf = time.Now()
	}
	var b1, b2 decimal.Decimal
	switch y := asOf.Year(); {
	case y <= 2024:
		b1, b2 = decimal.NewFromInt(58_900), decimal.NewFromInt(294_600)
	case y == 2025:
		b1, b2 = decimal.NewFromInt(61_500), decimal.NewFromInt(307_800)
	default:
		b1, b2 = decimal.NewFromInt(62_900), decimal.NewFromInt(315_000)
	}
	return marginalTax(p, []Bracket{
		{b1, decimal.NewFromFloat(0.005)},
		{b2, decimal.NewFromFloat(0.01)},
		{bracketCeiling, decimal.NewFromFloat(0.015)},
	})
}

// QuebecTransferDutyBigCity models a higher-bracket Quebec municipality
// schedule (Montréal-like tiers). Not applied by default.
func QuebecTransferDutyBigCity(price decimal.Decimal) decimal.Decimal {
	p := clampPrice(price)
	return marginalTax(p, []Bracket{
		{decimal.NewFromInt(62_900), decimal.NewFromFloat(0.005)},
		{decimal.NewFromInt(315_000), decimal.NewFromFloat(0.01)},
		{decimal.NewFromInt(552_300), decimal.NewFromFloat(0.015)},
		{decimal.NewFromInt(1_104_700), decimal.NewFromFloat(0.02)},
		{decimal.NewFromInt(2_136_500), decimal.NewFromFloat(0.025)},
		{decimal.NewFromInt(3_113_000), decimal.NewFromFloat(0.035)},
		{bracketCeiling, decimal.NewFromFloat(0.04)},
	})
}

// NewBrunswickTransferTax computes the NB property transfer tax, simplified
// as 1% of the taxable basis (assessed value, or purchase price as proxy).
func NewBrunswickTransferTax(basis decimal.Decimal) decimal.Decimal {
	b := clampPrice(basis)
	return b.Mul(decimal.NewFromFloat(0.01))
}

// NovaScotiaDeedTransferTax computes the municipal NS deed transfer tax at
// the given fractional rate (1.5% is a common default, e.g. HRM).
func NovaScotiaDeedTransferTax(price, rate decimal.Decimal) decimal.Decimal {
	p := clampPrice(price)
	if rate.IsNegative() {
		rate = decimal.Zero
	}
	return p.Mul(rate)
}

// PEITransferTax computes the PEI real property transfer tax, simplified as
// 1% on the portion of the basis between $30,000 and $1,000,000 plus 2% on
// the portion above $1,000,000.
func PEITransferTax(basis decimal.Decimal) decimal.Decimal {
	p := clampPrice(basis)
	threshold := decimal.NewFromInt(30_000)
	if p.LessThanOrEqual(threshold) {
		return decimal.Zero
	}
	million := decimal.NewFromInt(1_000_000)
	base := decimal.Min(p, million).Sub(threshold).Mul(decimal.NewFromFloat(0.01))
	extra := decimal.Zero
	if p.GreaterThan(million) {
		extra = p.Sub(million).Mul(decimal.NewFromFloat(0.02))
	}
	total := base.Add(extra)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// NewfoundlandRegistrationFee estimates the NL registration-of-deeds fee:
// $100 covers the first $500, then $0.40 per full $100 above, capped at
// $5,000.
func NewfoundlandRegistrationFee(price decimal.Decimal) decimal.Decimal {
	p := clampPrice(price)
	if p.IsZero() {
		return decimal.Zero
	}
	fee := decimal.NewFromInt(100)
	if p.GreaterThan(decimal.NewFromInt(500)) {
		increments := p.Sub(decimal.NewFromInt(500)).Div(decimal.NewFromInt(100)).Floor()
		fee = fee.Add(increments.Mul(decimal.NewFromFloat(0.40)))
	}
	return decimal.Min(decimal.NewFromInt(5_000), fee)
}

// TransferTaxRequest carries the inputs for CalculateTransferTax.
//
// AssessedValue and NSDeedTransferRate are optional: a nil pointer means
// "not supplied". NSDeedTransferRate is a fraction (0.015 = 1.5%).
type TransferTaxRequest struct {
	Province           string
	Price              decimal.Decimal
	FirstTimeBuyer     bool
	TorontoProperty    bool
	OverrideAmount     decimal.Decimal
	AsOfDate           time.Time
	AssessedValue      *decimal.Decimal
	NSDeedTransferRate *decimal.Decimal
}

// TransferTaxResult breaks the tax into provincial and municipal components.
// Note carries an explanatory message about the rule that was applied; it is
// informational only.
type TransferTaxResult struct {
	Provincial decimal.Decimal `json:"prov"`
	Municipal  decimal.Decimal `json:"muni"`
	Total      decimal.Decimal `json:"total"`
	Note       string          `json:"note"`
}

// ontarioFTHBRebate and torontoFTHBRebate are the simplified maximum
// first-time-buyer rebates; full eligibility rules are not modeled.
var (
	ontarioFTHBRebate = decimal.NewFromInt(4_000)
	torontoFTHBRebate = decimal.NewFromInt(4_475)
)

// CalculateTransferTax dispatches to the province-specific calculator and
// applies first-time-buyer relief where modeled. A positive override amount
// is authoritative and bypasses every rule. Unrecognized regions yield a
// zero total with an explanatory note rather than an error.
func CalculateTransferTax(req TransferTaxRequest) TransferTaxResult {
	key := normalizeProvince(req.Province)
	if key == "" {
		key = "ontario"
	}
	price := clampPrice(req.Price)
	asOf := req.AsOfDate
	if asOf.IsZero() {
		asOf = time.Now()
	}

	if req.OverrideAmount.GreaterThan(decimal.Zero) {
		return TransferTaxResult{
			Provincial: req.OverrideAmount,
			Municipal:  decimal.Zero,
			Total:      req.OverrideAmount,
			Note:       "Using your 'Transfer Tax Override' amount for this province/municipality.",
		}
	}

	basis := price
	if req.AssessedValue != nil {
		basis = decimal.Max(price, clampPrice(*req.AssessedValue))
	}

	prov := decimal.Zero
	muni := decimal.Zero
	note := ""

	switch key {
	case "ontario":
		raw := OntarioLTT(price)
		if req.FirstTimeBuyer {
			raw = raw.Sub(ontarioFTHBRebate)
		}
		prov = decimal.Max(decimal.Zero, raw)
		if req.TorontoProperty {
			rawMuni := TorontoMLTT(price, asOf)
			if req.FirstTimeBuyer {
				rawMuni = rawMuni.Sub(torontoFTHBRebate)
			}
			muni = decimal.Max(decimal.Zero, rawMuni)
			if price.GreaterThan(decimal.NewFromInt(3_000_000)) {
				sched := "pre-Apr 1, 2026"
				if !asOf.Before(torontoCutoff) {
					sched = "post-Apr 1, 2026"
				}
				note = fmt.Sprintf("Toronto MLTT luxury brackets (>$3M) use the %s schedule as of %s.", sched, asOf.Format("2006-01-02"))
			}
		}

	case "british columbia":
		raw := BCPropertyTransferTax(price)
		prov = raw
		note = "BC PTT excludes additional taxes (e.g., foreign buyer/speculation)."
		if req.FirstTimeBuyer {
			ex := BCFirstTimeBuyerExemption(price, asOf)
			if ex.GreaterThan(decimal.Zero) {
				prov = decimal.Max(decimal.Zero, raw.Sub(ex))
				sched := "pre-Apr 1, 2024"
				if !asOf.Before(bcFTHBCutoff) {
					sched = "post-Apr 1, 2024"
				}
				note = fmt.Sprintf(
					"BC FTHB exemption applied (simplified; assumes eligible). Max $8,000; %s schedule as of %s. Excludes additional taxes (e.g., foreign buyer/speculation).",
					sched, asOf.Format("2006-01-02"))
			}
		}

	case "alberta":
		prov = AlbertaLandTitleFee(price)
		note = "Alberta uses land title registration fees (transfer-of-land). Mortgage registration fees not included."

	case "saskatchewan":
		prov = SaskatchewanLandTitleFee(price)
		note = "Saskatchewan uses land title transfer fees (simplified). Mortgage registration fees not included."

	case "manitoba":
		prov = ManitobaLTT(price)

	case "quebec":
		prov = QuebecTransferDuty(price, asOf)
		note = "Quebec duties can vary by municipality (some apply higher rates in top brackets). Use override for precision."

	case "new brunswick":
		prov = NewBrunswickTransferTax(basis)
		if req.AssessedValue != nil {
			note = "NB property transfer tax is based on assessed value; using max(purchase price, assessed value)."
		} else {
			note = "NB property transfer tax is based on assessed value; using purchase price as proxy. Provide assessed value for precision."
		}

	case "nova scotia":
		rate := decimal.NewFromFloat(0.015)
		supplied := false
		if req.NSDeedTransferRate != nil && req.NSDeedTransferRate.GreaterThan(decimal.Zero) {
			rate = *req.NSDeedTransferRate
			supplied = true
		}
		prov = NovaScotiaDeedTransferTax(price, rate)
		if supplied {
			ratePct, _ := rate.Mul(decimal.NewFromInt(100)).Float64()
			note = fmt.Sprintf("Nova Scotia deed transfer tax is municipal; using your selected rate of %.3g%%.", ratePct)
		} else {
			note = "Nova Scotia deed transfer tax is municipal; defaulting to 1.5%. Use the rate input or override for your municipality."
		}

	case "prince edward island":
		prov = PEITransferTax(basis)
		note = "PEI transfer tax can include exemptions/eligibility rules; using max(purchase price, assessed value). Override if you have a local exemption."

	case "newfoundland and labrador":
		prov = NewfoundlandRegistrationFee(price)
		note = "NL uses registration fees; this estimates the deed registration portion only."

	default:
		note = "No built-in transfer tax rule for this region. Use 'Transfer Tax Override' if applicable."
	}

	return TransferTaxResult{
		Provincial: prov,
		Municipal:  muni,
		Total:      prov.Add(muni),
		Note:       note,
	}
}
