package engine

import (
	"math"
	"strings"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
)

// taxableGainAfterShelter reduces a capital gain by the fraction of the
// cost basis that fits inside registered-account room. Room is approximated
// as initial room plus annual room accrued over the horizon; gains shelter
// pro-rata with the sheltered share of basis. A sensitivity knob, not a
// full TFSA/RRSP engine.
func taxableGainAfterShelter(gain, basis float64, years int, enabled bool, initialRoom, annualRoom float64) float64 {
	if !enabled {
		return gain
	}
	if years < 0 {
		years = 0
	}
	room := math.Max(0, initialRoom) + math.Max(0, annualRoom)*float64(years)
	if room <= 0 {
		return gain
	}
	if basis <= 0 {
		return gain
	}
	sheltered := math.Min(basis, room)
	return gain * (1.0 - sheltered/basis)
}

// cgTaxDue computes capital gains tax under an optional inclusion-policy
// toggle. effRate is the effective tax rate on gains at the baseline 50%
// inclusion; the proposed two-thirds inclusion above the threshold is a 4/3
// multiplier on the excess.
func cgTaxDue(taxableGain, effRate float64, policy domain.CGInclusionPolicy, threshold float64) float64 {
	eff := math.Max(0, effRate)
	if eff <= 0 {
		return 0
	}
	g := math.Max(0, taxableGain)
	switch strings.ToLower(strings.TrimSpace(string(policy))) {
	case "tiered_50_66", "tiered", "proposed_2_3_over_250k", "proposed", "hypothetical":
		t := math.Max(0, threshold)
		below := math.Min(g, t)
		above := math.Max(0, g-t)
		return eff*below + eff*(4.0/3.0)*above
	default:
		return eff * g
	}
}
