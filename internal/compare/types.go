// Package compare runs a base scenario against named variants and reports
// the terminal positions side by side.
package compare

import (
	"fmt"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
)

// ComparisonResult is one scenario's key metrics.
type ComparisonResult struct {
	ScenarioName string `json:"scenarioName"`
	Description  string `json:"description,omitempty"`

	BuyerNetWorth       float64  `json:"buyerNetWorth"`
	RenterNetWorth      float64  `json:"renterNetWorth"`
	Delta               float64  `json:"delta"` // buyer minus renter
	BuyerUnrecoverable  float64  `json:"buyerUnrecoverable"`
	RenterUnrecoverable float64  `json:"renterUnrecoverable"`
	CloseCash           float64  `json:"closeCash"`
	MonthlyPayment      float64  `json:"monthlyPayment"`
	WinPct              *float64 `json:"winPct,omitempty"`

	// Versus the base scenario.
	DeltaFromBase    float64 `json:"deltaFromBase"`
	DeltaPctFromBase float64 `json:"deltaPctFromBase"`
}

// newComparisonResult extracts the metrics from a finished run.
func newComparisonResult(name, description string, res *domain.Result) ComparisonResult {
	last := res.FinalRow()
	return ComparisonResult{
		ScenarioName:        name,
		Description:         description,
		BuyerNetWorth:       last.BuyerNetWorth,
		RenterNetWorth:      last.RenterNetWorth,
		Delta:               last.BuyerNetWorth - last.RenterNetWorth,
		BuyerUnrecoverable:  last.BuyerUnrecoverable,
		RenterUnrecoverable: last.RenterUnrecoverable,
		CloseCash:           res.CloseCash,
		MonthlyPayment:      res.MonthlyPayment,
		WinPct:              res.WinPct,
	}
}

// ComparisonSet is the full output of one comparison run.
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations,omitempty"`
	ConfigPath         string             `json:"configPath,omitempty"`
}

// BestAlternative returns the variant with the largest buyer advantage, or
// nil when there are no alternatives.
func (cs *ComparisonSet) BestAlternative() *ComparisonResult {
	var best *ComparisonResult
	for i := range cs.AlternativeResults {
		r := &cs.AlternativeResults[i]
		if best == nil || r.Delta > best.Delta {
			best = r
		}
	}
	return best
}

// buildRecommendations derives the advisory lines from the computed set.
func (cs *ComparisonSet) buildRecommendations() {
	if cs.BaseResult == nil {
		return
	}
	base := cs.BaseResult
	if base.Delta >= 0 {
		cs.Recommendations = append(cs.Recommendations,
			fmt.Sprintf("Base case favours buying by %.0f.", base.Delta))
	} else {
		cs.Recommendations = append(cs.Recommendations,
			fmt.Sprintf("Base case favours renting by %.0f.", -base.Delta))
	}
	if best := cs.BestAlternative(); best != nil && best.DeltaFromBase > 0 {
		cs.Recommendations = append(cs.Recommendations,
			fmt.Sprintf("%s improves the buyer position by %.0f over the base.", best.ScenarioName, best.DeltaFromBase))
	}
	for _, alt := range cs.AlternativeResults {
		if alt.Delta*base.Delta < 0 {
			cs.Recommendations = append(cs.Recommendations,
				fmt.Sprintf("%s flips the outcome; the decision is sensitive to it.", alt.ScenarioName))
		}
	}
}
