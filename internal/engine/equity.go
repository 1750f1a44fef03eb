package engine

import (
	"fmt"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
)

// EquityAnalysis summarizes the buyer's home equity path: whether the
// mortgage ever exceeded the home value, how deep, and whether it recovered
// by the horizon.
type EquityAnalysis struct {
	EverUnderwater   bool    `json:"ever_underwater"`
	UnderwaterMonths int     `json:"underwater_months"`
	WorstEquity      float64 `json:"worst_equity"`
	WorstMonth       int     `json:"worst_month"`
	Recovered        bool    `json:"recovered"`
	FinalEquity      float64 `json:"final_equity"`
}

// AnalyzeEquity scans the monthly rows for negative-equity stretches.
func AnalyzeEquity(rows []domain.MonthRow) EquityAnalysis {
	var a EquityAnalysis
	if len(rows) == 0 {
		return a
	}
	a.WorstEquity = rows[0].BuyerHomeEquity
	a.WorstMonth = rows[0].Month
	for _, r := range rows {
		eq := r.BuyerHomeEquity
		if eq < 0 {
			a.EverUnderwater = true
			a.UnderwaterMonths++
		}
		if eq < a.WorstEquity {
			a.WorstEquity = eq
			a.WorstMonth = r.Month
		}
	}
	a.FinalEquity = rows[len(rows)-1].BuyerHomeEquity
	a.Recovered = a.EverUnderwater && a.FinalEquity >= 0
	return a
}

// Warning renders a one-line advisory, or "" when the path never went
// underwater.
func (a EquityAnalysis) Warning() string {
	if !a.EverUnderwater {
		return ""
	}
	status := "and had not recovered by the end of the horizon"
	if a.Recovered {
		status = "but recovered by the end of the horizon"
	}
	return fmt.Sprintf(
		"Buyer was underwater for %d month(s); worst equity was $%.0f in month %d, %s.",
		a.UnderwaterMonths, a.WorstEquity, a.WorstMonth, status)
}
