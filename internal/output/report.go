// Package output renders simulation results for humans (styled console
// report) and machines (JSON, CSV).
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
)

// ReportGenerator handles report generation in various formats
type ReportGenerator struct{}

// NewReportGenerator creates a new report generator
func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{}
}

// Generate renders a result in the requested format: "console", "json", or
// "csv".
func (rg *ReportGenerator) Generate(res *domain.Result, warnings []string, format string) ([]byte, error) {
	switch format {
	case "console":
		return []byte(rg.ConsoleReport(res, warnings)), nil
	case "json":
		return rg.JSONReport(res, warnings)
	case "csv":
		return rg.CSVReport(res)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ConsoleReport builds the styled human-readable summary.
func (rg *ReportGenerator) ConsoleReport(res *domain.Result, warnings []string) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Rent vs Buy Simulation"))
	b.WriteString("\n")

	line := func(label string, value string) {
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	last := res.FinalRow()
	months := len(res.Rows)
	line("Horizon", fmt.Sprintf("%d months (%d years)", months, (months+11)/12))
	line("Cash to close", ValueStyle.Render(FormatCurrency(res.CloseCash)))
	line("Monthly payment", ValueStyle.Render(FormatCurrency(res.MonthlyPayment)))
	b.WriteString("\n")

	b.WriteString(SectionStyle.Render("Terminal position"))
	b.WriteString("\n")
	line("Buyer net worth", ValueStyle.Render(FormatCurrency(last.BuyerNetWorth)))
	line("Renter net worth", ValueStyle.Render(FormatCurrency(last.RenterNetWorth)))
	delta := last.BuyerNetWorth - last.RenterNetWorth
	line("Buyer advantage", deltaStyle(delta).Render(FormatCurrency(delta)))
	line("Buyer unrecoverable", FormatCurrency(last.BuyerUnrecoverable))
	line("Renter unrecoverable", FormatCurrency(last.RenterUnrecoverable))
	if last.BuyerLiquidationNW != nil && last.RenterLiquidationNW != nil {
		line("Buyer after-tax cash", FormatCurrency(*last.BuyerLiquidationNW))
		line("Renter after-tax cash", FormatCurrency(*last.RenterLiquidationNW))
	}

	if res.WinPct != nil {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render("Monte Carlo"))
		b.WriteString("\n")
		line("Buyer win rate", deltaStyle(*res.WinPct-50).Render(FormatPercent(*res.WinPct)))
		line("Simulations", strconv.Itoa(res.Diagnostics.MCNumSims))
		if res.Diagnostics.MCSeed != nil {
			line("Seed", strconv.FormatInt(*res.Diagnostics.MCSeed, 10))
		}
		if res.Bands != nil && len(res.Bands.BuyerNWLow) == months && months > 0 {
			i := months - 1
			line("Buyer NW 5-95%", fmt.Sprintf("%s .. %s",
				FormatCurrency(res.Bands.BuyerNWLow[i]), FormatCurrency(res.Bands.BuyerNWHigh[i])))
			line("Renter NW 5-95%", fmt.Sprintf("%s .. %s",
				FormatCurrency(res.Bands.RenterNWLow[i]), FormatCurrency(res.Bands.RenterNWHigh[i])))
		}
	}

	if len(warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render("Warnings"))
		b.WriteString("\n")
		for _, w := range warnings {
			b.WriteString(WarningStyle.Render("! " + w))
			b.WriteString("\n")
		}
	}

	notes := res.Diagnostics.Notes
	for _, n := range res.Diagnostics.UnitNormalizations {
		notes = append(notes,
			fmt.Sprintf("Normalized %s from %g to %g (looked like percent points).", n.Field, n.From, n.To))
	}
	if res.Diagnostics.ForeignBuyerTax > 0 {
		notes = append(notes,
			fmt.Sprintf("Foreign-buyer tax of %s included in closing costs.", FormatCurrency(res.Diagnostics.ForeignBuyerTax)))
	}
	if len(notes) > 0 {
		b.WriteString("\n")
		for _, n := range notes {
			b.WriteString(NoteStyle.Render("- " + n))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// JSONReport emits the full result plus warnings.
func (rg *ReportGenerator) JSONReport(res *domain.Result, warnings []string) ([]byte, error) {
	payload := struct {
		*domain.Result
		Warnings []string `json:"warnings,omitempty"`
	}{res, warnings}
	return json.MarshalIndent(payload, "", "  ")
}

// CSVReport writes one line per month with the core series.
func (rg *ReportGenerator) CSVReport(res *domain.Result) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{
		"Month", "Year", "BuyerNetWorth", "RenterNetWorth",
		"BuyerUnrecoverable", "RenterUnrecoverable", "BuyerHomeEquity",
		"Interest", "PropertyTax", "Maintenance", "Repairs", "CondoFees",
		"Rent", "Moving", "BuyPayment", "RentPayment", "Deficit",
		"BuyerPVNetWorth", "RenterPVNetWorth", "PVDelta",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, r := range res.Rows {
		row := []string{
			strconv.Itoa(r.Month), strconv.Itoa(r.Year),
			f(r.BuyerNetWorth), f(r.RenterNetWorth),
			f(r.BuyerUnrecoverable), f(r.RenterUnrecoverable), f(r.BuyerHomeEquity),
			f(r.Interest), f(r.PropertyTax), f(r.Maintenance), f(r.Repairs), f(r.CondoFees),
			f(r.Rent), f(r.Moving), f(r.BuyPayment), f(r.RentPayment), f(r.Deficit),
			f(r.BuyerPVNetWorth), f(r.RenterPVNetWorth), f(r.PVDelta),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
