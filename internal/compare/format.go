package compare

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing scenarios
func (tf *TableFormatter) Format(set *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("RENT VS BUY SCENARIO COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 92) + "\n")
	sb.WriteString(fmt.Sprintf("Base Scenario: %s\n", set.BaseScenarioName))
	if set.ConfigPath != "" {
		sb.WriteString(fmt.Sprintf("Configuration: %s\n", set.ConfigPath))
	}
	sb.WriteString("\n")

	nameWidth := 22
	numWidth := 16

	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, "Scenario",
		numWidth, "Buyer NW",
		numWidth, "Renter NW",
		numWidth, "Delta",
		numWidth, "vs Base"))
	sb.WriteString(strings.Repeat("-", 92) + "\n")

	if set.BaseResult != nil {
		sb.WriteString(tf.formatRow(set.BaseResult, nameWidth, numWidth, true))
	}
	if len(set.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 92) + "\n")
		for i := range set.AlternativeResults {
			sb.WriteString(tf.formatRow(&set.AlternativeResults[i], nameWidth, numWidth, false))
		}
	}

	if len(set.Recommendations) > 0 {
		sb.WriteString("\n")
		for _, r := range set.Recommendations {
			sb.WriteString("* " + r + "\n")
		}
	}
	return sb.String()
}

func (tf *TableFormatter) formatRow(r *ComparisonResult, nameWidth, numWidth int, isBase bool) string {
	vsBase := "-"
	if !isBase {
		vsBase = fmt.Sprintf("%+.0f", r.DeltaFromBase)
	}
	return fmt.Sprintf("%-*s %*.0f %*.0f %*.0f %*s\n",
		nameWidth, r.ScenarioName,
		numWidth, r.BuyerNetWorth,
		numWidth, r.RenterNetWorth,
		numWidth, r.Delta,
		numWidth, vsBase)
}

// CSVFormatter emits one row per scenario.
type CSVFormatter struct{}

func (cf *CSVFormatter) Format(set *ComparisonSet) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Scenario", "BuyerNetWorth", "RenterNetWorth", "Delta", "DeltaFromBase", "WinPct"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	write := func(r *ComparisonResult) error {
		win := ""
		if r.WinPct != nil {
			win = strconv.FormatFloat(*r.WinPct, 'f', 1, 64)
		}
		return w.Write([]string{
			r.ScenarioName,
			strconv.FormatFloat(r.BuyerNetWorth, 'f', 2, 64),
			strconv.FormatFloat(r.RenterNetWorth, 'f', 2, 64),
			strconv.FormatFloat(r.Delta, 'f', 2, 64),
			strconv.FormatFloat(r.DeltaFromBase, 'f', 2, 64),
			win,
		})
	}
	if set.BaseResult != nil {
		if err := write(set.BaseResult); err != nil {
			return nil, err
		}
	}
	for i := range set.AlternativeResults {
		if err := write(&set.AlternativeResults[i]); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JSONFormatter emits the full comparison set.
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(set *ComparisonSet) ([]byte, error) {
	return json.MarshalIndent(set, "", "  ")
}
