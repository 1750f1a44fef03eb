package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/config"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/engine"
)

var heatmapCmd = &cobra.Command{
	Use:   "heatmap [input-file]",
	Short: "Sweep appreciation against rent inflation or renter return",
	Long: "Runs the scenario across a grid of appreciation values (x-axis) and " +
		"either rent inflation or renter return values (y-axis), printing the " +
		"buyer-vs-renter delta surface as CSV. Monte Carlo cells share random " +
		"draws so the surface stays smooth.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}

		xMin, _ := cmd.Flags().GetFloat64("x-min")
		xMax, _ := cmd.Flags().GetFloat64("x-max")
		xSteps, _ := cmd.Flags().GetInt("x-steps")
		yMin, _ := cmd.Flags().GetFloat64("y-min")
		yMax, _ := cmd.Flags().GetFloat64("y-max")
		ySteps, _ := cmd.Flags().GetInt("y-steps")
		yAxis, _ := cmd.Flags().GetString("y-axis")
		sims, _ := cmd.Flags().GetInt("sims")
		surface, _ := cmd.Flags().GetString("surface")

		req := engine.HeatmapRequest{
			Config:          sf.Config,
			Scenario:        sf.Scenario.Params(),
			AppreciationPct: linspace(xMin, xMax, xSteps),
			YValuesPct:      linspace(yMin, yMax, ySteps),
			YAxis:           yAxis,
			NumSims:         sims,
		}
		res, err := engine.New(logger).Heatmap(req)
		if err != nil {
			return err
		}

		var grid [][]float64
		switch surface {
		case "delta":
			grid = res.Delta
		case "pv":
			grid = res.PVDelta
		case "win":
			grid = res.WinPct
		default:
			return fmt.Errorf("unknown surface %q (want delta, pv, or win)", surface)
		}
		return writeGrid(os.Stdout, req.AppreciationPct, req.YValuesPct, yAxis, grid)
	},
}

func init() {
	heatmapCmd.Flags().Float64("x-min", 0, "Lowest appreciation (%/yr)")
	heatmapCmd.Flags().Float64("x-max", 6, "Highest appreciation (%/yr)")
	heatmapCmd.Flags().Int("x-steps", 7, "Appreciation steps")
	heatmapCmd.Flags().Float64("y-min", 0, "Lowest y-axis value (%/yr)")
	heatmapCmd.Flags().Float64("y-max", 6, "Highest y-axis value (%/yr)")
	heatmapCmd.Flags().Int("y-steps", 7, "Y-axis steps")
	heatmapCmd.Flags().String("y-axis", engine.HeatmapYRentInflation, "Y-axis: rent_inf or renter_ret")
	heatmapCmd.Flags().Int("sims", 0, "Per-cell simulation count (0 keeps the configured value)")
	heatmapCmd.Flags().String("surface", "delta", "Surface to print: delta, pv, or win")
}

// linspace returns n evenly spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}

// writeGrid emits a CSV with the y value in the first column and one column
// per appreciation value.
func writeGrid(f *os.File, xs, ys []float64, yAxis string, grid [][]float64) error {
	w := csv.NewWriter(f)
	header := make([]string, 0, len(xs)+1)
	header = append(header, yAxis)
	for _, x := range xs {
		header = append(header, strconv.FormatFloat(x, 'g', -1, 64))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for yi, y := range ys {
		row := make([]string, 0, len(xs)+1)
		row = append(row, strconv.FormatFloat(y, 'g', -1, 64))
		for xi := range xs {
			v := grid[yi][xi]
			if math.IsNaN(v) {
				row = append(row, "")
			} else {
				row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
