package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/breakeven"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/config"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/engine"
)

var breakevenCmd = &cobra.Command{
	Use:   "breakeven [input-file]",
	Short: "Solve for the input value where buying and renting finish even",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}

		target, _ := cmd.Flags().GetString("target")
		req := breakeven.Request{
			Config:   sf.Config,
			Scenario: sf.Scenario.Params(),
			Target:   breakeven.Target(target),
		}
		if cmd.Flags().Changed("min") {
			v, _ := cmd.Flags().GetFloat64("min")
			req.Constraints.Min = &v
		}
		if cmd.Flags().Changed("max") {
			v, _ := cmd.Flags().GetFloat64("max")
			req.Constraints.Max = &v
		}
		if tol, _ := cmd.Flags().GetFloat64("tolerance"); tol > 0 {
			req.Tolerance = tol
		}

		solver := breakeven.NewDefaultSolver(engine.New(logger))
		res, err := solver.Solve(cmd.Context(), req)
		if err != nil {
			return err
		}

		if !res.Converged {
			fmt.Fprintf(os.Stdout, "No breakeven for %s in the search interval.\n", res.Target)
			fmt.Fprintf(os.Stdout, "  Delta at low bound:  %+.0f\n", res.LowDelta)
			fmt.Fprintf(os.Stdout, "  Delta at high bound: %+.0f\n", res.HighDelta)
			fmt.Fprintf(os.Stdout, "  Closest value:       %.4f\n", res.Value)
			return nil
		}
		fmt.Fprintf(os.Stdout, "Breakeven %s: %.4f\n", res.Target, res.Value)
		fmt.Fprintf(os.Stdout, "  Terminal delta: %+.2f after %d iterations\n", res.Delta, res.Iterations)
		return nil
	},
}

func init() {
	breakevenCmd.Flags().String("target", string(breakeven.TargetAppreciation), "Input to solve for: appreciation, rent_inflation, rent, or rate")
	breakevenCmd.Flags().Float64("min", 0, "Lower search bound (defaults depend on the target)")
	breakevenCmd.Flags().Float64("max", 0, "Upper search bound (defaults depend on the target)")
	breakevenCmd.Flags().Float64("tolerance", 0, "Terminal-delta tolerance in dollars (0 keeps the default)")
}
