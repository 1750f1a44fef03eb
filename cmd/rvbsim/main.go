package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/config"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/engine"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/output"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/validation"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "rvbsim",
	Short: "Rent vs Buy Simulator CLI",
	Long:  "Monthly rent-vs-buy comparison for the Canadian market: deterministic paths, Monte Carlo bands, and scenario heatmaps",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate [input-file]",
	Short: "Run a scenario file and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		eng := engine.New(logger)
		res, err := eng.Run(sf.Config, sf.Scenario.Params(), nil)
		if err != nil {
			return err
		}

		warnings := validation.Warnings(sf.Config)
		report, err := output.NewReportGenerator().Generate(res, warnings, format)
		if err != nil {
			return err
		}

		if outFile, _ := cmd.Flags().GetString("out"); outFile != "" {
			if err := os.WriteFile(outFile, report, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			logger.Infof("wrote %s report to %s", format, outFile)
			return nil
		}
		fmt.Fprint(os.Stdout, string(report))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [input-file]",
	Short: "Check a scenario file and print advisory warnings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}

		warnings := validation.Warnings(sf.Config)
		if len(warnings) == 0 {
			fmt.Fprintln(os.Stdout, "Configuration OK: no warnings.")
			return nil
		}
		for _, w := range warnings {
			fmt.Fprintln(os.Stdout, "! "+w)
		}
		return nil
	},
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "rvbsim %s (commit %s, built %s)\n", version, commit, date)
			if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
				fmt.Fprintln(os.Stdout, bi.Main.Path)
			}
		},
	}
}

func main() {
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false})

	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	simulateCmd.Flags().String("format", "console", "Output format: console, json, or csv")
	simulateCmd.Flags().String("out", "", "Write the report to a file instead of stdout")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(breakevenCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal(err)
	}
}
