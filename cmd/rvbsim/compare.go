package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/compare"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/config"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/engine"
)

var compareCmd = &cobra.Command{
	Use:   "compare [input-file]",
	Short: "Run the scenario against built-in sensitivity variants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := config.NewInputParser().LoadFromFile(args[0])
		if err != nil {
			return err
		}

		baseName, _ := cmd.Flags().GetString("name")
		ce := compare.NewCompareEngine(engine.New(logger))
		set, err := ce.Compare(cmd.Context(), sf.Config, sf.Scenario.Params(), compare.Options{
			BaseScenarioName: baseName,
			ConfigPath:       args[0],
		})
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		var report []byte
		switch format {
		case "table", "":
			report = []byte((&compare.TableFormatter{}).Format(set))
		case "csv":
			report, err = (&compare.CSVFormatter{}).Format(set)
		case "json":
			report, err = (&compare.JSONFormatter{}).Format(set)
		default:
			return fmt.Errorf("unsupported format: %s (expected table, csv, or json)", format)
		}
		if err != nil {
			return err
		}

		if outFile, _ := cmd.Flags().GetString("out"); outFile != "" {
			if err := os.WriteFile(outFile, report, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			logger.Infof("wrote %s comparison to %s", format, outFile)
			return nil
		}
		fmt.Fprint(os.Stdout, string(report))
		return nil
	},
}

func init() {
	compareCmd.Flags().String("name", "", "Label for the base scenario")
	compareCmd.Flags().String("format", "table", "Output format: table, csv, or json")
	compareCmd.Flags().String("out", "", "Write the comparison to a file instead of stdout")
}
