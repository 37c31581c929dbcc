package cmd

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/txsynth/internal/runner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	validateDataset string
	validateFile    string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an existing output file against its schema",
	Long: `
Check a previously written CSV or Parquet file against the schema of the
given dataset. Bounds and enums come from the current config file.

Examples:
  txsynth validate --dataset customers --file data/customers.csv
  txsynth validate --dataset transactions --file data/transactions.parquet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		report, err := runner.ValidateFile(cmd.Context(), cfg, validateDataset, validateFile, log)
		if err != nil {
			return err
		}

		if report.OK() {
			color.Green("✅ %s: %d rows, no violations", validateFile, report.Rows)
			return nil
		}

		color.Red("❌ %s: %d violation(s)", validateFile, len(report.Violations))
		for _, v := range report.Violations {
			color.Red("   • %s", v)
		}
		return fmt.Errorf("%s", report.Summary())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateDataset, "dataset", "", "Dataset schema to use (customers or transactions)")
	validateCmd.Flags().StringVar(&validateFile, "file", "", "CSV or Parquet file to validate")
	validateCmd.MarkFlagRequired("dataset")
	validateCmd.MarkFlagRequired("file")
}
