package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/logger"
	"github.com/Lumos-Labs-HQ/txsynth/internal/pipeline"
	"github.com/Lumos-Labs-HQ/txsynth/internal/runner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	generateOnly   string
	generateDryRun bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate, validate and save the datasets",
	Long: `
Generate the customer table, run the transaction pipeline over it, validate
both tables and save every table that passes validation.

A dataset that fails validation is not saved; the other dataset is still
generated and saved, and the command exits non-zero.

Examples:
  txsynth generate
  txsynth generate --only transactions
  txsynth generate --seed 7 --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		color.Cyan("📖 Loaded config: %s", cfgPathOrDefault())

		r, err := runner.New(cfg, log)
		if err != nil {
			var cfgErr *config.Error
			if errors.As(err, &cfgErr) {
				color.Red("❌ Invalid configuration:")
				for _, iss := range cfgErr.Issues {
					if iss.Severity == config.SeverityError {
						color.Red("   • %s: %s", iss.Path, iss.Message)
					}
				}
			}
			return err
		}

		ctx := logger.WithContext(cmd.Context(), log)
		summary, err := r.Run(ctx, runner.Options{Only: generateOnly, DryRun: generateDryRun})
		if err != nil {
			var degenerate *pipeline.DegenerateInputError
			if errors.As(err, &degenerate) {
				color.Red("❌ Customer %s has income %.2f, which cannot produce a spend amount", degenerate.CustomerID, degenerate.Income)
			}
			return err
		}

		fmt.Printf("🎲 Seed: %d\n", summary.Seed)
		for _, d := range summary.Datasets {
			switch {
			case !d.Report.OK():
				color.Red("❌ %s: %d rows, %d violation(s), not saved", d.Dataset, d.Rows, len(d.Report.Violations))
				for _, v := range d.Report.Violations {
					color.Red("   • %s", v)
				}
			case d.Saved != nil:
				color.Green("✅ %s: %d rows saved to %s", d.Dataset, d.Rows, d.Saved.Location)
			default:
				color.Yellow("⚠️  %s: %d rows generated (dry run)", d.Dataset, d.Rows)
			}
		}
		for _, u := range summary.Uploaded {
			color.Green("☁️  Uploaded %s → %s/%s", u.File, cfg.Upload.Bucket, u.Object)
		}

		if failed := summary.Failed(); len(failed) > 0 {
			return fmt.Errorf("validation failed for: %s", strings.Join(failed, ", "))
		}
		return nil
	},
}

func cfgPathOrDefault() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigFile
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateOnly, "only", "", "Only save one dataset (customers or transactions)")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "Generate and validate without saving or uploading")
}
