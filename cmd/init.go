package cmd

import (
	"fmt"
	"os"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default txsynth.yaml",
	Long:  `Write a complete default configuration to ./txsynth.yaml (or the path given with --config).`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPathOrDefault()

		if _, err := os.Stat(path); err == nil && !initForce {
			color.Yellow("⚠️  %s already exists (use --force to overwrite)", path)
			return fmt.Errorf("config file already exists: %s", path)
		}

		if err := config.Write(path, config.Default()); err != nil {
			return err
		}

		color.Green("✅ Wrote %s", path)
		color.Cyan("📖 Next: edit it, then run 'txsynth generate'")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
}
